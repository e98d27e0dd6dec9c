package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
)

// Snapshot is the dashboard view of the school at a point in time.
type Snapshot struct {
	AsOf              core.Date          `json:"as_of"`
	TotalStudents     int                `json:"total_students"`
	NewAdmissionCount int                `json:"new_admission_count"`
	NewAdmissions     []Admission        `json:"new_admissions"`
	PendingFees       int                `json:"pending_fees"`
	MonthlyAdmissions []MonthlyCount     `json:"monthly_admissions"`
	RecentPayments    []RecentPayment    `json:"recent_payments"`
	AttendanceSummary attendance.Summary `json:"attendance_summary"`
}

type Admission struct {
	StudentID      int       `json:"student_id" db:"student_id"`
	FullName       string    `json:"full_name" db:"full_name"`
	Grade          string    `json:"grade" db:"grade"`
	EnrollmentDate core.Date `json:"enrollment_date" db:"enrollment_date"`
}

type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type RecentPayment struct {
	PaymentID     int             `json:"payment_id" db:"payment_id"`
	StudentID     int             `json:"student_id" db:"student_id"`
	FullName      string          `json:"full_name" db:"full_name"`
	AmountPaid    decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	PaymentDate   core.Date       `json:"payment_date" db:"payment_date"`
}

// MonthlyHistogram spreads per-month counts over the 12 months of a year, in calendar order.
// Months missing from counts get a count of 0.
func MonthlyHistogram(counts map[time.Month]int) []MonthlyCount {
	hist := make([]MonthlyCount, 0, 12)
	for m := time.January; m <= time.December; m++ {
		hist = append(hist, MonthlyCount{Month: m.String(), Count: counts[m]})
	}
	return hist
}
