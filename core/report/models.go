package report

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

type CollectedPayment struct {
	PaymentID     int             `json:"payment_id" db:"payment_id"`
	StudentID     int             `json:"student_id" db:"student_id"`
	FullName      string          `json:"full_name" db:"full_name"`
	AmountPaid    decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	PaymentDate   core.Date       `json:"payment_date" db:"payment_date"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	Remarks       null.String     `json:"remarks" db:"remarks"`
}

type CollectionReport struct {
	StartDate         core.Date                  `json:"start_date"`
	EndDate           core.Date                  `json:"end_date"`
	TotalCollected    decimal.Decimal            `json:"total_collected"`
	TotalTransactions int                        `json:"total_transactions"`
	PaymentMethods    map[string]decimal.Decimal `json:"payment_methods"`
	Payments          []CollectedPayment         `json:"payments"`
}

// BuildCollectionReport totals payments overall and per payment method.
// No payments yield zero totals and an empty breakdown.
func BuildCollectionReport(start, end core.Date, payments []CollectedPayment) CollectionReport {
	rpt := CollectionReport{
		StartDate:      start,
		EndDate:        end,
		TotalCollected: decimal.Zero,
		PaymentMethods: make(map[string]decimal.Decimal),
		Payments:       payments,
	}
	if rpt.Payments == nil {
		rpt.Payments = []CollectedPayment{}
	}

	for _, p := range payments {
		rpt.TotalCollected = rpt.TotalCollected.Add(p.AmountPaid)
		rpt.PaymentMethods[p.PaymentMethod] = rpt.PaymentMethods[p.PaymentMethod].Add(p.AmountPaid)
	}
	rpt.TotalTransactions = len(payments)
	return rpt
}

type SubjectAverage struct {
	SubjectID int             `json:"subject_id" db:"subject_id"`
	Subject   string          `json:"subject" db:"subject"`
	Average   decimal.Decimal `json:"average" db:"average"`
}

// StudentAggregate sums the results of one student for one exam.
type StudentAggregate struct {
	StudentID     int             `db:"student_id"`
	FullName      string          `db:"full_name"`
	MarksObtained decimal.Decimal `db:"marks_obtained"`
	TotalMarks    decimal.Decimal `db:"total_marks"`
}

// Percentage is Σmarks_obtained/Σtotal_marks*100, unrounded. 0 when no marks are available.
func (sa StudentAggregate) Percentage() decimal.Decimal {
	return core.Ratio(sa.MarksObtained, sa.TotalMarks)
}

type Performer struct {
	StudentID  int             `json:"student_id"`
	FullName   string          `json:"full_name"`
	Percentage decimal.Decimal `json:"percentage"`
}

type PerformanceReport struct {
	Grade             string           `json:"grade"`
	ExamID            int              `json:"exam_id"`
	ExamName          string           `json:"exam_name"`
	SubjectAverages   []SubjectAverage `json:"subject_averages"`
	TopPerformers     []Performer      `json:"top_performers"`
	GradeDistribution map[string]int   `json:"grade_distribution"`
	OverallAverage    decimal.Decimal  `json:"overall_average"`
	TotalStudents     int              `json:"total_students"`
	PassedStudents    int              `json:"passed_students"`
	PassPercentage    decimal.Decimal  `json:"pass_percentage"`
}

// TopPerformers ranks students by aggregate percentage, highest first, and keeps the first n.
// Students with equal percentages keep their relative order in aggs.
func TopPerformers(aggs []StudentAggregate, n int) []Performer {
	ranked := make([]StudentAggregate, len(aggs))
	copy(ranked, aggs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Percentage().GreaterThan(ranked[j].Percentage())
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}
	top := make([]Performer, 0, len(ranked))
	for _, sa := range ranked {
		top = append(top, Performer{
			StudentID:  sa.StudentID,
			FullName:   sa.FullName,
			Percentage: sa.Percentage().Round(2),
		})
	}
	return top
}

// PassRate counts the students whose aggregate percentage reaches passMark and returns that count
// with its share of all students as a percentage rounded to 2 decimals. No students yield 0.
func PassRate(aggs []StudentAggregate, passMark decimal.Decimal) (passed int, pct decimal.Decimal) {
	for _, sa := range aggs {
		if sa.Percentage().GreaterThanOrEqual(passMark) {
			passed++
		}
	}
	return passed, core.Percentage(passed, len(aggs))
}
