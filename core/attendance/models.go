package attendance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/shule/core"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

var Statuses = []Status{StatusPresent, StatusAbsent, StatusLate}

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	}
	return false
}

// Record is the attendance mark of a student for one day. A later mark for the same day overwrites it.
type Record struct {
	ID        int       `json:"attendance_id" db:"attendance_id"`
	StudentID int       `json:"student_id" db:"student_id"`
	Date      core.Date `json:"date" db:"date"`
	Status    Status    `json:"status" db:"status"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type NewRecord struct {
	StudentID int
	Date      core.Date // defaults to today
	Status    Status
}

func (nr *NewRecord) Validate() error {
	var flds []core.FieldError
	if nr.StudentID <= 0 {
		flds = append(flds, core.FieldError{Field: "student_id", Error: "must reference an existing student"})
	}
	if !nr.Status.Valid() {
		flds = append(flds, core.FieldError{Field: "status", Error: "must be one of present, absent or late"})
	}
	if flds != nil {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// Counts maps an attendance status to the number of matching records.
type Counts map[Status]int

func (c Counts) Total() int {
	var total int
	for _, n := range c {
		total += n
	}
	return total
}

// Summary is the percentage breakdown of attendance records.
type Summary struct {
	Date              core.Date       `json:"date"`
	TotalRecords      int             `json:"total_records"`
	Present           int             `json:"present"`
	Absent            int             `json:"absent"`
	Late              int             `json:"late"`
	PresentPercentage decimal.Decimal `json:"present_percentage"`
	AbsentPercentage  decimal.Decimal `json:"absent_percentage"`
	LatePercentage    decimal.Decimal `json:"late_percentage"`
}

// Summarize computes count/total*100 per status, rounded to 2 decimals. All percentages are 0 when there are no records.
func Summarize(counts Counts) Summary {
	total := counts.Total()
	return Summary{
		TotalRecords:      total,
		Present:           counts[StatusPresent],
		Absent:            counts[StatusAbsent],
		Late:              counts[StatusLate],
		PresentPercentage: core.Percentage(counts[StatusPresent], total),
		AbsentPercentage:  core.Percentage(counts[StatusAbsent], total),
		LatePercentage:    core.Percentage(counts[StatusLate], total),
	}
}

type StudentSummary struct {
	StudentID int       `json:"student_id"`
	StartDate core.Date `json:"start_date"`
	EndDate   core.Date `json:"end_date"`
	Summary
}
