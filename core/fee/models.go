package fee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

// Status is the derived fee status of a student.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// DeriveStatus returns StatusCompleted iff paid covers the total fee.
func DeriveStatus(paid, totalFee decimal.Decimal) Status {
	if paid.GreaterThanOrEqual(totalFee) {
		return StatusCompleted
	}
	return StatusPending
}

// Account is the ledger view of a student: what is owed and the last derived status.
type Account struct {
	StudentID int             `json:"student_id" db:"student_id"`
	FullName  string          `json:"full_name" db:"full_name"`
	Grade     string          `json:"grade" db:"grade"`
	TotalFee  decimal.Decimal `json:"total_fee" db:"total_fee"`
	FeeStatus Status          `json:"fee_status" db:"fee_status"`
}

// Payment is one append-only ledger entry.
type Payment struct {
	ID            int             `json:"payment_id" db:"payment_id"`
	ReceiptNo     uuid.UUID       `json:"receipt_no" db:"receipt_no"`
	StudentID     int             `json:"student_id" db:"student_id"`
	AmountPaid    decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	PaymentDate   core.Date       `json:"payment_date" db:"payment_date"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	Remarks       null.String     `json:"remarks" db:"remarks"`
	FeeStatus     Status          `json:"fee_status" db:"fee_status"` // snapshot at insertion time
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// NewPayment contains information needed to record a Payment.
type NewPayment struct {
	StudentID     int
	Amount        decimal.Decimal
	PaymentMethod string
	PaymentDate   core.Date // defaults to today
	Remarks       null.String
}

func (np *NewPayment) Validate() error {
	np.PaymentMethod = core.CleanString(np.PaymentMethod, true /* lower */)

	var flds []core.FieldError
	if np.StudentID <= 0 {
		flds = append(flds, core.FieldError{Field: "student_id", Error: "must reference an existing student"})
	}
	switch {
	case !np.Amount.IsPositive():
		flds = append(flds, core.FieldError{Field: "payment_amount", Error: "must be greater than 0"})
	case !core.IsMoney(np.Amount):
		// the ledger checks exactly what gets stored
		flds = append(flds, core.FieldError{Field: "payment_amount", Error: "must have at most 2 decimal places"})
	}
	if np.PaymentMethod == "" {
		flds = append(flds, core.FieldError{Field: "payment_method", Error: "this field is required"})
	}
	if flds != nil {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

type Receipt struct {
	ReceiptNo   uuid.UUID       `json:"receipt_no"`
	PaymentID   int             `json:"payment_id"`
	StudentID   int             `json:"student_id"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	NewBalance  decimal.Decimal `json:"new_balance"`
	FeeStatus   Status          `json:"fee_status"`
	PaymentDate core.Date       `json:"payment_date"`
}

type DueSummary struct {
	StudentID  int             `json:"student_id"`
	FullName   string          `json:"full_name"`
	Grade      string          `json:"grade"`
	TotalFee   decimal.Decimal `json:"total_fee"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	DueAmount  decimal.Decimal `json:"due_amount"`
	FeeStatus  Status          `json:"fee_status"`
}

// Statement is a student's due summary along with the payments behind it, newest first.
type Statement struct {
	DueSummary
	Payments []Payment `json:"payments"`
}
