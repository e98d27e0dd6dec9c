package notification

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

const (
	TypeInfo    = "info"
	TypeWarning = "warning"
	TypeAlert   = "alert"
	TypeFee     = "fee"
)

type Notification struct {
	ID        int       `json:"notification_id" db:"notification_id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Type      string    `json:"type" db:"type"`
	StudentID null.Int  `json:"student_id" db:"student_id"`
	UserID    null.Int  `json:"user_id" db:"user_id"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Recipient is a student reached by a bulk notification.
type Recipient struct {
	StudentID int         `db:"student_id"`
	FullName  string      `db:"full_name"`
	Email     null.String `db:"email"`
}

// NewNotification targets a single student or user.
type NewNotification struct {
	Title     string `json:"title" form:"title" validate:"required,max=200"`
	Message   string `json:"message" form:"message" validate:"required"`
	Type      string `json:"type" form:"type" validate:"omitempty,oneof=info warning alert fee"`
	StudentID int    `json:"student_id" form:"student_id" validate:"required_without=UserID,omitempty,gt=0"`
	UserID    int    `json:"user_id" form:"user_id" validate:"required_without=StudentID,omitempty,gt=0"`
}

func (nn *NewNotification) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Message = core.CleanString(nn.Message)
	nn.Type = core.CleanString(nn.Type, true /* lower */)
	if nn.Type == "" {
		nn.Type = TypeInfo
	}
	return validate.Struct(nn)
}

// BulkNotification targets every student of a grade.
type BulkNotification struct {
	Title   string `json:"title" form:"title" validate:"required,max=200"`
	Message string `json:"message" form:"message" validate:"required"`
	Type    string `json:"type" form:"type" validate:"omitempty,oneof=info warning alert fee"`
	Grade   string `json:"grade" form:"grade" validate:"required"`
}

func (bn *BulkNotification) Validate(validate *validator.Validate) error {
	bn.Title = core.CleanString(bn.Title)
	bn.Message = core.CleanString(bn.Message)
	bn.Grade = core.CleanString(bn.Grade)
	bn.Type = core.CleanString(bn.Type, true /* lower */)
	if bn.Type == "" {
		bn.Type = TypeInfo
	}
	return validate.Struct(bn)
}

type BulkResult struct {
	Grade          string `json:"grade"`
	RecipientCount int    `json:"recipient_count"`
	EmailedCount   int    `json:"emailed_count"`
}

// Filter matches the notifications of a user or of a student.
type Filter struct {
	UserID    int `query:"user_id"`
	StudentID int `query:"student_id"`
}

func (f Filter) IsEmpty() bool { return f.UserID <= 0 && f.StudentID <= 0 }
