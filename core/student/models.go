package student

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
)

// OrderingFields are the fields students can be ordered by.
var OrderingFields = map[string]string{
	"student_id":      "student_id",
	"full_name":       "full_name",
	"grade":           "grade",
	"enrollment_date": "enrollment_date",
}

type Student struct {
	ID             int             `json:"student_id" db:"student_id"`
	FullName       string          `json:"full_name" db:"full_name"`
	Grade          string          `json:"grade" db:"grade"`
	DateOfBirth    core.Date       `json:"date_of_birth" db:"date_of_birth"`
	Gender         null.String     `json:"gender" db:"gender"`
	Email          null.String     `json:"email" db:"email"`
	Phone          null.String     `json:"phone" db:"phone"`
	Address        null.String     `json:"address" db:"address"`
	Status         string          `json:"status" db:"status"`
	TotalFee       decimal.Decimal `json:"total_fee" db:"total_fee"`
	FeeStatus      fee.Status      `json:"fee_status" db:"fee_status"`
	EnrollmentDate core.Date       `json:"enrollment_date" db:"enrollment_date"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// NewStudent contains information needed to enroll a Student.
// fee_status is not accepted: it is derived from total_fee by the ledger.
type NewStudent struct {
	FullName       string      `json:"full_name" form:"full_name" validate:"required"`
	Grade          string      `json:"grade" form:"grade" validate:"required"`
	DateOfBirth    string      `json:"date_of_birth" form:"date_of_birth" validate:"omitempty,isodate"`
	Gender         string      `json:"gender" form:"gender" validate:"omitempty,max=10"`
	Email          string      `json:"email" form:"email" validate:"omitempty,email"`
	Phone          string      `json:"phone" form:"phone" validate:"omitempty,max=20"`
	Address        string      `json:"address" form:"address"`
	Status         string      `json:"status" form:"status" validate:"omitempty,oneof=active inactive graduated"`
	TotalFee       json.Number `json:"total_fee" form:"total_fee" validate:"omitempty,numeric,money"`
	EnrollmentDate string      `json:"enrollment_date" form:"enrollment_date" validate:"omitempty,isodate"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.FullName = core.CleanString(ns.FullName)
	ns.Grade = core.CleanString(ns.Grade)
	ns.Gender = core.CleanString(ns.Gender, true /* lower */)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Address = core.CleanString(ns.Address)
	ns.Status = core.CleanString(ns.Status, true /* lower */)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	if ns.TotalFee != "" {
		if amount, err := decimal.NewFromString(ns.TotalFee.String()); err != nil || amount.IsNegative() {
			return core.NewFieldError("total_fee", "must be a non-negative amount")
		}
	}
	return nil
}

// UpdateStudent defines what profile information may be changed on an existing Student.
// total_fee and fee_status are owned by the ledger and cannot be updated here.
type UpdateStudent struct {
	ID          int    `json:"student_id" form:"student_id" validate:"required,gt=0"`
	FullName    string `json:"full_name" form:"full_name"`
	Grade       string `json:"grade" form:"grade"`
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth" validate:"omitempty,isodate"`
	Gender      string `json:"gender" form:"gender" validate:"omitempty,max=10"`
	Email       string `json:"email" form:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" form:"phone" validate:"omitempty,max=20"`
	Address     string `json:"address" form:"address"`
	Status      string `json:"status" form:"status" validate:"omitempty,oneof=active inactive graduated"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.FullName = core.CleanString(us.FullName)
	us.Grade = core.CleanString(us.Grade)
	us.Gender = core.CleanString(us.Gender, true /* lower */)
	us.Email = core.CleanString(us.Email, true /* lower */)
	us.Phone = core.CleanString(us.Phone)
	us.Address = core.CleanString(us.Address)
	us.Status = core.CleanString(us.Status, true /* lower */)

	if err := validate.Struct(us); err != nil {
		return err
	}
	if us.IsEmpty() {
		return core.NewValidationError(errNoUpdateFields)
	}
	return nil
}

func (us *UpdateStudent) IsEmpty() bool {
	return us.FullName == "" && us.Grade == "" && us.DateOfBirth == "" && us.Gender == "" &&
		us.Email == "" && us.Phone == "" && us.Address == "" && us.Status == ""
}

// apply merges the provided fields into s.
func (us *UpdateStudent) apply(s *Student) {
	if us.FullName != "" {
		s.FullName = us.FullName
	}
	if us.Grade != "" {
		s.Grade = us.Grade
	}
	if us.DateOfBirth != "" {
		s.DateOfBirth, _ = core.ParseDate(us.DateOfBirth)
	}
	if us.Gender != "" {
		s.Gender = null.StringFrom(us.Gender)
	}
	if us.Email != "" {
		s.Email = null.StringFrom(us.Email)
	}
	if us.Phone != "" {
		s.Phone = null.StringFrom(us.Phone)
	}
	if us.Address != "" {
		s.Address = null.StringFrom(us.Address)
	}
	if us.Status != "" {
		s.Status = us.Status
	}
}

type QueryFilter struct {
	Search    string
	Grade     string
	Orderings []core.DBOrdering
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Grade = core.CleanString(qf.Grade)

	ords := qf.Orderings[:0]
	for _, ord := range qf.Orderings {
		if col, ok := OrderingFields[ord.Field]; ok {
			ord.Field = col
			ords = append(ords, ord)
		}
	}
	qf.Orderings = ords
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}
