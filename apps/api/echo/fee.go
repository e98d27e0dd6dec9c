package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/fee"
	"github.com/trezcool/shule/core/report"
)

type feeApi struct {
	svc       fee.ServiceInterface
	reportSvc report.ServiceInterface
	validate  *validator.Validate
}

func registerFeeAPI(
	e *echo.Echo,
	jwt echo.MiddlewareFunc,
	svc fee.ServiceInterface,
	reportSvc report.ServiceInterface,
	validate *validator.Validate,
) {
	api := feeApi{
		svc:       svc,
		reportSvc: reportSvc,
		validate:  validate,
	}

	e.POST("/record_payment", api.recordPayment, jwt)
	e.GET("/fee_dues/:student_id", api.dues, jwt)
	e.GET("/fetch_payment", api.history, jwt)
	e.GET("/fee_collection", api.collection, jwt)
}

type (
	RecordPaymentRequest struct {
		StudentID     int         `json:"student_id" form:"student_id" validate:"required,gt=0"`
		PaymentAmount json.Number `json:"payment_amount" form:"payment_amount" validate:"required,money"`
		PaymentMethod string      `json:"payment_method" form:"payment_method" validate:"required"`
		PaymentDate   string      `json:"payment_date" form:"payment_date" validate:"omitempty,isodate"`
		Remarks       string      `json:"remarks" form:"remarks"`
	}

	DateRangeRequest struct {
		StartDate string `json:"start_date" query:"start_date" validate:"required,isodate"`
		EndDate   string `json:"end_date" query:"end_date" validate:"required,isodate"`
	}
)

// Validate checks the request and turns it into a fee.NewPayment.
func (rp *RecordPaymentRequest) Validate(validate *validator.Validate) (fee.NewPayment, error) {
	rp.PaymentMethod = core.CleanString(rp.PaymentMethod)
	rp.PaymentDate = core.CleanString(rp.PaymentDate)
	rp.Remarks = core.CleanString(rp.Remarks)
	if err := validate.Struct(rp); err != nil {
		return fee.NewPayment{}, err
	}

	amount, err := decimal.NewFromString(rp.PaymentAmount.String())
	if err != nil {
		return fee.NewPayment{}, core.NewFieldError("payment_amount", "must be a valid amount")
	}
	np := fee.NewPayment{
		StudentID:     rp.StudentID,
		Amount:        amount,
		PaymentMethod: rp.PaymentMethod,
		Remarks:       null.NewString(rp.Remarks, rp.Remarks != ""),
	}
	if rp.PaymentDate != "" {
		np.PaymentDate, _ = core.ParseDate(rp.PaymentDate)
	}
	return np, nil
}

func (dr *DateRangeRequest) Validate(validate *validator.Validate) (start, end core.Date, err error) {
	dr.StartDate = core.CleanString(dr.StartDate)
	dr.EndDate = core.CleanString(dr.EndDate)
	if err = validate.Struct(dr); err != nil {
		return
	}
	start, _ = core.ParseDate(dr.StartDate)
	end, _ = core.ParseDate(dr.EndDate)
	return
}

func (api *feeApi) recordPayment(ctx echo.Context) error {
	var data RecordPaymentRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	np, err := data.Validate(api.validate)
	if err != nil {
		return err
	}

	rcpt, err := api.svc.RecordPayment(ctx.Request().Context(), np)
	if err != nil {
		return errors.Wrap(err, "recording payment")
	}
	return respond(ctx, http.StatusCreated, rcpt, "Payment recorded successfully")
}

func (api *feeApi) dues(ctx echo.Context) error {
	studentID, err := intParam(ctx.Param("student_id"), "student_id")
	if err != nil {
		return err
	}

	due, err := api.svc.GetDue(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "getting fee dues")
	}
	return respond(ctx, http.StatusOK, due)
}

func (api *feeApi) history(ctx echo.Context) error {
	studentID, err := intParam(ctx.QueryParam("student_id"), "student_id")
	if err != nil {
		return err
	}

	stmt, err := api.svc.GetStatement(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "getting fee statement")
	}
	return respond(ctx, http.StatusOK, stmt)
}

func (api *feeApi) collection(ctx echo.Context) error {
	var data DateRangeRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	start, end, err := data.Validate(api.validate)
	if err != nil {
		return err
	}

	rpt, err := api.reportSvc.FeeCollection(ctx.Request().Context(), start, end)
	if err != nil {
		return errors.Wrap(err, "building fee collection report")
	}
	return respond(ctx, http.StatusOK, rpt)
}
