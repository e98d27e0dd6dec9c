package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/attendance"
)

// studentSummaryDays is the default period of a student's attendance summary.
const studentSummaryDays = 30

type attendanceApi struct {
	svc      attendance.ServiceInterface
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, svc attendance.ServiceInterface, validate *validator.Validate) {
	api := attendanceApi{
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("/attendance")
	ag.POST("", api.mark)
	ag.GET("/summary", api.summary)
	ag.GET("/student/:id", api.studentSummary)
}

type MarkAttendanceRequest struct {
	StudentID int    `json:"student_id" form:"student_id" validate:"required,gt=0"`
	Date      string `json:"date" form:"date" validate:"omitempty,isodate"`
	Status    string `json:"status" form:"status" validate:"required,oneof=present absent late"`
}

func (mr *MarkAttendanceRequest) Validate(validate *validator.Validate) (attendance.NewRecord, error) {
	mr.Date = core.CleanString(mr.Date)
	mr.Status = core.CleanString(mr.Status, true /* lower */)
	if err := validate.Struct(mr); err != nil {
		return attendance.NewRecord{}, err
	}

	nr := attendance.NewRecord{StudentID: mr.StudentID, Status: attendance.Status(mr.Status)}
	if mr.Date != "" {
		nr.Date, _ = core.ParseDate(mr.Date)
	}
	return nr, nil
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data MarkAttendanceRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	nr, err := data.Validate(api.validate)
	if err != nil {
		return err
	}

	rec, err := api.svc.Mark(ctx.Request().Context(), nr)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return respond(ctx, http.StatusOK, rec, "Attendance marked successfully")
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	date, err := dateParam(ctx.QueryParam("date"), "date", core.Today())
	if err != nil {
		return err
	}

	summary, err := api.svc.DailySummary(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	return respond(ctx, http.StatusOK, summary)
}

// studentSummary covers the last 30 days up to today unless start_date or end_date say otherwise.
func (api *attendanceApi) studentSummary(ctx echo.Context) error {
	studentID, err := intParam(ctx.Param("id"), "student_id")
	if err != nil {
		return err
	}
	end, err := dateParam(ctx.QueryParam("end_date"), "end_date", core.Today())
	if err != nil {
		return err
	}
	start, err := dateParam(ctx.QueryParam("start_date"), "start_date", end.AddDays(-studentSummaryDays))
	if err != nil {
		return err
	}

	summary, err := api.svc.StudentSummary(ctx.Request().Context(), studentID, start, end)
	if err != nil {
		return errors.Wrap(err, "summarizing student attendance")
	}
	return respond(ctx, http.StatusOK, summary)
}
