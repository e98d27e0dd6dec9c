package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/report"
	"github.com/trezcool/shule/core/stats"
)

type statsApi struct {
	svc       stats.ServiceInterface
	reportSvc report.ServiceInterface
}

func registerStatsAPI(
	e *echo.Echo,
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc stats.ServiceInterface,
	reportSvc report.ServiceInterface,
) {
	api := statsApi{
		svc:       svc,
		reportSvc: reportSvc,
	}

	e.GET("/student_statistics", api.dashboard, jwt)
	g.GET("/dashboard/statistics", api.dashboard)
	g.GET("/reports/class-performance/:grade", api.classPerformance)
}

func (api *statsApi) dashboard(ctx echo.Context) error {
	snap, err := api.svc.Dashboard(ctx.Request().Context(), core.NowFunc())
	if err != nil {
		return errors.Wrap(err, "computing dashboard statistics")
	}
	return respond(ctx, http.StatusOK, snap)
}

func (api *statsApi) classPerformance(ctx echo.Context) error {
	examID, err := intParam(ctx.QueryParam("exam_id"), "exam_id")
	if err != nil {
		return err
	}

	rpt, err := api.reportSvc.ClassPerformance(ctx.Request().Context(), ctx.Param("grade"), examID)
	if err != nil {
		return errors.Wrap(err, "building class performance report")
	}
	return respond(ctx, http.StatusOK, rpt)
}
