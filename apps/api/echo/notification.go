package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/notification"
)

type notificationApi struct {
	svc      notification.ServiceInterface
	validate *validator.Validate
}

func registerNotificationAPI(g *echo.Group, svc notification.ServiceInterface, validate *validator.Validate) {
	api := notificationApi{
		svc:      svc,
		validate: validate,
	}

	ng := g.Group("/notifications")
	ng.POST("", api.send)
	ng.POST("/bulk", api.sendBulk)
	ng.GET("", api.query)
}

func (api *notificationApi) send(ctx echo.Context) error {
	var data notification.NewNotification
	if err := bind(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	n, err := api.svc.Send(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "sending notification")
	}
	return respond(ctx, http.StatusCreated, n, "Notification sent successfully")
}

func (api *notificationApi) sendBulk(ctx echo.Context) error {
	var data notification.BulkNotification
	if err := bind(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.SendBulk(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "sending bulk notification")
	}
	return respond(ctx, http.StatusOK, res, "Bulk notification sent successfully")
}

func (api *notificationApi) query(ctx echo.Context) error {
	var filter notification.Filter
	if err := bind(ctx, &filter); err != nil {
		return err
	}

	notifs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	return respond(ctx, http.StatusOK, notifs)
}
