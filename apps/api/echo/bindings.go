package echoapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// successResponse is the success envelope.
type successResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

func respond(ctx echo.Context, code int, data interface{}, message ...string) error {
	resp := successResponse{Status: "success", Data: data}
	if len(message) > 0 {
		resp.Message = message[0]
	}
	return ctx.JSON(code, resp)
}

// bind fills data from the request and maps binding failures to a ValidationError.
func bind(ctx echo.Context, data interface{}) error {
	if err := ctx.Bind(data); err != nil {
		if herr, ok := err.(*echo.HTTPError); ok && herr.Code == http.StatusBadRequest {
			return core.NewValidationError(errors.New("malformed request"))
		}
		return errors.Wrap(err, "binding request")
	}
	return nil
}

// intParam parses a required positive integer identifier.
func intParam(value, field string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, core.NewFieldError(field, "this field is required")
	}
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, core.NewFieldError(field, "must be a positive integer")
	}
	return id, nil
}

// dateParam parses an optional YYYY-MM-DD date. def is returned when value is empty.
func dateParam(value, field string, def core.Date) (core.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	d, err := core.ParseDate(value)
	if err != nil {
		return core.Date{}, core.NewFieldError(field, "must be a date formatted as YYYY-MM-DD")
	}
	return d, nil
}
