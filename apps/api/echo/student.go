package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/student"
)

type studentApi struct {
	svc      student.ServiceInterface
	validate *validator.Validate
}

func registerStudentAPI(e *echo.Echo, jwt echo.MiddlewareFunc, svc student.ServiceInterface, validate *validator.Validate) {
	api := studentApi{
		svc:      svc,
		validate: validate,
	}

	e.POST("/add_student", api.create, jwt)
	e.POST("/update_student", api.update, jwt)
	e.GET("/student/:id", api.retrieve, jwt)
	e.GET("/students", api.query, jwt)
	e.GET("/search_student", api.search, jwt)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := bind(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return respond(ctx, http.StatusCreated, s, "Student added successfully")
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := bind(ctx, &data); err != nil {
		return err
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return respond(ctx, http.StatusOK, s, "Student updated successfully")
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx.Param("id"), "student_id")
	if err != nil {
		return err
	}

	s, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return respond(ctx, http.StatusOK, s)
}

func (api *studentApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)
	filter := student.QueryFilter{
		Search:    ctx.QueryParam("search"),
		Grade:     ctx.QueryParam("grade"),
		Orderings: ordering.Orderings,
	}

	students, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return respond(ctx, http.StatusOK, students)
}

func (api *studentApi) search(ctx echo.Context) error {
	students, err := api.svc.Search(ctx.Request().Context(), ctx.QueryParam("query"))
	if err != nil {
		return errors.Wrap(err, "searching students")
	}
	return respond(ctx, http.StatusOK, students)
}
