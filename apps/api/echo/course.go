package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/course"
	"github.com/trezcool/ratiba/core/schedule"
)

var errNoGenerationBound = "an end date or a target lecture count is required to generate lectures"

type courseApi struct {
	svc      *course.Service
	schedSvc *schedule.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *course.Service, schedSvc *schedule.Service) {
	api := courseApi{svc: svc, schedSvc: schedSvc}

	cg := g.Group("/courses", jwt)
	cg.POST("", api.create, adminMiddleware())
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update, adminMiddleware())
	cg.DELETE("/:id", api.destroy, adminMiddleware())
	cg.POST("/:id/regenerate", api.regenerate, adminMiddleware())
	cg.GET("/:id/templates", api.queryTemplates)
	cg.GET("/:id/lectures", api.queryLectures)
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// regenerate rebuilds the course's upcoming lectures on demand. Unlike the
// automatic regeneration on template edits (which no-ops), an explicit
// request on an unbounded course is an error.
func (api *courseApi) regenerate(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	crs, err := api.svc.Get(rctx, ctx.Param("id"))
	if err != nil {
		return err
	}
	if !crs.HasGenerationBound() {
		return core.NewFieldError("end_date", errNoGenerationBound)
	}

	if err = api.schedSvc.Regenerate(rctx, crs.ID); err != nil {
		return errors.Wrap(err, "regenerating lectures")
	}
	lects, err := api.schedSvc.QueryLectures(rctx, crs.ID, time.Time{}, time.Time{})
	if err != nil {
		return errors.Wrap(err, "querying lectures")
	}
	return ctx.JSON(http.StatusOK, lects)
}

func (api *courseApi) queryTemplates(ctx echo.Context) error {
	tpls, err := api.schedSvc.QueryTemplates(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying templates")
	}
	return ctx.JSON(http.StatusOK, tpls)
}

func (api *courseApi) queryLectures(ctx echo.Context) error {
	var dr DateRange
	if err := dr.Bind(ctx); err != nil {
		return err
	}
	lects, err := api.schedSvc.QueryLectures(ctx.Request().Context(), ctx.Param("id"), dr.From, dr.To)
	if err != nil {
		return errors.Wrap(err, "querying lectures")
	}
	return ctx.JSON(http.StatusOK, lects)
}
