package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
)

type scheduleApi struct {
	svc *schedule.Service
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *schedule.Service) {
	api := scheduleApi{svc: svc}

	tg := g.Group("/templates", jwt)
	tg.POST("", api.createTemplate, adminMiddleware())
	tg.GET("/:id", api.retrieveTemplate)
	tg.PUT("/:id", api.updateTemplate, adminMiddleware())
	tg.DELETE("/:id", api.destroyTemplate, adminMiddleware())

	lg := g.Group("/lectures", jwt)
	lg.GET("", api.queryLecturesByDay)
	lg.GET("/:id", api.retrieveLecture)
	lg.PUT("/:id", api.updateLecture, adminMiddleware())
	lg.DELETE("/:id", api.destroyLecture, adminMiddleware())
	lg.PUT("/:id/status", api.updateLectureStatus, adminMiddleware())
	lg.GET("/:id/can-mark", api.canMark)
	lg.POST("/:id/attendance-taken", api.markAttendanceTaken)
}

// Templates

func (api *scheduleApi) createTemplate(ctx echo.Context) error {
	var data schedule.NewTemplate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTemplate")
	}
	// service validates and reruns generation for the course

	tpl, err := api.svc.CreateTemplate(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, tpl)
}

func (api *scheduleApi) retrieveTemplate(ctx echo.Context) error {
	tpl, err := api.svc.GetTemplate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tpl)
}

func (api *scheduleApi) updateTemplate(ctx echo.Context) error {
	var data schedule.UpdateTemplate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTemplate")
	}

	tpl, err := api.svc.UpdateTemplate(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tpl)
}

func (api *scheduleApi) destroyTemplate(ctx echo.Context) error {
	if err := api.svc.DeleteTemplate(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Lectures

func (api *scheduleApi) queryLecturesByDay(ctx echo.Context) error {
	day, err := dateParam(ctx, "date")
	if err != nil {
		return err
	}
	if day.IsZero() {
		return core.NewFieldError("date", "this query param is required")
	}

	lects, err := api.svc.QueryLecturesByDay(ctx.Request().Context(), day)
	if err != nil {
		return errors.Wrap(err, "querying lectures")
	}
	return ctx.JSON(http.StatusOK, lects)
}

func (api *scheduleApi) retrieveLecture(ctx echo.Context) error {
	lec, err := api.svc.GetLecture(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lec)
}

func (api *scheduleApi) updateLecture(ctx echo.Context) error {
	var data schedule.UpdateLecture
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLecture")
	}

	lec, err := api.svc.UpdateLecture(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lec)
}

func (api *scheduleApi) destroyLecture(ctx echo.Context) error {
	if err := api.svc.DeleteLecture(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type lectureStatusRequest struct {
	Status string `json:"status"`
}

func (api *scheduleApi) updateLectureStatus(ctx echo.Context) error {
	var data lectureStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to lectureStatusRequest")
	}

	lec, err := api.svc.UpdateLectureStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lec)
}

func (api *scheduleApi) canMark(ctx echo.Context) error {
	ok, err := api.svc.CanMarkNow(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"can_mark": ok})
}

// markAttendanceTaken flags the lecture's attendance as recorded. Admin
// tokens bypass the marking window.
func (api *scheduleApi) markAttendanceTaken(ctx echo.Context) error {
	lec, err := api.svc.MarkAttendanceTaken(ctx.Request().Context(), ctx.Param("id"), contextIsAdmin(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lec)
}
