package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/attendance"
	notifsvc "github.com/trezcool/ratiba/services/notifier"
)

type attendanceApi struct {
	svc *attendance.Service
	hub *notifsvc.Hub
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service, hub *notifsvc.Hub) {
	api := attendanceApi{svc: svc, hub: hub}

	ag := g.Group("/attendance")
	if hub != nil {
		ag.GET("/live", hub.Handler)
	}

	// authed endpoints
	aag := ag.Group("", jwt)
	aag.POST("/check-in", api.checkIn)
	aag.POST("/check-out", api.checkOut)
	aag.GET("/records", api.queryRecords)
	aag.GET("/records/:id", api.retrieveRecord)
	aag.POST("/records/:id/rate", api.rate, adminMiddleware())
	aag.POST("/records/absent", api.markAbsent, adminMiddleware())

	sg := g.Group("/shifts", jwt)
	sg.POST("", api.createShift, adminMiddleware())
	sg.GET("/:id", api.retrieveShift)
	sg.PUT("/:id", api.updateShift, adminMiddleware())
	sg.DELETE("/:id", api.destroyShift, adminMiddleware())
	g.GET("/instructors/:id/shifts", api.queryInstructorShifts, jwt)

	dg := g.Group("/devices", jwt)
	dg.POST("", api.registerDevice, adminMiddleware())
	dg.GET("", api.queryDevices)

	jg := g.Group("/jobs", jwt, adminMiddleware())
	jg.POST("/generate-ahead", api.generateAhead)
	jg.POST("/mark-absent", api.markAbsentSweep)
	jg.GET("/:name/logs", api.queryJobLogs)
}

// Check-in / check-out

func (api *attendanceApi) checkIn(ctx echo.Context) error {
	var data attendance.CheckInRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckInRequest")
	}

	rec, err := api.svc.CheckIn(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) checkOut(ctx echo.Context) error {
	var data attendance.CheckOutRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckOutRequest")
	}

	rec, err := api.svc.CheckOut(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

// Records

func (api *attendanceApi) queryRecords(ctx echo.Context) error {
	date, err := dateParam(ctx, "date")
	if err != nil {
		return err
	}
	if date.IsZero() {
		return core.NewFieldError("date", "this query param is required")
	}

	recs, err := api.svc.QueryRecordsByDate(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "querying records")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) retrieveRecord(ctx echo.Context) error {
	rec, err := api.svc.GetRecord(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) rate(ctx echo.Context) error {
	var data attendance.RateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RateRequest")
	}

	rec, err := api.svc.Rate(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

type markAbsentRequest struct {
	InstructorID string `json:"instructor_id"`
	Date         string `json:"date"`
}

func (api *attendanceApi) markAbsent(ctx echo.Context) error {
	var data markAbsentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to markAbsentRequest")
	}
	date, err := parseDate(data.Date, "date")
	if err != nil {
		return err
	}

	rec, err := api.svc.MarkAbsent(ctx.Request().Context(), data.InstructorID, date)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

// Shifts

func (api *attendanceApi) createShift(ctx echo.Context) error {
	var data attendance.NewShift
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewShift")
	}

	sh, err := api.svc.CreateShift(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sh)
}

func (api *attendanceApi) retrieveShift(ctx echo.Context) error {
	sh, err := api.svc.GetShift(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sh)
}

func (api *attendanceApi) updateShift(ctx echo.Context) error {
	var data attendance.UpdateShift
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateShift")
	}

	sh, err := api.svc.UpdateShift(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sh)
}

func (api *attendanceApi) destroyShift(ctx echo.Context) error {
	if err := api.svc.DeleteShift(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) queryInstructorShifts(ctx echo.Context) error {
	shifts, err := api.svc.QueryInstructorShifts(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying shifts")
	}
	return ctx.JSON(http.StatusOK, shifts)
}

// Devices

func (api *attendanceApi) registerDevice(ctx echo.Context) error {
	var data attendance.NewDevice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDevice")
	}

	dev, err := api.svc.RegisterDevice(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, dev)
}

func (api *attendanceApi) queryDevices(ctx echo.Context) error {
	devs, err := api.svc.QueryAllDevices(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying devices")
	}
	return ctx.JSON(http.StatusOK, devs)
}

// Batch jobs

func (api *attendanceApi) generateAhead(ctx echo.Context) error {
	created, err := api.svc.GenerateAhead(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "generating attendance records")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"created": created})
}

func (api *attendanceApi) markAbsentSweep(ctx echo.Context) error {
	swept, err := api.svc.SweepAbsent(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "sweeping absences")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"marked_absent": swept})
}

func (api *attendanceApi) queryJobLogs(ctx echo.Context) error {
	logs, err := api.svc.QueryJobLogs(ctx.Request().Context(), ctx.Param("name"))
	if err != nil {
		return errors.Wrap(err, "querying job logs")
	}
	return ctx.JSON(http.StatusOK, logs)
}
