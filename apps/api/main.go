package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/ratiba/apps/api/echo"
	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/attendance"
	"github.com/trezcool/ratiba/core/course"
	"github.com/trezcool/ratiba/core/schedule"
	logsvc "github.com/trezcool/ratiba/services/logger"
	notifsvc "github.com/trezcool/ratiba/services/notifier"
	"github.com/trezcool/ratiba/storage/database"
	inmemdb "github.com/trezcool/ratiba/storage/database/inmem"
	sqlxrepos "github.com/trezcool/ratiba/storage/database/sqlx"
)

func main() {
	conf := core.LoadConfig()

	std := log.New(os.Stdout, conf.AppName+" ", log.LstdFlags|log.Lshortfile)
	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up repositories; local dev falls back to the in-memory store
	// when Postgres is unreachable
	var (
		courseRepo course.Repository
		schedRepo  schedule.Repository
		attRepo    attendance.Repository
	)
	db, err := database.Open(conf)
	if err == nil {
		err = db.Ping()
	}
	switch {
	case err == nil:
		defer func() { _ = db.Close() }()
		dbx := sqlx.NewDb(db, conf.Database.Engine)
		courseRepo = sqlxrepos.NewCourseRepository(dbx)
		schedRepo = sqlxrepos.NewScheduleRepository(dbx)
		attRepo = sqlxrepos.NewAttendanceRepository(dbx)
	case conf.Debug:
		if db != nil {
			_ = db.Close()
		}
		logger.Warn(fmt.Sprintf("database unavailable, using the in-memory store: %v", err), err)
		mem := inmemdb.Open()
		courseRepo = inmemdb.NewCourseRepository(mem)
		schedRepo = inmemdb.NewScheduleRepository(mem)
		attRepo = inmemdb.NewAttendanceRepository(mem)
	default:
		log.Fatal(err)
	}

	// set up services
	hub := notifsvc.NewHub(logger)
	defer hub.Close()

	schedSvc := schedule.NewService(schedRepo, courseRepo, logger, conf)
	courseSvc := course.NewService(courseRepo, logger, conf)
	courseSvc.SetRegenerator(schedSvc)
	attSvc := attendance.NewService(attRepo, schedRepo, hub, logger, conf)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:       conf.Server.Address(),
			Logger:        logger,
			CourseSvc:     courseSvc,
			ScheduleSvc:   schedSvc,
			AttendanceSvc: attSvc,
			Hub:           hub,
		},
	)
	app.Start()

	// block until the listener dies or a shutdown is requested
	select {
	case err = <-app.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-app.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = app.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}
