package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/attendance"
	"github.com/trezcool/ratiba/core/course"
	"github.com/trezcool/ratiba/core/schedule"
	logsvc "github.com/trezcool/ratiba/services/logger"
	notifsvc "github.com/trezcool/ratiba/services/notifier"
	"github.com/trezcool/ratiba/storage/database"
	sqlxrepos "github.com/trezcool/ratiba/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.LoadConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	dbx := sqlx.NewDb(db, conf.Database.Engine)

	// set up services
	svcLogger := logsvc.NewConsoleLogger(logger)
	courseRepo := sqlxrepos.NewCourseRepository(dbx)
	schedRepo := sqlxrepos.NewScheduleRepository(dbx)
	attRepo := sqlxrepos.NewAttendanceRepository(dbx)

	schedSvc := schedule.NewService(schedRepo, courseRepo, svcLogger, conf)
	courseSvc := course.NewService(courseRepo, svcLogger, conf)
	courseSvc.SetRegenerator(schedSvc)
	attSvc := attendance.NewService(attRepo, schedRepo, notifsvc.NewConsoleService(), svcLogger, conf)

	// start CLI
	cli := commandLine{
		db:        db,
		conf:      conf,
		courseSvc: courseSvc,
		schedSvc:  schedSvc,
		attSvc:    attSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
