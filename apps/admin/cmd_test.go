package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"io/ioutil"
	"log"
	"strconv"
	"testing"
	"time"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/attendance"
	"github.com/trezcool/ratiba/core/course"
	"github.com/trezcool/ratiba/core/schedule"
	notifsvc "github.com/trezcool/ratiba/services/notifier"
	inmemdb "github.com/trezcool/ratiba/storage/database/inmem"
	testutil "github.com/trezcool/ratiba/tests"
)

func setup(t *testing.T) (*commandLine, course.Repository, schedule.Repository) {
	t.Helper()

	logger = log.New(ioutil.Discard, "", 0)
	conf := &core.Config{
		TestMode:               true,
		AppName:                "Ratiba",
		SecretKey:              "secret",
		TimeZone:               "UTC",
		GenerateAheadDays:      7,
		GenerationHorizonYears: 2,
		TodayStartBufferMin:    5,
		Server:                 core.ServerConfig{JWTExpirationDelta: time.Hour},
	}
	core.Conf = conf

	// set up DB & repos
	db := inmemdb.Open()
	courseRepo := inmemdb.NewCourseRepository(db)
	schedRepo := inmemdb.NewScheduleRepository(db)
	attRepo := inmemdb.NewAttendanceRepository(db)

	// set up services
	svcLogger := svcLoggerMock{}
	schedSvc := schedule.NewService(schedRepo, courseRepo, svcLogger, conf)
	courseSvc := course.NewService(courseRepo, svcLogger, conf)
	courseSvc.SetRegenerator(schedSvc)
	attSvc := attendance.NewService(attRepo, schedRepo, notifsvc.NewConsoleServiceMock(), svcLogger, conf)

	// start CLI
	return &commandLine{
		conf:      conf,
		courseSvc: courseSvc,
		schedSvc:  schedSvc,
		attSvc:    attSvc,
	}, courseRepo, schedRepo
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, fsys fs.FS, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_regenerate(t *testing.T) {
	cli, courseRepo, schedRepo := setup(t)

	start := time.Now().UTC().AddDate(0, 1, 0)
	target := 2
	bounded := testutil.CreateCourse(t, courseRepo, "Algorithms", start, nil, &target, nil)
	testutil.CreateTemplate(t, schedRepo, bounded.ID, schedule.Monday, schedule.NewTimeOfDay(10, 0), schedule.NewTimeOfDay(12, 0))
	unbounded := testutil.CreateCourse(t, courseRepo, "Seminar", start, nil, nil, nil)

	tests := []cliTest{
		{name: "no course flag", args: []string{"regenerate"}, wantErr: errHelp},
		{name: "course not found", args: []string{"regenerate", "-course", "nope"}, wantErr: course.ErrNotFound},
		{name: "unbounded course", args: []string{"regenerate", "-course", unbounded.ID}, wantErrStr: "an end date or a target lecture count is required to generate lectures"},
		{name: "bounded course", args: []string{"regenerate", "-course", bounded.ID}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
			default:
				if err != nil {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}

	lects, err := schedRepo.QueryLectures(context.Background(), bounded.ID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("QueryLectures() failed: %v", err)
	}
	if len(lects) != target {
		t.Errorf("got %d lectures, want %d", len(lects), target)
	}
}

func Test_commandLine_jobs(t *testing.T) {
	cli, _, _ := setup(t)

	if err := cli.run([]string{"admin", "generateahead"}); err != nil {
		t.Errorf("generateahead failed: %v", err)
	}
	if err := cli.run([]string{"admin", "markabsent"}); err != nil {
		t.Errorf("markabsent failed: %v", err)
	}
}

func Test_commandLine_token(t *testing.T) {
	cli, _, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no subject", args: []string{"token"}, wantErr: errHelp},
		{name: "device token", args: []string{"token", "-subject", "gate-01"}},
		{name: "instructor token", args: []string{"token", "-subject", "instr1", "-instructor", "instr1"}},
		{name: "admin token", args: []string{"token", "-subject", "admin", "-admin"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, _, _ := setup(t)

	if err := cli.run([]string{"admin"}); err != errHelp {
		t.Errorf("cli.run() error = %v, want %v", err, errHelp)
	}
}

type svcLoggerMock struct{}

func (svcLoggerMock) Enable(bool)                  {}
func (svcLoggerMock) Debug(string, ...interface{}) {}
func (svcLoggerMock) Info(string, ...interface{})  {}
func (svcLoggerMock) Warn(string, ...interface{})  {}
func (svcLoggerMock) Error(string, ...interface{}) {}
