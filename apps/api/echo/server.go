package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/attendance"
	"github.com/trezcool/ratiba/core/course"
	"github.com/trezcool/ratiba/core/schedule"
	notifsvc "github.com/trezcool/ratiba/services/notifier"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		Logger         core.Logger
		CourseSvc      *course.Service
		ScheduleSvc    *schedule.Service
		AttendanceSvc  *attendance.Service
		Hub            *notifsvc.Hub // nil disables the live feed

		// ShutdownTrigger overrides the default shutdown signalling; the
		// error handler calls it when it catches a core.shutdown error.
		ShutdownTrigger func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		opts  *Options
		app   *echo.Echo
		errCh chan error
		sigCh chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:  opts,
		app:   echo.New(),
		errCh: make(chan error, 1),
		sigCh: make(chan os.Signal, 1),
	}
	signal.Notify(s.sigCh, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	debug := core.Conf.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	shutdown := s.opts.ShutdownTrigger
	if shutdown == nil {
		shutdown = s.signalShutdown
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, shutdown)
	s.app.Debug = debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig())

	registerCourseAPI(v1, jwt, s.opts.CourseSvc, s.opts.ScheduleSvc)
	registerScheduleAPI(v1, jwt, s.opts.ScheduleSvc)
	registerAttendanceAPI(v1, jwt, s.opts.AttendanceSvc, s.opts.Hub)
}

// Start runs the listener in the background; failures surface on Errors().
func (s *server) Start() {
	go func() {
		s.errCh <- s.app.Start(s.opts.Address)
	}()
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Errors() <-chan error { return s.errCh }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.sigCh }

// signalShutdown requests a graceful stop as if SIGTERM was received.
func (s *server) signalShutdown() {
	select {
	case s.sigCh <- syscall.SIGTERM:
	default:
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Ratiba API!")
}
