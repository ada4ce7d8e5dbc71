package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/workbook/core"
	"github.com/trezcool/workbook/core/booklet"
	"github.com/trezcool/workbook/core/leaderboard"
	"github.com/trezcool/workbook/core/points"
	"github.com/trezcool/workbook/core/roster"
	"github.com/trezcool/workbook/core/scan"
	"github.com/trezcool/workbook/core/schooltime"
	"github.com/trezcool/workbook/core/submission"
)

type (
	ScanService interface {
		Scan(ctx context.Context, req scan.Request) (scan.Outcome, error)
	}

	BookletService interface {
		Create(ctx context.Context, nb booklet.NewBooklet) (booklet.Booklet, error)
		Provision(ctx context.Context, classID string) (booklet.ProvisionReport, error)
	}

	LedgerService interface {
		Get(ctx context.Context, id string) (submission.Submission, error)
		Void(ctx context.Context, id, reason string) (submission.Submission, error)
	}

	PointsService interface {
		Totals(ctx context.Context, studentID string) (points.Totals, error)
	}

	LeaderboardService interface {
		Leaderboards(ctx context.Context, classID string) (leaderboard.Boards, error)
		RecentEvents(ctx context.Context, classID string, limit int) ([]leaderboard.Event, error)
		Feed(ctx context.Context, classID string) (leaderboard.Feed, error)
		DayStatus(ctx context.Context, classID string, date schooltime.Date) (leaderboard.DayStatus, error)
	}

	ServerDeps struct {
		Conf         *core.Config
		Logger       core.Logger
		Validate     *validator.Validate
		Translator   ut.Translator
		Calendar     *schooltime.Calendar
		Roster       roster.Repository
		Scans        ScanService
		Booklets     BookletService
		Ledger       LedgerService
		Points       PointsService
		Leaderboards LeaderboardService
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil) // interface compliance check

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1", middleware.JWTWithConfig(newJWTConfig(conf.SecretKey)))

	registerScanAPI(v1, s.deps)
	registerClassAPI(v1, s.deps)
}

// Start listens on the configured host; startup and serving errors are sent to Errors().
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, fmt.Sprintf("Welcome to %s API!", s.deps.Conf.AppName))
}
