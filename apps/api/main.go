package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"
	_ "time/tzdata"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	echoapi "github.com/trezcool/workbook/apps/api/echo"
	"github.com/trezcool/workbook/core"
	"github.com/trezcool/workbook/core/booklet"
	"github.com/trezcool/workbook/core/leaderboard"
	"github.com/trezcool/workbook/core/points"
	"github.com/trezcool/workbook/core/roster"
	"github.com/trezcool/workbook/core/scan"
	"github.com/trezcool/workbook/core/schooltime"
	"github.com/trezcool/workbook/core/submission"
	logsvc "github.com/trezcool/workbook/services/logger"
	"github.com/trezcool/workbook/storage/database"
	"github.com/trezcool/workbook/storage/database/inmem"
	"github.com/trezcool/workbook/storage/database/sqlx"
)

type (
	submissionRepository interface {
		submission.Repository
		points.Repository
		leaderboard.Repository
	}

	repositories struct {
		roster      roster.Repository
		booklets    booklet.Repository
		submissions submissionRepository
		close       func() error
	}
)

func main() {
	// =========================================================================
	// Set up Dependencies

	flags := pflag.NewFlagSet("api", pflag.ExitOnError)
	flags.String("server.host", ":8000", "address the API listens on")
	flags.String("server.debugHost", ":4000", "address the debug server listens on")
	flags.String("database.engine", core.EnginePostgres, "storage engine: postgres, sqlite3 or memory")
	flags.String("database.path", "workbook.db", "database file of the sqlite3 engine")
	_ = flags.Parse(os.Args[1:])

	conf := core.NewConfig(flags)

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up storage
	repos, err := setUpRepositories(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Database.Engine, err), err)
	}
	defer func() {
		if err = repos.close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	cal, err := schooltime.LoadCalendar(conf.School.Timezone)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading school calendar: %v", err), err)
	}

	// set up services
	bookletSvc := booklet.NewService(repos.booklets, repos.roster)
	ledgerSvc := submission.NewService(repos.submissions, bookletSvc, cal)
	pointsSvc := points.NewService(repos.submissions, cal)
	scanSvc := scan.NewService(bookletSvc, ledgerSvc, pointsSvc, cal)
	boardSvc := leaderboard.NewService(
		repos.submissions, repos.roster, cal, conf.School.LeaderboardSize, conf.School.RecentEventsLimit,
	)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("engine").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			Validate:     validate,
			Translator:   translator,
			Calendar:     cal,
			Roster:       repos.roster,
			Scans:        scanSvc,
			Booklets:     bookletSvc,
			Ledger:       ledgerSvc,
			Points:       pointsSvc,
			Leaderboards: boardSvc,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpRepositories opens the configured storage engine.
// The memory engine starts with the demo roster, since nothing else can seed it.
func setUpRepositories(conf *core.Config) (repositories, error) {
	switch conf.Database.Engine {
	case core.EngineMemory:
		db := inmemdb.Open()
		repos := repositories{
			roster:      inmemdb.NewRosterRepository(db),
			booklets:    inmemdb.NewBookletRepository(db),
			submissions: inmemdb.NewSubmissionRepository(db),
			close:       func() error { return nil },
		}
		if _, err := roster.DemoSeed().Apply(context.Background(), repos.roster); err != nil {
			return repositories{}, errors.Wrap(err, "seeding demo roster")
		}
		return repos, nil

	case core.EnginePostgres, core.EngineSqlite:
		if err := database.CreateIfNotExist(conf); err != nil {
			return repositories{}, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return repositories{}, err
		}
		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return repositories{}, err
		}
		return repositories{
			roster:      sqlxrepos.NewRosterRepository(db),
			booklets:    sqlxrepos.NewBookletRepository(db),
			submissions: sqlxrepos.NewSubmissionRepository(db),
			close:       db.Close,
		}, nil

	default:
		return repositories{}, errors.Errorf("unknown storage engine %q", conf.Database.Engine)
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
