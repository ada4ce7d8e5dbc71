// Package testutil holds the fixtures shared by the tests: storage engines, seeded rosters and fixed calendars.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/workbook/core"
	"github.com/trezcool/workbook/core/booklet"
	"github.com/trezcool/workbook/core/leaderboard"
	"github.com/trezcool/workbook/core/points"
	"github.com/trezcool/workbook/core/roster"
	"github.com/trezcool/workbook/core/schooltime"
	"github.com/trezcool/workbook/core/submission"
	"github.com/trezcool/workbook/storage/database"
	"github.com/trezcool/workbook/storage/database/inmem"
	"github.com/trezcool/workbook/storage/database/sqlx"
)

// JST is the school timezone used across the tests.
var JST = time.FixedZone("JST", 9*60*60)

type (
	SubmissionRepository interface {
		submission.Repository
		points.Repository
		leaderboard.Repository
	}

	Repos struct {
		Roster      roster.Repository
		Booklets    booklet.Repository
		Submissions SubmissionRepository
	}

	// Engine builds a fresh set of repositories.
	Engine struct {
		Name  string
		Repos func(t *testing.T) Repos
	}
)

// Engines are the storage engines every storage-agnostic test runs against.
var Engines = []Engine{
	{Name: "memory", Repos: MemoryRepos},
	{Name: "sqlite3", Repos: SqliteRepos},
}

func MemoryRepos(_ *testing.T) Repos {
	db := inmemdb.Open()
	return Repos{
		Roster:      inmemdb.NewRosterRepository(db),
		Booklets:    inmemdb.NewBookletRepository(db),
		Submissions: inmemdb.NewSubmissionRepository(db),
	}
}

// PrepareDB opens a migrated sqlite3 database in a temporary directory, closed when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.OpenSqlite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func SqliteRepos(t *testing.T) Repos {
	db := PrepareDB(t)
	return Repos{
		Roster:      sqlxrepos.NewRosterRepository(db),
		Booklets:    sqlxrepos.NewBookletRepository(db),
		Submissions: sqlxrepos.NewSubmissionRepository(db),
	}
}

// SeedDemo applies roster.DemoSeed and returns the seeded class.
func SeedDemo(t *testing.T, repo roster.Repository) roster.Class {
	t.Helper()

	class, err := roster.DemoSeed().Apply(context.Background(), repo)
	if err != nil {
		t.Fatalf("SeedDemo() failed: %v", err)
	}
	return class
}

func Student(t *testing.T, repo roster.Repository, classID string, number int) roster.Student {
	t.Helper()

	st, err := repo.FindStudent(context.Background(), classID, number)
	if err != nil {
		t.Fatalf("Student() failed: %v", err)
	}
	return st
}

func Material(t *testing.T, repo roster.Repository, code string) roster.Material {
	t.Helper()

	m, err := repo.FindMaterial(context.Background(), code)
	if err != nil {
		t.Fatalf("Material() failed: %v", err)
	}
	return m
}

// Clock is a settable time source for schooltime.Calendar.
type Clock struct {
	now time.Time
}

func (c *Clock) Now() time.Time { return c.now }

func (c *Clock) Set(now time.Time) { c.now = now }

// Calendar returns a JST calendar whose clock starts at now.
func Calendar(now time.Time) (*schooltime.Calendar, *Clock) {
	clock := &Clock{now: now}
	cal := schooltime.NewCalendar(JST)
	cal.Now = clock.Now
	return cal, clock
}

// At is the JST instant of the given date and time of day.
func At(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, JST)
}

func Date(t *testing.T, s string) schooltime.Date {
	t.Helper()

	d, err := schooltime.ParseDate(s)
	if err != nil {
		t.Fatalf("Date() failed: %v", err)
	}
	return d
}

func IntPtr(i int) *int { return &i }

// Validator returns a validator set up like the API's.
func Validator() (*validator.Validate, ut.Translator) {
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate, translator
}
