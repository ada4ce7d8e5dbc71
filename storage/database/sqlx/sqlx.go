// Package sqlxrepos implements the repositories on top of sqlx, for both the postgres and sqlite3 engines.
// Queries are written with "?" placeholders and rebound to the engine's bind type.
package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/trezcool/workbook/core"
)

// trapNoRowsErr maps sql "no rows" err to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// isUniqueViolation reports whether err was caused by a unique constraint (postgres or sqlite3).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func newID() string {
	return uuid.New().String()
}

// dbTime scans timestamps returned as time.Time (postgres, typed sqlite3 columns) or as text
// (sqlite3 aggregates like MAX(), which lose the column type).
type dbTime struct {
	Time  time.Time
	Valid bool
}

func (t *dbTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return errors.Errorf("cannot scan %T into a timestamp", value)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time, t.Valid = ts.UTC(), true
			return nil
		}
	}
	return errors.Errorf("cannot parse timestamp %q", s)
}

// InTx runs fn inside a transaction, committed if fn succeeds and rolled back otherwise.
func InTx(ctx context.Context, db *sqlx.DB, fn func(exec core.DBExecutor) error) error {
	var tx core.DBTransactor
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
