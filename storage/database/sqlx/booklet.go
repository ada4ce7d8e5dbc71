package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/workbook/core"
	"github.com/trezcool/workbook/core/booklet"
)

const bookletColumns = "id, student_id, material_id, payload, created_at, updated_at"

type bookletRow struct {
	ID         string `db:"id"`
	StudentID  string `db:"student_id"`
	MaterialID string `db:"material_id"`
	Payload    string `db:"payload"`
	CreatedAt  dbTime `db:"created_at"`
	UpdatedAt  dbTime `db:"updated_at"`
}

func (r bookletRow) toBooklet() booklet.Booklet {
	return booklet.Booklet{
		ID:         r.ID,
		StudentID:  r.StudentID,
		MaterialID: r.MaterialID,
		Payload:    r.Payload,
		CreatedAt:  r.CreatedAt.Time,
		UpdatedAt:  r.UpdatedAt.Time,
	}
}

type bookletRepository struct {
	exec core.DBExecutor
}

var _ booklet.Repository = (*bookletRepository)(nil) // interface compliance check

func NewBookletRepository(exec core.DBExecutor) *bookletRepository {
	return &bookletRepository{exec: exec}
}

func (repo bookletRepository) get(ctx context.Context, where string, args ...interface{}) (booklet.Booklet, error) {
	var row bookletRow
	q := repo.exec.Rebind("SELECT " + bookletColumns + " FROM booklets WHERE " + where)
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, args...); err != nil {
		return booklet.Booklet{}, trapNoRowsErr(err, booklet.ErrNotFound, "finding booklet")
	}
	return row.toBooklet(), nil
}

func (repo bookletRepository) CreateBooklet(ctx context.Context, b booklet.Booklet) (booklet.Booklet, error) {
	b.ID = newID()
	q := repo.exec.Rebind("INSERT INTO booklets (" + bookletColumns + ") VALUES (?, ?, ?, ?, ?, ?)")
	_, err := repo.exec.ExecContext(ctx, q, b.ID, b.StudentID, b.MaterialID, b.Payload, b.CreatedAt.UTC(), b.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return booklet.Booklet{}, booklet.ErrConflict
		}
		return booklet.Booklet{}, errors.Wrap(err, "inserting booklet")
	}
	return b, nil
}

func (repo bookletRepository) GetBooklet(ctx context.Context, id string) (booklet.Booklet, error) {
	if !validID(id) {
		return booklet.Booklet{}, booklet.ErrNotFound
	}
	return repo.get(ctx, "id = ?", id)
}

func (repo bookletRepository) GetBookletByPayload(ctx context.Context, payload string) (booklet.Booklet, error) {
	return repo.get(ctx, "payload = ?", payload)
}

func (repo bookletRepository) GetBookletByPair(ctx context.Context, studentID, materialID string) (booklet.Booklet, error) {
	if !validID(studentID) || !validID(materialID) {
		return booklet.Booklet{}, booklet.ErrNotFound
	}
	return repo.get(ctx, "student_id = ? AND material_id = ?", studentID, materialID)
}

func (repo bookletRepository) UpdateBookletPayload(ctx context.Context, id, payload string, updatedAt time.Time) (booklet.Booklet, error) {
	if !validID(id) {
		return booklet.Booklet{}, booklet.ErrNotFound
	}

	q := repo.exec.Rebind("UPDATE booklets SET payload = ?, updated_at = ? WHERE id = ?")
	res, err := repo.exec.ExecContext(ctx, q, payload, updatedAt.UTC(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return booklet.Booklet{}, booklet.ErrConflict
		}
		return booklet.Booklet{}, errors.Wrap(err, "updating booklet")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return booklet.Booklet{}, booklet.ErrNotFound
	}
	return repo.GetBooklet(ctx, id)
}
