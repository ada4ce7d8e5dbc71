package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/workbook/core"
	"github.com/trezcool/workbook/core/roster"
)

const (
	classColumns    = "id, year, class_code, name"
	studentColumns  = "id, class_id, number, display_name"
	materialColumns = "id, code, name, points_per_submit, mode, is_active"
)

type (
	classRow struct {
		ID        string `db:"id"`
		Year      int    `db:"year"`
		ClassCode string `db:"class_code"`
		Name      string `db:"name"`
	}

	studentRow struct {
		ID          string `db:"id"`
		ClassID     string `db:"class_id"`
		Number      int    `db:"number"`
		DisplayName string `db:"display_name"`
	}

	materialRow struct {
		ID              string `db:"id"`
		Code            string `db:"code"`
		Name            string `db:"name"`
		PointsPerSubmit int    `db:"points_per_submit"`
		Mode            string `db:"mode"`
		IsActive        bool   `db:"is_active"`
	}
)

func (r classRow) toClass() roster.Class {
	return roster.Class{ID: r.ID, Year: r.Year, ClassCode: r.ClassCode, Name: r.Name}
}

func (r studentRow) toStudent() roster.Student {
	return roster.Student{ID: r.ID, ClassID: r.ClassID, Number: r.Number, DisplayName: r.DisplayName}
}

func (r materialRow) toMaterial() roster.Material {
	return roster.Material{
		ID:              r.ID,
		Code:            r.Code,
		Name:            r.Name,
		PointsPerSubmit: r.PointsPerSubmit,
		Mode:            r.Mode,
		IsActive:        r.IsActive,
	}
}

type rosterRepository struct {
	exec core.DBExecutor
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(exec core.DBExecutor) *rosterRepository {
	return &rosterRepository{exec: exec}
}

func (repo rosterRepository) getClass(ctx context.Context, where string, args ...interface{}) (roster.Class, error) {
	var row classRow
	q := repo.exec.Rebind("SELECT " + classColumns + " FROM classes WHERE " + where)
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, args...); err != nil {
		return roster.Class{}, trapNoRowsErr(err, roster.ErrClassNotFound, "finding class")
	}
	return row.toClass(), nil
}

func (repo rosterRepository) GetClass(ctx context.Context, id string) (roster.Class, error) {
	if !validID(id) {
		return roster.Class{}, roster.ErrClassNotFound
	}
	return repo.getClass(ctx, "id = ?", id)
}

func (repo rosterRepository) FindClass(ctx context.Context, year int, classCode string) (roster.Class, error) {
	return repo.getClass(ctx, "year = ? AND class_code = ?", year, classCode)
}

func (repo rosterRepository) getStudent(ctx context.Context, where string, args ...interface{}) (roster.Student, error) {
	var row studentRow
	q := repo.exec.Rebind("SELECT " + studentColumns + " FROM students WHERE " + where)
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, args...); err != nil {
		return roster.Student{}, trapNoRowsErr(err, roster.ErrStudentNotFound, "finding student")
	}
	return row.toStudent(), nil
}

func (repo rosterRepository) GetStudent(ctx context.Context, id string) (roster.Student, error) {
	if !validID(id) {
		return roster.Student{}, roster.ErrStudentNotFound
	}
	return repo.getStudent(ctx, "id = ?", id)
}

func (repo rosterRepository) FindStudent(ctx context.Context, classID string, number int) (roster.Student, error) {
	if !validID(classID) {
		return roster.Student{}, roster.ErrStudentNotFound
	}
	return repo.getStudent(ctx, "class_id = ? AND number = ?", classID, number)
}

func (repo rosterRepository) QueryStudents(ctx context.Context, classID string) ([]roster.Student, error) {
	students := make([]roster.Student, 0)
	if !validID(classID) {
		return students, nil
	}

	var rows []studentRow
	q := repo.exec.Rebind("SELECT " + studentColumns + " FROM students WHERE class_id = ? ORDER BY number")
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q, classID); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	for _, r := range rows {
		students = append(students, r.toStudent())
	}
	return students, nil
}

func (repo rosterRepository) getMaterial(ctx context.Context, where string, args ...interface{}) (roster.Material, error) {
	var row materialRow
	q := repo.exec.Rebind("SELECT " + materialColumns + " FROM materials WHERE " + where)
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, args...); err != nil {
		return roster.Material{}, trapNoRowsErr(err, roster.ErrMaterialNotFound, "finding material")
	}
	return row.toMaterial(), nil
}

func (repo rosterRepository) GetMaterial(ctx context.Context, id string) (roster.Material, error) {
	if !validID(id) {
		return roster.Material{}, roster.ErrMaterialNotFound
	}
	return repo.getMaterial(ctx, "id = ?", id)
}

func (repo rosterRepository) FindMaterial(ctx context.Context, code string) (roster.Material, error) {
	return repo.getMaterial(ctx, "code = ?", code)
}

func (repo rosterRepository) QueryMaterials(ctx context.Context, activeOnly bool) ([]roster.Material, error) {
	q := "SELECT " + materialColumns + " FROM materials"
	var args []interface{}
	if activeOnly {
		q += " WHERE is_active = ?"
		args = append(args, true)
	}
	q += " ORDER BY code"

	var rows []materialRow
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying materials")
	}
	materials := make([]roster.Material, 0, len(rows))
	for _, r := range rows {
		materials = append(materials, r.toMaterial())
	}
	return materials, nil
}

func (repo rosterRepository) SaveClass(ctx context.Context, class roster.Class) (roster.Class, error) {
	q := `INSERT INTO classes (id, year, class_code, name) VALUES (:id, :year, :class_code, :name)
		ON CONFLICT (year, class_code) DO UPDATE SET name = excluded.name`
	row := classRow{ID: newID(), Year: class.Year, ClassCode: class.ClassCode, Name: class.Name}
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
		return roster.Class{}, errors.Wrap(err, "upserting class")
	}
	return repo.FindClass(ctx, class.Year, class.ClassCode)
}

func (repo rosterRepository) SaveStudent(ctx context.Context, student roster.Student) (roster.Student, error) {
	if _, err := repo.GetClass(ctx, student.ClassID); err != nil {
		return roster.Student{}, err
	}

	q := `INSERT INTO students (id, class_id, number, display_name) VALUES (:id, :class_id, :number, :display_name)
		ON CONFLICT (class_id, number) DO UPDATE SET display_name = excluded.display_name`
	row := studentRow{ID: newID(), ClassID: student.ClassID, Number: student.Number, DisplayName: student.DisplayName}
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
		return roster.Student{}, errors.Wrap(err, "upserting student")
	}
	return repo.FindStudent(ctx, student.ClassID, student.Number)
}

func (repo rosterRepository) SaveMaterial(ctx context.Context, material roster.Material) (roster.Material, error) {
	q := `INSERT INTO materials (id, code, name, points_per_submit, mode, is_active)
		VALUES (:id, :code, :name, :points_per_submit, :mode, :is_active)
		ON CONFLICT (code) DO UPDATE SET
			name = excluded.name,
			points_per_submit = excluded.points_per_submit,
			mode = excluded.mode,
			is_active = excluded.is_active`
	row := materialRow{
		ID:              newID(),
		Code:            material.Code,
		Name:            material.Name,
		PointsPerSubmit: material.PointsPerSubmit,
		Mode:            material.Mode,
		IsActive:        material.IsActive,
	}
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
		return roster.Material{}, errors.Wrap(err, "upserting material")
	}
	return repo.FindMaterial(ctx, material.Code)
}
