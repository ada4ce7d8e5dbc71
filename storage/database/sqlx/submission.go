package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/workbook/core"
	"github.com/trezcool/workbook/core/leaderboard"
	"github.com/trezcool/workbook/core/points"
	"github.com/trezcool/workbook/core/schooltime"
	"github.com/trezcool/workbook/core/submission"
)

const submissionColumns = `id, booklet_id, student_id, material_id, class_id, school_date, submitted_at,
	points_awarded, pages_done, is_void, void_reason, voided_at`

type submissionRow struct {
	ID            string      `db:"id"`
	BookletID     string      `db:"booklet_id"`
	StudentID     string      `db:"student_id"`
	MaterialID    string      `db:"material_id"`
	ClassID       string      `db:"class_id"`
	SchoolDate    string      `db:"school_date"`
	SubmittedAt   dbTime      `db:"submitted_at"`
	PointsAwarded int         `db:"points_awarded"`
	PagesDone     null.Int    `db:"pages_done"`
	IsVoid        bool        `db:"is_void"`
	VoidReason    null.String `db:"void_reason"`
	VoidedAt      dbTime      `db:"voided_at"`
}

func (r submissionRow) toSubmission() (submission.Submission, error) {
	date, err := schooltime.ParseDate(r.SchoolDate)
	if err != nil {
		return submission.Submission{}, errors.Wrapf(err, "parsing school date of submission %s", r.ID)
	}
	s := submission.Submission{
		ID:            r.ID,
		BookletID:     r.BookletID,
		StudentID:     r.StudentID,
		MaterialID:    r.MaterialID,
		ClassID:       r.ClassID,
		SchoolDate:    date,
		Timestamp:     r.SubmittedAt.Time,
		PointsAwarded: r.PointsAwarded,
		IsVoid:        r.IsVoid,
		VoidReason:    r.VoidReason.String,
	}
	if r.PagesDone.Valid {
		p := r.PagesDone.Int
		s.PagesDone = &p
	}
	if r.VoidedAt.Valid {
		t := r.VoidedAt.Time
		s.VoidedAt = &t
	}
	return s, nil
}

type submissionRepository struct {
	exec core.DBExecutor
}

var (
	// interface compliance checks
	_ submission.Repository  = (*submissionRepository)(nil)
	_ points.Repository      = (*submissionRepository)(nil)
	_ leaderboard.Repository = (*submissionRepository)(nil)
)

func NewSubmissionRepository(exec core.DBExecutor) *submissionRepository {
	return &submissionRepository{exec: exec}
}

func (repo submissionRepository) get(ctx context.Context, where string, args ...interface{}) (submission.Submission, error) {
	var row submissionRow
	q := repo.exec.Rebind("SELECT " + submissionColumns + " FROM submissions WHERE " + where)
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, args...); err != nil {
		return submission.Submission{}, trapNoRowsErr(err, submission.ErrNotFound, "finding submission")
	}
	return row.toSubmission()
}

func (repo submissionRepository) CreateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	s.ID = newID()
	s.IsVoid = false

	var pages null.Int
	if s.PagesDone != nil {
		pages = null.IntFrom(*s.PagesDone)
	}
	q := repo.exec.Rebind(`INSERT INTO submissions (
		id, booklet_id, student_id, material_id, class_id, school_date, submitted_at, points_awarded, pages_done, is_void
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := repo.exec.ExecContext(ctx, q,
		s.ID, s.BookletID, s.StudentID, s.MaterialID, s.ClassID, s.SchoolDate.String(), s.Timestamp.UTC(),
		s.PointsAwarded, pages, false)
	if err != nil {
		if isUniqueViolation(err) {
			return submission.Submission{}, submission.ErrAlreadySubmitted
		}
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return s, nil
}

func (repo submissionRepository) GetSubmission(ctx context.Context, id string) (submission.Submission, error) {
	if !validID(id) {
		return submission.Submission{}, submission.ErrNotFound
	}
	return repo.get(ctx, "id = ?", id)
}

func (repo submissionRepository) FindActiveSubmission(ctx context.Context, bookletID string, r schooltime.Range) (submission.Submission, error) {
	if !validID(bookletID) {
		return submission.Submission{}, submission.ErrNotFound
	}
	return repo.get(ctx,
		"booklet_id = ? AND is_void = ? AND submitted_at >= ? AND submitted_at <= ? ORDER BY submitted_at LIMIT 1",
		bookletID, false, r.Start.UTC(), r.End.UTC())
}

func (repo submissionRepository) VoidSubmission(ctx context.Context, id, reason string, at time.Time) (submission.Submission, error) {
	if !validID(id) {
		return submission.Submission{}, submission.ErrNotFound
	}

	// only the first void sticks: an already void submission keeps its reason and date
	q := repo.exec.Rebind("UPDATE submissions SET is_void = ?, void_reason = ?, voided_at = ? WHERE id = ? AND is_void = ?")
	if _, err := repo.exec.ExecContext(ctx, q, true, reason, at.UTC(), id, false); err != nil {
		return submission.Submission{}, errors.Wrap(err, "voiding submission")
	}
	return repo.GetSubmission(ctx, id)
}

// rangeFilter appends the submitted_at bounds of r (if any) to the query.
func rangeFilter(q string, args []interface{}, r *schooltime.Range) (string, []interface{}) {
	if r == nil {
		return q, args
	}
	return q + " AND s.submitted_at >= ? AND s.submitted_at <= ?", append(args, r.Start.UTC(), r.End.UTC())
}

func (repo submissionRepository) SumPoints(ctx context.Context, studentID string, r *schooltime.Range) (int, error) {
	if !validID(studentID) {
		return 0, nil
	}

	q, args := rangeFilter(
		"SELECT COALESCE(SUM(s.points_awarded), 0) FROM submissions s WHERE s.student_id = ? AND s.is_void = ?",
		[]interface{}{studentID, false}, r)

	var sum int
	if err := sqlx.GetContext(ctx, repo.exec, &sum, repo.exec.Rebind(q), args...); err != nil {
		return 0, errors.Wrap(err, "summing points")
	}
	return sum, nil
}

func (repo submissionRepository) StudentScores(ctx context.Context, classID string, r *schooltime.Range) ([]leaderboard.Score, error) {
	scores := make([]leaderboard.Score, 0)
	if !validID(classID) {
		return scores, nil
	}

	q, args := rangeFilter(`SELECT st.id, st.number, st.display_name,
			SUM(s.points_awarded) AS points, MAX(s.submitted_at) AS last_submitted_at
		FROM submissions s
		JOIN students st ON st.id = s.student_id
		WHERE s.class_id = ? AND s.is_void = ?`,
		[]interface{}{classID, false}, r)
	q += " GROUP BY st.id, st.number, st.display_name"

	var rows []struct {
		ID              string `db:"id"`
		Number          int    `db:"number"`
		DisplayName     string `db:"display_name"`
		Points          int    `db:"points"`
		LastSubmittedAt dbTime `db:"last_submitted_at"`
	}
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, repo.exec.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "aggregating student scores")
	}
	for _, row := range rows {
		scores = append(scores, leaderboard.Score{
			StudentID:       row.ID,
			Number:          row.Number,
			StudentName:     row.DisplayName,
			Points:          row.Points,
			LastSubmittedAt: row.LastSubmittedAt.Time,
		})
	}
	return scores, nil
}

func (repo submissionRepository) RecentEvents(ctx context.Context, classID string, limit int) ([]leaderboard.Event, error) {
	events := make([]leaderboard.Event, 0)
	if !validID(classID) {
		return events, nil
	}

	q := repo.exec.Rebind(`SELECT s.id, st.display_name, m.name, s.points_awarded, s.submitted_at
		FROM submissions s
		JOIN students st ON st.id = s.student_id
		JOIN materials m ON m.id = s.material_id
		WHERE s.class_id = ? AND s.is_void = ?
		ORDER BY s.submitted_at DESC, s.id DESC
		LIMIT ?`)

	var rows []struct {
		ID            string `db:"id"`
		DisplayName   string `db:"display_name"`
		MaterialName  string `db:"name"`
		PointsAwarded int    `db:"points_awarded"`
		SubmittedAt   dbTime `db:"submitted_at"`
	}
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q, classID, false, limit); err != nil {
		return nil, errors.Wrap(err, "querying recent events")
	}
	for _, row := range rows {
		events = append(events, leaderboard.Event{
			ID:           row.ID,
			StudentName:  row.DisplayName,
			MaterialName: row.MaterialName,
			Points:       row.PointsAwarded,
			Timestamp:    row.SubmittedAt.Time,
		})
	}
	return events, nil
}
