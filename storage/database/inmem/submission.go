package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/workbook/core/leaderboard"
	"github.com/trezcool/workbook/core/points"
	"github.com/trezcool/workbook/core/schooltime"
	"github.com/trezcool/workbook/core/submission"
)

type submissionRepository struct {
	db     *submissionTable
	roster *rosterTables
}

var (
	// interface compliance checks
	_ submission.Repository  = (*submissionRepository)(nil)
	_ points.Repository      = (*submissionRepository)(nil)
	_ leaderboard.Repository = (*submissionRepository)(nil)
)

func NewSubmissionRepository(db *DB) *submissionRepository {
	return &submissionRepository{db: db.submission, roster: db.roster}
}

// clone does not share pointer fields with the stored record.
func clone(s *submission.Submission) submission.Submission {
	c := *s
	if s.PagesDone != nil {
		p := *s.PagesDone
		c.PagesDone = &p
	}
	if s.VoidedAt != nil {
		t := *s.VoidedAt
		c.VoidedAt = &t
	}
	return c
}

func (repo *submissionRepository) CreateSubmission(_ context.Context, s submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, other := range repo.db.table {
		if !other.IsVoid && other.BookletID == s.BookletID && other.SchoolDate == s.SchoolDate {
			return submission.Submission{}, submission.ErrAlreadySubmitted
		}
	}

	s.ID = uuid.New().String()
	s.IsVoid = false
	stored := clone(&s)
	repo.db.table[s.ID] = &stored
	return s, nil
}

func (repo *submissionRepository) GetSubmission(_ context.Context, id string) (submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return clone(s), nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) FindActiveSubmission(_ context.Context, bookletID string, r schooltime.Range) (submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, s := range repo.db.table {
		if !s.IsVoid && s.BookletID == bookletID && r.Contains(s.Timestamp) {
			return clone(s), nil
		}
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) VoidSubmission(_ context.Context, id, reason string, at time.Time) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s, ok := repo.db.table[id]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	if !s.IsVoid {
		s.IsVoid = true
		s.VoidReason = reason
		s.VoidedAt = &at
	}
	return clone(s), nil
}

// active returns copies of the non-void submissions matching keep.
func (repo *submissionRepository) active(keep func(s *submission.Submission) bool) []submission.Submission {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]submission.Submission, 0)
	for _, s := range repo.db.table {
		if !s.IsVoid && keep(s) {
			subs = append(subs, clone(s))
		}
	}
	return subs
}

func (repo *submissionRepository) SumPoints(_ context.Context, studentID string, r *schooltime.Range) (int, error) {
	subs := repo.active(func(s *submission.Submission) bool {
		return s.StudentID == studentID && (r == nil || r.Contains(s.Timestamp))
	})
	var sum int
	for _, s := range subs {
		sum += s.PointsAwarded
	}
	return sum, nil
}

func (repo *submissionRepository) StudentScores(_ context.Context, classID string, r *schooltime.Range) ([]leaderboard.Score, error) {
	subs := repo.active(func(s *submission.Submission) bool {
		return s.ClassID == classID && (r == nil || r.Contains(s.Timestamp))
	})

	byStudent := make(map[string]*leaderboard.Score)
	for _, s := range subs {
		score, ok := byStudent[s.StudentID]
		if !ok {
			score = &leaderboard.Score{StudentID: s.StudentID}
			byStudent[s.StudentID] = score
		}
		score.Points += s.PointsAwarded
		if s.Timestamp.After(score.LastSubmittedAt) {
			score.LastSubmittedAt = s.Timestamp
		}
	}

	repo.roster.RLock()
	defer repo.roster.RUnlock()

	scores := make([]leaderboard.Score, 0, len(byStudent))
	for id, score := range byStudent {
		if st, ok := repo.roster.students[id]; ok {
			score.Number = st.Number
			score.StudentName = st.DisplayName
		}
		scores = append(scores, *score)
	}
	return scores, nil
}

func (repo *submissionRepository) RecentEvents(_ context.Context, classID string, limit int) ([]leaderboard.Event, error) {
	subs := repo.active(func(s *submission.Submission) bool { return s.ClassID == classID })
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].Timestamp.Equal(subs[j].Timestamp) {
			return subs[i].Timestamp.After(subs[j].Timestamp)
		}
		return subs[i].ID > subs[j].ID
	})
	if len(subs) > limit {
		subs = subs[:limit]
	}

	repo.roster.RLock()
	defer repo.roster.RUnlock()

	events := make([]leaderboard.Event, 0, len(subs))
	for _, s := range subs {
		ev := leaderboard.Event{ID: s.ID, Points: s.PointsAwarded, Timestamp: s.Timestamp}
		if st, ok := repo.roster.students[s.StudentID]; ok {
			ev.StudentName = st.DisplayName
		}
		if m, ok := repo.roster.materials[s.MaterialID]; ok {
			ev.MaterialName = m.Name
		}
		events = append(events, ev)
	}
	return events, nil
}
