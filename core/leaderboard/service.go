// Package leaderboard ranks the students of a class by points and lists the latest submissions.
package leaderboard

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/workbook/core/roster"
	"github.com/trezcool/workbook/core/schooltime"
)

const (
	DefaultSize        = 10
	DefaultEventsLimit = 8
	MaxEventsLimit     = 50
)

type (
	Repository interface {
		// StudentScores aggregates the non-void submissions of the class per student, within r when not nil.
		// Students without submissions are omitted.
		StudentScores(ctx context.Context, classID string, r *schooltime.Range) ([]Score, error)
		// RecentEvents returns the latest non-void submissions of the class, most recent first.
		RecentEvents(ctx context.Context, classID string, limit int) ([]Event, error)
	}

	Service struct {
		repo        Repository
		roster      roster.Repository
		cal         *schooltime.Calendar
		size        int
		eventsLimit int
	}
)

// NewService returns a Service whose boards hold size rows and whose event lists default to eventsLimit items.
// Non-positive values select DefaultSize and DefaultEventsLimit.
func NewService(repo Repository, rosterRepo roster.Repository, cal *schooltime.Calendar, size, eventsLimit int) *Service {
	if size <= 0 {
		size = DefaultSize
	}
	if eventsLimit <= 0 {
		eventsLimit = DefaultEventsLimit
	}
	return &Service{repo: repo, roster: rosterRepo, cal: cal, size: size, eventsLimit: eventsLimit}
}

// Rank orders scores by points (desc), then by last submission (asc): when points are equal, the student
// who submitted last earlier ranks higher. Remaining ties are ordered by student number then id.
// At most n rows are returned (all of them if n <= 0).
func Rank(scores []Score, n int) []RankedRow {
	sorted := make([]Score, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if !a.LastSubmittedAt.Equal(b.LastSubmittedAt) {
			return a.LastSubmittedAt.Before(b.LastSubmittedAt)
		}
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		return a.StudentID < b.StudentID
	})

	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	rows := make([]RankedRow, 0, len(sorted))
	for i, s := range sorted {
		rows = append(rows, RankedRow{
			Rank:            i + 1,
			StudentID:       s.StudentID,
			Number:          s.Number,
			StudentName:     s.StudentName,
			Points:          s.Points,
			LastSubmittedAt: s.LastSubmittedAt,
		})
	}
	return rows
}

// TopN ranks the students of the class over r (all time when r is nil).
func (svc *Service) TopN(ctx context.Context, classID string, n int, r *schooltime.Range) ([]RankedRow, error) {
	scores, err := svc.repo.StudentScores(ctx, classID, r)
	if err != nil {
		return nil, errors.Wrap(err, "querying student scores")
	}
	return Rank(scores, n), nil
}

// Leaderboards returns the current month and all-time boards of the class.
func (svc *Service) Leaderboards(ctx context.Context, classID string) (Boards, error) {
	month := svc.cal.CurrentMonthRange()
	monthly, err := svc.TopN(ctx, classID, svc.size, &month)
	if err != nil {
		return Boards{}, errors.Wrap(err, "ranking current month")
	}
	allTime, err := svc.TopN(ctx, classID, svc.size, nil)
	if err != nil {
		return Boards{}, errors.Wrap(err, "ranking all time")
	}
	return Boards{MonthlyTop: monthly, AllTimeTop: allTime, TieBreakRule: TieBreakRule}, nil
}

// RecentEvents returns the latest limit submissions of the class.
// limit defaults to the service's events limit and is capped at MaxEventsLimit.
func (svc *Service) RecentEvents(ctx context.Context, classID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = svc.eventsLimit
	}
	if limit > MaxEventsLimit {
		limit = MaxEventsLimit
	}
	events, err := svc.repo.RecentEvents(ctx, classID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying recent events")
	}
	if events == nil {
		events = []Event{}
	}
	return events, nil
}

func (svc *Service) Feed(ctx context.Context, classID string) (Feed, error) {
	boards, err := svc.Leaderboards(ctx, classID)
	if err != nil {
		return Feed{}, err
	}
	events, err := svc.RecentEvents(ctx, classID, 0)
	if err != nil {
		return Feed{}, err
	}
	return Feed{Boards: boards, RecentEvents: events}, nil
}

// DayStatus lists, for every student of the class, whether they submitted anything on date.
func (svc *Service) DayStatus(ctx context.Context, classID string, date schooltime.Date) (DayStatus, error) {
	students, err := svc.roster.QueryStudents(ctx, classID)
	if err != nil {
		return DayStatus{}, errors.Wrap(err, "querying students")
	}
	day := svc.cal.DayRange(date)
	scores, err := svc.repo.StudentScores(ctx, classID, &day)
	if err != nil {
		return DayStatus{}, errors.Wrap(err, "querying student scores")
	}
	byStudent := make(map[string]Score, len(scores))
	for _, s := range scores {
		byStudent[s.StudentID] = s
	}

	status := DayStatus{
		Date:        date,
		IsSchoolDay: svc.cal.IsSchoolDay(date),
		Rows:        make([]DayRow, 0, len(students)),
	}
	for _, st := range students {
		row := DayRow{StudentID: st.ID, Number: st.Number, DisplayName: st.DisplayName}
		if s, ok := byStudent[st.ID]; ok {
			ts := s.LastSubmittedAt
			row.Submitted = true
			row.LastTimestamp = &ts
			row.PointsAwarded = s.Points
		} else if status.IsSchoolDay {
			status.MissingCount++
		}
		status.Rows = append(status.Rows, row)
	}
	return status, nil
}
