package leaderboard

import (
	"time"

	"github.com/trezcool/workbook/core/schooltime"
)

// TieBreakRule describes how equal totals are ordered.
const TieBreakRule = "when points are equal, the student whose last submission is earlier ranks higher"

// Score is the aggregate of a student's non-void submissions over a period.
type Score struct {
	StudentID       string
	Number          int
	StudentName     string
	Points          int
	LastSubmittedAt time.Time
}

type RankedRow struct {
	Rank            int       `json:"rank"`
	StudentID       string    `json:"student_id"`
	Number          int       `json:"number"`
	StudentName     string    `json:"student_name"`
	Points          int       `json:"points"`
	LastSubmittedAt time.Time `json:"last_submitted_at"`
}

type Boards struct {
	MonthlyTop   []RankedRow `json:"monthly_top10"`
	AllTimeTop   []RankedRow `json:"all_time_top10"`
	TieBreakRule string      `json:"tie_break_rule"`
}

type Event struct {
	ID           string    `json:"id"`
	StudentName  string    `json:"student_name"`
	MaterialName string    `json:"material_name"`
	Points       int       `json:"points"`
	Timestamp    time.Time `json:"timestamp"`
}

// Feed is what the classroom display shows.
type Feed struct {
	Boards
	RecentEvents []Event `json:"recent_events"`
}

type DayRow struct {
	StudentID     string     `json:"student_id"`
	Number        int        `json:"number"`
	DisplayName   string     `json:"display_name"`
	Submitted     bool       `json:"submitted"`
	LastTimestamp *time.Time `json:"timestamp"`
	PointsAwarded int        `json:"points_awarded"`
}

type DayStatus struct {
	Date         schooltime.Date `json:"date"`
	IsSchoolDay  bool            `json:"is_school_day"`
	MissingCount int             `json:"missing_count"`
	Rows         []DayRow        `json:"rows"`
}
