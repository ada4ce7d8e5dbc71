// Package schooltime centralizes the school-local calendar math: day and month boundaries are computed
// in the school's fixed timezone and converted to absolute instants.
package schooltime

import (
	"time"

	"github.com/pkg/errors"
)

// Range is an inclusive interval of instants.
type Range struct {
	Start time.Time
	End   time.Time
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

type Calendar struct {
	loc *time.Location
	Now func() time.Time // mockable
}

func NewCalendar(loc *time.Location) *Calendar {
	return &Calendar{loc: loc, Now: time.Now}
}

// LoadCalendar returns a Calendar for an IANA timezone name (e.g. "Asia/Tokyo").
func LoadCalendar(tz string) (*Calendar, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errors.Wrapf(err, "loading timezone %q", tz)
	}
	return NewCalendar(loc), nil
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Today is the current school-local date.
func (c *Calendar) Today() Date {
	return DateOf(c.Now().In(c.loc))
}

// IsSchoolDay reports whether d is a weekday (Monday to Friday).
func (c *Calendar) IsSchoolDay(d Date) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// DayRange spans d from 00:00 to the last instant before the next midnight, school-local.
func (c *Calendar) DayRange(d Date) Range {
	start := d.in(c.loc)
	return Range{Start: start, End: start.AddDate(0, 0, 1).Add(-time.Nanosecond)}
}

// CurrentMonthRange spans the current school-local calendar month.
func (c *Calendar) CurrentMonthRange() Range {
	y, m, _ := c.Now().In(c.loc).Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, c.loc)
	return Range{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}
}

// Timestamp combines the school-local date d with the current school-local time of day (millisecond precision),
// so same-day events keep their chronological order while falling on d.
func (c *Calendar) Timestamp(d Date) time.Time {
	now := c.Now().In(c.loc)
	return time.Date(d.Year, d.Month, d.Day, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), c.loc).
		Truncate(time.Millisecond)
}

// DateOf returns the school-local date of t.
func (c *Calendar) DateOf(t time.Time) Date {
	return DateOf(t.In(c.loc))
}
