package schooltime

import (
	"time"

	"github.com/pkg/errors"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without time of day nor location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, errors.Wrapf(err, "parsing date %q", s)
	}
	return DateOf(t), nil
}

// DateOf returns the date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return d.in(time.UTC).Format(dateLayout)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Weekday is computed from the calendar date alone.
func (d Date) Weekday() time.Weekday {
	return d.in(time.UTC).Weekday()
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.in(time.UTC).AddDate(0, 0, n))
}

func (d Date) in(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	date, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = date
	return nil
}
