package domain

import (
	"fmt"
	"time"
)

// Period is a payroll month. Start and End are inclusive UTC dates.
type Period struct {
	Month int       `json:"month"`
	Year  int       `json:"year"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewPeriod returns the calendar month period for month/year.
func NewPeriod(month, year int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("month must be between 1 and 12, got %d", month)
	}
	if year < 1 {
		return Period{}, fmt.Errorf("year must be positive, got %d", year)
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Month: month,
		Year:  year,
		Start: start,
		End:   start.AddDate(0, 1, -1),
	}, nil
}

// Contains reports whether the date falls inside the period.
func (p Period) Contains(d time.Time) bool {
	day := DateOf(d)
	return !day.Before(p.Start) && !day.After(p.End)
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsWeekday reports whether d falls Monday to Friday.
func IsWeekday(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// CountWeekdays counts Monday to Friday dates in [from, to]. Returns 0 when to is before from.
func CountWeekdays(from, to time.Time) int {
	from, to = DateOf(from), DateOf(to)
	count := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if IsWeekday(d) {
			count++
		}
	}
	return count
}
