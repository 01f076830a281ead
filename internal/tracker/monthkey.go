// Package tracker holds the pure core of the habit grid: month keys and
// calendar arithmetic, the day-status state machine, and the statistics
// derived from a month of day-status records.
//
// Nothing in here touches a store, a clock or a logger. Callers pass "now"
// in explicitly, which is what makes the future-day guard and the
// current-month maths testable.
package tracker

import (
	"fmt"
	"time"

	"github.com/sakif/habit-tracker/internal/apperror"
)

const (
	// MonthKeyLayout is the zero-padded "YYYY-MM" form. Keys sort
	// lexicographically in calendar order, which the snapshot resolver
	// relies on when it looks for the most recent earlier month.
	MonthKeyLayout = "2006-01"
	// DateLayout is the journal date form.
	DateLayout = "2006-01-02"
)

// ParseMonthKey returns midnight UTC on the first day of the month.
func ParseMonthKey(key string) (time.Time, error) {
	if key == "" {
		return time.Time{}, apperror.Required("monthKey")
	}
	t, err := time.Parse(MonthKeyLayout, key)
	if err != nil || len(key) != len(MonthKeyLayout) {
		return time.Time{}, apperror.ValidationFailed("monthKey", "monthKey must be in YYYY-MM format")
	}
	return t, nil
}

// MonthKeyOf formats the calendar month that t falls in, in t's location.
func MonthKeyOf(t time.Time) string {
	return t.Format(MonthKeyLayout)
}

// DaysInMonth returns 28..31 for a valid key.
func DaysInMonth(key string) (int, error) {
	start, err := ParseMonthKey(key)
	if err != nil {
		return 0, err
	}
	return daysIn(start.Year(), start.Month()), nil
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month normalises to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidateDate checks a journal date.
func ValidateDate(date string) error {
	if date == "" {
		return apperror.Required("date")
	}
	if _, err := time.Parse(DateLayout, date); err != nil || len(date) != len(DateLayout) {
		return apperror.ValidationFailed("date", "date must be in YYYY-MM-DD format")
	}
	return nil
}

// civil strips the clock and the location, keeping only the calendar date
// as seen in t's own location.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CheckDay is the precondition for every status change: day must exist in
// the month and must not be after today. It is the caller's job to invoke
// it; the state machine itself accepts any day number.
func CheckDay(monthKey string, day int, now time.Time) error {
	start, err := ParseMonthKey(monthKey)
	if err != nil {
		return err
	}
	n := daysIn(start.Year(), start.Month())
	if day < 1 || day > n {
		return apperror.ValidationFailed("day", fmt.Sprintf("day must be between 1 and %d", n))
	}
	cell := time.Date(start.Year(), start.Month(), day, 0, 0, 0, 0, time.UTC)
	if cell.After(civil(now)) {
		return apperror.ValidationFailed("day", "cannot change the status of a future day")
	}
	return nil
}
