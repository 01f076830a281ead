package tracker

import (
	"slices"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/model"
)

// Status is the state of one (habit, day) cell.
type Status string

const (
	StatusNone      Status = "none"
	StatusCompleted Status = "completed"
	StatusCrossed   Status = "crossed"
)

// ParseStatus accepts the wire values of the set-status call. "empty" is
// what the web client sends for a cleared cell.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "completed":
		return StatusCompleted, nil
	case "crossed":
		return StatusCrossed, nil
	case "empty", "none":
		return StatusNone, nil
	case "":
		return "", apperror.Required("status")
	}
	return "", apperror.ValidationFailed("status", "status must be one of completed, crossed, empty")
}

// Next is the primary-tap cycle. Once a cell has been touched it alternates
// between completed and crossed; only Clear takes it back to none.
//
//	none ──tap──▶ completed ──tap──▶ crossed ──tap──▶ completed
func Next(current Status) Status {
	switch current {
	case StatusCompleted:
		return StatusCrossed
	default:
		return StatusCompleted
	}
}

// StatusOf reads the cell. A day listed in both sets (legacy data) reads as
// completed.
func StatusOf(c model.Completion, day int) Status {
	switch {
	case slices.Contains(c.Days, day):
		return StatusCompleted
	case slices.Contains(c.CrossedDays, day):
		return StatusCrossed
	default:
		return StatusNone
	}
}

// Set moves the cell straight to s. The day is removed from both sets
// before it is added to the target one, so the result is always disjoint
// and setting the same status twice is a no-op.
//
// The input record is not modified.
func Set(c model.Completion, day int, s Status) model.Completion {
	out := Normalize(c)
	out.Days = remove(out.Days, day)
	out.CrossedDays = remove(out.CrossedDays, day)

	switch s {
	case StatusCompleted:
		out.Days = insert(out.Days, day)
	case StatusCrossed:
		out.CrossedDays = insert(out.CrossedDays, day)
	}
	return out
}

// Tap applies one primary tap.
func Tap(c model.Completion, day int) model.Completion {
	return Set(c, day, Next(StatusOf(c, day)))
}

// Clear is the double-tap / explicit clear: any state goes to none.
func Clear(c model.Completion, day int) model.Completion {
	return Set(c, day, StatusNone)
}

// Normalize repairs a record read from the store: both sets are sorted and
// de-duplicated, day numbers outside 1..31 are dropped, and any day present
// in both sets is kept as completed and removed from crossed. Nil slices
// become empty ones so they encode as [] rather than null.
func Normalize(c model.Completion) model.Completion {
	out := c
	out.Days = clean(c.Days)
	crossed := clean(c.CrossedDays)
	out.CrossedDays = slices.DeleteFunc(crossed, func(d int) bool {
		_, found := slices.BinarySearch(out.Days, d)
		return found
	})
	return out
}

func clean(days []int) []int {
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d >= 1 && d <= 31 {
			out = append(out, d)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func remove(days []int, day int) []int {
	return slices.DeleteFunc(slices.Clone(days), func(d int) bool { return d == day })
}

func insert(days []int, day int) []int {
	i, found := slices.BinarySearch(days, day)
	if found {
		return days
	}
	return slices.Insert(slices.Clone(days), i, day)
}
