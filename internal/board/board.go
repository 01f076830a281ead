// Package board keeps one month of the habit grid on the client side.
//
// Changes are optimistic: SetStatus, Tap and Clear update the local copy
// first, so a UI reading the board redraws at once, and then persist
// through the Backend. When the write fails the board re-fetches the month
// from the backend and replaces its copy (read-repair), then returns the
// original error. If the re-fetch fails too, the touched record is rolled
// back to what it was before the change.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/tracker"
)

// ErrNotLoaded is returned by operations that need Load to have succeeded.
var ErrNotLoaded = errors.New("board: month not loaded")

// Backend is the slice of the API the board uses. *client.Client
// satisfies it.
type Backend interface {
	MonthHabits(ctx context.Context, monthKey string) ([]model.MonthHabit, error)
	Completions(ctx context.Context, monthKey string) (map[string]model.Completion, error)
	SetStatus(ctx context.Context, habitID, monthKey string, day int, status tracker.Status) (model.Completion, error)
}

type Board struct {
	backend Backend
	now     func() time.Time
	logger  *slog.Logger

	mu       sync.Mutex
	monthKey string
	habits   []model.MonthHabit
	records  map[string]model.Completion
}

func New(backend Backend, now func() time.Time, logger *slog.Logger) *Board {
	if now == nil {
		now = time.Now
	}
	return &Board{backend: backend, now: now, logger: logger}
}

// Load fetches the month's habits and records and makes it the board's
// month. On error the previous month stays loaded.
func (b *Board) Load(ctx context.Context, monthKey string) error {
	if _, err := tracker.ParseMonthKey(monthKey); err != nil {
		return err
	}
	habits, records, err := b.fetch(ctx, monthKey)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.monthKey = monthKey
	b.habits = habits
	b.records = records
	return nil
}

func (b *Board) fetch(ctx context.Context, monthKey string) ([]model.MonthHabit, map[string]model.Completion, error) {
	habits, err := b.backend.MonthHabits(ctx, monthKey)
	if err != nil {
		return nil, nil, fmt.Errorf("board: loading habits of %s: %w", monthKey, err)
	}
	records, err := b.backend.Completions(ctx, monthKey)
	if err != nil {
		return nil, nil, fmt.Errorf("board: loading records of %s: %w", monthKey, err)
	}
	if records == nil {
		records = map[string]model.Completion{}
	}
	for id, rec := range records {
		records[id] = tracker.Normalize(rec)
	}
	return habits, records, nil
}

// MonthKey is the loaded month, or "" before the first Load.
func (b *Board) MonthKey() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.monthKey
}

// Habits returns a copy of the month's habit list in display order.
func (b *Board) Habits() []model.MonthHabit {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.habits)
}

// Status reads one cell of the loaded month.
func (b *Board) Status(habitID string, day int) tracker.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return tracker.StatusOf(b.records[habitID], day)
}

// Record returns the habit's record with both sets copied.
func (b *Board) Record(habitID string) model.Completion {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec := b.records[habitID]
	rec.Days = slices.Clone(rec.Days)
	rec.CrossedDays = slices.Clone(rec.CrossedDays)
	return rec
}

func (b *Board) SetStatus(ctx context.Context, habitID string, day int, status tracker.Status) error {
	return b.change(ctx, habitID, day, func(tracker.Status) tracker.Status { return status })
}

// Tap advances the cell along the tap cycle, computed from the local copy.
func (b *Board) Tap(ctx context.Context, habitID string, day int) error {
	return b.change(ctx, habitID, day, tracker.Next)
}

func (b *Board) Clear(ctx context.Context, habitID string, day int) error {
	return b.change(ctx, habitID, day, func(tracker.Status) tracker.Status { return tracker.StatusNone })
}

func (b *Board) change(ctx context.Context, habitID string, day int, next func(tracker.Status) tracker.Status) error {
	b.mu.Lock()
	if b.monthKey == "" {
		b.mu.Unlock()
		return ErrNotLoaded
	}
	monthKey := b.monthKey
	if err := tracker.CheckDay(monthKey, day, b.now()); err != nil {
		b.mu.Unlock()
		return err
	}
	before, existed := b.records[habitID]
	status := next(tracker.StatusOf(before, day))
	rec := before
	rec.HabitID, rec.MonthKey = habitID, monthKey
	b.records[habitID] = tracker.Set(rec, day, status)
	b.mu.Unlock()

	stored, err := b.backend.SetStatus(ctx, habitID, monthKey, day, status)
	if err == nil {
		b.mu.Lock()
		if b.monthKey == monthKey {
			stored.HabitID, stored.MonthKey = habitID, monthKey
			b.records[habitID] = tracker.Normalize(stored)
		}
		b.mu.Unlock()
		return nil
	}

	b.logger.Warn("status change failed, re-fetching month",
		slog.String("habitID", habitID),
		slog.String("monthKey", monthKey),
		slog.Int("day", day),
		slog.String("error", err.Error()),
	)

	habits, records, ferr := b.fetch(ctx, monthKey)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.monthKey != monthKey {
		return err
	}
	if ferr != nil {
		b.logger.Error("read-repair failed, rolling back", slog.String("error", ferr.Error()))
		if existed {
			b.records[habitID] = before
		} else {
			delete(b.records, habitID)
		}
		return err
	}
	b.habits = habits
	b.records = records
	return err
}

// Summary aggregates the loaded month locally. Creation dates are not part
// of the month list, so auto-crossing only counts habits with a known
// creation date; use the stats endpoint for the full picture.
func (b *Board) Summary(autoCross bool) (*tracker.Summary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.monthKey == "" {
		return nil, ErrNotLoaded
	}

	refs := make([]tracker.HabitRef, len(b.habits))
	for i, h := range b.habits {
		refs[i] = tracker.HabitRef{ID: h.ID, Name: h.Name}
	}
	return tracker.Summarize(tracker.SummaryInput{
		MonthKey:  b.monthKey,
		Habits:    refs,
		Records:   b.records,
		Now:       b.now(),
		AutoCross: autoCross,
	})
}
