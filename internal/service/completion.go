package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/repository"
	"github.com/sakif/habit-tracker/internal/tracker"
)

// CompletionService applies day-status transitions. Every change is a
// read of the current record, a pure transition from package tracker, and
// exactly one upsert of the full record.
type CompletionService struct {
	habits      repository.HabitRepository
	completions repository.CompletionRepository
	now         Clock
	logger      *slog.Logger
}

func NewCompletionService(
	habits repository.HabitRepository,
	completions repository.CompletionRepository,
	now Clock,
	logger *slog.Logger,
) *CompletionService {
	return &CompletionService{
		habits:      habits,
		completions: completions,
		now:         now,
		logger:      logger,
	}
}

// DayChange identifies one cell of the grid.
type DayChange struct {
	HabitID  string
	MonthKey string
	Day      int
}

// ListMonth returns every record of the month keyed by habit id. Habits
// with no marked days are simply absent.
func (s *CompletionService) ListMonth(ctx context.Context, userID, monthKey string) (map[string]model.Completion, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if _, err := tracker.ParseMonthKey(monthKey); err != nil {
		return nil, err
	}

	records, err := s.completions.ListCompletions(ctx, userID, monthKey)
	if err != nil {
		return nil, logStoreError(s.logger, "listing completions", err, slog.String("monthKey", monthKey))
	}
	return records, nil
}

// SetStatus puts the day into exactly the given state.
func (s *CompletionService) SetStatus(ctx context.Context, userID string, change DayChange, status tracker.Status) (*model.Completion, error) {
	return s.apply(ctx, userID, change, "set", func(c model.Completion) model.Completion {
		return tracker.Set(c, change.Day, status)
	})
}

// Tap advances the day one step along none → completed → crossed → completed.
func (s *CompletionService) Tap(ctx context.Context, userID string, change DayChange) (*model.Completion, error) {
	return s.apply(ctx, userID, change, "tap", func(c model.Completion) model.Completion {
		return tracker.Tap(c, change.Day)
	})
}

// Clear returns the day to none.
func (s *CompletionService) Clear(ctx context.Context, userID string, change DayChange) (*model.Completion, error) {
	return s.apply(ctx, userID, change, "clear", func(c model.Completion) model.Completion {
		return tracker.Clear(c, change.Day)
	})
}

func (s *CompletionService) apply(
	ctx context.Context,
	userID string,
	change DayChange,
	action string,
	transition func(model.Completion) model.Completion,
) (*model.Completion, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if change.MonthKey == "" {
		return nil, apperror.Required("monthKey")
	}
	if change.HabitID = strings.TrimSpace(change.HabitID); change.HabitID == "" {
		return nil, apperror.Required("habitId")
	}
	if err := tracker.CheckDay(change.MonthKey, change.Day, s.now()); err != nil {
		return nil, err
	}

	// Ownership check: a habit id from another account is a 404, and
	// nothing is written for it.
	if _, err := s.habits.GetHabit(ctx, userID, change.HabitID); err != nil {
		return nil, logStoreError(s.logger, "looking up habit", err, slog.String("habitID", change.HabitID))
	}

	current, err := s.completions.GetCompletion(ctx, userID, change.HabitID, change.MonthKey)
	if err != nil {
		return nil, logStoreError(s.logger, "loading completion", err,
			slog.String("habitID", change.HabitID), slog.String("monthKey", change.MonthKey))
	}

	next := transition(*current)
	next.UserID = userID
	next.HabitID = change.HabitID
	next.MonthKey = change.MonthKey
	if err := s.completions.UpsertCompletion(ctx, &next); err != nil {
		return nil, logStoreError(s.logger, "saving completion", err,
			slog.String("habitID", change.HabitID), slog.String("monthKey", change.MonthKey))
	}

	s.logger.Debug("day status changed",
		slog.String("action", action),
		slog.String("habitID", change.HabitID),
		slog.String("monthKey", change.MonthKey),
		slog.Int("day", change.Day),
		slog.String("status", string(tracker.StatusOf(next, change.Day))),
	)
	return &next, nil
}
