package service

import (
	"context"
	"log/slog"

	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/repository"
	"github.com/sakif/habit-tracker/internal/tracker"
)

// MonthResolver is the part of HabitService the stats need.
type MonthResolver interface {
	MonthHabits(ctx context.Context, userID, monthKey string) ([]model.MonthHabit, error)
}

// StatsService recomputes a month's summary on every call. Nothing it
// derives is stored.
type StatsService struct {
	months      MonthResolver
	habits      repository.HabitRepository
	completions repository.CompletionRepository
	now         Clock
	logger      *slog.Logger
}

func NewStatsService(
	months MonthResolver,
	habits repository.HabitRepository,
	completions repository.CompletionRepository,
	now Clock,
	logger *slog.Logger,
) *StatsService {
	return &StatsService{
		months:      months,
		habits:      habits,
		completions: completions,
		now:         now,
		logger:      logger,
	}
}

// MonthSummary aggregates the month's habits and records. Habits come from
// the month snapshot; creation dates come from the global list and are
// left zero for habits that have since been deleted.
func (s *StatsService) MonthSummary(ctx context.Context, userID, monthKey string, autoCross bool) (*tracker.Summary, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if _, err := tracker.ParseMonthKey(monthKey); err != nil {
		return nil, err
	}

	monthHabits, err := s.months.MonthHabits(ctx, userID, monthKey)
	if err != nil {
		return nil, err
	}

	global, err := s.habits.ListHabits(ctx, userID)
	if err != nil {
		return nil, logStoreError(s.logger, "listing habits", err)
	}
	created := make(map[string]model.Habit, len(global))
	for _, h := range global {
		created[h.ID] = h
	}

	records, err := s.completions.ListCompletions(ctx, userID, monthKey)
	if err != nil {
		return nil, logStoreError(s.logger, "listing completions", err, slog.String("monthKey", monthKey))
	}

	refs := make([]tracker.HabitRef, 0, len(monthHabits))
	for _, mh := range monthHabits {
		refs = append(refs, tracker.HabitRef{
			ID:        mh.ID,
			Name:      mh.Name,
			CreatedAt: created[mh.ID].CreatedAt,
		})
	}

	return tracker.Summarize(tracker.SummaryInput{
		MonthKey:  monthKey,
		Habits:    refs,
		Records:   records,
		Now:       s.now(),
		AutoCross: autoCross,
	})
}
