package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/repository"
	"github.com/sakif/habit-tracker/internal/tracker"
)

const MaxHabitNameLength = 100

// HabitService owns the global habit list and the month snapshots built
// from it.
type HabitService struct {
	habits    repository.HabitRepository
	snapshots repository.SnapshotRepository
	now       Clock
	logger    *slog.Logger
}

func NewHabitService(
	habits repository.HabitRepository,
	snapshots repository.SnapshotRepository,
	now Clock,
	logger *slog.Logger,
) *HabitService {
	return &HabitService{
		habits:    habits,
		snapshots: snapshots,
		now:       now,
		logger:    logger,
	}
}

// MonthHabits answers "which habits apply to this month", creating the
// month's snapshot when it can be derived.
//
// RESOLUTION ORDER:
//  1. The month already has a snapshot → return it as stored.
//  2. The user has snapshots for other months → copy the most recent
//     earlier month that has at least one habit. Empty months are skipped.
//     If there is none, return an empty list and create nothing.
//  3. The user has never had a snapshot (first use, or data from before
//     snapshots existed) → seed one snapshot for the CURRENT month from the
//     global habit list. Only a request for the current month sees it;
//     any other month gets an empty list.
//
// Step 3 deliberately never back-fills history: a migrating user would
// otherwise find every old month suddenly full of habits.
//
// An empty list is a successful answer. Store failures come back as
// errors so the caller can tell the two apart.
func (s *HabitService) MonthHabits(ctx context.Context, userID, monthKey string) ([]model.MonthHabit, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if _, err := tracker.ParseMonthKey(monthKey); err != nil {
		return nil, err
	}

	// === 1. EXISTING SNAPSHOT ===
	snap, err := s.snapshots.GetSnapshot(ctx, userID, monthKey)
	if err != nil {
		return nil, s.storeError("loading snapshot", err, slog.String("monthKey", monthKey))
	}
	if snap != nil {
		return orEmpty(snap.Habits), nil
	}

	has, err := s.snapshots.HasAnySnapshot(ctx, userID)
	if err != nil {
		return nil, s.storeError("checking snapshots", err)
	}

	// === 2. INHERIT FROM AN EARLIER MONTH ===
	if has {
		prev, err := s.snapshots.LatestSnapshotBefore(ctx, userID, monthKey)
		if err != nil {
			return nil, s.storeError("finding earlier snapshot", err, slog.String("monthKey", monthKey))
		}
		if prev == nil || len(prev.Habits) == 0 {
			return []model.MonthHabit{}, nil
		}

		inherited := &model.MonthSnapshot{
			UserID:   userID,
			MonthKey: monthKey,
			Habits:   append([]model.MonthHabit(nil), prev.Habits...),
		}
		if err := s.snapshots.SaveSnapshot(ctx, inherited); err != nil {
			return nil, s.storeError("saving inherited snapshot", err, slog.String("monthKey", monthKey))
		}
		s.logger.Info("month snapshot inherited",
			slog.String("userID", userID),
			slog.String("monthKey", monthKey),
			slog.String("from", prev.MonthKey),
			slog.Int("habits", len(inherited.Habits)),
		)
		return inherited.Habits, nil
	}

	// === 3. FIRST USE: SEED THE CURRENT MONTH ===
	habits, err := s.habits.ListHabits(ctx, userID)
	if err != nil {
		return nil, s.storeError("listing habits", err)
	}
	if len(habits) == 0 {
		return []model.MonthHabit{}, nil
	}

	current := tracker.MonthKeyOf(s.now())
	seeded := &model.MonthSnapshot{
		UserID:   userID,
		MonthKey: current,
		Habits:   make([]model.MonthHabit, 0, len(habits)),
	}
	for _, h := range habits {
		seeded.Habits = append(seeded.Habits, model.MonthHabit{ID: h.ID, Name: h.Name})
	}
	if err := s.snapshots.SaveSnapshot(ctx, seeded); err != nil {
		return nil, s.storeError("seeding snapshot", err, slog.String("monthKey", current))
	}
	s.logger.Info("month snapshot seeded from global habits",
		slog.String("userID", userID),
		slog.String("monthKey", current),
		slog.Int("habits", len(seeded.Habits)),
	)

	if monthKey != current {
		return []model.MonthHabit{}, nil
	}
	return seeded.Habits, nil
}

// AddHabitToMonth creates a global habit and appends it to one month.
// The global record is where the stable id comes from.
func (s *HabitService) AddHabitToMonth(ctx context.Context, userID, monthKey, name string) (*model.Habit, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if _, err := tracker.ParseMonthKey(monthKey); err != nil {
		return nil, err
	}
	name, err := validateHabitName(name)
	if err != nil {
		return nil, err
	}

	habit := &model.Habit{UserID: userID, Name: name, CreatedAt: s.now()}
	if err := s.habits.CreateHabit(ctx, habit); err != nil {
		return nil, s.storeError("creating habit", err, slog.String("name", name))
	}

	entry := model.MonthHabit{ID: habit.ID, Name: habit.Name}
	if err := s.snapshots.AppendSnapshotHabit(ctx, userID, monthKey, entry); err != nil {
		return nil, s.storeError("adding habit to month", err,
			slog.String("habitID", habit.ID), slog.String("monthKey", monthKey))
	}

	s.logger.Info("habit added to month",
		slog.String("id", habit.ID),
		slog.String("name", habit.Name),
		slog.String("monthKey", monthKey),
	)
	return habit, nil
}

// RemoveHabitFromMonth drops the habit from one month's snapshot. The
// global habit, its completions and every other month stay as they are.
func (s *HabitService) RemoveHabitFromMonth(ctx context.Context, userID, monthKey, habitID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if _, err := tracker.ParseMonthKey(monthKey); err != nil {
		return err
	}
	if habitID = strings.TrimSpace(habitID); habitID == "" {
		return apperror.Required("habitId")
	}

	if err := s.snapshots.RemoveSnapshotHabit(ctx, userID, monthKey, habitID); err != nil {
		return s.storeError("removing habit from month", err,
			slog.String("habitID", habitID), slog.String("monthKey", monthKey))
	}

	s.logger.Info("habit removed from month",
		slog.String("id", habitID),
		slog.String("monthKey", monthKey),
	)
	return nil
}

// ListHabits returns the global list, oldest first.
func (s *HabitService) ListHabits(ctx context.Context, userID string) ([]model.Habit, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	habits, err := s.habits.ListHabits(ctx, userID)
	if err != nil {
		return nil, s.storeError("listing habits", err)
	}
	return habits, nil
}

// CreateHabit adds to the global list only. Months pick it up through
// AddHabitToMonth, or through the first-use seeding in MonthHabits.
func (s *HabitService) CreateHabit(ctx context.Context, userID, name string) (*model.Habit, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name, err := validateHabitName(name)
	if err != nil {
		return nil, err
	}

	habit := &model.Habit{UserID: userID, Name: name, CreatedAt: s.now()}
	if err := s.habits.CreateHabit(ctx, habit); err != nil {
		return nil, s.storeError("creating habit", err, slog.String("name", name))
	}

	s.logger.Info("habit created", slog.String("id", habit.ID), slog.String("name", habit.Name))
	return habit, nil
}

// DeleteHabit removes the global habit and cascades to its completions.
// Month snapshots keep their copy of the name.
func (s *HabitService) DeleteHabit(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if id = strings.TrimSpace(id); id == "" {
		return apperror.Required("id")
	}

	if err := s.habits.DeleteHabit(ctx, userID, id); err != nil {
		return s.storeError("deleting habit", err, slog.String("id", id))
	}

	s.logger.Info("habit deleted", slog.String("id", id))
	return nil
}

func validateHabitName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "habit name is required")
	}
	if utf8.RuneCountInString(name) > MaxHabitNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("habit name must be %d characters or less", MaxHabitNameLength))
	}
	return name, nil
}

// storeError logs a repository failure and wraps it. Domain errors coming
// back from the repository (NotFound, Conflict) are passed through without
// an error-level log line: they are answers, not failures.
func (s *HabitService) storeError(op string, err error, attrs ...any) error {
	return logStoreError(s.logger, op, err, attrs...)
}

func orEmpty[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
