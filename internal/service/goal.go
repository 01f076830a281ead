package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/repository"
)

const (
	MinGoalYear = 1970
	MaxGoalYear = 9999
)

type GoalService struct {
	repo   repository.GoalRepository
	logger *slog.Logger
}

func NewGoalService(repo repository.GoalRepository, logger *slog.Logger) *GoalService {
	return &GoalService{repo: repo, logger: logger}
}

// Get never reports a missing goal: an unsaved month reads as the empty
// card with one blank sacrifice row.
func (s *GoalService) Get(ctx context.Context, userID string, month, year int) (*model.Goal, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := validateGoalMonth(month, year); err != nil {
		return nil, err
	}

	goal, err := s.repo.GetGoal(ctx, userID, month, year)
	if err != nil {
		return nil, logStoreError(s.logger, "getting goal", err, slog.Int("month", month), slog.Int("year", year))
	}
	if goal == nil {
		return model.EmptyGoal(month, year), nil
	}
	if len(goal.Sacrifices) == 0 {
		goal.Sacrifices = []string{""}
	}
	return goal, nil
}

// Save upserts the whole card. Sacrifice rows are stored as typed,
// including blank ones the form keeps for editing.
func (s *GoalService) Save(ctx context.Context, goal *model.Goal) error {
	if err := requireUser(goal.UserID); err != nil {
		return err
	}
	if err := validateGoalMonth(goal.Month, goal.Year); err != nil {
		return err
	}

	goal.Goal = strings.TrimSpace(goal.Goal)
	goal.TargetDate = strings.TrimSpace(goal.TargetDate)
	if len(goal.Sacrifices) == 0 {
		goal.Sacrifices = []string{""}
	}

	if err := s.repo.UpsertGoal(ctx, goal); err != nil {
		return logStoreError(s.logger, "saving goal", err, slog.Int("month", goal.Month), slog.Int("year", goal.Year))
	}

	s.logger.Info("goal saved", slog.Int("month", goal.Month), slog.Int("year", goal.Year))
	return nil
}

func validateGoalMonth(month, year int) error {
	if month == 0 {
		return apperror.Required("month")
	}
	if month < 1 || month > 12 {
		return apperror.ValidationFailed("month", "month must be between 1 and 12")
	}
	if year == 0 {
		return apperror.Required("year")
	}
	if year < MinGoalYear || year > MaxGoalYear {
		return apperror.ValidationFailed("year", "year is out of range")
	}
	return nil
}
