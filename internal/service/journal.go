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

const MaxJournalLength = 20000

type JournalService struct {
	repo   repository.JournalRepository
	logger *slog.Logger
}

func NewJournalService(repo repository.JournalRepository, logger *slog.Logger) *JournalService {
	return &JournalService{repo: repo, logger: logger}
}

// GetByDate returns (nil, nil) when nothing was written that day.
func (s *JournalService) GetByDate(ctx context.Context, userID, date string) (*model.JournalEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := tracker.ValidateDate(date); err != nil {
		return nil, err
	}

	entry, err := s.repo.GetJournalByDate(ctx, userID, date)
	if err != nil {
		return nil, logStoreError(s.logger, "getting journal entry", err, slog.String("date", date))
	}
	return entry, nil
}

func (s *JournalService) GetByID(ctx context.Context, userID, id string) (*model.JournalEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if id = strings.TrimSpace(id); id == "" {
		return nil, apperror.Required("id")
	}

	entry, err := s.repo.GetJournalByID(ctx, userID, id)
	if err != nil {
		return nil, logStoreError(s.logger, "getting journal entry", err, slog.String("id", id))
	}
	return entry, nil
}

// List returns every entry, newest date first.
func (s *JournalService) List(ctx context.Context, userID string) ([]model.JournalEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	entries, err := s.repo.ListJournal(ctx, userID)
	if err != nil {
		return nil, logStoreError(s.logger, "listing journal", err)
	}
	if entries == nil {
		entries = []model.JournalEntry{}
	}
	return entries, nil
}

// Save upserts the entry for date. Saving an empty string is allowed and
// keeps the entry, so a cleared note still has an updatedAt.
func (s *JournalService) Save(ctx context.Context, userID, date, content string) (*model.JournalEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := tracker.ValidateDate(date); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(content) > MaxJournalLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxJournalLength))
	}

	entry := &model.JournalEntry{UserID: userID, Date: date, Content: content}
	if err := s.repo.UpsertJournal(ctx, entry); err != nil {
		return nil, logStoreError(s.logger, "saving journal entry", err, slog.String("date", date))
	}

	s.logger.Info("journal entry saved", slog.String("id", entry.ID), slog.String("date", date))
	return entry, nil
}
