// Package repository declares the storage contracts the service layer
// depends on. Two backends implement every interface: repository/sqlite
// (the default, single-file) and repository/mongodb (document store).
//
// Every method is scoped by owner. A record that exists but belongs to a
// different user is reported exactly like a missing one.
package repository

import (
	"context"

	"github.com/sakif/habit-tracker/internal/model"
)

// HabitRepository stores the global habit list.
type HabitRepository interface {
	CreateHabit(ctx context.Context, habit *model.Habit) error
	GetHabit(ctx context.Context, userID, id string) (*model.Habit, error)
	// ListHabits returns the user's habits oldest first.
	ListHabits(ctx context.Context, userID string) ([]model.Habit, error)
	// DeleteHabit removes the habit and every completion record pointing
	// at it. Month snapshots are left alone.
	DeleteHabit(ctx context.Context, userID, id string) error
}

// SnapshotRepository stores one habit list per (user, month).
type SnapshotRepository interface {
	// GetSnapshot returns (nil, nil) when the month has no snapshot.
	GetSnapshot(ctx context.Context, userID, monthKey string) (*model.MonthSnapshot, error)
	HasAnySnapshot(ctx context.Context, userID string) (bool, error)
	// LatestSnapshotBefore returns the most recent snapshot with a month
	// key strictly less than monthKey and a non-empty habit list, or
	// (nil, nil) if there is none.
	LatestSnapshotBefore(ctx context.Context, userID, monthKey string) (*model.MonthSnapshot, error)
	// SaveSnapshot inserts or replaces the whole snapshot.
	SaveSnapshot(ctx context.Context, snapshot *model.MonthSnapshot) error
	// AppendSnapshotHabit adds one entry, creating the snapshot if needed.
	AppendSnapshotHabit(ctx context.Context, userID, monthKey string, habit model.MonthHabit) error
	// RemoveSnapshotHabit pulls one entry from one month only.
	RemoveSnapshotHabit(ctx context.Context, userID, monthKey, habitID string) error
}

// CompletionRepository is the single source of truth for day statuses.
// Reads are normalised (sorted, de-duplicated, disjoint) before returning.
type CompletionRepository interface {
	ListCompletions(ctx context.Context, userID, monthKey string) (map[string]model.Completion, error)
	// GetCompletion returns an empty record, not an error, when nothing
	// has been stored yet for the key.
	GetCompletion(ctx context.Context, userID, habitID, monthKey string) (*model.Completion, error)
	// UpsertCompletion replaces both day sets for the key in one write.
	UpsertCompletion(ctx context.Context, c *model.Completion) error
}

// JournalRepository stores one entry per (user, date).
type JournalRepository interface {
	// GetJournalByDate returns (nil, nil) when the day has no entry.
	GetJournalByDate(ctx context.Context, userID, date string) (*model.JournalEntry, error)
	GetJournalByID(ctx context.Context, userID, id string) (*model.JournalEntry, error)
	// ListJournal returns every entry, newest date first.
	ListJournal(ctx context.Context, userID string) ([]model.JournalEntry, error)
	UpsertJournal(ctx context.Context, entry *model.JournalEntry) error
}

// GoalRepository stores one goal per (user, month, year).
type GoalRepository interface {
	// GetGoal returns (nil, nil) when nothing is saved for the month.
	GetGoal(ctx context.Context, userID string, month, year int) (*model.Goal, error)
	UpsertGoal(ctx context.Context, goal *model.Goal) error
}

// UserRepository stores accounts from both identity sources.
type UserRepository interface {
	// Upsert inserts or updates a GitHub user keyed by GitHubID.
	Upsert(ctx context.Context, user *model.User) error
	// CreateLocalUser inserts an email/password account. Returns a
	// conflict error if the email is taken.
	CreateLocalUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// Store bundles every repository. Both backends satisfy it with a single
// value, which is what the server wires into the services.
type Store interface {
	HabitRepository
	SnapshotRepository
	CompletionRepository
	JournalRepository
	GoalRepository
	UserRepository
	Ping(ctx context.Context) error
	Close() error
}
