package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/model"
)

// CreateHabit inserts a new global habit. The ID is an xid: 20 URL-safe
// characters that sort by creation time.
func (db *DB) CreateHabit(ctx context.Context, habit *model.Habit) error {
	habit.ID = xid.New().String()
	if habit.CreatedAt.IsZero() {
		habit.CreatedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO habits (id, user_id, name, created_at) VALUES (?, ?, ?, ?)`,
		habit.ID,
		habit.UserID,
		habit.Name,
		habit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting habit: %w", err)
	}
	return nil
}

// GetHabit returns apperror.ErrNotFound for a missing id and for an id
// owned by another user.
func (db *DB) GetHabit(ctx context.Context, userID, id string) (*model.Habit, error) {
	var h model.Habit
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM habits WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&h.ID, &h.UserID, &h.Name, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("habit", id)
		}
		return nil, fmt.Errorf("sqlite: getting habit %s: %w", id, err)
	}
	return &h, nil
}

func (db *DB) ListHabits(ctx context.Context, userID string) ([]model.Habit, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM habits
		 WHERE user_id = ? ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing habits: %w", err)
	}
	defer rows.Close()

	habits := []model.Habit{}
	for rows.Next() {
		var h model.Habit
		if err := rows.Scan(&h.ID, &h.UserID, &h.Name, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning habit row: %w", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating habit rows: %w", err)
	}
	return habits, nil
}

// DeleteHabit removes the habit and its completions in one transaction so
// a crash can never leave orphaned day records behind.
func (db *DB) DeleteHabit(ctx context.Context, userID, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete of habit %s: %w", id, err)
	}
	defer tx.Rollback() // no-op after Commit

	result, err := tx.ExecContext(ctx,
		`DELETE FROM habits WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting habit %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("habit", id)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM completions WHERE habit_id = ? AND user_id = ?`, id, userID,
	); err != nil {
		return fmt.Errorf("sqlite: deleting completions of habit %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete of habit %s: %w", id, err)
	}
	return nil
}
