package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sakif/habit-tracker/internal/model"
)

func (db *DB) GetSnapshot(ctx context.Context, userID, monthKey string) (*model.MonthSnapshot, error) {
	return db.getSnapshot(ctx, db.conn, userID, monthKey)
}

// querier is the part of *sql.DB and *sql.Tx the snapshot reads need, so
// AppendSnapshotHabit can read inside its transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (db *DB) getSnapshot(ctx context.Context, q querier, userID, monthKey string) (*model.MonthSnapshot, error) {
	var (
		raw  string
		snap = model.MonthSnapshot{UserID: userID, MonthKey: monthKey}
	)
	err := q.QueryRowContext(ctx,
		`SELECT habits, updated_at FROM month_habits WHERE user_id = ? AND month_key = ?`,
		userID, monthKey,
	).Scan(&raw, &snap.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: getting snapshot %s: %w", monthKey, err)
	}

	snap.Habits, err = decodeJSON[model.MonthHabit](raw)
	if err != nil {
		return nil, fmt.Errorf("sqlite: snapshot %s: %w", monthKey, err)
	}
	return &snap, nil
}

func (db *DB) HasAnySnapshot(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM month_habits WHERE user_id = ?)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking snapshots: %w", err)
	}
	return exists, nil
}

// LatestSnapshotBefore relies on month keys being zero-padded "YYYY-MM",
// so plain string comparison is calendar order.
func (db *DB) LatestSnapshotBefore(ctx context.Context, userID, monthKey string) (*model.MonthSnapshot, error) {
	var (
		raw  string
		snap = model.MonthSnapshot{UserID: userID}
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT month_key, habits, updated_at FROM month_habits
		 WHERE user_id = ? AND month_key < ? AND json_array_length(habits) > 0
		 ORDER BY month_key DESC LIMIT 1`,
		userID, monthKey,
	).Scan(&snap.MonthKey, &raw, &snap.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: finding snapshot before %s: %w", monthKey, err)
	}

	snap.Habits, err = decodeJSON[model.MonthHabit](raw)
	if err != nil {
		return nil, fmt.Errorf("sqlite: snapshot %s: %w", snap.MonthKey, err)
	}
	return &snap, nil
}

func (db *DB) SaveSnapshot(ctx context.Context, snap *model.MonthSnapshot) error {
	raw, err := encodeJSON(snap.Habits)
	if err != nil {
		return fmt.Errorf("sqlite: snapshot %s: %w", snap.MonthKey, err)
	}
	snap.UpdatedAt = time.Now()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO month_habits (user_id, month_key, habits, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, month_key)
		 DO UPDATE SET habits = excluded.habits, updated_at = excluded.updated_at`,
		snap.UserID, snap.MonthKey, raw, snap.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving snapshot %s: %w", snap.MonthKey, err)
	}
	return nil
}

// AppendSnapshotHabit is a read-modify-write inside one transaction,
// the SQL counterpart of an upserting $push.
func (db *DB) AppendSnapshotHabit(ctx context.Context, userID, monthKey string, habit model.MonthHabit) error {
	return db.modifySnapshot(ctx, userID, monthKey, true, func(habits []model.MonthHabit) []model.MonthHabit {
		return append(habits, habit)
	})
}

// RemoveSnapshotHabit never creates a snapshot: removing from a month that
// has none is a no-op, so the resolver can still inherit into it later.
func (db *DB) RemoveSnapshotHabit(ctx context.Context, userID, monthKey, habitID string) error {
	return db.modifySnapshot(ctx, userID, monthKey, false, func(habits []model.MonthHabit) []model.MonthHabit {
		return slices.DeleteFunc(habits, func(h model.MonthHabit) bool { return h.ID == habitID })
	})
}

func (db *DB) modifySnapshot(ctx context.Context, userID, monthKey string, create bool, edit func([]model.MonthHabit) []model.MonthHabit) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning snapshot update: %w", err)
	}
	defer tx.Rollback()

	snap, err := db.getSnapshot(ctx, tx, userID, monthKey)
	if err != nil {
		return err
	}
	var habits []model.MonthHabit
	switch {
	case snap != nil:
		habits = snap.Habits
	case !create:
		return nil
	}

	raw, err := encodeJSON(edit(habits))
	if err != nil {
		return fmt.Errorf("sqlite: snapshot %s: %w", monthKey, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO month_habits (user_id, month_key, habits, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, month_key)
		 DO UPDATE SET habits = excluded.habits, updated_at = excluded.updated_at`,
		userID, monthKey, raw, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snapshot %s: %w", monthKey, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing snapshot %s: %w", monthKey, err)
	}
	return nil
}
