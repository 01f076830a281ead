package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/habit-tracker/internal/model"
	"github.com/sakif/habit-tracker/internal/tracker"
)

// ListCompletions returns every record of the month keyed by habit id.
// Each record goes through tracker.Normalize on the way out, which is
// where legacy rows with a day in both arrays get repaired.
func (db *DB) ListCompletions(ctx context.Context, userID, monthKey string) (map[string]model.Completion, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT habit_id, days, crossed_days, updated_at FROM completions
		 WHERE user_id = ? AND month_key = ?`,
		userID, monthKey,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing completions for %s: %w", monthKey, err)
	}
	defer rows.Close()

	out := make(map[string]model.Completion)
	for rows.Next() {
		c := model.Completion{UserID: userID, MonthKey: monthKey}
		var days, crossed string
		if err := rows.Scan(&c.HabitID, &days, &crossed, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning completion row: %w", err)
		}
		if err := decodeDays(&c, days, crossed); err != nil {
			return nil, err
		}
		out[c.HabitID] = tracker.Normalize(c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating completion rows: %w", err)
	}
	return out, nil
}

func (db *DB) GetCompletion(ctx context.Context, userID, habitID, monthKey string) (*model.Completion, error) {
	c := model.Completion{UserID: userID, HabitID: habitID, MonthKey: monthKey}
	var days, crossed string
	err := db.conn.QueryRowContext(ctx,
		`SELECT days, crossed_days, updated_at FROM completions
		 WHERE user_id = ? AND habit_id = ? AND month_key = ?`,
		userID, habitID, monthKey,
	).Scan(&days, &crossed, &c.UpdatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: getting completion %s/%s: %w", habitID, monthKey, err)
	}
	if err == nil {
		if err := decodeDays(&c, days, crossed); err != nil {
			return nil, err
		}
	}
	c = tracker.Normalize(c)
	return &c, nil
}

// UpsertCompletion writes both arrays in one statement, so a reader sees
// either the old pair or the new pair, never a mix.
func (db *DB) UpsertCompletion(ctx context.Context, c *model.Completion) error {
	days, err := encodeJSON(c.Days)
	if err != nil {
		return fmt.Errorf("sqlite: completion days: %w", err)
	}
	crossed, err := encodeJSON(c.CrossedDays)
	if err != nil {
		return fmt.Errorf("sqlite: completion crossed days: %w", err)
	}
	c.UpdatedAt = time.Now()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO completions (user_id, habit_id, month_key, days, crossed_days, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, habit_id, month_key)
		 DO UPDATE SET days = excluded.days,
		               crossed_days = excluded.crossed_days,
		               updated_at = excluded.updated_at`,
		c.UserID, c.HabitID, c.MonthKey, days, crossed, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting completion %s/%s: %w", c.HabitID, c.MonthKey, err)
	}
	return nil
}

func decodeDays(c *model.Completion, days, crossed string) error {
	var err error
	if c.Days, err = decodeJSON[int](days); err != nil {
		return fmt.Errorf("sqlite: completion %s/%s days: %w", c.HabitID, c.MonthKey, err)
	}
	if c.CrossedDays, err = decodeJSON[int](crossed); err != nil {
		return fmt.Errorf("sqlite: completion %s/%s crossed days: %w", c.HabitID, c.MonthKey, err)
	}
	return nil
}
