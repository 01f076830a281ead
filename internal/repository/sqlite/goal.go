package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/habit-tracker/internal/model"
)

func (db *DB) GetGoal(ctx context.Context, userID string, month, year int) (*model.Goal, error) {
	g := model.Goal{UserID: userID, Month: month, Year: year}
	var sacrifices string
	err := db.conn.QueryRowContext(ctx,
		`SELECT goal, target_date, sacrifices, updated_at FROM goals
		 WHERE user_id = ? AND month = ? AND year = ?`,
		userID, month, year,
	).Scan(&g.Goal, &g.TargetDate, &sacrifices, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: getting goal %d-%02d: %w", year, month, err)
	}

	if g.Sacrifices, err = decodeJSON[string](sacrifices); err != nil {
		return nil, fmt.Errorf("sqlite: goal %d-%02d sacrifices: %w", year, month, err)
	}
	return &g, nil
}

func (db *DB) UpsertGoal(ctx context.Context, g *model.Goal) error {
	sacrifices, err := encodeJSON(g.Sacrifices)
	if err != nil {
		return fmt.Errorf("sqlite: goal sacrifices: %w", err)
	}
	g.UpdatedAt = time.Now()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO goals (user_id, month, year, goal, target_date, sacrifices, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, month, year)
		 DO UPDATE SET goal = excluded.goal,
		               target_date = excluded.target_date,
		               sacrifices = excluded.sacrifices,
		               updated_at = excluded.updated_at`,
		g.UserID, g.Month, g.Year, g.Goal, g.TargetDate, sacrifices, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting goal %d-%02d: %w", g.Year, g.Month, err)
	}
	return nil
}
