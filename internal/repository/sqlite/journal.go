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

const journalColumns = `id, user_id, date, content, updated_at`

func scanJournal(row interface{ Scan(...any) error }) (*model.JournalEntry, error) {
	var e model.JournalEntry
	if err := row.Scan(&e.ID, &e.UserID, &e.Date, &e.Content, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (db *DB) GetJournalByDate(ctx context.Context, userID, date string) (*model.JournalEntry, error) {
	e, err := scanJournal(db.conn.QueryRowContext(ctx,
		`SELECT `+journalColumns+` FROM journal_entries WHERE user_id = ? AND date = ?`,
		userID, date,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: getting journal for %s: %w", date, err)
	}
	return e, nil
}

func (db *DB) GetJournalByID(ctx context.Context, userID, id string) (*model.JournalEntry, error) {
	e, err := scanJournal(db.conn.QueryRowContext(ctx,
		`SELECT `+journalColumns+` FROM journal_entries WHERE id = ? AND user_id = ?`,
		id, userID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("journal entry", id)
		}
		return nil, fmt.Errorf("sqlite: getting journal entry %s: %w", id, err)
	}
	return e, nil
}

func (db *DB) ListJournal(ctx context.Context, userID string) ([]model.JournalEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+journalColumns+` FROM journal_entries WHERE user_id = ? ORDER BY date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing journal: %w", err)
	}
	defer rows.Close()

	entries := []model.JournalEntry{}
	for rows.Next() {
		e, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning journal row: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating journal rows: %w", err)
	}
	return entries, nil
}

// UpsertJournal keeps the id of an existing entry for the same date; only
// content and updated_at change. entry.ID is filled in either way.
func (db *DB) UpsertJournal(ctx context.Context, entry *model.JournalEntry) error {
	entry.UpdatedAt = time.Now()

	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO journal_entries (id, user_id, date, content, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, date)
		 DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at
		 RETURNING id`,
		xid.New().String(), entry.UserID, entry.Date, entry.Content, entry.UpdatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("sqlite: upserting journal for %s: %w", entry.Date, err)
	}
	return nil
}
