// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the server builds without a C
// toolchain and cross-compiles like any other Go binary.
//
// DOCUMENT-SHAPED ROWS:
// The habit grid thinks in documents: a completion record holds two arrays
// of day numbers, a month snapshot holds an ordered list of habits, a goal
// holds a list of sacrifices. Rather than exploding those into child tables
// we store each array as a JSON text column and always read and write the
// whole row. That keeps every upsert a single statement, which is what
// gives us the "replace both day sets atomically" guarantee for free.
//
// The pattern throughout is:
//  1. db.conn.ExecContext / QueryRowContext with ? placeholders
//  2. encode/decode the JSON columns in small helpers (json.go)
//  3. map sql.ErrNoRows to apperror.NotFound, or to (nil, nil) where the
//     repository contract says "absent is not an error"
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/sakif/habit-tracker/internal/repository"
)

// compile-time check that *DB satisfies every repository interface at once
var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database file and runs migrations.
//
// dbPath examples:
//   - "data/habits.db"  → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests)
//
// ONE CONNECTION:
// SQLite allows a single writer at a time, and an in-memory database only
// exists on the connection that created it. Capping the pool at one
// connection makes ":memory:" behave like a real file and turns write
// contention into queueing inside database/sql instead of SQLITE_BUSY.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping backs the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates every table. CREATE ... IF NOT EXISTS makes it safe to
// run on every start; later column additions go through
// addColumnIfNotExists so old database files pick them up too.
func (db *DB) migrate() error {
	// users: github_id is NULL for local (email/password) accounts.
	// SQLite treats NULLs as distinct, so UNIQUE still holds for GitHub ids.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			github_id  INTEGER UNIQUE,
			login      TEXT NOT NULL,
			email      TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	if err := db.addColumnIfNotExists("users", "password_hash",
		"TEXT NOT NULL DEFAULT ''"); err != nil {
		return fmt.Errorf("adding password_hash to users: %w", err)
	}

	// Only local accounts own their email; GitHub profiles may repeat one.
	_, err = db.conn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_users_local_email
			ON users(email) WHERE password_hash != '';
	`)
	if err != nil {
		return fmt.Errorf("creating users email index: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS habits (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			name       TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_habits_user_created ON habits(user_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating habits table: %w", err)
	}

	// month_habits.habits is a JSON array of {"id","name"} in display order.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS month_habits (
			user_id    TEXT NOT NULL,
			month_key  TEXT NOT NULL,
			habits     TEXT NOT NULL DEFAULT '[]',
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, month_key)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating month_habits table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS completions (
			user_id      TEXT NOT NULL,
			habit_id     TEXT NOT NULL,
			month_key    TEXT NOT NULL,
			days         TEXT NOT NULL DEFAULT '[]',
			crossed_days TEXT NOT NULL DEFAULT '[]',
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, habit_id, month_key)
		);
		CREATE INDEX IF NOT EXISTS idx_completions_month ON completions(user_id, month_key);
	`)
	if err != nil {
		return fmt.Errorf("creating completions table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS journal_entries (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			date       TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, date)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating journal_entries table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS goals (
			user_id     TEXT NOT NULL,
			month       INTEGER NOT NULL,
			year        INTEGER NOT NULL,
			goal        TEXT NOT NULL DEFAULT '',
			target_date TEXT NOT NULL DEFAULT '',
			sacrifices  TEXT NOT NULL DEFAULT '[""]',
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, month, year)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating goals table: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// It is what lets migrate run on every start.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}
