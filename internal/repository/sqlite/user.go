package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/model"
)

const userColumns = `id, github_id, login, email, avatar_url, password_hash, created_at, updated_at`

// scanUser reads a users row. github_id is NULL for local accounts, which
// maps to GitHubID == 0 on the model.
func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)
	err := row.Scan(&u.ID, &githubID, &u.Login, &u.Email, &u.AvatarURL,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.GitHubID = githubID.Int64
	return &u, nil
}

// Upsert inserts or updates a user based on their GitHub ID.
//
// We look the user up by github_id first so that a returning user KEEPS
// their internal ID, and only their profile fields are refreshed.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	if user.GitHubID == 0 {
		return fmt.Errorf("sqlite: upsert requires a GitHub id")
	}

	var existingID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	now := time.Now()
	if existingID != "" {
		user.ID = existingID
		user.UpdatedAt = now
		_, err = db.conn.ExecContext(ctx,
			`UPDATE users SET login = ?, email = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			user.Login, user.Email, user.AvatarURL, user.UpdatedAt, user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, github_id, login, email, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.GitHubID, user.Login, user.Email, user.AvatarURL,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
	}
	return nil
}

// CreateLocalUser inserts an email/password account. The partial unique
// index on email turns a duplicate registration into apperror.ErrConflict.
func (db *DB) CreateLocalUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, github_id, login, email, avatar_url, password_hash, created_at, updated_at)
		 VALUES (?, NULL, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Login, user.Email, user.AvatarURL, user.PasswordHash,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting local user: %w", err)
	}
	return nil
}

// GetUserByID returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail only considers local accounts; a GitHub profile that
// happens to share the address cannot be logged into with a password.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? AND password_hash != ''`, email,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}
