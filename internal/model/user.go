package model

import "time"

// User represents a registered user account.
//
// Accounts come from two places: GitHub OAuth (GitHubID set, no password)
// and local email/password registration (PasswordHash set, GitHubID zero).
// The internal ID is always our own xid so neither provider's numbering
// leaks into the other tables.
//
// WHY PasswordHash HAS json:"-"?
// The /api/me handler encodes the User directly. The tag guarantees the
// bcrypt hash can never end up in a response body.
type User struct {
	ID           string    `json:"id"        db:"id"            bson:"_id"`
	GitHubID     int64     `json:"githubId"  db:"github_id"     bson:"githubId,omitempty"` // 0 for local accounts
	Login        string    `json:"login"     db:"login"         bson:"login"`
	Email        string    `json:"email"     db:"email"         bson:"email"`
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"    bson:"avatarUrl"`
	PasswordHash string    `json:"-"         db:"password_hash" bson:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"    bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"    bson:"updatedAt"`
}
