// Package service contains the business logic layer of the application.
//
// THE THREE LAYERS:
//
//	Handler (HTTP)       → parses requests, writes responses
//	Service (this)       → validates, enforces rules, orchestrates
//	Repository (storage) → reads/writes sqlite or MongoDB
//
// Services accept primitives and domain types, never *http.Request, and
// return apperror values for anything the caller did wrong. Store failures
// are logged here, once, and returned wrapped with %w so the handler can
// still tell a NotFound from a 500.
//
// VALIDATE BEFORE TOUCHING THE STORE:
// Every method checks its inputs first. A request that fails validation
// never reaches a repository, so a rejected write leaves nothing behind.
package service

import (
	"time"

	"github.com/sakif/habit-tracker/internal/apperror"
)

// Clock returns the current time in the user-facing location. "Today",
// "the current month" and "a future day" are all decided from it.
type Clock func() time.Time

// SystemClock reads the wall clock in loc.
func SystemClock(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

// requireUser is the boundary check every service method starts with.
// The HTTP middleware already rejects anonymous requests; this keeps the
// services safe to call from anywhere else.
func requireUser(userID string) error {
	if userID == "" {
		return apperror.Unauthenticated("authentication required")
	}
	return nil
}
