// Package apperror defines the domain error taxonomy shared by every layer.
//
// The service and repository layers return these errors; only the HTTP layer
// (handler/response.go) knows how they map to status codes:
//
//	ErrUnauthenticated → 401   no verified caller identity
//	ErrValidation      → 400   missing or malformed input, nothing written
//	ErrNotFound        → 404   id absent or owned by someone else
//	ErrForbidden       → 403
//	ErrConflict        → 409
//
// Anything else is treated as a store failure and surfaces as a generic 500.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("Validation Error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
)

type AppError struct {
	Err     error  // sentinel, matched with errors.Is
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound is also returned when the record exists but belongs to another
// owner, so callers cannot discover other users' ids.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Required is shorthand for the most common validation failure.
func Required(field string) *AppError {
	return ValidationFailed(field, field+" is required")
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated is raised before any store access when the request
// carries no valid identity, or when local credentials do not match.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}
