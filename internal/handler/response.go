package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON / writeError, so the API has one
// error shape:
//
//	{"error": "validation_error", "message": "monthKey is required"}
//
// The "error" field is machine readable; "message" is for people.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/habit-tracker/internal/apperror"
	"github.com/sakif/habit-tracker/internal/auth"
)

// maxBodyBytes caps request bodies. The largest legitimate body is a
// journal entry.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SuccessResponse is returned by endpoints that have nothing else to say.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// writeJSON sets headers and status before the body; anything set after
// the first write is ignored by net/http.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps the apperror taxonomy to HTTP:
//
//	ErrUnauthenticated → 401 unauthorized
//	ErrValidation      → 400 validation_error
//	ErrNotFound        → 404 not_found
//	ErrForbidden       → 403 forbidden
//	ErrConflict        → 409 conflict
//	anything else      → 500 internal_error, with a generic message
//
// Store errors never reach the client verbatim; the service has already
// logged them.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"
	switch {
	case errors.Is(err, apperror.ErrUnauthenticated):
		status = http.StatusUnauthorized
		errorType = "unauthorized"
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		errorType = "validation_error"
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		errorType = "not_found"
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
		errorType = "forbidden"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
		errorType = "conflict"
	}

	writeJSON(w, status, ErrorResponse{Error: errorType, Message: appErr.Message})
}

// decodeJSON reads one JSON value from the body. A malformed or oversized
// body is a validation error, so it goes out as a 400 through writeError.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return apperror.ValidationFailed("body", "request body is too large")
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is required")
		default:
			return apperror.ValidationFailed("body", "request body is not valid JSON")
		}
	}
	return nil
}

// userID reads the caller set by auth.RequireAuth. An empty result is
// turned into a 401 by the service layer.
func userID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}
