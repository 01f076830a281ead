package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/habit-tracker/internal/apperror"
)

// logStoreError is shared by every service. It wraps err with the
// operation name and logs it unless it is already a typed domain error.
func logStoreError(logger *slog.Logger, op string, err error, attrs ...any) error {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		logger.Error("failed "+op, append(attrs, slog.String("error", err.Error()))...)
	}
	return fmt.Errorf("%s: %w", op, err)
}
