package database

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/lib/pq"

	"github.com/lumigente/lumigente-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error or carries no special meaning.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return nil
	}

	switch {
	// Check constraint violation
	case pqErr.Code == "23514":
		return mapCheckConstraint(pqErr)

	// Not null violation
	case pqErr.Code == "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	// query_canceled, raised when statement_timeout fires
	case pqErr.Code == "57014":
		return errors.Unavailable("database query timed out", err)

	// Class 08: connection exceptions
	case strings.HasPrefix(string(pqErr.Code), "08"):
		return errors.Unavailable("database connection failed", err)

	default:
		return nil
	}
}

// MapStoreError maps driver and context failures to an AppError, falling back to Internal.
func MapStoreError(err error) *errors.AppError {
	if err == nil {
		return nil
	}
	if appErr := MapPQError(err); appErr != nil {
		return appErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Unavailable("database query timed out", err)
	}
	return errors.Wrap(err, "INTERNAL_ERROR", "database error", 500)
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	switch {
	case strings.Contains(pqErr.Constraint, "score_range"):
		return errors.Validation(map[string]string{
			"score": "must be between 1 and 5",
		})
	case strings.Contains(pqErr.Constraint, "objective_status"):
		return errors.Validation(map[string]string{
			"status": "must be one of: Ativo, Concluído, Aguardando Aprovação, Agendado, Expirado",
		})
	default:
		return errors.BadRequest("data validation failed: " + pqErr.Constraint)
	}
}
