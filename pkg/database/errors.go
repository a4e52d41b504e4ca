package database

import (
	stderrors "errors"
	"net/http"

	"github.com/lib/pq"
	"github.com/worktime/worktime-backend/pkg/errors"
)

// PostgreSQL error codes the repositories care about
const (
	CodeCheckViolation      = "23514"
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeNotNullViolation    = "23502"
	CodeExclusionViolation  = "23P01"
)

// PQError unwraps err into a *pq.Error, if it is one
func PQError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

// HasCode reports whether err is a PostgreSQL error with the given SQLSTATE
func HasCode(err error, code string) bool {
	pqErr, ok := PQError(err)
	return ok && string(pqErr.Code) == code
}

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error. Repositories translate the
// domain-specific cases (overlap, referential conflict) before falling back here.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := PQError(err)
	if !ok {
		return nil
	}

	switch string(pqErr.Code) {
	case CodeCheckViolation:
		return mapCheckConstraint(pqErr)

	case CodeUniqueViolation:
		return errors.NewWithKey("CONFLICT", "errors.duplicate", http.StatusConflict,
			map[string]string{"resource_key": resourceFromTable(pqErr.Table)})

	case CodeForeignKeyViolation:
		return errors.Conflict("record is referenced by or references missing data: " + pqErr.Constraint)

	case CodeExclusionViolation:
		return errors.Conflict("time entry overlaps an existing entry")

	case CodeNotNullViolation:
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	switch pqErr.Constraint {
	case "positions_hourly_rate_range":
		return errors.Validation(map[string]string{
			"hourly_rate": "must be between 0 and 100",
		})
	case "time_entries_interval_valid":
		return errors.Validation(map[string]string{
			"end_time": "must be after start_time",
		})
	default:
		return errors.BadRequest("data validation failed: " + pqErr.Constraint)
	}
}

func resourceFromTable(table string) string {
	switch table {
	case "positions":
		return "position"
	case "employees":
		return "employee"
	case "tasks":
		return "task"
	default:
		return "time_entry"
	}
}
