package repository

import (
	"fmt"
	"net/http"
	"time"

	"github.com/worktime/worktime-backend/pkg/errors"
)

// InvalidIntervalError is returned when an entry does not end after it starts
type InvalidIntervalError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval: start %s is not before end %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// ToAppError implements errors.Converter
func (e *InvalidIntervalError) ToAppError() *errors.AppError {
	return errors.NewWithKey("INVALID_INTERVAL", "errors.invalid_interval", http.StatusBadRequest).
		WithDetails(map[string]string{
			"start_time": e.Start.Format(time.RFC3339),
			"end_time":   e.End.Format(time.RFC3339),
		})
}

// ValidateInterval rejects intervals with start >= end
func ValidateInterval(start, end time.Time) error {
	if !start.Before(end) {
		return &InvalidIntervalError{Start: start, End: end}
	}
	return nil
}

// OverlapError is returned when an entry would share time with another
// entry of the same employee. Conflicting fields are empty when the
// storage constraint caught the overlap instead of the query.
type OverlapError struct {
	ConflictingID string
	TaskName      string
	Start         time.Time
	End           time.Time
}

func (e *OverlapError) Error() string {
	if e.ConflictingID == "" {
		return "employee cannot work on two tasks at the same time"
	}
	return fmt.Sprintf("employee cannot work on two tasks at the same time: overlaps entry %s (task '%s', %s - %s)",
		e.ConflictingID, e.TaskName, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// ToAppError implements errors.Converter
func (e *OverlapError) ToAppError() *errors.AppError {
	if e.ConflictingID == "" {
		return errors.Conflict(e.Error())
	}
	return errors.NewWithKey("OVERLAP", "errors.overlap", http.StatusConflict, map[string]string{
		"task":  e.TaskName,
		"start": e.Start.Format(time.RFC3339),
		"end":   e.End.Format(time.RFC3339),
	}).WithDetails(map[string]string{
		"conflicting_entry_id": e.ConflictingID,
		"task_name":            e.TaskName,
		"start_time":           e.Start.Format(time.RFC3339),
		"end_time":             e.End.Format(time.RFC3339),
	})
}

// ReferentialConflictError is returned when deleting a row that other rows
// still reference
type ReferentialConflictError struct {
	Resource   string // resource key of the row being deleted
	ResourceID string
	Blocker    string // resource key of the referencing row
	BlockerID  string
}

func (e *ReferentialConflictError) Error() string {
	return fmt.Sprintf("%s %s is still referenced by %s %s", e.Resource, e.ResourceID, e.Blocker, e.BlockerID)
}

// ToAppError implements errors.Converter
func (e *ReferentialConflictError) ToAppError() *errors.AppError {
	return errors.NewWithKey("REFERENTIAL_CONFLICT", "errors.referential_conflict", http.StatusConflict,
		map[string]string{
			"resource_key": e.Resource,
			"blocker":      e.Blocker + " " + e.BlockerID,
		}).WithDetails(map[string]string{
		"blocking_resource": e.Blocker,
		"blocking_id":       e.BlockerID,
	})
}
