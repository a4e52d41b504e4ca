package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/worktime/worktime-backend/pkg/database"
	"github.com/worktime/worktime-backend/pkg/errors"
)

const timeEntrySelect = `
	SELECT te.id, te.employee_id, te.task_id, te.start_time, te.end_time,
		te.created_at, te.updated_at,
		e.name AS employee_name, t.name AS task_name
	FROM time_entries te
	JOIN employees e ON e.id = te.employee_id
	JOIN tasks t ON t.id = te.task_id
`

// TimeEntryRepository handles time entry persistence and owns the
// no-overlap invariant
type TimeEntryRepository struct {
	db *database.DB
}

// NewTimeEntryRepository creates a new time entry repository
func NewTimeEntryRepository(db *database.DB) *TimeEntryRepository {
	return &TimeEntryRepository{db: db}
}

// Create validates and inserts entry in its own transaction
func (r *TimeEntryRepository) Create(ctx context.Context, entry *TimeEntry) error {
	entry.ID = ""
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		return r.Save(ctx, tx, entry)
	})
}

// Update validates and rewrites an existing entry in its own transaction
func (r *TimeEntryRepository) Update(ctx context.Context, entry *TimeEntry) error {
	if entry.ID == "" {
		return errors.NotFound("time_entry")
	}
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		return r.Save(ctx, tx, entry)
	})
}

// Save inserts entry, or updates it when entry.ID is set, after checking
// the interval, the references and every other entry of the employee for
// overlap. q must be a transaction: the employee row lock taken here is
// what makes check-then-write atomic against concurrent writers.
func (r *TimeEntryRepository) Save(ctx context.Context, q sqlx.ExtContext, entry *TimeEntry) error {
	if err := ValidateInterval(entry.StartTime, entry.EndTime); err != nil {
		return err
	}

	if err := lockEmployee(ctx, q, entry.EmployeeID); err != nil {
		return err
	}

	var taskExists bool
	if err := sqlx.GetContext(ctx, q, &taskExists,
		`SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, entry.TaskID); err != nil {
		return fmt.Errorf("failed to check task: %w", err)
	}
	if !taskExists {
		return errors.NotFound("task")
	}

	updating := entry.ID != ""
	if updating {
		var locked string
		err := sqlx.GetContext(ctx, q, &locked, `SELECT id FROM time_entries WHERE id = $1 FOR UPDATE`, entry.ID)
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NotFound("time_entry")
		}
		if err != nil {
			return fmt.Errorf("failed to lock time entry: %w", err)
		}
	}

	conflict, err := r.findOverlap(ctx, q, entry)
	if err != nil {
		return err
	}
	if conflict != nil {
		return conflict
	}

	if updating {
		err = q.QueryRowxContext(ctx, `
			UPDATE time_entries
			SET employee_id = $2, task_id = $3, start_time = $4, end_time = $5
			WHERE id = $1
			RETURNING created_at, updated_at`,
			entry.ID, entry.EmployeeID, entry.TaskID, entry.StartTime, entry.EndTime,
		).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	} else {
		entry.ID = uuid.New().String()
		err = q.QueryRowxContext(ctx, `
			INSERT INTO time_entries (id, employee_id, task_id, start_time, end_time)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at, updated_at`,
			entry.ID, entry.EmployeeID, entry.TaskID, entry.StartTime, entry.EndTime,
		).Scan(&entry.CreatedAt, &entry.UpdatedAt)
		if err != nil {
			entry.ID = ""
		}
	}
	if err != nil {
		return mapEntryWriteError(err)
	}
	return nil
}

// findOverlap returns the earliest other entry of the same employee whose
// half-open interval intersects entry's, as an OverlapError
func (r *TimeEntryRepository) findOverlap(ctx context.Context, q sqlx.QueryerContext, entry *TimeEntry) (*OverlapError, error) {
	var exclude interface{}
	if entry.ID != "" {
		exclude = entry.ID
	}

	var other struct {
		ID        string    `db:"id"`
		TaskName  string    `db:"task_name"`
		StartTime time.Time `db:"start_time"`
		EndTime   time.Time `db:"end_time"`
	}
	err := sqlx.GetContext(ctx, q, &other, `
		SELECT te.id, t.name AS task_name, te.start_time, te.end_time
		FROM time_entries te
		JOIN tasks t ON t.id = te.task_id
		WHERE te.employee_id = $1
			AND te.start_time < $3
			AND te.end_time > $2
			AND ($4::uuid IS NULL OR te.id <> $4::uuid)
		ORDER BY te.start_time, te.id
		LIMIT 1`,
		entry.EmployeeID, entry.StartTime, entry.EndTime, exclude)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check overlap: %w", err)
	}

	return &OverlapError{
		ConflictingID: other.ID,
		TaskName:      other.TaskName,
		Start:         other.StartTime,
		End:           other.EndTime,
	}, nil
}

func mapEntryWriteError(err error) error {
	switch {
	case database.HasCode(err, database.CodeExclusionViolation):
		return &OverlapError{}
	case database.HasCode(err, database.CodeCheckViolation):
		return &InvalidIntervalError{}
	default:
		return mapWriteError(err)
	}
}

// FindExact returns the entry matching the full (employee, task, start, end)
// tuple, or nil
func (r *TimeEntryRepository) FindExact(ctx context.Context, q sqlx.QueryerContext, employeeID, taskID string, start, end time.Time) (*TimeEntry, error) {
	var entry TimeEntry
	err := sqlx.GetContext(ctx, q, &entry, timeEntrySelect+`
		WHERE te.employee_id = $1 AND te.task_id = $2 AND te.start_time = $3 AND te.end_time = $4`,
		employeeID, taskID, start, end)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find time entry: %w", err)
	}
	return &entry, nil
}

// GetByID gets a time entry with employee and task names
func (r *TimeEntryRepository) GetByID(ctx context.Context, id string) (*TimeEntry, error) {
	var entry TimeEntry
	err := r.db.GetContext(ctx, &entry, timeEntrySelect+` WHERE te.id = $1`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("time_entry")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get time entry: %w", err)
	}
	return &entry, nil
}

// ListByEmployee returns an employee's entries in chronological order
func (r *TimeEntryRepository) ListByEmployee(ctx context.Context, employeeID string) ([]*TimeEntry, error) {
	entries := []*TimeEntry{}
	err := r.db.SelectContext(ctx, &entries,
		timeEntrySelect+` WHERE te.employee_id = $1 ORDER BY te.start_time, te.id`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	return entries, nil
}

// Delete locks and removes one entry. beforeDelete runs after the row is
// locked and before it is removed; its error rolls the delete back. The
// returned entry carries the employee name.
func (r *TimeEntryRepository) Delete(ctx context.Context, id string, beforeDelete func(ctx context.Context, entry *TimeEntry) error) (*TimeEntry, error) {
	var entry TimeEntry

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &entry, timeEntrySelect+` WHERE te.id = $1 FOR UPDATE OF te`, id)
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NotFound("time_entry")
		}
		if err != nil {
			return fmt.Errorf("failed to lock time entry: %w", err)
		}

		if beforeDelete != nil {
			if err := beforeDelete(ctx, &entry); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM time_entries WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete time entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ReportRows returns every entry flattened for aggregation, in insertion order
func (r *TimeEntryRepository) ReportRows(ctx context.Context) ([]ReportRow, error) {
	rows := []ReportRow{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT te.id AS entry_id, t.name AS task_name, e.name AS employee_name,
			p.hourly_rate, te.start_time, te.end_time
		FROM time_entries te
		JOIN tasks t ON t.id = te.task_id
		JOIN employees e ON e.id = te.employee_id
		JOIN positions p ON p.id = e.position_id
		ORDER BY te.created_at, te.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load report rows: %w", err)
	}
	return rows, nil
}
