package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/worktime/worktime-backend/pkg/database"
	"github.com/worktime/worktime-backend/pkg/errors"
)

const employeeSelect = `
	SELECT e.id, e.name, e.position_id, e.created_at, e.updated_at,
		p.name AS position_name, p.hourly_rate
	FROM employees e
	JOIN positions p ON p.id = e.position_id
`

// EmployeeRepository handles employee persistence
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create inserts a new employee. An unknown position is NotFound.
func (r *EmployeeRepository) Create(ctx context.Context, e *Employee) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	query := `
		INSERT INTO employees (id, name, position_id)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, e.ID, e.Name, e.PositionID).Scan(&e.CreatedAt, &e.UpdatedAt)
	if database.HasCode(err, database.CodeForeignKeyViolation) {
		return errors.NotFound("position")
	}
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// GetByID gets an employee with its position
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*Employee, error) {
	var e Employee
	err := r.db.GetContext(ctx, &e, employeeSelect+` WHERE e.id = $1`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("employee")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &e, nil
}

// Exists reports whether an employee with id exists
func (r *EmployeeRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM employees WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check employee: %w", err)
	}
	return exists, nil
}

// List returns all employees with their positions
func (r *EmployeeRepository) List(ctx context.Context) ([]*Employee, error) {
	employees := []*Employee{}
	if err := r.db.SelectContext(ctx, &employees, employeeSelect+` ORDER BY e.name, e.id`); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

// FindByName returns every employee with the given name
func (r *EmployeeRepository) FindByName(ctx context.Context, q sqlx.QueryerContext, name string) ([]*Employee, error) {
	employees := []*Employee{}
	err := sqlx.SelectContext(ctx, q, &employees, employeeSelect+` WHERE e.name = $1 ORDER BY e.created_at, e.id`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find employee: %w", err)
	}
	return employees, nil
}

// GetOrCreate returns the employee keyed by (name, position), inserting it if absent
func (r *EmployeeRepository) GetOrCreate(ctx context.Context, q sqlx.ExtContext, name, positionID string) (*Employee, bool, error) {
	e := Employee{ID: uuid.New().String(), Name: name, PositionID: positionID}

	err := sqlx.GetContext(ctx, q, &e, `
		INSERT INTO employees (id, name, position_id)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT employees_name_position_unique DO NOTHING
		RETURNING id, name, position_id, created_at, updated_at`, e.ID, name, positionID)
	if err == nil {
		return &e, true, nil
	}
	if database.HasCode(err, database.CodeForeignKeyViolation) {
		return nil, false, errors.NotFound("position")
	}
	if !stderrors.Is(err, sql.ErrNoRows) {
		return nil, false, mapWriteError(err)
	}

	err = sqlx.GetContext(ctx, q, &e, `
		SELECT id, name, position_id, created_at, updated_at
		FROM employees WHERE name = $1 AND position_id = $2`, name, positionID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch existing employee: %w", err)
	}
	return &e, false, nil
}

// Delete removes an employee that has no time entries
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := lockEmployee(ctx, tx, id); err != nil {
			return err
		}

		var blocker string
		err := tx.GetContext(ctx, &blocker,
			`SELECT id FROM time_entries WHERE employee_id = $1 ORDER BY start_time, id LIMIT 1`, id)
		if err == nil {
			return &ReferentialConflictError{Resource: "employee", ResourceID: id, Blocker: "time_entry", BlockerID: blocker}
		}
		if !stderrors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check employee references: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id); err != nil {
			if database.HasCode(err, database.CodeForeignKeyViolation) {
				return &ReferentialConflictError{Resource: "employee", ResourceID: id, Blocker: "time_entry"}
			}
			return fmt.Errorf("failed to delete employee: %w", err)
		}
		return nil
	})
}

// lockEmployee takes the row lock that serializes every writer touching
// this employee's time entries
func lockEmployee(ctx context.Context, q sqlx.QueryerContext, id string) error {
	var locked string
	err := sqlx.GetContext(ctx, q, &locked, `SELECT id FROM employees WHERE id = $1 FOR UPDATE`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound("employee")
	}
	if err != nil {
		return fmt.Errorf("failed to lock employee: %w", err)
	}
	return nil
}
