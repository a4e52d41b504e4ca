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

const taskColumns = `id, name, created_at, updated_at`

// TaskRepository handles task persistence
type TaskRepository struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task
func (r *TaskRepository) Create(ctx context.Context, t *Task) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO tasks (id, name) VALUES ($1, $2) RETURNING created_at, updated_at`,
		t.ID, t.Name,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// GetByID gets a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*Task, error) {
	var t Task
	err := r.db.GetContext(ctx, &t, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("task")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// List returns all tasks ordered by name
func (r *TaskRepository) List(ctx context.Context) ([]*Task, error) {
	tasks := []*Task{}
	if err := r.db.SelectContext(ctx, &tasks, `SELECT `+taskColumns+` FROM tasks ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// FindByName returns the task with the given name, or nil
func (r *TaskRepository) FindByName(ctx context.Context, q sqlx.QueryerContext, name string) (*Task, error) {
	var t Task
	err := sqlx.GetContext(ctx, q, &t, `SELECT `+taskColumns+` FROM tasks WHERE name = $1`, name)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &t, nil
}

// GetOrCreate returns the task with name, inserting it if absent
func (r *TaskRepository) GetOrCreate(ctx context.Context, q sqlx.ExtContext, name string) (*Task, bool, error) {
	t := Task{ID: uuid.New().String(), Name: name}

	err := sqlx.GetContext(ctx, q, &t, `
		INSERT INTO tasks (id, name) VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT tasks_name_unique DO NOTHING
		RETURNING `+taskColumns, t.ID, name)
	if err == nil {
		return &t, true, nil
	}
	if !stderrors.Is(err, sql.ErrNoRows) {
		return nil, false, mapWriteError(err)
	}

	existing, err := r.FindByName(ctx, q, name)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("task %q vanished after insert conflict", name)
	}
	return existing, false, nil
}

// Delete removes a task together with every time entry booked against it.
// afterDelete runs inside the transaction once the rows are gone; its
// error rolls everything back. It returns the task and the number of
// entries removed.
func (r *TaskRepository) Delete(ctx context.Context, id string, afterDelete func(ctx context.Context, t *Task, entries int64) error) (*Task, int64, error) {
	var (
		task    Task
		removed int64
	)

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &task, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id)
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NotFound("task")
		}
		if err != nil {
			return fmt.Errorf("failed to lock task: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM time_entries WHERE task_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete task entries: %w", err)
		}
		if removed, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to count deleted entries: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}

		if afterDelete != nil {
			return afterDelete(ctx, &task, removed)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &task, removed, nil
}
