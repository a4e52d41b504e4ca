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

const positionColumns = `id, name, hourly_rate, created_at, updated_at`

// PositionRepository handles position persistence
type PositionRepository struct {
	db *database.DB
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *database.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Create inserts a new position
func (r *PositionRepository) Create(ctx context.Context, p *Position) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	query := `
		INSERT INTO positions (id, name, hourly_rate)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, p.ID, p.Name, p.HourlyRate).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// Update changes a position's name and rate
func (r *PositionRepository) Update(ctx context.Context, p *Position) error {
	query := `
		UPDATE positions SET name = $2, hourly_rate = $3
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, p.ID, p.Name, p.HourlyRate).Scan(&p.CreatedAt, &p.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound("position")
	}
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// GetByID gets a position by ID
func (r *PositionRepository) GetByID(ctx context.Context, id string) (*Position, error) {
	var p Position
	err := r.db.GetContext(ctx, &p, `SELECT `+positionColumns+` FROM positions WHERE id = $1`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("position")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return &p, nil
}

// List returns all positions ordered by name and rate
func (r *PositionRepository) List(ctx context.Context) ([]*Position, error) {
	positions := []*Position{}
	err := r.db.SelectContext(ctx, &positions, `SELECT `+positionColumns+` FROM positions ORDER BY name, hourly_rate`)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	return positions, nil
}

// FindByName returns every position with the given name. Names are not
// unique on their own, so callers must handle more than one match.
func (r *PositionRepository) FindByName(ctx context.Context, q sqlx.QueryerContext, name string) ([]*Position, error) {
	positions := []*Position{}
	err := sqlx.SelectContext(ctx, q, &positions,
		`SELECT `+positionColumns+` FROM positions WHERE name = $1 ORDER BY hourly_rate`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find position: %w", err)
	}
	return positions, nil
}

// GetOrCreate returns the position keyed by (name, rate), inserting it if
// absent. The unique constraint makes this safe against concurrent importers.
func (r *PositionRepository) GetOrCreate(ctx context.Context, q sqlx.ExtContext, name string, rate int) (*Position, bool, error) {
	p := Position{ID: uuid.New().String(), Name: name, HourlyRate: rate}

	err := sqlx.GetContext(ctx, q, &p, `
		INSERT INTO positions (id, name, hourly_rate)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT positions_name_rate_unique DO NOTHING
		RETURNING `+positionColumns, p.ID, name, rate)
	if err == nil {
		return &p, true, nil
	}
	if !stderrors.Is(err, sql.ErrNoRows) {
		return nil, false, mapWriteError(err)
	}

	err = sqlx.GetContext(ctx, q, &p,
		`SELECT `+positionColumns+` FROM positions WHERE name = $1 AND hourly_rate = $2`, name, rate)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch existing position: %w", err)
	}
	return &p, false, nil
}

// Delete removes a position that no employee holds
func (r *PositionRepository) Delete(ctx context.Context, id string) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var locked string
		err := tx.GetContext(ctx, &locked, `SELECT id FROM positions WHERE id = $1 FOR UPDATE`, id)
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NotFound("position")
		}
		if err != nil {
			return fmt.Errorf("failed to lock position: %w", err)
		}

		var blocker string
		err = tx.GetContext(ctx, &blocker,
			`SELECT id FROM employees WHERE position_id = $1 ORDER BY name, id LIMIT 1`, id)
		if err == nil {
			return &ReferentialConflictError{Resource: "position", ResourceID: id, Blocker: "employee", BlockerID: blocker}
		}
		if !stderrors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check position references: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM positions WHERE id = $1`, id); err != nil {
			if database.HasCode(err, database.CodeForeignKeyViolation) {
				return &ReferentialConflictError{Resource: "position", ResourceID: id, Blocker: "employee"}
			}
			return fmt.Errorf("failed to delete position: %w", err)
		}
		return nil
	})
}

// mapWriteError turns constraint violations into AppErrors and wraps the rest
func mapWriteError(err error) error {
	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	return fmt.Errorf("database write failed: %w", err)
}
