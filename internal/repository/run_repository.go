package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/eduplan/scheduler-core/internal/models"
)

// RunRepository persists schedule runs.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository constructs repository.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a new run row.
func (r *RunRepository) Create(ctx context.Context, exec sqlx.ExtContext, run *models.ScheduleRun) error {
	if run == nil {
		return fmt.Errorf("run payload is nil")
	}
	if run.InputHash == "" {
		return fmt.Errorf("input_hash is required")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if len(run.Result) == 0 {
		run.Result = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if run.RequestedAt.IsZero() {
		run.RequestedAt = now
	}
	run.CreatedAt = now

	target := r.exec(exec)

	const insertQuery = `
INSERT INTO scheduler_runs (id, requested_at, input_hash, stage_reached, status, result, created_at)
VALUES (:id, :requested_at, :input_hash, :stage_reached, :status, :result, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, run); err != nil {
		return fmt.Errorf("insert scheduler run: %w", err)
	}
	return nil
}

// FindByInputHash returns the most recent run for a given input digest, used
// to short-circuit recomputation of an identical request.
func (r *RunRepository) FindByInputHash(ctx context.Context, inputHash string) (*models.ScheduleRun, error) {
	const query = `SELECT id, requested_at, input_hash, stage_reached, status, result, created_at
FROM scheduler_runs WHERE input_hash = $1 ORDER BY created_at DESC LIMIT 1`
	var run models.ScheduleRun
	if err := r.db.GetContext(ctx, &run, query, inputHash); err != nil {
		return nil, err
	}
	return &run, nil
}

// FindByID loads a run by its identifier.
func (r *RunRepository) FindByID(ctx context.Context, id string) (*models.ScheduleRun, error) {
	const query = `SELECT id, requested_at, input_hash, stage_reached, status, result, created_at FROM scheduler_runs WHERE id = $1`
	var run models.ScheduleRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// List returns recent runs ordered newest first.
func (r *RunRepository) List(ctx context.Context, limit int) ([]models.ScheduleRun, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT id, requested_at, input_hash, stage_reached, status, result, created_at
FROM scheduler_runs ORDER BY created_at DESC LIMIT $1`
	var runs []models.ScheduleRun
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list scheduler runs: %w", err)
	}
	return runs, nil
}

// Delete removes a stored run.
func (r *RunRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM scheduler_runs WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete scheduler run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("scheduler run rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
