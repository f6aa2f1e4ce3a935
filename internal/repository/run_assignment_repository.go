package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduplan/scheduler-core/internal/models"
)

// RunAssignmentRepository manages the per-assignment rows denormalized out of
// a run's result, for queryability by day/room/instructor.
type RunAssignmentRepository struct {
	db *sqlx.DB
}

// NewRunAssignmentRepository builds repository.
func NewRunAssignmentRepository(db *sqlx.DB) *RunAssignmentRepository {
	return &RunAssignmentRepository{db: db}
}

func (r *RunAssignmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// InsertBatch writes every assignment row for a run in one pass. Runs are
// immutable once created, so this is insert-only, no conflict handling.
func (r *RunAssignmentRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, rows []models.ScheduleRunAssignment) error {
	if len(rows) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO scheduler_run_assignments (id, run_id, stream_id, subject, instructor, day_of_week, time_slot, room, room_address, week_type, stream_type, created_at)
VALUES (:id, :run_id, :stream_id, :subject, :instructor, :day_of_week, :time_slot, :room, :room_address, :week_type, :stream_type, :created_at)`

	for i := range rows {
		row := &rows[i]
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, row); err != nil {
			return fmt.Errorf("insert scheduler run assignment: %w", err)
		}
	}
	return nil
}

// ListByRun returns every assignment row for a run, ordered by day/slot.
func (r *RunAssignmentRepository) ListByRun(ctx context.Context, runID string) ([]models.ScheduleRunAssignment, error) {
	const query = `SELECT id, run_id, stream_id, subject, instructor, day_of_week, time_slot, room, room_address, week_type, stream_type
FROM scheduler_run_assignments WHERE run_id = $1 ORDER BY day_of_week ASC, time_slot ASC`
	var rows []models.ScheduleRunAssignment
	if err := r.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, fmt.Errorf("list scheduler run assignments: %w", err)
	}
	return rows, nil
}

// ListByInstructor returns every assignment row for an instructor within one run.
func (r *RunAssignmentRepository) ListByInstructor(ctx context.Context, runID, instructor string) ([]models.ScheduleRunAssignment, error) {
	const query = `SELECT id, run_id, stream_id, subject, instructor, day_of_week, time_slot, room, room_address, week_type, stream_type
FROM scheduler_run_assignments WHERE run_id = $1 AND instructor = $2 ORDER BY day_of_week ASC, time_slot ASC`
	var rows []models.ScheduleRunAssignment
	if err := r.db.SelectContext(ctx, &rows, query, runID, instructor); err != nil {
		return nil, fmt.Errorf("list scheduler run assignments by instructor: %w", err)
	}
	return rows, nil
}

// DeleteByRun removes every assignment row belonging to a run.
func (r *RunAssignmentRepository) DeleteByRun(ctx context.Context, exec sqlx.ExtContext, runID string) error {
	target := r.exec(exec)
	const query = `DELETE FROM scheduler_run_assignments WHERE run_id = $1`
	if _, err := target.ExecContext(ctx, query, runID); err != nil {
		return fmt.Errorf("delete scheduler run assignments: %w", err)
	}
	return nil
}
