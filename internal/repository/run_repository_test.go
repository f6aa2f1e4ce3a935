package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplan/scheduler-core/internal/models"
)

func TestRunRepositoryCreateAssignsIDAndDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scheduler_runs")).WillReturnResult(sqlmock.NewResult(1, 1))

	run := &models.ScheduleRun{InputHash: "abc123", StageReached: 7, Status: models.ScheduleRunStatusCompleted}
	err := repo.Create(context.Background(), nil, run)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.RequestedAt.IsZero())
	assert.False(t, run.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryCreateRejectsMissingInputHash(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	err := repo.Create(context.Background(), nil, &models.ScheduleRun{Status: models.ScheduleRunStatusCompleted})
	assert.Error(t, err)
}

func TestRunRepositoryFindByInputHash(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	rows := sqlmock.NewRows([]string{"id", "requested_at", "input_hash", "stage_reached", "status", "result", "created_at"}).
		AddRow("run-1", sqlmock.AnyArg(), "abc123", 7, "COMPLETED", []byte(`{}`), sqlmock.AnyArg())
	mock.ExpectQuery(regexp.QuoteMeta("FROM scheduler_runs WHERE input_hash = $1")).
		WithArgs("abc123").
		WillReturnRows(rows)

	run, err := repo.FindByInputHash(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepositoryDeleteReturnsNoRowsWhenMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scheduler_runs")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRunRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRunRepository(db)

	rows := sqlmock.NewRows([]string{"id", "requested_at", "input_hash", "stage_reached", "status", "result", "created_at"}).
		AddRow("run-1", sqlmock.AnyArg(), "h1", 7, "COMPLETED", []byte(`{}`), sqlmock.AnyArg()).
		AddRow("run-2", sqlmock.AnyArg(), "h2", 5, "PARTIAL", []byte(`{}`), sqlmock.AnyArg())
	mock.ExpectQuery(regexp.QuoteMeta("FROM scheduler_runs ORDER BY created_at DESC LIMIT $1")).
		WithArgs(50).
		WillReturnRows(rows)

	runs, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
