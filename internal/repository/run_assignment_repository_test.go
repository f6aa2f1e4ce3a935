package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplan/scheduler-core/internal/models"
)

func TestRunAssignmentRepositoryInsertBatchAssignsIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRunAssignmentRepository(db)

	rows := []models.ScheduleRunAssignment{
		{RunID: "run-1", StreamID: "str-1", Subject: "Algorithms", Instructor: "Dr. Pop", DayOfWeek: 1, TimeSlot: 1, Room: "101", RoomAddress: "Main St", WeekType: "ODD", StreamType: "LECTURE"},
		{RunID: "run-1", StreamID: "str-2", Subject: "Physics", Instructor: "Dr. Ionescu", DayOfWeek: 2, TimeSlot: 3, Room: "202", RoomAddress: "East Hall", WeekType: "BOTH", StreamType: "LAB"},
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scheduler_run_assignments")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO scheduler_run_assignments")).WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.InsertBatch(context.Background(), nil, rows)
	require.NoError(t, err)
	assert.NotEmpty(t, rows[0].ID)
	assert.NotEmpty(t, rows[1].ID)
	assert.False(t, rows[0].CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunAssignmentRepositoryInsertBatchEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRunAssignmentRepository(db)

	err := repo.InsertBatch(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunAssignmentRepositoryListByRun(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRunAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "run_id", "stream_id", "subject", "instructor", "day_of_week", "time_slot", "room", "room_address", "week_type", "stream_type"}).
		AddRow("a1", "run-1", "str-1", "Algorithms", "Dr. Pop", 1, 1, "101", "Main St", "ODD", "LECTURE")
	mock.ExpectQuery(regexp.QuoteMeta("FROM scheduler_run_assignments WHERE run_id = $1 ORDER BY day_of_week ASC, time_slot ASC")).
		WithArgs("run-1").
		WillReturnRows(rows)

	result, err := repo.ListByRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, "101", result[0].Room)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunAssignmentRepositoryListByInstructor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRunAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "run_id", "stream_id", "subject", "instructor", "day_of_week", "time_slot", "room", "room_address", "week_type", "stream_type"}).
		AddRow("a1", "run-1", "str-1", "Algorithms", "Dr. Pop", 1, 1, "101", "Main St", "ODD", "LECTURE")
	mock.ExpectQuery(regexp.QuoteMeta("FROM scheduler_run_assignments WHERE run_id = $1 AND instructor = $2 ORDER BY day_of_week ASC, time_slot ASC")).
		WithArgs("run-1", "Dr. Pop").
		WillReturnRows(rows)

	result, err := repo.ListByInstructor(context.Background(), "run-1", "Dr. Pop")
	require.NoError(t, err)
	assert.Len(t, result, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunAssignmentRepositoryDeleteByRun(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRunAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scheduler_run_assignments WHERE run_id = $1")).
		WithArgs("run-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := repo.DeleteByRun(context.Background(), nil, "run-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
