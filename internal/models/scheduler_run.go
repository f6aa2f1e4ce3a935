package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ScheduleRunStatus is the lifecycle state of a stored run.
type ScheduleRunStatus string

const (
	ScheduleRunStatusCompleted ScheduleRunStatus = "COMPLETED"
	ScheduleRunStatusPartial   ScheduleRunStatus = "PARTIAL"
	ScheduleRunStatusFailed    ScheduleRunStatus = "FAILED"
)

// ScheduleRun is one persisted invocation of the pipeline: the request's
// input hash (for cache/dedup lookups), how far the pipeline got, and the
// full serialized result.
type ScheduleRun struct {
	ID           string            `db:"id" json:"id"`
	RequestedAt  time.Time         `db:"requested_at" json:"requested_at"`
	InputHash    string            `db:"input_hash" json:"input_hash"`
	StageReached int               `db:"stage_reached" json:"stage_reached"`
	Status       ScheduleRunStatus `db:"status" json:"status"`
	Result       types.JSONText    `db:"result" json:"result"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
}

// ScheduleRunAssignment is one committed (stream, slot) row, denormalized out
// of a run's result JSON so a caller can query by day/room/instructor without
// deserializing the full board.
type ScheduleRunAssignment struct {
	ID          string    `db:"id" json:"id"`
	RunID       string    `db:"run_id" json:"run_id"`
	StreamID    string    `db:"stream_id" json:"stream_id"`
	Subject     string    `db:"subject" json:"subject"`
	Instructor  string    `db:"instructor" json:"instructor"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"`
	TimeSlot    int       `db:"time_slot" json:"time_slot"`
	Room        string    `db:"room" json:"room"`
	RoomAddress string    `db:"room_address" json:"room_address"`
	WeekType    string    `db:"week_type" json:"week_type"`
	StreamType  string    `db:"stream_type" json:"stream_type"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ScheduleRunSummary is the lightweight listing shape for a stored run.
type ScheduleRunSummary struct {
	ID           string            `json:"id"`
	RequestedAt  time.Time         `json:"requested_at"`
	StageReached int               `json:"stage_reached"`
	Status       ScheduleRunStatus `json:"status"`
}
