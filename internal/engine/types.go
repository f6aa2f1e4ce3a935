// Package engine composes the Conflict Tracker, Room Manager and Stage
// Pipeline into the single pure entry point the rest of the system calls:
// Schedule(ctx, streams, config) -> ScheduleResult. It owns nothing the
// pipeline doesn't already own; its job is orchestration and result
// assembly, not placement logic.
package engine

import (
	"time"

	"github.com/eduplan/scheduler-core/internal/domain"
)

// Statistics summarizes a completed run for reporting and ops dashboards.
type Statistics struct {
	ByDay             map[string]int    `json:"by_day"`
	ByShift           map[string]int    `json:"by_shift"`
	RoomUtilization   map[string]int    `json:"room_utilization"`
	ExpectedHours     int               `json:"expected_hours"`
	ScheduledHours    int               `json:"scheduled_hours"`
	SolverTimeSeconds float64           `json:"solver_time_seconds"`
}

// ScheduleResult is the serialized schedule consumed by callers and
// renderers, per the protocol's output schema.
type ScheduleResult struct {
	GenerationDate       time.Time                  `json:"generation_date"`
	Stage                int                        `json:"stage"`
	Assignments          []domain.Assignment        `json:"assignments"`
	UnscheduledStreams   []domain.UnscheduledStream `json:"unscheduled_streams"`
	UnscheduledStreamIDs []string                   `json:"unscheduled_stream_ids"`
	Statistics           Statistics                 `json:"statistics"`
}
