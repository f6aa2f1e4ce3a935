package dto

import "github.com/eduplan/scheduler-core/internal/engine"

// StreamRequest mirrors one Stream record from the external protocol (§3/§6).
type StreamRequest struct {
	ID                 string   `json:"id" validate:"required"`
	Subject            string   `json:"subject" validate:"required"`
	StreamType         string   `json:"stream_type" validate:"required,oneof=lecture practical lab"`
	Instructor         string   `json:"instructor" validate:"required"`
	Language           string   `json:"language"`
	Groups             []string `json:"groups" validate:"required,min=1,dive,required"`
	StudentCount       int      `json:"student_count" validate:"min=0"`
	HoursOdd           int      `json:"hours_odd" validate:"min=0"`
	HoursEven          int      `json:"hours_even" validate:"min=0"`
	IsSubgroup         bool     `json:"is_subgroup"`
	IsImplicitSubgroup bool     `json:"is_implicit_subgroup"`
	PairedStreamID     string   `json:"paired_stream_id,omitempty"`
}

// RoomRequest mirrors one rooms-table record.
type RoomRequest struct {
	Name      string `json:"name" validate:"required"`
	Capacity  int    `json:"capacity" validate:"required,min=1"`
	Address   string `json:"address" validate:"required"`
	IsSpecial bool   `json:"is_special"`
}

// RoomRefRequest is one entry in a subject/instructor room rule list.
type RoomRefRequest struct {
	Address string `json:"address" validate:"required"`
	Room    string `json:"room,omitempty"`
}

// RoomRuleRequest is the per-subject or per-instructor room restriction,
// keyed by stream type string ("lecture", "practical", "lab") or
// "locations" for "applies to all stream types".
type RoomRuleRequest struct {
	Strict bool                        `json:"strict"`
	Rules  map[string][]RoomRefRequest `json:"rules"`
}

// GroupBuildingAddressRequest is one allowed address entry for a specialty.
type GroupBuildingAddressRequest struct {
	Address string   `json:"address" validate:"required"`
	Rooms   []string `json:"rooms,omitempty"`
}

// NearbyGroupRequest is one mutually-nearby address cluster.
type NearbyGroupRequest struct {
	Addresses []string `json:"addresses" validate:"required,min=2,dive,required"`
}

// InstructorUnavailableRequest mirrors one instructor's weekly-unavailable record.
type InstructorUnavailableRequest struct {
	Name              string              `json:"name" validate:"required"`
	WeeklyUnavailable map[string][]string `json:"weekly_unavailable"`
}

// InstructorDayConstraintRequest mirrors one instructor's day-of-year restriction.
type InstructorDayConstraintRequest struct {
	Name       string           `json:"name" validate:"required"`
	YearDays   map[int][]string `json:"year_days"`
	OnePerWeek bool             `json:"one_day_per_week"`
}

// SchedulerConfigRequest is the full external configuration surface §6
// describes: rooms, subject/instructor room rules, group-building rules,
// nearby-building clusters, instructor availability/day constraints, forced
// second-shift groups, dead groups, and flexible subjects.
type SchedulerConfigRequest struct {
	Rooms                    []RoomRequest                             `json:"rooms" validate:"required,min=1,dive"`
	SubjectRooms             map[string]RoomRuleRequest                `json:"subject_rooms"`
	InstructorRooms          map[string]RoomRuleRequest                `json:"instructor_rooms"`
	GroupBuildings           map[string][]GroupBuildingAddressRequest  `json:"group_buildings"`
	NearbyBuildings          []NearbyGroupRequest                      `json:"nearby_buildings"`
	InstructorUnavailable    []InstructorUnavailableRequest            `json:"instructor_unavailable"`
	InstructorDayConstraints []InstructorDayConstraintRequest          `json:"instructor_day_constraints"`
	ForcedSecondShiftGroups  []string                                  `json:"forced_second_shift_groups"`
	DeadGroups               []string                                  `json:"dead_groups"`
	FlexibleSubjects         []string                                  `json:"flexible_subjects"`
	MaxWindowsPerDay         int                                       `json:"max_windows_per_day" validate:"omitempty,min=1"`
}

// CreateRunRequest is the body of POST /api/v1/schedule/runs: a stream list
// plus the configuration tables needed to schedule it.
type CreateRunRequest struct {
	Streams []StreamRequest        `json:"streams" validate:"required,min=1,dive"`
	Config  SchedulerConfigRequest `json:"config" validate:"required"`
}

// RunResponse wraps a persisted run's id alongside the ScheduleResult it produced.
type RunResponse struct {
	RunID  string                 `json:"run_id"`
	Result *engine.ScheduleResult `json:"result"`
}

// RunSummary is the lightweight listing shape for a stored run.
type RunSummary struct {
	RunID        string `json:"run_id"`
	RequestedAt  string `json:"requested_at"`
	StageReached int    `json:"stage_reached"`
	Status       string `json:"status"`
	Scheduled    int    `json:"scheduled_count"`
	Unscheduled  int    `json:"unscheduled_count"`
}
