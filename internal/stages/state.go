// Package stages implements the seven-stage greedy placement pipeline: each
// stage is a function (state, streams) that filters the streams it owns,
// sorts them by a complexity score, places them greedily against the shared
// Conflict Tracker and Room Manager, and appends its new assignments and
// unscheduled records to the State it was given.
package stages

import (
	"github.com/eduplan/scheduler-core/internal/domain"
	"github.com/eduplan/scheduler-core/internal/roommgr"
	"github.com/eduplan/scheduler-core/internal/schedconfig"
	"github.com/eduplan/scheduler-core/internal/tracker"
)

// State is the explicit pipeline state threaded between stages: the
// accumulated assignments, the accumulated unscheduled list, and the set of
// stream IDs already placed (so later stages can skip them). The Conflict
// Tracker and Room Manager are long-lived across the whole run rather than
// copied per stage, matching the single-threaded, exclusively-owned
// concurrency model; State itself carries only the data a stage needs to
// decide what is left to do.
type State struct {
	Cfg     *schedconfig.Config
	Tracker *tracker.Tracker
	Rooms   *roommgr.Manager

	Assignments []domain.Assignment
	Unscheduled []domain.UnscheduledStream
	Scheduled   map[string]bool        // stream ID -> true once any week-type block placed
	Siblings    map[string]siblingInfo // pairing key -> where the first subgroup sibling landed
}

// NewState builds the initial pipeline state for a fresh scheduling run.
func NewState(cfg *schedconfig.Config) *State {
	t := tracker.New(cfg)
	return &State{
		Cfg:       cfg,
		Tracker:   t,
		Rooms:     roommgr.New(cfg, t),
		Scheduled: make(map[string]bool),
		Siblings:  make(map[string]siblingInfo),
	}
}

// MarkScheduled records that stream produced at least one Assignment.
func (s *State) MarkScheduled(streamID string) {
	s.Scheduled[streamID] = true
}

// Commit appends a successful placement's assignments to the board.
func (s *State) Commit(assignments []domain.Assignment) {
	s.Assignments = append(s.Assignments, assignments...)
}

// Fail appends a failed placement to the unscheduled list.
func (s *State) Fail(u domain.UnscheduledStream) {
	s.Unscheduled = append(s.Unscheduled, u)
}

// StageResult groups the assignments and unscheduled records of one stage.
// The stage functions in this package write to State directly and do not
// return it.
type StageResult struct {
	Assignments []domain.Assignment
	Unscheduled []domain.UnscheduledStream
}
