package stages

import "github.com/eduplan/scheduler-core/internal/domain"

// hasSubjectRoomConstraint reports whether subject is restricted to specific
// rooms in configuration (tier 1 of the room manager's priority protocol).
func hasSubjectRoomConstraint(s *State, subject string) bool {
	_, ok := s.Cfg.SubjectRooms[subject]
	return ok
}

// Stage6 places all lab streams, run in four sub-passes in priority order:
// multi-group labs first (6A), then implicit-subgroup labs whose subject is
// room-constrained (6B), then implicit-subgroup labs that are not (6C), and
// finally ordinary single-group labs (6D). Each sub-pass only considers
// streams not already placed by an earlier one.
func Stage6(s *State, streams []domain.Stream) {
	stage6A(s, streams)
	stage6B(s, streams)
	stage6C(s, streams)
	stage6D(s, streams)
}

// stage6A places multi-group labs, analogous to Stage 1 for lectures.
func stage6A(s *State, streams []domain.Stream) {
	var own []domain.Stream
	for _, st := range streams {
		if st.StreamType == domain.Lab && st.IsMultiGroup() && !s.Scheduled[st.ID] {
			own = append(own, st)
		}
	}
	plan := AllWeekdays()
	for _, st := range sortByComplexity(s, own) {
		runStream(s, st, plan, false)
	}
}

// stage6B places implicit-subgroup labs whose subject is room-constrained
// (e.g. physics/chemistry, where lab benches are scarce and shared across a
// sibling pair).
func stage6B(s *State, streams []domain.Stream) {
	var own []domain.Stream
	for _, st := range streams {
		if st.StreamType != domain.Lab || st.IsMultiGroup() || s.Scheduled[st.ID] {
			continue
		}
		if st.IsImplicitSubgroup && hasSubjectRoomConstraint(s, st.Subject) {
			own = append(own, st)
		}
	}
	plan := AllWeekdays()
	for _, st := range sortByComplexity(s, own) {
		runStream(s, st, plan, false)
	}
}

// stage6C places implicit-subgroup labs with no subject-room constraint.
func stage6C(s *State, streams []domain.Stream) {
	var own []domain.Stream
	for _, st := range streams {
		if st.StreamType != domain.Lab || st.IsMultiGroup() || s.Scheduled[st.ID] {
			continue
		}
		if st.IsImplicitSubgroup && !hasSubjectRoomConstraint(s, st.Subject) {
			own = append(own, st)
		}
	}
	plan := AllWeekdays()
	for _, st := range sortByComplexity(s, own) {
		runStream(s, st, plan, false)
	}
}

// stage6D places the remaining single-group labs: ordinary non-subgroup
// streams, plus any explicitly-declared subgroup labs not already handled by
// 6B/6C (those only partition the implicit-subgroup case).
func stage6D(s *State, streams []domain.Stream) {
	var own []domain.Stream
	for _, st := range streams {
		if st.StreamType != domain.Lab || st.IsMultiGroup() || s.Scheduled[st.ID] {
			continue
		}
		if !st.IsImplicitSubgroup {
			own = append(own, st)
		}
	}
	plan := AllWeekdays()
	for _, st := range sortByComplexity(s, own) {
		runStream(s, st, plan, false)
	}
}
