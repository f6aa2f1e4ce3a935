package stages

import "github.com/eduplan/scheduler-core/internal/domain"

// hasLectureCounterpart reports whether any stream in all is a Lecture for
// the same subject sharing at least one base group with st.
func hasLectureCounterpart(all []domain.Stream, st domain.Stream) bool {
	bases := make(map[string]bool)
	for _, g := range st.BaseGroups() {
		bases[g] = true
	}
	for _, other := range all {
		if other.StreamType != domain.Lecture || other.Subject != st.Subject {
			continue
		}
		for _, g := range other.BaseGroups() {
			if bases[g] {
				return true
			}
		}
	}
	return false
}

// Stage3 places practicals with no lecture counterpart for the same
// subject+group (typically language streams). All weekdays are eligible.
func Stage3(s *State, allStreams []domain.Stream) {
	var own []domain.Stream
	for _, st := range allStreams {
		if st.StreamType != domain.Practical || s.Scheduled[st.ID] {
			continue
		}
		if !hasLectureCounterpart(allStreams, st) {
			own = append(own, st)
		}
	}
	plan := AllWeekdays()
	for _, st := range sortByComplexity(s, own) {
		runStream(s, st, plan, false)
	}
}
