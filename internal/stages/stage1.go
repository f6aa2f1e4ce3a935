package stages

import "github.com/eduplan/scheduler-core/internal/domain"

// Stage1 places multi-group lectures (streams serving two or more groups at
// once) on primary days only; stage 1 does not use fallback days.
func Stage1(s *State, streams []domain.Stream) {
	var own []domain.Stream
	for _, st := range streams {
		if st.StreamType == domain.Lecture && st.IsMultiGroup() && !s.Scheduled[st.ID] {
			own = append(own, st)
		}
	}
	plan := LectureDayPlan(false)
	for _, st := range sortByComplexity(s, own) {
		runStream(s, st, plan, false)
	}
}
