package stages

import "github.com/eduplan/scheduler-core/internal/domain"

// Stage4 places single-group lectures, preferring primary days and accepting
// fallback days (Thu/Fri) as overflow.
func Stage4(s *State, streams []domain.Stream) {
	var own []domain.Stream
	for _, st := range streams {
		if st.StreamType == domain.Lecture && !st.IsMultiGroup() && !s.Scheduled[st.ID] {
			own = append(own, st)
		}
	}
	plan := LectureDayPlan(true)
	for _, st := range sortByComplexity(s, own) {
		runStream(s, st, plan, true)
	}
}
