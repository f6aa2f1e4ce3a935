package stages

import "github.com/eduplan/scheduler-core/internal/domain"

// subjectHasScheduledLecture reports whether any scheduled stream is a
// Lecture for subject sharing at least one base group with groups.
func subjectHasScheduledLecture(s *State, subject string, groups []string) bool {
	bases := make(map[string]bool)
	for _, g := range groups {
		bases[domain.BaseGroupOf(g)] = true
	}
	for _, a := range s.Assignments {
		if a.StreamType != domain.Lecture || a.Subject != subject {
			continue
		}
		for _, g := range a.Groups {
			if bases[domain.BaseGroupOf(g)] {
				return true
			}
		}
	}
	return false
}

// lectureDaysFor returns the set of weekdays on which subject already has a
// scheduled lecture for any of groups' base groups.
func lectureDaysFor(s *State, subject string, groups []string) map[domain.Day]bool {
	bases := make(map[string]bool)
	for _, g := range groups {
		bases[domain.BaseGroupOf(g)] = true
	}
	out := make(map[domain.Day]bool)
	for _, a := range s.Assignments {
		if a.StreamType != domain.Lecture || a.Subject != subject {
			continue
		}
		for _, g := range a.Groups {
			if bases[domain.BaseGroupOf(g)] {
				out[a.Day] = true
				break
			}
		}
	}
	return out
}

// Stage5 places single-group practicals whose subject already has at least
// one scheduled lecture. Days without that subject's lectures are tried
// first; lecture-days are the fallback if the non-lecture days are exhausted.
func Stage5(s *State, streams []domain.Stream) {
	var own []domain.Stream
	for _, st := range streams {
		if st.StreamType != domain.Practical || st.IsMultiGroup() || s.Scheduled[st.ID] {
			continue
		}
		if subjectHasScheduledLecture(s, st.Subject, st.Groups) {
			own = append(own, st)
		}
	}
	for _, st := range sortByComplexity(s, own) {
		lectureDays := lectureDaysFor(s, st.Subject, st.Groups)
		var preferred, fallback []domain.Day
		for _, d := range domain.Weekdays {
			if lectureDays[d] {
				fallback = append(fallback, d)
			} else {
				preferred = append(preferred, d)
			}
		}
		plan := DayPlan{preferred, fallback}
		runStream(s, st, plan, false)
	}
}
