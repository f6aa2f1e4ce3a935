package engine

import "github.com/eduplan/scheduler-core/internal/domain"

// firstShiftCutoff is the last slot of the strict first shift (1..5); slots
// beyond it are counted as second shift. Slots 6 and 7 are shared between
// extended-first and second-shift streams and cannot be told apart from the
// Assignment alone, so they are counted as second shift here, consistent
// with the same approximation the optimizer uses to infer a committed
// block's shift (stages.inferShift).
const firstShiftCutoff = domain.Slot(5)

// buildStatistics computes the aggregate counts the output schema's
// statistics block requires from a completed board.
func buildStatistics(assignments []domain.Assignment, expectedHours int, solverTime float64) Statistics {
	stats := Statistics{
		ByDay:             make(map[string]int),
		ByShift:           make(map[string]int),
		RoomUtilization:   make(map[string]int),
		ExpectedHours:     expectedHours,
		SolverTimeSeconds: solverTime,
	}
	for _, a := range assignments {
		stats.ByDay[a.Day.String()]++
		if a.Slot <= firstShiftCutoff {
			stats.ByShift["first"]++
		} else {
			stats.ByShift["second"]++
		}
		stats.RoomUtilization[a.RoomAddress]++
		stats.ScheduledHours++
	}
	return stats
}

// expectedHours sums every stream's max hours across both week-types, the
// denominator result assembly reports scheduled hours against.
func expectedHours(streams []domain.Stream) int {
	total := 0
	for _, st := range streams {
		total += st.MaxHours(domain.Both)
	}
	return total
}

// unscheduledIDs extracts the parallel stream_id list the output schema
// carries alongside the full UnscheduledStream records.
func unscheduledIDs(unscheduled []domain.UnscheduledStream) []string {
	ids := make([]string, 0, len(unscheduled))
	for _, u := range unscheduled {
		ids = append(ids, u.StreamID)
	}
	return ids
}
