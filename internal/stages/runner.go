package stages

import (
	"github.com/eduplan/scheduler-core/internal/domain"
)

// weekBlock is one (week_type, hours) placement attempt a stream requires.
// A stream whose hours_odd equals hours_even places once as Both; otherwise
// it places independently for Odd and Even, each skipped when its hour count
// is zero.
type weekBlock struct {
	week  domain.WeekType
	hours int
}

func weekBlocksFor(stream domain.Stream) []weekBlock {
	if stream.HoursOdd == stream.HoursEven {
		if stream.HoursOdd == 0 {
			return nil
		}
		return []weekBlock{{week: domain.Both, hours: stream.HoursOdd}}
	}
	var blocks []weekBlock
	if stream.HoursOdd > 0 {
		blocks = append(blocks, weekBlock{week: domain.Odd, hours: stream.HoursOdd})
	}
	if stream.HoursEven > 0 {
		blocks = append(blocks, weekBlock{week: domain.Even, hours: stream.HoursEven})
	}
	return blocks
}

// runStream is the shared per-stream placement entry point used by every
// stage: it resolves the stream's week blocks, applies subgroup pairing when
// applicable, and falls back to standard greedy placement otherwise. It
// commits successful assignments and records failures directly on s.
func runStream(s *State, stream domain.Stream, plan DayPlan, extended bool) {
	blocks := weekBlocksFor(stream)
	if len(blocks) == 0 {
		return // hours=0: no assignments, not counted as unscheduled
	}

	anyPlaced := false
	var lastReason domain.UnscheduledReason
	var lastDetails string
	var lastWeek domain.WeekType
	var lastHours int

	for _, blk := range blocks {
		assignments, unplaced, reason, details := placeOneBlock(s, stream, blk, plan, extended)
		if len(assignments) > 0 {
			s.Commit(assignments)
			anyPlaced = true
			recordSibling(s, stream, assignments, blk.week)
		}
		if unplaced > 0 && len(assignments) == 0 {
			lastReason, lastDetails = reason, details
			lastWeek, lastHours = blk.week, blk.hours
		}
	}

	if anyPlaced {
		s.MarkScheduled(stream.ID)
		return
	}
	s.Fail(domain.UnscheduledStream{
		StreamID:     stream.ID,
		Subject:      stream.Subject,
		Instructor:   stream.Instructor,
		Groups:       stream.Groups,
		StudentCount: stream.StudentCount,
		StreamType:   stream.StreamType,
		Week:         lastWeek,
		Hours:        lastHours,
		Reason:       lastReason,
		Details:      lastDetails,
	})
}

// placeOneBlock attempts a single week-block, trying subgroup pairing first
// when the stream declares itself a subgroup, falling back to standard
// split-tolerant placement.
func placeOneBlock(s *State, stream domain.Stream, blk weekBlock, plan DayPlan, extended bool) ([]domain.Assignment, int, domain.UnscheduledReason, string) {
	if stream.IsSubgroup || stream.IsImplicitSubgroup {
		key := pairingKey(stream)
		if info, ok := s.Siblings[key]; ok && info.week == blk.week {
			sameInstructor := info.instructor.Equal(stream.InstructorID())
			if !sameInstructor {
				if a, ok := tryPinned(s, stream, info); ok {
					return a, 0, "", ""
				}
			} else {
				if a, ok := tryOppositeBoundary(s, stream, info, domain.AllowedSlots(shiftFor(s, stream), extended)); ok {
					return a, 0, "", ""
				}
			}
			// Fall through to standard placement; pairing is best-effort.
		}
	}
	return placeWithSplit(s, stream, blk.week, blk.hours, plan, extended, nil)
}

// recordSibling stores where this stream landed so a later subgroup sibling
// can attempt pinned or day-boundary placement against it.
func recordSibling(s *State, stream domain.Stream, assignments []domain.Assignment, week domain.WeekType) {
	if !stream.IsSubgroup && !stream.IsImplicitSubgroup {
		return
	}
	if len(assignments) == 0 {
		return
	}
	minSlot := assignments[0].Slot
	for _, a := range assignments {
		if a.Slot < minSlot {
			minSlot = a.Slot
		}
	}
	key := pairingKey(stream)
	if _, exists := s.Siblings[key]; exists {
		return // first sibling's anchor stays authoritative for the pair
	}
	s.Siblings[key] = siblingInfo{
		day:        assignments[0].Day,
		startSlot:  minSlot,
		hours:      len(assignments),
		week:       week,
		instructor: stream.InstructorID(),
	}
}
