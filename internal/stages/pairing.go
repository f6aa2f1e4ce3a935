package stages

import (
	"fmt"

	"github.com/eduplan/scheduler-core/internal/domain"
)

// siblingInfo remembers where the first subgroup sibling of a pair landed, so
// the second sibling can attempt pinned or day-boundary placement.
type siblingInfo struct {
	day        domain.Day
	startSlot  domain.Slot
	hours      int
	week       domain.WeekType
	instructor domain.InstructorID
}

func pairingKey(stream domain.Stream) string {
	base := ""
	if len(stream.Groups) > 0 {
		base = domain.BaseGroupOf(stream.Groups[0])
	}
	return fmt.Sprintf("%s|%s|%s", stream.Subject, base, stream.StreamType)
}

// tryPinned attempts to place stream at the exact (day, slot, week) of its
// already-placed sibling — the common case when the two siblings have
// different instructors.
func tryPinned(s *State, stream domain.Stream, info siblingInfo) ([]domain.Assignment, bool) {
	if info.hours <= 0 {
		return nil, false
	}
	block := make([]domain.Slot, info.hours)
	for i := range block {
		block[i] = info.startSlot + domain.Slot(i)
	}
	instructor := stream.InstructorID()
	if normalOK, _ := s.Tracker.CanAddSubjectHours(stream.Groups, info.day, stream.Subject, info.hours); !normalOK {
		return nil, false
	}
	if s.Tracker.WouldExceedDailyLoad(stream.Groups, info.day, info.hours) {
		return nil, false
	}
	outcome, ok := tryPosition(s, stream, info.week, info.day, block, instructor, nil)
	if !ok {
		return nil, false
	}
	return outcome.assignments, true
}

// tryOppositeBoundary handles the same-instructor critical pair: the sibling
// already anchors one boundary of its day, so this stream is placed at the
// opposite boundary on the same day.
func tryOppositeBoundary(s *State, stream domain.Stream, info siblingInfo, allowed []domain.Slot) ([]domain.Assignment, bool) {
	instructor := stream.InstructorID()
	earliest, latest := s.Tracker.FindDayBoundarySlots(instructor, stream.Groups, info.day, allowed, info.hours, info.week)

	// The sibling anchored at startSlot; pick whichever boundary differs from it.
	tryBlock := func(block []domain.Slot) ([]domain.Assignment, bool) {
		if len(block) == 0 {
			return nil, false
		}
		if block[0] == info.startSlot {
			return nil, false
		}
		outcome, ok := tryPosition(s, stream, info.week, info.day, block, instructor, nil)
		if !ok {
			return nil, false
		}
		return outcome.assignments, true
	}

	if a, ok := tryBlock(latest); ok {
		return a, true
	}
	if a, ok := tryBlock(earliest); ok {
		return a, true
	}
	return nil, false
}
