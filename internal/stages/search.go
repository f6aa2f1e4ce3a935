package stages

import (
	"fmt"
	"sort"

	"github.com/eduplan/scheduler-core/internal/domain"
	"github.com/eduplan/scheduler-core/internal/roommgr"
	"github.com/eduplan/scheduler-core/internal/timeutil"
)

// shiftFor returns the shift a stream inherits from its groups, honoring the
// configured forced-second-shift group list.
func shiftFor(s *State, stream domain.Stream) domain.Shift {
	return timeutil.ShiftForGroups(stream.Groups, s.Cfg.ForcedSecondShiftGroups)
}

// orderDays sorts candidate days so that days where the stream's groups
// already have assignments come first (consolidation), ties broken by
// ascending total load.
func orderDays(s *State, stream domain.Stream, days []domain.Day) []domain.Day {
	out := append([]domain.Day{}, days...)
	loadOf := func(d domain.Day) int {
		total := 0
		for _, base := range stream.BaseGroups() {
			total += len(s.Tracker.GroupDaySlots(base, d))
		}
		return total
	}
	hasAssignment := func(d domain.Day) bool {
		return loadOf(d) > 0
	}
	sort.SliceStable(out, func(i, j int) bool {
		hi, hj := hasAssignment(out[i]), hasAssignment(out[j])
		if hi != hj {
			return hi
		}
		return loadOf(out[i]) < loadOf(out[j])
	})
	return out
}

// candidateStarts returns start-slot positions to try for an H-hour block
// within the given allowed slots, ordered: gap slots first (slots that lie
// strictly between two already-occupied slots for the stream's groups),
// then the remaining valid starts ascending.
func candidateStarts(s *State, stream domain.Stream, day domain.Day, allowed []domain.Slot, hours int) []int {
	validStarts := func() []int {
		var out []int
		for i := range allowed {
			if i+hours > len(allowed) {
				break
			}
			ok := true
			for h := 1; h < hours; h++ {
				if allowed[i+h] != allowed[i+h-1]+1 {
					ok = false
					break
				}
			}
			if ok {
				out = append(out, i)
			}
		}
		return out
	}()

	occupied := make(map[domain.Slot]bool)
	hasAnyOccupied := false
	for _, base := range stream.BaseGroups() {
		for _, sl := range s.Tracker.GroupDaySlots(base, day) {
			occupied[sl] = true
			hasAnyOccupied = true
		}
	}
	if !hasAnyOccupied {
		return validStarts
	}

	var gapStarts, rest []int
	for _, idx := range validStarts {
		start := allowed[idx]
		before := occupied[start-1]
		after := occupied[start+domain.Slot(hours)]
		if before && after {
			gapStarts = append(gapStarts, idx)
		} else {
			rest = append(rest, idx)
		}
	}
	return append(gapStarts, rest...)
}

// placeOutcome is the result of a single-block placement attempt.
type placeOutcome struct {
	assignments []domain.Assignment
	reason      domain.UnscheduledReason
	details     string
}

// DayPlan is an ordered list of day buckets to try in priority order; within
// each bucket, days are further sorted by consolidation. Stage 4 passes
// [primary, fallback] so fallback days are only tried once every primary day
// has been exhausted; Stage 1 passes the primary days only; Stage 5 passes
// [days without the subject's lectures, lecture days]; Stage 3 and the lab
// stages pass a single bucket containing all weekdays.
type DayPlan [][]domain.Day

// AllWeekdays is the single-bucket day plan used by stages with no
// primary/fallback distinction.
func AllWeekdays() DayPlan {
	return DayPlan{domain.Weekdays}
}

// LectureDayPlan is the two-bucket plan used by lecture stages: primary days
// (Mon-Wed) first, then fallback days (Thu/Fri) as overflow.
func LectureDayPlan(useFallback bool) DayPlan {
	if !useFallback {
		return DayPlan{domain.PrimaryDays}
	}
	return DayPlan{domain.PrimaryDays, domain.FallbackDays}
}

// placeBlock attempts to place an H-hour contiguous block of stream, running
// the full constraint battery at each candidate position in the fixed order
// specified by the protocol. It commits reservations on success. Buckets are
// tried in order; only once a whole bucket is exhausted does the next one
// get tried, so fallback days never outrank primary days regardless of load.
func placeBlock(s *State, stream domain.Stream, week domain.WeekType, hours int, plan DayPlan, extended bool, blacklist map[string]bool) placeOutcome {
	if hours <= 0 {
		return placeOutcome{}
	}
	shift := shiftFor(s, stream)
	instructor := stream.InstructorID()

	lastReason := domain.ReasonNoSlotAvailable
	lastDetails := "no candidate day admitted this stream"

	for _, bucket := range plan {
		orderedDays := orderDays(s, stream, bucket)
		for _, day := range orderedDays {
			if normalOK, _ := s.Tracker.CanAddSubjectHours(stream.Groups, day, stream.Subject, hours); !normalOK {
				lastReason, lastDetails = domain.ReasonSubjectDailyLimit, fmt.Sprintf("subject %s daily cap reached on %s", stream.Subject, day)
				continue
			}
			if s.Tracker.WouldExceedDailyLoad(stream.Groups, day, hours) {
				lastReason, lastDetails = domain.ReasonDailyLoadExceeded, fmt.Sprintf("daily load cap reached on %s", day)
				continue
			}

			primary := domain.AllowedSlots(shift, false)
			if outcome, ok := tryStartsOnDay(s, stream, week, day, primary, hours, instructor, blacklist, &lastReason, &lastDetails); ok {
				return outcome
			}

			// Extended First overflow (slots 6,7) is tried only once the strict
			// first-shift slots are exhausted, and only for first-shift streams.
			if extended && shift == domain.ShiftFirst {
				extSlots := domain.AllowedSlots(domain.ShiftFirst, true)
				if outcome, ok := tryStartsOnDay(s, stream, week, day, extSlots, hours, instructor, blacklist, &lastReason, &lastDetails); ok {
					return outcome
				}
			}
		}
	}

	return placeOutcome{reason: lastReason, details: lastDetails}
}

// tryStartsOnDay tries every candidate start position for allowed within one
// day, in gap-slots-first order, updating *lastReason/*lastDetails as it goes.
func tryStartsOnDay(s *State, stream domain.Stream, week domain.WeekType, day domain.Day, allowed []domain.Slot, hours int, instructor domain.InstructorID, blacklist map[string]bool, lastReason *domain.UnscheduledReason, lastDetails *string) (placeOutcome, bool) {
	starts := candidateStarts(s, stream, day, allowed, hours)
	for _, idx := range starts {
		block := allowed[idx : idx+hours]
		outcome, ok := tryPosition(s, stream, week, day, block, instructor, blacklist)
		if ok {
			return outcome, true
		}
		*lastReason, *lastDetails = outcome.reason, outcome.details
	}
	return placeOutcome{}, false
}

// tryPosition runs the full per-position constraint battery in the fixed
// order: building-gap pre-check, windows check, instructor/group
// availability, instructor day-of-year constraint, room lookup.
func tryPosition(s *State, stream domain.Stream, week domain.WeekType, day domain.Day, block []domain.Slot, instructor domain.InstructorID, blacklist map[string]bool) (placeOutcome, bool) {
	for _, slot := range block {
		if s.Tracker.IsBuildingGapSlot(stream.Groups, day, slot) {
			return placeOutcome{reason: domain.ReasonBuildingGapRequired, details: fmt.Sprintf("slot %d on %s is a required travel gap", slot, day)}, false
		}
		if s.Tracker.WouldCreateSecondWindow(stream.Groups, day, slot, s.Cfg.MaxWindowsPerDay) {
			return placeOutcome{reason: domain.ReasonMaxWindowsExceeded, details: fmt.Sprintf("slot %d on %s exceeds max windows", slot, day)}, false
		}
		if ok, reason, details := s.Tracker.CheckSlotAvailabilityReason(instructor, stream.Groups, day, slot, week); !ok {
			return placeOutcome{reason: reason, details: details}, false
		}
	}

	if !instructorDayConstraintOK(s, stream, instructor, day) {
		return placeOutcome{reason: domain.ReasonInstructorDayConstraint, details: "instructor not permitted to teach this group's year on this day"}, false
	}

	room, ok := s.Rooms.Select(roommgr.Request{
		StreamID:     stream.ID,
		StreamType:   stream.StreamType,
		Subject:      stream.Subject,
		Instructor:   instructor,
		Groups:       stream.Groups,
		StudentCount: stream.StudentCount,
		Day:          day,
		Slots:        block,
		WeekType:     week,
		Blacklist:    blacklist,
	})
	if !ok {
		return placeOutcome{reason: domain.ReasonNoRoomAvailable, details: "no room fits in any tier"}, false
	}

	for _, slot := range block {
		s.Tracker.Reserve(instructor, stream.Groups, day, slot, week, room.Key())
	}
	s.Tracker.ReserveSubjectHours(stream.Groups, day, stream.Subject, len(block))

	assignments := make([]domain.Assignment, 0, len(block))
	for _, slot := range block {
		assignments = append(assignments, domain.Assignment{
			StreamID:     stream.ID,
			Subject:      stream.Subject,
			Instructor:   stream.Instructor,
			Groups:       stream.Groups,
			StudentCount: stream.StudentCount,
			Day:          day,
			Slot:         slot,
			Room:         room.Name,
			RoomAddress:  room.Address,
			WeekType:     week,
			StreamType:   stream.StreamType,
		})
	}
	return placeOutcome{assignments: assignments}, true
}

func instructorDayConstraintOK(s *State, stream domain.Stream, instructor domain.InstructorID, day domain.Day) bool {
	constraint, ok := s.Cfg.InstructorDayConstraints[instructor]
	if !ok {
		return true
	}
	for _, raw := range stream.Groups {
		year := domain.ParseGroupName(raw).Year
		allowedDays, ok := constraint.YearDays[year]
		if !ok {
			continue
		}
		found := false
		for _, d := range allowedDays {
			if d == day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// placeWithSplit attempts a full H-hour block first; if no day/position
// admits it, it recurses on progressively smaller contiguous blocks so that
// partial success is preferred to total failure. It returns the assignments
// achieved (possibly across more than one day) and the count of hours that
// could not be placed at all.
func placeWithSplit(s *State, stream domain.Stream, week domain.WeekType, hours int, plan DayPlan, extended bool, blacklist map[string]bool) ([]domain.Assignment, int, domain.UnscheduledReason, string) {
	outcome := placeBlock(s, stream, week, hours, plan, extended, blacklist)
	if len(outcome.assignments) > 0 {
		return outcome.assignments, 0, "", ""
	}
	if hours <= 1 {
		return nil, hours, outcome.reason, outcome.details
	}

	smaller := placeBlock(s, stream, week, hours-1, plan, extended, blacklist)
	if len(smaller.assignments) == 0 {
		return nil, hours, outcome.reason, outcome.details
	}
	restAssignments, unplaced, reason, details := placeWithSplit(s, stream, week, 1, plan, extended, blacklist)
	all := append(smaller.assignments, restAssignments...)
	if unplaced > 0 {
		return all, unplaced, reason, details
	}
	return all, 0, "", ""
}
