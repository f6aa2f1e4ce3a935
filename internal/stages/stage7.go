package stages

import (
	"sort"

	"github.com/eduplan/scheduler-core/internal/domain"
)

// maxOptimizerIterations bounds both optimizer phases so a pathological board
// cannot loop indefinitely chasing diminishing improvements.
const maxOptimizerIterations = 200

// Stage7 is the post-hoc Optimizer. Phase A redistributes single-group load
// off overloaded days onto empty days; Phase B retries the carried-over
// Unscheduled list against the now-settled board.
func Stage7(s *State, streams []domain.Stream) {
	phaseAEmptyDayRedistribution(s)
	phaseBRetryUnscheduled(s)
}

// movableBlock is one stream's contiguous same-day, same-week assignment run
// for a single group — the unit Phase A considers moving.
type movableBlock struct {
	streamID string
	group    string
	day      domain.Day
	week     domain.WeekType
	rows     []domain.Assignment
}

// collectMovableBlocks groups single-group assignments (len(Groups) == 1) by
// (streamID, day, week). Multi-group assignments are never movable units: the
// spec reserves moves to single-group, non-subgroup, non-multi-group streams,
// and a committed assignment only ever carries one group when the stream
// that produced it served exactly one group.
func collectMovableBlocks(s *State) []movableBlock {
	index := make(map[string]*movableBlock)
	var order []string
	for _, a := range s.Assignments {
		if len(a.Groups) != 1 {
			continue
		}
		key := a.StreamID + "|" + a.Day.String() + "|" + a.WeekType.String()
		b, ok := index[key]
		if !ok {
			b = &movableBlock{streamID: a.StreamID, group: domain.BaseGroupOf(a.Groups[0]), day: a.Day, week: a.WeekType}
			index[key] = b
			order = append(order, key)
		}
		b.rows = append(b.rows, a)
	}
	out := make([]movableBlock, 0, len(order))
	for _, key := range order {
		out = append(out, *index[key])
	}
	return out
}

// groupDayCounts returns base-group -> weekday -> occupied-slot count.
func groupDayCounts(s *State) map[string]map[domain.Day]int {
	counts := make(map[string]map[domain.Day]int)
	for _, a := range s.Assignments {
		for _, raw := range a.Groups {
			base := domain.BaseGroupOf(raw)
			if counts[base] == nil {
				counts[base] = make(map[domain.Day]int)
			}
			counts[base][a.Day]++
		}
	}
	return counts
}

// inferShift derives the shift a committed block occupies from its slots:
// any slot beyond the strict first-shift range means second shift.
func inferShift(rows []domain.Assignment) domain.Shift {
	for _, r := range rows {
		if r.Slot > domain.Slot(len(domain.FirstShiftSlots)) {
			return domain.ShiftSecond
		}
	}
	return domain.ShiftFirst
}

func blockRoomKey(a domain.Assignment) domain.RoomKey {
	return domain.RoomKey{Name: a.Room, Address: a.RoomAddress}
}

// attemptMove probes moving block to targetDay, restoring all tracker state
// if no candidate position admits the whole block. On success it returns the
// new assignments (already reserved in the tracker and room manager).
func attemptMove(s *State, block movableBlock, targetDay domain.Day) ([]domain.Assignment, bool) {
	hours := len(block.rows)
	subject := block.rows[0].Subject
	groups := block.rows[0].Groups
	instructor := domain.NewInstructorID(block.rows[0].Instructor)

	if normalOK, _ := s.Tracker.CanAddSubjectHours(groups, targetDay, subject, hours); !normalOK {
		return nil, false
	}
	if s.Tracker.WouldExceedDailyLoad(groups, targetDay, hours) {
		return nil, false
	}

	for _, r := range block.rows {
		s.Tracker.Release(instructor, r.Groups, r.Day, r.Slot, r.WeekType, blockRoomKey(r))
	}
	s.Tracker.ReleaseSubjectHours(groups, block.day, subject, hours)

	stream := domain.Stream{
		ID: block.streamID, Subject: subject, StreamType: block.rows[0].StreamType,
		Instructor: block.rows[0].Instructor, Groups: groups, StudentCount: block.rows[0].StudentCount,
	}
	allowed := domain.AllowedSlots(inferShift(block.rows), false)
	var lastReason domain.UnscheduledReason
	var lastDetails string
	outcome, ok := tryStartsOnDay(s, stream, block.week, targetDay, allowed, hours, instructor, nil, &lastReason, &lastDetails)
	if ok {
		return outcome.assignments, true
	}

	for _, r := range block.rows {
		s.Tracker.Reserve(instructor, r.Groups, r.Day, r.Slot, r.WeekType, blockRoomKey(r))
	}
	s.Tracker.ReserveSubjectHours(groups, block.day, subject, hours)
	return nil, false
}

// replaceAssignments swaps the rows of an old block for its new placement in
// s.Assignments, preserving the position of every other entry.
func replaceAssignments(s *State, old []domain.Assignment, fresh []domain.Assignment) {
	oldSet := make(map[string]int)
	for _, a := range old {
		oldSet[a.StreamID]++
	}
	out := make([]domain.Assignment, 0, len(s.Assignments))
	consumed := 0
	target := oldSet[old[0].StreamID]
	for _, a := range s.Assignments {
		if a.StreamID == old[0].StreamID && a.Day == old[0].Day && a.WeekType == old[0].WeekType && consumed < target {
			consumed++
			continue
		}
		out = append(out, a)
	}
	out = append(out, fresh...)
	s.Assignments = out
}

// phaseAEmptyDayRedistribution repeatedly finds the highest-scoring valid
// move of a movable block from an overloaded day (>=6 slots) to an empty day
// (0 slots) for the same base group, applying it, until no improving move
// exists or the iteration cap is reached.
func phaseAEmptyDayRedistribution(s *State) {
	const overloadThreshold = 6

	for iter := 0; iter < maxOptimizerIterations; iter++ {
		counts := groupDayCounts(s)
		blocks := collectMovableBlocks(s)

		type candidate struct {
			block  movableBlock
			target domain.Day
			fresh  []domain.Assignment
			score  int
		}
		var best *candidate

		for _, b := range blocks {
			dayCounts, ok := counts[b.group]
			if !ok || dayCounts[b.day] < overloadThreshold {
				continue
			}
			for _, targetDay := range domain.Weekdays {
				if targetDay == b.day || dayCounts[targetDay] != 0 {
					continue
				}
				fresh, ok := attemptMove(s, b, targetDay)
				if !ok {
					continue
				}
				// Undo the probe immediately; only the winning candidate of
				// this iteration is applied for real.
				for _, r := range fresh {
					s.Tracker.Release(domain.NewInstructorID(r.Instructor), r.Groups, r.Day, r.Slot, r.WeekType, domain.RoomKey{Name: r.Room, Address: r.RoomAddress})
				}
				s.Tracker.ReleaseSubjectHours(b.rows[0].Groups, targetDay, b.rows[0].Subject, len(b.rows))
				for _, r := range b.rows {
					s.Tracker.Reserve(domain.NewInstructorID(r.Instructor), r.Groups, r.Day, r.Slot, r.WeekType, blockRoomKey(r))
				}
				s.Tracker.ReserveSubjectHours(b.rows[0].Groups, b.day, b.rows[0].Subject, len(b.rows))

				score := dayCounts[b.day]
				if best == nil || score > best.score {
					best = &candidate{block: b, target: targetDay, score: score}
				}
			}
		}

		if best == nil {
			return
		}
		fresh, ok := attemptMove(s, best.block, best.target)
		if !ok {
			return // board changed shape between scoring and applying; stop rather than loop
		}
		replaceAssignments(s, best.block.rows, fresh)
	}
}

// phaseBRetryUnscheduled sorts the carried-over Unscheduled list by retry
// priority and retries each against the settled board, using a reversed day
// order for subject-daily-limit failures (most likely to find the subject's
// empty day by searching from the end of the week).
func phaseBRetryUnscheduled(s *State) {
	pending := s.Unscheduled
	s.Unscheduled = nil

	sort.SliceStable(pending, func(i, j int) bool {
		return domain.RetryPriority(pending[i].Reason) < domain.RetryPriority(pending[j].Reason)
	})

	for _, u := range pending {
		if u.Hours <= 0 {
			s.Unscheduled = append(s.Unscheduled, u)
			continue
		}
		days := append([]domain.Day{}, domain.Weekdays...)
		if u.Reason == domain.ReasonSubjectDailyLimit {
			for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
				days[i], days[j] = days[j], days[i]
			}
		}
		stream := domain.Stream{
			ID: u.StreamID, Subject: u.Subject, StreamType: u.StreamType,
			Instructor: u.Instructor, Groups: u.Groups, StudentCount: u.StudentCount,
		}
		plan := DayPlan{days}
		assignments, unplaced, reason, details := placeWithSplit(s, stream, u.Week, u.Hours, plan, true, nil)
		if len(assignments) > 0 {
			s.Commit(assignments)
			s.MarkScheduled(u.StreamID)
		}
		if unplaced > 0 {
			next := u
			next.Reason, next.Details = reason, details
			s.Unscheduled = append(s.Unscheduled, next)
		}
	}
}
