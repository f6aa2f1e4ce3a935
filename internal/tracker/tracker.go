// Package tracker implements the Conflict Tracker: the single source of
// truth for "is this (resource, day, slot, week-type) free, and if not,
// why?" It owns three reservation maps (instructors, base groups, rooms)
// keyed by (day, slot, week-type), plus the daily/subject load counters and
// the per-group building-address map used for the travel-gap invariant.
//
// The tracker is deliberately not safe for concurrent use: the scheduler is
// single-threaded and stages mutate it in strict sequence (see the
// concurrency model).
package tracker

import (
	"sort"

	"github.com/eduplan/scheduler-core/internal/domain"
	"github.com/eduplan/scheduler-core/internal/schedconfig"
)

type slotKey struct {
	day  domain.Day
	slot domain.Slot
}

type weekBuckets[T comparable] struct {
	odd  map[T]bool
	even map[T]bool
	both map[T]bool
}

func newWeekBuckets[T comparable]() *weekBuckets[T] {
	return &weekBuckets[T]{odd: map[T]bool{}, even: map[T]bool{}, both: map[T]bool{}}
}

func (b *weekBuckets[T]) bucket(week domain.WeekType) map[T]bool {
	switch week {
	case domain.Odd:
		return b.odd
	case domain.Even:
		return b.even
	default:
		return b.both
	}
}

// occupiedBy reports whether item is reserved under week or under the
// cross-blocking Both bucket.
func (b *weekBuckets[T]) occupiedBy(item T, week domain.WeekType) bool {
	if b.both[item] {
		return true
	}
	if week == domain.Both {
		return b.odd[item] || b.even[item]
	}
	return b.bucket(week)[item]
}

func (b *weekBuckets[T]) add(item T, week domain.WeekType) {
	b.bucket(week)[item] = true
}

func (b *weekBuckets[T]) remove(item T, week domain.WeekType) {
	delete(b.bucket(week), item)
}

func (b *weekBuckets[T]) empty() bool {
	return len(b.odd) == 0 && len(b.even) == 0 && len(b.both) == 0
}

type slotState struct {
	instructors *weekBuckets[domain.InstructorID]
	groups      *weekBuckets[string]
	rooms       *weekBuckets[domain.RoomKey]
}

func newSlotState() *slotState {
	return &slotState{
		instructors: newWeekBuckets[domain.InstructorID](),
		groups:      newWeekBuckets[string](),
		rooms:       newWeekBuckets[domain.RoomKey](),
	}
}

type groupDaySlot struct {
	group string
	day   domain.Day
	slot  domain.Slot
}

// Tracker is the Conflict Tracker. Zero value is not usable; build one with New.
type Tracker struct {
	cfg *schedconfig.Config

	bySlot map[slotKey]*slotState

	dailyLoad   map[string]map[domain.Day]int            // base group -> day -> count
	subjectLoad map[string]map[domain.Day]map[string]int // base group -> day -> subject -> count
	groupAddr   map[groupDaySlot]string                  // base group+day+slot -> room address
}

// New constructs a Tracker bound to cfg's static instructor-unavailability
// and nearby-building data. The reservation state starts empty.
func New(cfg *schedconfig.Config) *Tracker {
	return &Tracker{
		cfg:         cfg,
		bySlot:      make(map[slotKey]*slotState),
		dailyLoad:   make(map[string]map[domain.Day]int),
		subjectLoad: make(map[string]map[domain.Day]map[string]int),
		groupAddr:   make(map[groupDaySlot]string),
	}
}

func (t *Tracker) state(day domain.Day, slot domain.Slot) *slotState {
	key := slotKey{day: day, slot: slot}
	s, ok := t.bySlot[key]
	if !ok {
		s = newSlotState()
		t.bySlot[key] = s
	}
	return s
}

// Reserve atomically adds instructor, every base group in groups, and room to
// the three reservation maps at (day, slot, week), and updates the daily load
// and building-address bookkeeping. Precondition: the caller has already
// validated availability; no verification is repeated here.
func (t *Tracker) Reserve(instructor domain.InstructorID, groups []string, day domain.Day, slot domain.Slot, week domain.WeekType, room domain.RoomKey) {
	s := t.state(day, slot)
	s.instructors.add(instructor, week)
	s.rooms.add(room, week)
	for _, raw := range groups {
		base := domain.BaseGroupOf(raw)
		s.groups.add(base, week)
		t.incDailyLoad(base, day, 1)
		t.groupAddr[groupDaySlot{group: base, day: day, slot: slot}] = room.Address
	}
}

// Release is the exact inverse of Reserve; no reference counting.
func (t *Tracker) Release(instructor domain.InstructorID, groups []string, day domain.Day, slot domain.Slot, week domain.WeekType, room domain.RoomKey) {
	s := t.state(day, slot)
	s.instructors.remove(instructor, week)
	s.rooms.remove(room, week)
	for _, raw := range groups {
		base := domain.BaseGroupOf(raw)
		s.groups.remove(base, week)
		t.incDailyLoad(base, day, -1)
		delete(t.groupAddr, groupDaySlot{group: base, day: day, slot: slot})
	}
}

func (t *Tracker) incDailyLoad(group string, day domain.Day, delta int) {
	if t.dailyLoad[group] == nil {
		t.dailyLoad[group] = make(map[domain.Day]int)
	}
	t.dailyLoad[group][day] += delta
	if t.dailyLoad[group][day] <= 0 {
		delete(t.dailyLoad[group], day)
	}
}

// ReserveSubjectHours updates the per-base-group-per-day-per-subject counter
// used by the 2-hour daily subject cap.
func (t *Tracker) ReserveSubjectHours(groups []string, day domain.Day, subject string, count int) {
	for _, raw := range groups {
		base := domain.BaseGroupOf(raw)
		if t.subjectLoad[base] == nil {
			t.subjectLoad[base] = make(map[domain.Day]map[string]int)
		}
		if t.subjectLoad[base][day] == nil {
			t.subjectLoad[base][day] = make(map[string]int)
		}
		t.subjectLoad[base][day][subject] += count
	}
}

// ReleaseSubjectHours is the inverse of ReserveSubjectHours.
func (t *Tracker) ReleaseSubjectHours(groups []string, day domain.Day, subject string, count int) {
	for _, raw := range groups {
		base := domain.BaseGroupOf(raw)
		if t.subjectLoad[base] == nil || t.subjectLoad[base][day] == nil {
			continue
		}
		t.subjectLoad[base][day][subject] -= count
		if t.subjectLoad[base][day][subject] <= 0 {
			delete(t.subjectLoad[base][day], subject)
		}
	}
}

// IsInstructorAvailable reports false when instructor is weekly-unavailable at
// the slot's clock time or already reserved at (day, slot, week) under the
// Both-cross-blocking rule. Day-of-year restrictions are not checked here.
func (t *Tracker) IsInstructorAvailable(instructor domain.InstructorID, day domain.Day, slot domain.Slot, week domain.WeekType) bool {
	if unavailable, ok := t.cfg.InstructorWeeklyUnavailable[instructor]; ok {
		if slots, ok := unavailable[day]; ok && slots[slot] {
			return false
		}
	}
	s := t.state(day, slot)
	return !s.instructors.occupiedBy(instructor, week)
}

// AreGroupsAvailable reports whether every base group in groups is free at
// (day, slot, week) under the Both-cross-blocking rule.
func (t *Tracker) AreGroupsAvailable(groups []string, day domain.Day, slot domain.Slot, week domain.WeekType) bool {
	s := t.state(day, slot)
	for _, raw := range groups {
		if s.groups.occupiedBy(domain.BaseGroupOf(raw), week) {
			return false
		}
	}
	return true
}

// IsRoomAvailable reports whether room is free at (day, slot, week). Used by
// the room manager, which never maintains an occupancy map of its own.
func (t *Tracker) IsRoomAvailable(room domain.RoomKey, day domain.Day, slot domain.Slot, week domain.WeekType) bool {
	s := t.state(day, slot)
	return !s.rooms.occupiedBy(room, week)
}

// CheckSlotAvailabilityReason answers in the fixed order instructor-unavailable
// -> instructor-conflict -> group-conflict, so diagnostics can assert the
// first violated reason.
func (t *Tracker) CheckSlotAvailabilityReason(instructor domain.InstructorID, groups []string, day domain.Day, slot domain.Slot, week domain.WeekType) (bool, domain.UnscheduledReason, string) {
	if unavailable, ok := t.cfg.InstructorWeeklyUnavailable[instructor]; ok {
		if slots, ok := unavailable[day]; ok && slots[slot] {
			return false, domain.ReasonInstructorUnavailable, "instructor weekly-unavailable at this slot"
		}
	}
	s := t.state(day, slot)
	if s.instructors.occupiedBy(instructor, week) {
		return false, domain.ReasonInstructorConflict, "instructor already reserved at this slot"
	}
	for _, raw := range groups {
		base := domain.BaseGroupOf(raw)
		if s.groups.occupiedBy(base, week) {
			return false, domain.ReasonGroupConflict, "group " + base + " already reserved at this slot"
		}
	}
	return true, "", ""
}

// CanAddSubjectHours reports normal_ok (adding count would not exceed the
// 2-hour/day cap for any group) and extreme_ok, the same check against a
// relaxed 3-hour cap. The placement stages, including the optimizer's retry
// pass, check only normal_ok.
func (t *Tracker) CanAddSubjectHours(groups []string, day domain.Day, subject string, count int) (normalOK, extremeOK bool) {
	const normalCap = 2
	const extremeCap = 3
	normalOK = true
	extremeOK = true
	for _, raw := range groups {
		base := domain.BaseGroupOf(raw)
		current := 0
		if t.subjectLoad[base] != nil && t.subjectLoad[base][day] != nil {
			current = t.subjectLoad[base][day][subject]
		}
		if current+count > normalCap {
			normalOK = false
		}
		if current+count > extremeCap {
			extremeOK = false
		}
	}
	return normalOK, extremeOK
}

// WouldExceedDailyLoad reports true when any group's daily counter plus hours
// would exceed the daily load cap of 6.
func (t *Tracker) WouldExceedDailyLoad(groups []string, day domain.Day, hours int) bool {
	const dailyCap = 6
	for _, raw := range groups {
		base := domain.BaseGroupOf(raw)
		current := t.dailyLoad[base][day]
		if current+hours > dailyCap {
			return true
		}
	}
	return false
}

// GroupDaySlots returns the sorted occupied slots for a base group on a day.
func (t *Tracker) GroupDaySlots(group string, day domain.Day) []domain.Slot {
	group = domain.BaseGroupOf(group)
	var slots []domain.Slot
	for gds := range t.groupAddr {
		if gds.group == group && gds.day == day {
			slots = append(slots, gds.slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

func (t *Tracker) groupAddressAt(group string, day domain.Day, slot domain.Slot) (string, bool) {
	addr, ok := t.groupAddr[groupDaySlot{group: domain.BaseGroupOf(group), day: day, slot: slot}]
	return addr, ok
}

// IsBuildingGapSlot reports whether slot is already sandwiched between two
// occupied neighbor slots in non-nearby addresses for any of groups, meaning
// the slot must remain a travel gap regardless of what would be placed there.
func (t *Tracker) IsBuildingGapSlot(groups []string, day domain.Day, slot domain.Slot) bool {
	for _, raw := range groups {
		before, okBefore := t.groupAddressAt(raw, day, slot-1)
		after, okAfter := t.groupAddressAt(raw, day, slot+1)
		if okBefore && okAfter && !t.cfg.AreNearby(before, after) {
			return true
		}
	}
	return false
}

// CheckBuildingGapConstraint reports ok=false when, for any group, the slot
// immediately before or after already carries an assignment whose address is
// not in the same nearby-cluster as address.
func (t *Tracker) CheckBuildingGapConstraint(groups []string, day domain.Day, slot domain.Slot, address string) bool {
	for _, raw := range groups {
		if before, ok := t.groupAddressAt(raw, day, slot-1); ok && !t.cfg.AreNearby(before, address) {
			return false
		}
		if after, ok := t.groupAddressAt(raw, day, slot+1); ok && !t.cfg.AreNearby(after, address) {
			return false
		}
	}
	return true
}

// WouldCreateSecondWindow reports true when inserting at slot would leave
// more empty slots (windows) between the first and last class of the day
// than maxWindows allows, for any group.
func (t *Tracker) WouldCreateSecondWindow(groups []string, day domain.Day, slot domain.Slot, maxWindows int) bool {
	for _, raw := range groups {
		existing := t.GroupDaySlots(raw, day)
		if len(existing) == 0 {
			continue
		}
		combined := append(append([]domain.Slot{}, existing...), slot)
		sort.Slice(combined, func(i, j int) bool { return combined[i] < combined[j] })
		windows := 0
		for i := 1; i < len(combined); i++ {
			if combined[i]-combined[i-1] > 1 {
				windows += int(combined[i]-combined[i-1]) - 1
			}
		}
		if windows > maxWindows {
			return true
		}
	}
	return false
}

// FindDayBoundarySlots returns, for a candidate day, the earliest-start and
// latest-start slot positions (each hours long, within validSlots) that an
// instructor and groups could occupy without conflict — used by
// same-instructor subgroup pairing to anchor the critical pair at day
// boundaries. A nil/empty element means that boundary is not available.
func (t *Tracker) FindDayBoundarySlots(instructor domain.InstructorID, groups []string, day domain.Day, validSlots []domain.Slot, hours int, week domain.WeekType) (earliest, latest []domain.Slot) {
	if len(validSlots) < hours || hours <= 0 {
		return nil, nil
	}
	sorted := append([]domain.Slot{}, validSlots...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	tryAt := func(start int) []domain.Slot {
		if start < 0 || start+hours > len(sorted) {
			return nil
		}
		block := sorted[start : start+hours]
		for i := 1; i < len(block); i++ {
			if block[i] != block[i-1]+1 {
				return nil
			}
		}
		for _, s := range block {
			if !t.IsInstructorAvailable(instructor, day, s, week) || !t.AreGroupsAvailable(groups, day, s, week) {
				return nil
			}
		}
		return block
	}

	earliest = tryAt(0)
	latest = tryAt(len(sorted) - hours)
	return earliest, latest
}
