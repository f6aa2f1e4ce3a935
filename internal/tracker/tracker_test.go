package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplan/scheduler-core/internal/domain"
	"github.com/eduplan/scheduler-core/internal/schedconfig"
)

func newTestTracker() *Tracker {
	cfg := &schedconfig.Config{
		InstructorWeeklyUnavailable: map[domain.InstructorID]map[domain.Day]map[domain.Slot]bool{},
	}
	return New(cfg)
}

func TestReserveThenGroupsInstructorsRoomsUnavailable(t *testing.T) {
	tr := newTestTracker()
	instr := domain.NewInstructorID("Dr. Smith")
	room := domain.RoomKey{Name: "101", Address: "Main St"}

	require.True(t, tr.IsInstructorAvailable(instr, domain.Monday, 1, domain.Odd))
	require.True(t, tr.AreGroupsAvailable([]string{"CS-11"}, domain.Monday, 1, domain.Odd))
	require.True(t, tr.IsRoomAvailable(room, domain.Monday, 1, domain.Odd))

	tr.Reserve(instr, []string{"CS-11"}, domain.Monday, 1, domain.Odd, room)

	assert.False(t, tr.IsInstructorAvailable(instr, domain.Monday, 1, domain.Odd))
	assert.False(t, tr.AreGroupsAvailable([]string{"CS-11"}, domain.Monday, 1, domain.Odd))
	assert.False(t, tr.IsRoomAvailable(room, domain.Monday, 1, domain.Odd))

	// A different week-type parity is unaffected.
	assert.True(t, tr.IsInstructorAvailable(instr, domain.Monday, 1, domain.Even))
}

func TestReleaseIsExactInverseOfReserve(t *testing.T) {
	tr := newTestTracker()
	instr := domain.NewInstructorID("Prof. Lee")
	room := domain.RoomKey{Name: "202", Address: "East Hall"}

	tr.Reserve(instr, []string{"CS-12"}, domain.Tuesday, 3, domain.Both, room)
	tr.Release(instr, []string{"CS-12"}, domain.Tuesday, 3, domain.Both, room)

	assert.True(t, tr.IsInstructorAvailable(instr, domain.Tuesday, 3, domain.Odd))
	assert.True(t, tr.AreGroupsAvailable([]string{"CS-12"}, domain.Tuesday, 3, domain.Even))
	assert.True(t, tr.IsRoomAvailable(room, domain.Tuesday, 3, domain.Both))
}

func TestBothWeekTypeCrossBlocksOddAndEven(t *testing.T) {
	tr := newTestTracker()
	instr := domain.NewInstructorID("Ana Popescu")
	room := domain.RoomKey{Name: "1", Address: "A"}

	tr.Reserve(instr, []string{"G-11"}, domain.Wednesday, 5, domain.Both, room)

	assert.False(t, tr.IsInstructorAvailable(instr, domain.Wednesday, 5, domain.Odd))
	assert.False(t, tr.IsInstructorAvailable(instr, domain.Wednesday, 5, domain.Even))
}

func TestCheckSlotAvailabilityReasonOrder(t *testing.T) {
	tr := newTestTracker()
	instr := domain.NewInstructorID("Mr. Popa")

	tr.cfg.InstructorWeeklyUnavailable[instr] = map[domain.Day]map[domain.Slot]bool{
		domain.Monday: {1: true},
	}

	ok, reason, _ := tr.CheckSlotAvailabilityReason(instr, []string{"G-11"}, domain.Monday, 1, domain.Odd)
	assert.False(t, ok)
	assert.Equal(t, domain.ReasonInstructorUnavailable, reason)

	room := domain.RoomKey{Name: "1", Address: "A"}
	tr.Reserve(instr, []string{"G-11"}, domain.Monday, 2, domain.Odd, room)
	ok, reason, _ = tr.CheckSlotAvailabilityReason(instr, []string{"G-21"}, domain.Monday, 2, domain.Odd)
	assert.False(t, ok)
	assert.Equal(t, domain.ReasonInstructorConflict, reason)

	other := domain.NewInstructorID("Mrs. Ionescu")
	ok, reason, _ = tr.CheckSlotAvailabilityReason(other, []string{"G-11"}, domain.Monday, 2, domain.Odd)
	assert.False(t, ok)
	assert.Equal(t, domain.ReasonGroupConflict, reason)
}

func TestCanAddSubjectHoursRespectsCaps(t *testing.T) {
	tr := newTestTracker()
	groups := []string{"CS-11"}

	normalOK, extremeOK := tr.CanAddSubjectHours(groups, domain.Monday, "Math", 2)
	assert.True(t, normalOK)
	assert.True(t, extremeOK)

	tr.ReserveSubjectHours(groups, domain.Monday, "Math", 2)
	normalOK, extremeOK = tr.CanAddSubjectHours(groups, domain.Monday, "Math", 1)
	assert.False(t, normalOK)
	assert.True(t, extremeOK)

	tr.ReserveSubjectHours(groups, domain.Monday, "Math", 1)
	_, extremeOK = tr.CanAddSubjectHours(groups, domain.Monday, "Math", 1)
	assert.False(t, extremeOK)
}

func TestWouldExceedDailyLoad(t *testing.T) {
	tr := newTestTracker()
	groups := []string{"CS-11"}
	tr.incDailyLoad("CS-11", domain.Monday, 5)

	assert.False(t, tr.WouldExceedDailyLoad(groups, domain.Monday, 1))
	assert.True(t, tr.WouldExceedDailyLoad(groups, domain.Monday, 2))
}

func TestWouldCreateSecondWindow(t *testing.T) {
	tr := newTestTracker()
	instr := domain.NewInstructorID("Dr. Vasilescu")
	room := domain.RoomKey{Name: "1", Address: "A"}

	tr.Reserve(instr, []string{"CS-11"}, domain.Monday, 1, domain.Odd, room)
	tr.Reserve(instr, []string{"CS-11"}, domain.Monday, 2, domain.Odd, room)

	// Adjacent to the existing block: no new window.
	assert.False(t, tr.WouldCreateSecondWindow([]string{"CS-11"}, domain.Monday, 3, 1))
	// A gap after slot 3 (skipping to slot 5) creates a second window beyond the cap.
	assert.True(t, tr.WouldCreateSecondWindow([]string{"CS-11"}, domain.Monday, 5, 1))
}

func TestBuildingGapConstraint(t *testing.T) {
	tr := newTestTracker()
	instr := domain.NewInstructorID("Dr. Vasilescu")
	roomA := domain.RoomKey{Name: "1", Address: "Campus A"}
	roomB := domain.RoomKey{Name: "1", Address: "Campus B"}

	tr.Reserve(instr, []string{"CS-11"}, domain.Monday, 1, domain.Odd, roomA)
	tr.Reserve(instr, []string{"CS-11"}, domain.Monday, 3, domain.Odd, roomB)

	// Slot 2 is sandwiched between two non-nearby addresses.
	assert.False(t, tr.CheckBuildingGapConstraint([]string{"CS-11"}, domain.Monday, 2, "Campus C"))
	assert.True(t, tr.IsBuildingGapSlot([]string{"CS-11"}, domain.Monday, 2))
}

func TestFindDayBoundarySlots(t *testing.T) {
	tr := newTestTracker()
	instr := domain.NewInstructorID("Dr. Radu")
	slots := []domain.Slot{1, 2, 3, 4, 5}

	earliest, latest := tr.FindDayBoundarySlots(instr, []string{"CS-11"}, domain.Monday, slots, 2, domain.Odd)
	assert.Equal(t, []domain.Slot{1, 2}, earliest)
	assert.Equal(t, []domain.Slot{4, 5}, latest)
}
