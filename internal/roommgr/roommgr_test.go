package roommgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplan/scheduler-core/internal/domain"
	"github.com/eduplan/scheduler-core/internal/schedconfig"
	"github.com/eduplan/scheduler-core/internal/tracker"
)

func newTestConfig() *schedconfig.Config {
	return &schedconfig.Config{
		Rooms: []domain.Room{
			{Name: "Lab-1", Address: "Main St", Capacity: 20, IsSpecial: true},
			{Name: "101", Address: "Main St", Capacity: 30},
			{Name: "202", Address: "East Hall", Capacity: 150},
		},
		InstructorWeeklyUnavailable: map[domain.InstructorID]map[domain.Day]map[domain.Slot]bool{},
	}
}

func TestSelectGeneralPoolSmallestFit(t *testing.T) {
	cfg := newTestConfig()
	tr := tracker.New(cfg)
	mgr := New(cfg, tr)

	room, ok := mgr.Select(Request{
		StreamID:     "s1",
		StreamType:   domain.Lecture,
		Subject:      "Algorithms",
		Instructor:   domain.NewInstructorID("Dr. Pop"),
		Groups:       []string{"CS-11"},
		StudentCount: 25,
		Day:          domain.Monday,
		Slots:        []domain.Slot{1},
		WeekType:     domain.Odd,
	})
	require.True(t, ok)
	assert.Equal(t, "101", room.Name)
}

func TestSelectFallsBackToCapacityBuffer(t *testing.T) {
	cfg := newTestConfig()
	tr := tracker.New(cfg)
	mgr := New(cfg, tr)

	// 160 students exceeds every room's plain capacity, but 202's elastic
	// buffer (20% at this size) covers the gap, so it should still be picked.
	room, ok := mgr.Select(Request{
		StreamID:     "s2",
		StreamType:   domain.Lecture,
		Subject:      "Algorithms",
		Instructor:   domain.NewInstructorID("Dr. Pop"),
		Groups:       []string{"CS-11"},
		StudentCount: 160,
		Day:          domain.Monday,
		Slots:        []domain.Slot{1},
		WeekType:     domain.Odd,
	})
	require.True(t, ok)
	assert.Equal(t, "202", room.Name)
}

func TestSelectSkipsSpecialRoomsInGeneralPool(t *testing.T) {
	cfg := newTestConfig()
	tr := tracker.New(cfg)
	mgr := New(cfg, tr)

	room, ok := mgr.Select(Request{
		StreamID:     "s3",
		StreamType:   domain.Lecture,
		Subject:      "History",
		Instructor:   domain.NewInstructorID("Dr. Ionescu"),
		Groups:       []string{"HI-11"},
		StudentCount: 10,
		Day:          domain.Tuesday,
		Slots:        []domain.Slot{1},
		WeekType:     domain.Odd,
	})
	require.True(t, ok)
	assert.NotEqual(t, "Lab-1", room.Name)
}

func TestSelectStrictSubjectRoomNoFallThrough(t *testing.T) {
	cfg := newTestConfig()
	cfg.SubjectRooms = map[string]schedconfig.SubjectRoomRule{
		"Physics": {
			Mode: schedconfig.Strict,
			Rules: schedconfig.StreamTypeRules{
				All: []schedconfig.RoomRule{{Address: "Main St", RoomName: "Lab-1"}},
			},
		},
	}
	tr := tracker.New(cfg)
	mgr := New(cfg, tr)

	// Reserve Lab-1 so the strict subject rule can't be satisfied; no
	// fall-through to the general pool should occur.
	tr.Reserve(domain.NewInstructorID("Dr. X"), []string{"PH-11"}, domain.Monday, 1, domain.Odd, domain.RoomKey{Name: "Lab-1", Address: "Main St"})

	_, ok := mgr.Select(Request{
		StreamID:     "s4",
		StreamType:   domain.Lab,
		Subject:      "Physics",
		Instructor:   domain.NewInstructorID("Dr. Y"),
		Groups:       []string{"PH-11"},
		StudentCount: 15,
		Day:          domain.Monday,
		Slots:        []domain.Slot{1},
		WeekType:     domain.Odd,
	})
	assert.False(t, ok)
}

func TestSelectReturnsFalseWhenNoRoomFits(t *testing.T) {
	cfg := newTestConfig()
	tr := tracker.New(cfg)
	mgr := New(cfg, tr)

	_, ok := mgr.Select(Request{
		StreamID:     "s5",
		StreamType:   domain.Lecture,
		Subject:      "Algorithms",
		Instructor:   domain.NewInstructorID("Dr. Pop"),
		Groups:       []string{"CS-11"},
		StudentCount: 500,
		Day:          domain.Monday,
		Slots:        []domain.Slot{1},
		WeekType:     domain.Odd,
	})
	assert.False(t, ok)
}
