package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplan/scheduler-core/internal/domain"
	"github.com/eduplan/scheduler-core/internal/schedconfig"
)

func minimalConfig() *schedconfig.Config {
	return &schedconfig.Config{
		Rooms: []domain.Room{
			{Name: "101", Address: "Main St", Capacity: 40},
		},
		InstructorWeeklyUnavailable: map[domain.InstructorID]map[domain.Day]map[domain.Slot]bool{},
		MaxWindowsPerDay:            1,
	}
}

func TestScheduleSinglePlaceableStream(t *testing.T) {
	streams := []domain.Stream{
		{
			ID:           "str-1",
			Subject:      "Algorithms",
			StreamType:   domain.Lecture,
			Instructor:   "Dr. Pop",
			Groups:       []string{"CS-11"},
			StudentCount: 25,
			HoursOdd:     2,
			HoursEven:    2,
		},
	}

	result := Schedule(context.Background(), streams, minimalConfig(), nil)

	require.NotNil(t, result)
	assert.NotEmpty(t, result.Assignments)
	assert.Equal(t, 2, result.Statistics.ExpectedHours)
	assert.Equal(t, len(result.Assignments), result.Statistics.ScheduledHours)
}

func TestScheduleRecordsUnscheduledWhenInfeasible(t *testing.T) {
	cfg := minimalConfig()
	cfg.Rooms = nil // no rooms at all: nothing can be placed

	streams := []domain.Stream{
		{
			ID:           "str-2",
			Subject:      "Physics",
			StreamType:   domain.Lab,
			Instructor:   "Dr. Ionescu",
			Groups:       []string{"PH-11"},
			StudentCount: 15,
			HoursOdd:     2,
			HoursEven:    2,
		},
	}

	result := Schedule(context.Background(), streams, cfg, nil)

	require.NotNil(t, result)
	assert.Empty(t, result.Assignments)
	assert.NotEmpty(t, result.UnscheduledStreams)
	assert.Contains(t, result.UnscheduledStreamIDs, "str-2")
}

func TestScheduleObserverReceivesStageDurations(t *testing.T) {
	var observed []string
	observe := func(stage string, _ time.Duration) {
		observed = append(observed, stage)
	}

	streams := []domain.Stream{
		{
			ID:           "str-3",
			Subject:      "Algorithms",
			StreamType:   domain.Lecture,
			Instructor:   "Dr. Pop",
			Groups:       []string{"CS-11"},
			StudentCount: 25,
			HoursOdd:     2,
			HoursEven:    2,
		},
	}

	Schedule(context.Background(), streams, minimalConfig(), observe)
	assert.NotEmpty(t, observed)
}
