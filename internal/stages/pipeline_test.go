package stages

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplan/scheduler-core/internal/domain"
	"github.com/eduplan/scheduler-core/internal/schedconfig"
)

func pipelineConfig() *schedconfig.Config {
	return &schedconfig.Config{
		Rooms: []domain.Room{
			{Name: "101", Address: "Main St", Capacity: 80},
			{Name: "Lab-1", Address: "Main St", Capacity: 20, IsSpecial: true},
		},
		InstructorWeeklyUnavailable: map[domain.InstructorID]map[domain.Day]map[domain.Slot]bool{},
		MaxWindowsPerDay:            1,
	}
}

func TestRunPlacesMultiGroupLectureInStage1(t *testing.T) {
	cfg := pipelineConfig()
	s := NewState(cfg)
	streams := []domain.Stream{
		{ID: "lec-1", Subject: "Algorithms", StreamType: domain.Lecture, Instructor: "Dr. Pop",
			Groups: []string{"CS-11", "CS-12"}, StudentCount: 60, HoursOdd: 2, HoursEven: 2},
	}

	last := Run(context.Background(), s, streams, nil)

	require.Equal(t, 7, last)
	assert.True(t, s.Scheduled["lec-1"])
	assert.NotEmpty(t, s.Assignments)
}

func TestRunPlacesPracticalWithNoLectureCounterpartInStage3(t *testing.T) {
	cfg := pipelineConfig()
	s := NewState(cfg)
	streams := []domain.Stream{
		{ID: "prac-1", Subject: "English", StreamType: domain.Practical, Instructor: "Ms. Ionescu",
			Groups: []string{"CS-11"}, StudentCount: 20, HoursOdd: 2, HoursEven: 2},
	}

	Run(context.Background(), s, streams, nil)

	assert.True(t, s.Scheduled["prac-1"])
}

func TestRunPlacesSingleGroupLectureInStage4(t *testing.T) {
	cfg := pipelineConfig()
	s := NewState(cfg)
	streams := []domain.Stream{
		{ID: "lec-2", Subject: "Physics", StreamType: domain.Lecture, Instructor: "Dr. Vasilescu",
			Groups: []string{"PH-11"}, StudentCount: 25, HoursOdd: 2, HoursEven: 2},
	}

	Run(context.Background(), s, streams, nil)

	assert.True(t, s.Scheduled["lec-2"])
}

func TestRunRecordsUnscheduledWhenNoRoomCanFit(t *testing.T) {
	cfg := pipelineConfig()
	cfg.Rooms = []domain.Room{{Name: "tiny", Address: "Main St", Capacity: 5}}
	s := NewState(cfg)
	streams := []domain.Stream{
		{ID: "lec-3", Subject: "Algorithms", StreamType: domain.Lecture, Instructor: "Dr. Pop",
			Groups: []string{"CS-11"}, StudentCount: 200, HoursOdd: 2, HoursEven: 2},
	}

	Run(context.Background(), s, streams, nil)

	assert.False(t, s.Scheduled["lec-3"])
	assert.NotEmpty(t, s.Unscheduled)
}

func TestRunLabGoesThroughStage6SubPasses(t *testing.T) {
	cfg := pipelineConfig()
	s := NewState(cfg)
	streams := []domain.Stream{
		{ID: "lab-1", Subject: "Chemistry", StreamType: domain.Lab, Instructor: "Dr. Radu",
			Groups: []string{"CH-11", "CH-12"}, StudentCount: 20, HoursOdd: 2, HoursEven: 2},
	}

	Run(context.Background(), s, streams, nil)

	assert.True(t, s.Scheduled["lab-1"])
}

func TestRunHonorsCancelledContextBetweenStages(t *testing.T) {
	cfg := pipelineConfig()
	s := NewState(cfg)
	streams := []domain.Stream{
		{ID: "lec-4", Subject: "Algorithms", StreamType: domain.Lecture, Instructor: "Dr. Pop",
			Groups: []string{"CS-11", "CS-12"}, StudentCount: 60, HoursOdd: 2, HoursEven: 2},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	last := Run(ctx, s, streams, nil)
	assert.Equal(t, 0, last)
	assert.Empty(t, s.Assignments)
}

func TestRunReportsStageDurationsInOrder(t *testing.T) {
	cfg := pipelineConfig()
	s := NewState(cfg)
	streams := []domain.Stream{
		{ID: "lec-5", Subject: "Algorithms", StreamType: domain.Lecture, Instructor: "Dr. Pop",
			Groups: []string{"CS-11"}, StudentCount: 25, HoursOdd: 2, HoursEven: 2},
	}

	var labels []string
	observe := func(label string, d time.Duration) {
		labels = append(labels, label)
	}
	Run(context.Background(), s, streams, observe)

	require.Len(t, labels, 6)
	assert.Equal(t, "stage1_multi_group_lectures", labels[0])
	assert.Equal(t, "stage7_optimizer", labels[len(labels)-1])
}
