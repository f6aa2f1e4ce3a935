package stages

import (
	"sort"

	"github.com/eduplan/scheduler-core/internal/domain"
)

// Score weights. Concrete values are implementation-tunable; what matters is
// the ordering they produce: larger streams, multi-hour streams, overbooked
// instructors, and room-constrained subjects go first, flexible subjects go
// last.
const (
	weightStudentCount    = 1.0
	weightHours           = 8.0
	weightInstructorLoad  = 2.0
	weightRoomConstraint  = 15.0
	weightGroupAvailSlots = 10.0
	weightFlexibleSubject = 50.0
)

// complexityScore implements the §4.3 formula. instructorLoad is the number
// of hours the stream's instructor already has reserved across the board at
// sort time; groupAvailableSlots is an estimate of remaining free slots
// across the stream's groups for the week.
func complexityScore(s *State, stream domain.Stream) float64 {
	maxHours := stream.MaxHours(domain.Both)
	instructorLoad := instructorLoadHours(s, stream.InstructorID())
	roomConstraint := 0.0
	if _, ok := s.Cfg.SubjectRooms[stream.Subject]; ok {
		roomConstraint = 1.0
	}
	groupSlots := groupAvailableSlots(s, stream)
	flexible := 0.0
	if s.Cfg.FlexibleSubjects[stream.Subject] {
		flexible = 1.0
	}

	return weightStudentCount*float64(stream.StudentCount) +
		weightHours*float64(maxHours) +
		weightInstructorLoad*float64(instructorLoad) +
		weightRoomConstraint*roomConstraint +
		weightGroupAvailSlots*(1.0/float64(groupSlots+1)) -
		weightFlexibleSubject*flexible
}

func instructorLoadHours(s *State, id domain.InstructorID) int {
	count := 0
	for _, a := range s.Assignments {
		if domain.NewInstructorID(a.Instructor).Equal(id) {
			count++
		}
	}
	return count
}

func groupAvailableSlots(s *State, stream domain.Stream) int {
	total := 0
	for _, day := range domain.Weekdays {
		for _, base := range stream.BaseGroups() {
			occupied := len(s.Tracker.GroupDaySlots(base, day))
			total += int(domain.MaxSlot) - occupied
		}
	}
	return total
}

// sortByComplexity orders streams largest-first by complexityScore, using a
// stable sort so ties break deterministically by input order.
func sortByComplexity(s *State, streams []domain.Stream) []domain.Stream {
	type scored struct {
		stream domain.Stream
		score  float64
	}
	pairs := make([]scored, len(streams))
	for i, st := range streams {
		pairs[i] = scored{stream: st, score: complexityScore(s, st)}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].score > pairs[j].score
	})
	out := make([]domain.Stream, len(pairs))
	for i, p := range pairs {
		out[i] = p.stream
	}
	return out
}
