package stages

import (
	"context"
	"time"

	"github.com/eduplan/scheduler-core/internal/domain"
)

// namedStage pairs a stage function with the label reported to an observer
// and the 1-based stage number a partial ScheduleResult reports when a run
// is cancelled mid-pipeline.
type namedStage struct {
	number int
	label  string
	run    func(*State, []domain.Stream)
}

// StageObserver receives one stage's wall-clock duration as the pipeline
// runs it, so a caller can feed per-stage metrics without the pipeline
// itself depending on any metrics library.
type StageObserver func(label string, d time.Duration)

// Run drives the full seven-stage pipeline over streams against a fresh
// State, in the fixed order the protocol specifies. Each stage sees the full
// stream list plus the state accumulated by every prior stage; later stages
// skip streams s.Scheduled already marks as placed. ctx is polled once
// between stages only — stages themselves never block or check it mid-run,
// preserving the synchronous single-threaded model; this lets an HTTP caller
// cancel a run that has exceeded its wall-clock budget without retrofitting
// cancellation into the placement loops. observe may be nil. Run returns the
// number of the last stage that completed.
func Run(ctx context.Context, s *State, streams []domain.Stream, observe StageObserver) int {
	sequence := []namedStage{
		{1, "stage1_multi_group_lectures", Stage1},
		{3, "stage3_dependent_practicals", Stage3},
		{4, "stage4_single_group_lectures", Stage4},
		{5, "stage5_lecture_backed_practicals", Stage5},
		{6, "stage6_labs", Stage6},
		{7, "stage7_optimizer", Stage7},
	}
	last := 0
	for _, st := range sequence {
		if ctx.Err() != nil {
			return last
		}
		started := time.Now()
		st.run(s, streams)
		if observe != nil {
			observe(st.label, time.Since(started))
		}
		last = st.number
	}
	return last
}
