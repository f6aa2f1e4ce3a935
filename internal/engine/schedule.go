package engine

import (
	"context"
	"time"

	"github.com/eduplan/scheduler-core/internal/domain"
	"github.com/eduplan/scheduler-core/internal/schedconfig"
	"github.com/eduplan/scheduler-core/internal/stages"
)

// now returns the current time; Schedule stamps the result's generation_date
// with it, so no caller needs to pass a clock through the pipeline's pure
// functions.
var now = time.Now

// StageObserver receives a stage's wall-clock duration as the pipeline runs,
// letting the HTTP service record per-stage metrics without the core
// depending on any metrics library itself.
type StageObserver func(stage string, d time.Duration)

// Schedule is the core's single pure entry point: it runs the full stage
// pipeline over streams against cfg and assembles a ScheduleResult. ctx is
// polled between stages only (see stages.Run); streams and cfg are never
// mutated. observe may be nil.
func Schedule(ctx context.Context, streams []domain.Stream, cfg *schedconfig.Config, observe StageObserver) *ScheduleResult {
	start := now()
	s := stages.NewState(cfg)

	lastStage := stages.Run(ctx, s, streams, stages.StageObserver(observe))

	return &ScheduleResult{
		GenerationDate:       now(),
		Stage:                lastStage,
		Assignments:          s.Assignments,
		UnscheduledStreams:   s.Unscheduled,
		UnscheduledStreamIDs: unscheduledIDs(s.Unscheduled),
		Statistics:           buildStatistics(s.Assignments, expectedHours(streams), now().Sub(start).Seconds()),
	}
}
