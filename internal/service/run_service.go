package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/eduplan/scheduler-core/internal/domain"
	"github.com/eduplan/scheduler-core/internal/dto"
	"github.com/eduplan/scheduler-core/internal/engine"
	"github.com/eduplan/scheduler-core/internal/models"
	"github.com/eduplan/scheduler-core/internal/schedconfig"
	appErrors "github.com/eduplan/scheduler-core/pkg/errors"
)

type runRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, run *models.ScheduleRun) error
	FindByInputHash(ctx context.Context, inputHash string) (*models.ScheduleRun, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleRun, error)
	List(ctx context.Context, limit int) ([]models.ScheduleRun, error)
	Delete(ctx context.Context, id string) error
}

type runAssignmentRepository interface {
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, rows []models.ScheduleRunAssignment) error
	DeleteByRun(ctx context.Context, exec sqlx.ExtContext, runID string) error
}

// RunServiceConfig governs cache behaviour for the run service.
type RunServiceConfig struct {
	CacheTTL time.Duration
}

// RunService validates a scheduling request, runs it through the pipeline
// (or serves a cached result for an identical prior request), and persists
// the outcome.
type RunService struct {
	runs      runRepository
	rows      runAssignmentRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       RunServiceConfig
}

// NewRunService wires the scheduling run service.
func NewRunService(runs runRepository, rows runAssignmentRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg RunServiceConfig) *RunService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &RunService{runs: runs, rows: rows, cache: cache, metrics: metrics, validator: validate, logger: logger, cfg: cfg}
}

// Generate validates req, resolves it into a pipeline input, and either
// returns a cached result for an identical payload or runs the pipeline and
// persists a new run.
func (s *RunService) Generate(ctx context.Context, req dto.CreateRunRequest) (*dto.RunResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule run payload")
	}

	streams, input, err := convertRequest(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid stream or config payload")
	}

	cfg, err := schedconfig.Build(input)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduler configuration")
	}

	digest, err := hashRequest(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash run request")
	}

	if cached, ok := s.lookupCache(ctx, digest); ok {
		return cached, nil
	}

	if s.runs != nil {
		if existing, err := s.runs.FindByInputHash(ctx, digest); err == nil && existing != nil {
			resp, err := runResponseFromModel(existing)
			if err == nil {
				s.storeCache(ctx, digest, resp)
				return resp, nil
			}
		}
	}

	result := engine.Schedule(ctx, streams, cfg, s.observeStage)
	if s.metrics != nil {
		s.metrics.RecordRun(len(result.Assignments), len(result.UnscheduledStreams))
	}

	run, err := s.persist(ctx, digest, result)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule run")
	}

	resp := &dto.RunResponse{RunID: run.ID, Result: result}
	s.storeCache(ctx, digest, resp)
	return resp, nil
}

// Get fetches a stored run by id.
func (s *RunService) Get(ctx context.Context, id string) (*dto.RunResponse, error) {
	if s.runs == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "run repository not configured")
	}
	run, err := s.runs.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule run not found")
	}
	return runResponseFromModel(run)
}

// List returns recent runs as lightweight summaries.
func (s *RunService) List(ctx context.Context, limit int) ([]models.ScheduleRunSummary, error) {
	if s.runs == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "run repository not configured")
	}
	runs, err := s.runs.List(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule runs")
	}
	summaries := make([]models.ScheduleRunSummary, 0, len(runs))
	for _, r := range runs {
		summaries = append(summaries, models.ScheduleRunSummary{
			ID:           r.ID,
			RequestedAt:  r.RequestedAt,
			StageReached: r.StageReached,
			Status:       r.Status,
		})
	}
	return summaries, nil
}

// Delete removes a stored run and its assignment rows.
func (s *RunService) Delete(ctx context.Context, id string) error {
	if s.runs == nil {
		return appErrors.Clone(appErrors.ErrInternal, "run repository not configured")
	}
	if s.rows != nil {
		if err := s.rows.DeleteByRun(ctx, nil, id); err != nil {
			s.logger.Warn("failed to delete run assignment rows", zap.String("run_id", id), zap.Error(err))
		}
	}
	if err := s.runs.Delete(ctx, id); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "schedule run not found")
	}
	return nil
}

// Statistics fetches a stored run's statistics block for report rendering.
func (s *RunService) Statistics(ctx context.Context, id string) (engine.Statistics, error) {
	resp, err := s.Get(ctx, id)
	if err != nil {
		return engine.Statistics{}, err
	}
	return resp.Result.Statistics, nil
}

func (s *RunService) observeStage(stage string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveStage(stage, d)
	}
}

func (s *RunService) persist(ctx context.Context, digest string, result *engine.ScheduleResult) (*models.ScheduleRun, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal schedule result: %w", err)
	}
	status := models.ScheduleRunStatusCompleted
	if len(result.UnscheduledStreams) > 0 {
		status = models.ScheduleRunStatusPartial
	}
	run := &models.ScheduleRun{
		RequestedAt:  result.GenerationDate,
		InputHash:    digest,
		StageReached: result.Stage,
		Status:       status,
		Result:       types.JSONText(payload),
	}
	if s.runs != nil {
		if err := s.runs.Create(ctx, nil, run); err != nil {
			return nil, err
		}
	}
	if s.rows != nil && len(result.Assignments) > 0 {
		rows := assignmentRows(run.ID, result.Assignments)
		if err := s.rows.InsertBatch(ctx, nil, rows); err != nil {
			s.logger.Warn("failed to insert run assignment rows", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
	return run, nil
}

func (s *RunService) lookupCache(ctx context.Context, digest string) (*dto.RunResponse, bool) {
	if s.cache == nil || !s.cache.Enabled() {
		return nil, false
	}
	var resp dto.RunResponse
	hit, err := s.cache.Get(ctx, cacheKey(digest), &resp)
	if err != nil || !hit {
		return nil, false
	}
	return &resp, true
}

func (s *RunService) storeCache(ctx context.Context, digest string, resp *dto.RunResponse) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(digest), resp, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("failed to cache schedule run result", zap.String("digest", digest), zap.Error(err))
	}
}

func cacheKey(digest string) string {
	return "scheduler:run:" + digest
}

func runResponseFromModel(run *models.ScheduleRun) (*dto.RunResponse, error) {
	var result engine.ScheduleResult
	if err := json.Unmarshal(run.Result, &result); err != nil {
		return nil, fmt.Errorf("unmarshal stored schedule result: %w", err)
	}
	return &dto.RunResponse{RunID: run.ID, Result: &result}, nil
}

func assignmentRows(runID string, assignments []domain.Assignment) []models.ScheduleRunAssignment {
	rows := make([]models.ScheduleRunAssignment, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, models.ScheduleRunAssignment{
			RunID:       runID,
			StreamID:    a.StreamID,
			Subject:     a.Subject,
			Instructor:  a.Instructor,
			DayOfWeek:   int(a.Day),
			TimeSlot:    int(a.Slot),
			Room:        a.Room,
			RoomAddress: a.RoomAddress,
			WeekType:    a.WeekType.String(),
			StreamType:  a.StreamType.String(),
		})
	}
	return rows
}

// hashRequest canonicalizes req (stream list sorted by id, config as-is) and
// returns a SHA-256 hex digest, used both as the cache key and the
// dedup lookup against previously stored runs.
func hashRequest(req dto.CreateRunRequest) (string, error) {
	streams := make([]dto.StreamRequest, len(req.Streams))
	copy(streams, req.Streams)
	sort.Slice(streams, func(i, j int) bool { return streams[i].ID < streams[j].ID })

	canonical := struct {
		Streams []dto.StreamRequest         `json:"streams"`
		Config  dto.SchedulerConfigRequest `json:"config"`
	}{Streams: streams, Config: req.Config}

	payload, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("marshal canonical request: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func parseStreamType(raw string) (domain.StreamType, error) {
	switch raw {
	case "lecture":
		return domain.Lecture, nil
	case "practical":
		return domain.Practical, nil
	case "lab":
		return domain.Lab, nil
	default:
		return 0, fmt.Errorf("unknown stream_type %q", raw)
	}
}

func convertRequest(req dto.CreateRunRequest) ([]domain.Stream, schedconfig.Input, error) {
	streams := make([]domain.Stream, 0, len(req.Streams))
	for _, sr := range req.Streams {
		st, err := parseStreamType(sr.StreamType)
		if err != nil {
			return nil, schedconfig.Input{}, err
		}
		streams = append(streams, domain.Stream{
			ID:                 sr.ID,
			Subject:            sr.Subject,
			StreamType:         st,
			Instructor:         sr.Instructor,
			Language:           sr.Language,
			Groups:             sr.Groups,
			StudentCount:       sr.StudentCount,
			HoursOdd:           sr.HoursOdd,
			HoursEven:          sr.HoursEven,
			IsSubgroup:         sr.IsSubgroup,
			IsImplicitSubgroup: sr.IsImplicitSubgroup,
			PairedStreamID:     sr.PairedStreamID,
		})
	}

	input := schedconfig.Input{
		SubjectRooms:             make(map[string]schedconfig.RawSubjectRoomRule),
		InstructorRooms:          make(map[string]schedconfig.RawSubjectRoomRule),
		GroupBuildings:           make(map[string][]schedconfig.RawGroupBuildingAddress),
		ForcedSecondShiftGroups:  req.Config.ForcedSecondShiftGroups,
		DeadGroups:               req.Config.DeadGroups,
		FlexibleSubjects:         req.Config.FlexibleSubjects,
		MaxWindowsPerDay:         req.Config.MaxWindowsPerDay,
	}
	for _, r := range req.Config.Rooms {
		input.Rooms = append(input.Rooms, schedconfig.RawRoom{Name: r.Name, Capacity: r.Capacity, Address: r.Address, IsSpecial: r.IsSpecial})
	}
	for subject, rule := range req.Config.SubjectRooms {
		input.SubjectRooms[subject] = convertRoomRule(rule)
	}
	for instructor, rule := range req.Config.InstructorRooms {
		input.InstructorRooms[instructor] = convertRoomRule(rule)
	}
	for specialty, addrs := range req.Config.GroupBuildings {
		converted := make([]schedconfig.RawGroupBuildingAddress, 0, len(addrs))
		for _, a := range addrs {
			converted = append(converted, schedconfig.RawGroupBuildingAddress{Address: a.Address, Rooms: a.Rooms})
		}
		input.GroupBuildings[specialty] = converted
	}
	for _, g := range req.Config.NearbyBuildings {
		input.NearbyBuildings = append(input.NearbyBuildings, schedconfig.RawNearbyGroup{Addresses: g.Addresses})
	}
	for _, inst := range req.Config.InstructorUnavailable {
		input.InstructorUnavailable = append(input.InstructorUnavailable, schedconfig.RawInstructorUnavailable{
			Name:              inst.Name,
			WeeklyUnavailable: inst.WeeklyUnavailable,
		})
	}
	for _, inst := range req.Config.InstructorDayConstraints {
		input.InstructorDayConstraints = append(input.InstructorDayConstraints, schedconfig.RawInstructorDayConstraint{
			Name:       inst.Name,
			YearDays:   inst.YearDays,
			OnePerWeek: inst.OnePerWeek,
		})
	}

	return streams, input, nil
}

func convertRoomRule(rule dto.RoomRuleRequest) schedconfig.RawSubjectRoomRule {
	converted := schedconfig.RawSubjectRoomRule{
		Strict:       rule.Strict,
		ByStreamType: make(map[string][]schedconfig.RawRoomRef),
	}
	for key, refs := range rule.Rules {
		entries := make([]schedconfig.RawRoomRef, 0, len(refs))
		for _, ref := range refs {
			entries = append(entries, schedconfig.RawRoomRef{Address: ref.Address, Room: ref.Room})
		}
		converted.ByStreamType[key] = entries
	}
	return converted
}
