package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduplan/scheduler-core/internal/dto"
	"github.com/eduplan/scheduler-core/internal/models"
	appErrors "github.com/eduplan/scheduler-core/pkg/errors"
)

type fakeRunRepository struct {
	mu      sync.Mutex
	byID    map[string]*models.ScheduleRun
	byHash  map[string]*models.ScheduleRun
	created []models.ScheduleRun
}

func newFakeRunRepository() *fakeRunRepository {
	return &fakeRunRepository{byID: map[string]*models.ScheduleRun{}, byHash: map[string]*models.ScheduleRun{}}
}

func (f *fakeRunRepository) Create(ctx context.Context, exec sqlx.ExtContext, run *models.ScheduleRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if run.ID == "" {
		run.ID = "generated-id"
	}
	f.byID[run.ID] = run
	f.byHash[run.InputHash] = run
	f.created = append(f.created, *run)
	return nil
}

func (f *fakeRunRepository) FindByInputHash(ctx context.Context, inputHash string) (*models.ScheduleRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if run, ok := f.byHash[inputHash]; ok {
		return run, nil
	}
	return nil, appErrors.ErrNotFound
}

func (f *fakeRunRepository) FindByID(ctx context.Context, id string) (*models.ScheduleRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if run, ok := f.byID[id]; ok {
		return run, nil
	}
	return nil, appErrors.ErrNotFound
}

func (f *fakeRunRepository) List(ctx context.Context, limit int) ([]models.ScheduleRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ScheduleRun, 0, len(f.created))
	out = append(out, f.created...)
	return out, nil
}

func (f *fakeRunRepository) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return appErrors.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeRunAssignmentRepository struct {
	inserted [][]models.ScheduleRunAssignment
	deleted  []string
}

func (f *fakeRunAssignmentRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, rows []models.ScheduleRunAssignment) error {
	f.inserted = append(f.inserted, rows)
	return nil
}

func (f *fakeRunAssignmentRepository) DeleteByRun(ctx context.Context, exec sqlx.ExtContext, runID string) error {
	f.deleted = append(f.deleted, runID)
	return nil
}

type fakeCacheRepository struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newFakeCacheRepository() *fakeCacheRepository {
	return &fakeCacheRepository{store: map[string][]byte{}}
}

func (f *fakeCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.store[key] = raw
	return nil
}

func (f *fakeCacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	return nil
}

func validRunRequest() dto.CreateRunRequest {
	return dto.CreateRunRequest{
		Streams: []dto.StreamRequest{
			{
				ID:           "str-1",
				Subject:      "Algorithms",
				StreamType:   "lecture",
				Instructor:   "Dr. Pop",
				Groups:       []string{"CS-11"},
				StudentCount: 25,
				HoursOdd:     2,
				HoursEven:    2,
			},
		},
		Config: dto.SchedulerConfigRequest{
			Rooms: []dto.RoomRequest{
				{Name: "101", Capacity: 40, Address: "Main St"},
			},
		},
	}
}

func TestRunServiceGenerateColdRunPersists(t *testing.T) {
	runs := newFakeRunRepository()
	rows := &fakeRunAssignmentRepository{}
	svc := NewRunService(runs, rows, nil, NewMetricsService(), nil, nil, RunServiceConfig{})

	resp, err := svc.Generate(context.Background(), validRunRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RunID)
	assert.NotEmpty(t, resp.Result.Assignments)
	assert.Len(t, runs.created, 1)
}

func TestRunServiceGenerateRejectsInvalidPayload(t *testing.T) {
	runs := newFakeRunRepository()
	rows := &fakeRunAssignmentRepository{}
	svc := NewRunService(runs, rows, nil, NewMetricsService(), nil, nil, RunServiceConfig{})

	_, err := svc.Generate(context.Background(), dto.CreateRunRequest{})
	assert.Error(t, err)
}

func TestRunServiceGenerateServesFromDBOnDuplicateHash(t *testing.T) {
	runs := newFakeRunRepository()
	rows := &fakeRunAssignmentRepository{}
	svc := NewRunService(runs, rows, nil, NewMetricsService(), nil, nil, RunServiceConfig{})

	req := validRunRequest()
	first, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, runs.created, 1)

	second, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Len(t, runs.created, 1, "second identical request should not create a new run row")
}

func TestRunServiceGenerateServesFromCacheWhenEnabled(t *testing.T) {
	runs := newFakeRunRepository()
	rows := &fakeRunAssignmentRepository{}
	cacheRepo := newFakeCacheRepository()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewRunService(runs, rows, cacheSvc, NewMetricsService(), nil, nil, RunServiceConfig{})

	req := validRunRequest()
	_, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, runs.created, 1)

	_, err = svc.Generate(context.Background(), req)
	require.NoError(t, err)
	// cache hit path must not touch the run repository again
	assert.Len(t, runs.created, 1)
}

func TestRunServiceGetReturnsNotFoundForUnknownID(t *testing.T) {
	runs := newFakeRunRepository()
	svc := NewRunService(runs, &fakeRunAssignmentRepository{}, nil, nil, nil, nil, RunServiceConfig{})

	_, err := svc.Get(context.Background(), "missing")
	assert.Error(t, err)
}

func TestRunServiceDeleteRemovesRunAndRows(t *testing.T) {
	runs := newFakeRunRepository()
	rows := &fakeRunAssignmentRepository{}
	svc := NewRunService(runs, rows, nil, nil, nil, nil, RunServiceConfig{})

	resp, err := svc.Generate(context.Background(), validRunRequest())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), resp.RunID)
	require.NoError(t, err)
	assert.Contains(t, rows.deleted, resp.RunID)

	_, err = svc.Get(context.Background(), resp.RunID)
	assert.Error(t, err)
}

func TestRunServiceStatisticsReflectsExpectedHours(t *testing.T) {
	runs := newFakeRunRepository()
	svc := NewRunService(runs, &fakeRunAssignmentRepository{}, nil, nil, nil, nil, RunServiceConfig{})

	resp, err := svc.Generate(context.Background(), validRunRequest())
	require.NoError(t, err)

	stats, err := svc.Statistics(context.Background(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ExpectedHours)
}

func TestHashRequestIsOrderIndependentOverStreams(t *testing.T) {
	req := validRunRequest()
	req.Streams = append(req.Streams, dto.StreamRequest{
		ID:           "str-2",
		Subject:      "Physics",
		StreamType:   "lab",
		Instructor:   "Dr. Ionescu",
		Groups:       []string{"PH-11"},
		StudentCount: 15,
		HoursOdd:     2,
		HoursEven:    2,
	})

	reversed := req
	reversed.Streams = []dto.StreamRequest{req.Streams[1], req.Streams[0]}

	h1, err := hashRequest(req)
	require.NoError(t, err)
	h2, err := hashRequest(reversed)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestHashRequestDiffersOnConfigChange(t *testing.T) {
	req := validRunRequest()
	other := req
	other.Config.Rooms = append([]dto.RoomRequest{}, req.Config.Rooms...)
	other.Config.Rooms[0].Capacity = 999

	h1, err := hashRequest(req)
	require.NoError(t, err)
	h2, err := hashRequest(other)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
