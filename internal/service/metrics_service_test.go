package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceRecordRunAccumulates(t *testing.T) {
	m := NewMetricsService()
	m.RecordRun(10, 2)
	m.RecordRun(5, 0)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RunsTotal)
	assert.Equal(t, uint64(15), snap.AssignmentsTotal)
	assert.Equal(t, uint64(2), snap.UnscheduledTotal)
}

func TestMetricsServiceRecordCacheOperationComputesHitRatio(t *testing.T) {
	m := NewMetricsService()
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.InDelta(t, 2.0/3.0, snap.CacheHitRatio, 1e-9)
}

func TestMetricsServiceNilReceiverIsSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.RecordRun(1, 1)
		m.ObserveStage("stage1", time.Millisecond)
		m.RecordCacheOperation(true, time.Millisecond)
		m.ObserveCacheWrite(time.Millisecond)
		m.ObserveDBQuery("select", time.Millisecond)
	})
	assert.Equal(t, SchedulerMetricsSnapshot{}, m.Snapshot())
}

func TestMetricsServiceHandlerServesPrometheusFormat(t *testing.T) {
	m := NewMetricsService()
	assert.NotNil(t, m.Handler())
}
