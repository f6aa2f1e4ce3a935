package service

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduplan/scheduler-core/internal/engine"
	"github.com/eduplan/scheduler-core/pkg/export"
	"github.com/eduplan/scheduler-core/pkg/storage"
)

func newExportServiceForTest(t *testing.T) (*ExportService, *storage.LocalStorage) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	svc := NewExportService(store, signer, cfg, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())
	return svc, store
}

func sampleStatistics() engine.Statistics {
	return engine.Statistics{
		ByDay:             map[string]int{"Mon": 10, "Tue": 8},
		ByShift:           map[string]int{"first": 14, "second": 4},
		RoomUtilization:   map[string]int{"A101": 6, "A102": 12},
		ExpectedHours:     40,
		ScheduledHours:    36,
		SolverTimeSeconds: 1.25,
	}
}

func TestExportServiceGenerateRunReportCSV(t *testing.T) {
	svc, store := newExportServiceForTest(t)

	result, err := svc.GenerateRunReport("run-1", sampleStatistics(), ReportFormatCSV)
	require.NoError(t, err)
	require.NotEmpty(t, result.RelativePath)
	require.Contains(t, result.URL, "report.csv")

	info, err := os.Stat(store.Path(result.RelativePath))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceGenerateRunReportPDF(t *testing.T) {
	svc, store := newExportServiceForTest(t)

	result, err := svc.GenerateRunReport("run-2", sampleStatistics(), ReportFormatPDF)
	require.NoError(t, err)
	require.Equal(t, ReportFormatPDF, result.Format)

	info, err := os.Stat(store.Path(result.RelativePath))
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	svc, _ := newExportServiceForTest(t)

	_, err := svc.GenerateRunReport("run-3", sampleStatistics(), ReportFormat("xml"))
	require.Error(t, err)
}
