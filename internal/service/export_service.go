package service

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eduplan/scheduler-core/internal/engine"
	"github.com/eduplan/scheduler-core/pkg/export"
	"github.com/eduplan/scheduler-core/pkg/storage"
)

// ReportFormat is the rendering format a statistics report is requested in.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders a run's statistics block as a CSV or PDF report and
// persists it behind a signed, time-limited download URL.
type ExportService struct {
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{storage: store, csv: csv, pdf: pdf, signer: signer, logger: logger, cfg: cfg}
}

// GenerateRunReport renders runID's statistics block in the requested format
// and stores it, returning a signed download URL.
func (s *ExportService) GenerateRunReport(runID string, stats engine.Statistics, format ReportFormat) (*ExportResult, error) {
	dataset := statisticsDataset(stats)
	title := fmt.Sprintf("Schedule Run %s Statistics", runID)

	var payload []byte
	var err error
	switch format {
	case ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported report format %s", format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(runID, format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(runID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	signedURL := fmt.Sprintf("%s/schedule/runs/%s/report.%s?token=%s", prefix, runID, format, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (runID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(runID string, format ReportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("run_%s_%s.%s", sanitizeFilename(runID), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

// statisticsDataset flattens a ScheduleResult's statistics block into the
// export package's generic row/header table, one row per metric.
func statisticsDataset(stats engine.Statistics) export.Dataset {
	rows := make([]map[string]string, 0, len(stats.ByDay)+len(stats.ByShift)+len(stats.RoomUtilization)+2)

	for _, day := range sortedKeys(stats.ByDay) {
		rows = append(rows, map[string]string{"Metric": "by_day", "Key": day, "Value": fmt.Sprintf("%d", stats.ByDay[day])})
	}
	for _, shift := range sortedKeys(stats.ByShift) {
		rows = append(rows, map[string]string{"Metric": "by_shift", "Key": shift, "Value": fmt.Sprintf("%d", stats.ByShift[shift])})
	}
	for _, room := range sortedKeys(stats.RoomUtilization) {
		rows = append(rows, map[string]string{"Metric": "room_utilization", "Key": room, "Value": fmt.Sprintf("%d", stats.RoomUtilization[room])})
	}
	rows = append(rows,
		map[string]string{"Metric": "expected_hours", "Key": "", "Value": fmt.Sprintf("%d", stats.ExpectedHours)},
		map[string]string{"Metric": "scheduled_hours", "Key": "", "Value": fmt.Sprintf("%d", stats.ScheduledHours)},
		map[string]string{"Metric": "solver_time_seconds", "Key": "", "Value": fmt.Sprintf("%.3f", stats.SolverTimeSeconds)},
	)

	return export.Dataset{
		Headers: []string{"Metric", "Key", "Value"},
		Rows:    rows,
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
