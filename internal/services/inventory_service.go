package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"shelfsense/internal/analysis"
	"shelfsense/internal/config"
	"shelfsense/internal/exporter"
	"shelfsense/internal/ingest"
	"shelfsense/pkg/contracts/domain"
)

// ErrNoSnapshot is returned when an operation needs a loaded snapshot and
// none exists (nothing uploaded yet, or the snapshot was discarded).
var ErrNoSnapshot = errors.New("no inventory snapshot loaded")

// Snapshot is the current analyzed table. It is created whole on upload,
// replaced whole on the next upload, and never mutated in between (a
// threshold update builds a new one from the retained source rows).
type Snapshot struct {
	Filename   string               `json:"filename"`
	UploadedAt time.Time            `json:"uploaded_at"`
	Rows       []domain.AnalyzedRow `json:"rows"`
	Report     *ingest.Report       `json:"report"`
	Summary    domain.Summary       `json:"summary"`
}

// InventoryService owns the single snapshot slot and runs the
// ingest → analyze → export pipeline against it.
type InventoryService struct {
	mu         sync.RWMutex
	source     []domain.InventoryRow
	snapshot   *Snapshot
	thresholds config.AnalysisConfig

	loader  *ingest.Loader
	writer  *exporter.Writer
	logger  *slog.Logger
	metrics *Metrics
}

// NewInventoryService creates the service with the configured thresholds
func NewInventoryService(cfg config.AnalysisConfig, logger *slog.Logger, metrics *Metrics) *InventoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InventoryService{
		thresholds: cfg,
		loader:     ingest.NewLoader(logger, cfg.DefaultLeadTimeDays),
		writer:     exporter.NewWriter(logger),
		logger:     logger.With(slog.String("component", "inventory_service")),
		metrics:    metrics,
	}
}

// Upload ingests and analyzes a new file, replacing the current snapshot
// wholesale. Ingestion failures leave the previous snapshot untouched.
func (s *InventoryService) Upload(ctx context.Context, filename string, r io.Reader) (*Snapshot, error) {
	// UpdateThresholds swaps the loader; take a reference under the read
	// lock so ingestion runs against a consistent one.
	s.mu.RLock()
	loader := s.loader
	s.mu.RUnlock()

	rows, report, err := loader.Load(ctx, filename, r)
	if err != nil {
		if s.metrics != nil {
			s.metrics.UploadFailures.Inc()
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.reanalyzeLocked(filename, rows, report)

	if s.metrics != nil {
		s.metrics.UploadsTotal.Inc()
		s.metrics.RowsAnalyzedTotal.Add(float64(report.RowsAccepted))
		s.metrics.RowsRejectedTotal.Add(float64(report.RowsRejected))
	}

	s.logger.InfoContext(ctx, "snapshot replaced",
		slog.String("filename", filename),
		slog.Int("rows", len(snapshot.Rows)),
		slog.Int("needing_reorder", snapshot.Summary.ProductsNeedingReorder))

	return snapshot, nil
}

// reanalyzeLocked runs the analysis pass and installs a fresh snapshot.
// Callers must hold the write lock.
func (s *InventoryService) reanalyzeLocked(filename string, rows []domain.InventoryRow, report *ingest.Report) *Snapshot {
	start := time.Now()
	analyzed := analysis.Analyze(rows, s.thresholds)
	if s.metrics != nil {
		s.metrics.AnalyzeDuration.Observe(time.Since(start).Seconds())
		s.metrics.SnapshotRows.Set(float64(len(analyzed)))
	}

	s.source = rows
	s.snapshot = &Snapshot{
		Filename:   filename,
		UploadedAt: time.Now().UTC(),
		Rows:       analyzed,
		Report:     report,
		Summary:    analysis.Summarize(analyzed),
	}
	return s.snapshot
}

// Snapshot returns the current snapshot or ErrNoSnapshot
func (s *InventoryService) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	return s.snapshot, nil
}

// Rows returns the analyzed rows, optionally filtered by category and/or
// stock status. Empty filter values match everything.
func (s *InventoryService) Rows(ctx context.Context, category, status string) ([]domain.AnalyzedRow, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if category == "" && status == "" {
		return snapshot.Rows, nil
	}

	filtered := make([]domain.AnalyzedRow, 0, len(snapshot.Rows))
	for _, row := range snapshot.Rows {
		if category != "" && !strings.EqualFold(string(row.Category), category) {
			continue
		}
		if status != "" && !strings.EqualFold(string(row.StockStatus), status) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered, nil
}

// Summary returns the aggregate metrics for the current snapshot
func (s *InventoryService) Summary(ctx context.Context) (domain.Summary, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	return snapshot.Summary, nil
}

// Thresholds returns the currently applied analysis thresholds
func (s *InventoryService) Thresholds() config.AnalysisConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds
}

// UpdateThresholds validates and applies new thresholds. If a snapshot is
// loaded it is recomputed from the retained source rows; updating
// thresholds with no snapshot loaded is allowed and just stores them.
func (s *InventoryService) UpdateThresholds(ctx context.Context, thresholds config.AnalysisConfig) (*Snapshot, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.thresholds = thresholds
	s.loader = ingest.NewLoader(s.logger, thresholds.DefaultLeadTimeDays)

	if s.snapshot == nil {
		s.logger.InfoContext(ctx, "thresholds updated, no snapshot to recompute")
		return nil, nil
	}

	snapshot := s.reanalyzeLocked(s.snapshot.Filename, s.source, s.snapshot.Report)

	s.logger.InfoContext(ctx, "snapshot recomputed with new thresholds",
		slog.Int("rows", len(snapshot.Rows)))

	return snapshot, nil
}

// Export renders the current snapshot as CSV bytes and suggests a filename
func (s *InventoryService) Export(ctx context.Context) ([]byte, string, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, "", err
	}

	data, err := s.writer.Render(snapshot.Rows)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render export: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ExportsTotal.Inc()
		s.metrics.ExportBytesTotal.Add(float64(len(data)))
	}

	filename := fmt.Sprintf("inventory_analysis_%s.csv", snapshot.UploadedAt.Format("20060102_150405"))
	return data, filename, nil
}

// Discard drops the current snapshot, e.g. when the user abandons a stale
// upload. Discarding with nothing loaded is a no-op.
func (s *InventoryService) Discard(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil {
		return
	}

	s.logger.InfoContext(ctx, "snapshot discarded",
		slog.String("filename", s.snapshot.Filename))

	s.snapshot = nil
	s.source = nil
	if s.metrics != nil {
		s.metrics.SnapshotRows.Set(0)
	}
}
