package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	uuid "github.com/satori/go.uuid"

	"climate-dashboard/internal/ingest"
	"climate-dashboard/internal/models"
	"climate-dashboard/internal/repository"
	"climate-dashboard/pkg/logging"
	"climate-dashboard/pkg/metrics"
)

// IngestionService turns uploaded files into stored datasets
type IngestionService struct {
	repo     repository.DatasetRepository
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
	maxBytes int64
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	Dataset      *models.Dataset
	Summary      models.DatasetSummary
	Compression  ingest.Compression
	PayloadBytes int
	Duration     time.Duration
}

// NewIngestionService creates a new ingestion service. maxBytes caps the
// decompressed payload; non-positive disables the cap.
func NewIngestionService(repo repository.DatasetRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, maxBytes int64) *IngestionService {
	return &IngestionService{
		repo:     repo,
		logger:   logger,
		metrics:  metricsCollector,
		maxBytes: maxBytes,
	}
}

// Ingest parses one uploaded file and stores it as a new dataset
func (s *IngestionService) Ingest(ctx context.Context, name string, r io.Reader) (*IngestionResult, error) {
	startTime := time.Now()
	s.metrics.ActiveUploads.Inc()
	defer s.metrics.ActiveUploads.Dec()

	s.logger.Info(ctx, "[INGEST_START] Starting dataset ingestion", logging.Fields{
		"file_name":   name,
		"compression": ingest.DetectCompression(name),
		"stage":       "INITIALIZATION",
	})

	loaded, err := ingest.Load(name, r, s.maxBytes)
	if err != nil {
		s.metrics.RecordIngestionError(ingestionErrorType(err))
		s.logger.Error(ctx, "[INGEST_ERROR] Dataset ingestion failed", logging.Fields{
			"file_name": name,
			"stage":     "PARSE",
		}, err)
		return nil, fmt.Errorf("failed to ingest %s: %w", name, err)
	}

	dataset := NewDataset(name, loaded)
	summary := dataset.Summary()

	if err := s.repo.Save(ctx, dataset); err != nil {
		s.metrics.RecordIngestionError("store_error")
		return nil, fmt.Errorf("failed to store dataset: %w", err)
	}
	summary.LoadedAt = dataset.LoadedAt
	summary.ExpiresAt = dataset.ExpiresAt

	s.recordMissingValues(summary)
	s.metrics.IngestionRowsTotal.Add(float64(summary.RowCount))
	s.metrics.IngestionPayloadBytes.Observe(float64(loaded.PayloadBytes))

	result := &IngestionResult{
		Dataset:      dataset,
		Summary:      summary,
		Compression:  loaded.Compression,
		PayloadBytes: loaded.PayloadBytes,
		Duration:     time.Since(startTime),
	}
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Dataset ingestion completed", logging.Fields{
		"dataset_id":        dataset.ID,
		"file_name":         name,
		"rows":              summary.RowCount,
		"missing_timestamp": summary.MissingTimestamp,
		"missing_prcp":      summary.MissingPrecip,
		"missing_tmax":      summary.MissingMaxTemp,
		"missing_tavg":      summary.MissingAvgTemp,
		"payload_bytes":     loaded.PayloadBytes,
		"duration_seconds":  result.Duration.Seconds(),
		"stage":             "COMPLETE",
	})

	return result, nil
}

// NewDataset wraps loaded records in a dataset with a fresh v4 id
func NewDataset(name string, loaded *ingest.Result) *models.Dataset {
	return &models.Dataset{
		ID:           uuid.NewV4().String(),
		Name:         name,
		Observations: loaded.Observations(),
		LoadedAt:     time.Now().UTC(),
	}
}

func (s *IngestionService) recordMissingValues(summary models.DatasetSummary) {
	s.metrics.RecordMissingValues(ingest.ColumnTime, summary.MissingTimestamp)
	s.metrics.RecordMissingValues(ingest.ColumnPrecipitation, summary.MissingPrecip)
	s.metrics.RecordMissingValues(ingest.ColumnMaxTemp, summary.MissingMaxTemp)
	s.metrics.RecordMissingValues(ingest.ColumnAvgTemp, summary.MissingAvgTemp)
}

func ingestionErrorType(err error) string {
	var validationErr *models.ValidationError
	switch {
	case errors.Is(err, ingest.ErrTooLarge):
		return "too_large"
	case errors.As(err, &validationErr):
		return "schema_error"
	default:
		return "read_error"
	}
}
