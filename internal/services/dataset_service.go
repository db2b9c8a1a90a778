package services

import (
	"context"
	"fmt"

	"climate-dashboard/internal/models"
	"climate-dashboard/internal/repository"
	"climate-dashboard/pkg/logging"
	"climate-dashboard/pkg/metrics"
)

// ThresholdSettings are the heatwave slider bounds offered to clients
type ThresholdSettings struct {
	Default float64
	Min     float64
	Max     float64
}

// DatasetService handles dataset listing and removal
type DatasetService struct {
	repo       repository.DatasetRepository
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
	thresholds ThresholdSettings
}

// NewDatasetService creates a new dataset service
func NewDatasetService(repo repository.DatasetRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, thresholds ThresholdSettings) *DatasetService {
	return &DatasetService{
		repo:       repo,
		logger:     logger,
		metrics:    metricsCollector,
		thresholds: thresholds,
	}
}

// Describe fills the slider defaults of a dataset summary
func (s *DatasetService) Describe(summary models.DatasetSummary) models.DatasetSummary {
	summary.ThresholdDefault = s.thresholds.Default
	summary.ThresholdMin = s.thresholds.Min
	summary.ThresholdMax = s.thresholds.Max
	return summary
}

// GetSummary retrieves one dataset summary
func (s *DatasetService) GetSummary(ctx context.Context, id string) (models.DatasetSummary, error) {
	dataset, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.DatasetSummary{}, err
	}
	return s.Describe(dataset.Summary()), nil
}

// ListSummaries retrieves summaries of every live dataset
func (s *DatasetService) ListSummaries(ctx context.Context) ([]models.DatasetSummary, error) {
	datasets, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}

	summaries := make([]models.DatasetSummary, 0, len(datasets))
	for _, ds := range datasets {
		summaries = append(summaries, s.Describe(ds.Summary()))
	}
	return summaries, nil
}

// Delete removes a dataset
func (s *DatasetService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info(ctx, "[DATASET_DELETE] Dataset removed", logging.Fields{
		"dataset_id": id,
	})
	return nil
}

// HealthCheck reports whether the dataset store is usable
func (s *DatasetService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
