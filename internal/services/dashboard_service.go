package services

import (
	"context"

	"climate-dashboard/internal/climate"
	"climate-dashboard/internal/models"
	"climate-dashboard/internal/repository"
	"climate-dashboard/pkg/logging"
	"climate-dashboard/pkg/metrics"
)

// DashboardQuery holds the optional dashboard parameters of a request
type DashboardQuery struct {
	MinYear   *int
	MaxYear   *int
	Threshold *float64
}

// Dashboard is one pipeline run over a stored dataset
type Dashboard struct {
	DatasetID string
	Result    models.DashboardResult
	Charts    models.ChartSet
}

// DashboardService runs the climate pipeline over stored datasets
type DashboardService struct {
	repo             repository.DatasetRepository
	logger           *logging.StructuredLogger
	metrics          *metrics.Collector
	defaultThreshold float64
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(repo repository.DatasetRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, defaultThreshold float64) *DashboardService {
	return &DashboardService{
		repo:             repo,
		logger:           logger,
		metrics:          metricsCollector,
		defaultThreshold: defaultThreshold,
	}
}

// Build computes the dashboard tables for a dataset
func (s *DashboardService) Build(ctx context.Context, datasetID string, query DashboardQuery) (*Dashboard, error) {
	dataset, err := s.repo.Get(ctx, datasetID)
	if err != nil {
		s.metrics.PipelineRuns.WithLabelValues("not_found").Inc()
		return nil, err
	}

	years, threshold := ResolveParameters(dataset.Summary(), query, s.defaultThreshold)

	timer := s.metrics.NewTimer(s.metrics.PipelineDuration)
	result := climate.Run(dataset.Observations, years, threshold)
	duration := timer.ObserveDuration()
	s.metrics.PipelineRuns.WithLabelValues("ok").Inc()
	s.metrics.RecordOperation("dashboard", duration)

	s.logger.Debug(ctx, "[DASHBOARD_BUILD] Pipeline completed", logging.Fields{
		"dataset_id":       datasetID,
		"min_year":         years.Min,
		"max_year":         years.Max,
		"threshold":        threshold,
		"filtered_rows":    result.FilteredRows,
		"heatwave_years":   len(result.HeatwaveTrend),
		"duration_seconds": duration.Seconds(),
	})

	return &Dashboard{
		DatasetID: datasetID,
		Result:    result,
		Charts:    models.NewChartSet(threshold),
	}, nil
}

// ResolveParameters fills unset query values: the year range defaults to
// the dataset's observed bounds and the threshold to defaultThreshold.
// A dataset without any valid date resolves to an empty range at year 0.
func ResolveParameters(summary models.DatasetSummary, query DashboardQuery, defaultThreshold float64) (models.YearRange, float64) {
	var years models.YearRange
	if summary.MinYear != nil {
		years.Min = *summary.MinYear
	}
	if summary.MaxYear != nil {
		years.Max = *summary.MaxYear
	}
	if query.MinYear != nil {
		years.Min = *query.MinYear
	}
	if query.MaxYear != nil {
		years.Max = *query.MaxYear
	}

	threshold := defaultThreshold
	if query.Threshold != nil {
		threshold = *query.Threshold
	}
	return years, threshold
}
