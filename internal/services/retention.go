package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"climate-dashboard/internal/repository"
	"climate-dashboard/pkg/logging"
)

// RetentionScheduler periodically evicts expired datasets
type RetentionScheduler struct {
	cron   *cron.Cron
	repo   repository.DatasetRepository
	logger *logging.StructuredLogger
}

// NewRetentionScheduler creates a scheduler; call Start to begin running it
func NewRetentionScheduler(repo repository.DatasetRepository, logger *logging.StructuredLogger) *RetentionScheduler {
	return &RetentionScheduler{
		cron:   cron.New(),
		repo:   repo,
		logger: logger,
	}
}

// Start registers the eviction job on a cron schedule such as "@every 1m" and
// starts the scheduler in its own goroutine.
func (s *RetentionScheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("failed to schedule dataset eviction %q: %w", schedule, err)
	}
	s.cron.Start()

	s.logger.Info(context.Background(), "[RETENTION_START] Dataset eviction scheduled", logging.Fields{
		"schedule": schedule,
	})
	return nil
}

// RunOnce evicts expired datasets immediately and returns how many were removed
func (s *RetentionScheduler) RunOnce(ctx context.Context) int {
	startTime := time.Now()
	evicted := s.repo.EvictExpired(ctx)

	s.logger.Debug(ctx, "[RETENTION_RUN] Eviction pass finished", logging.Fields{
		"evicted":          evicted,
		"duration_seconds": time.Since(startTime).Seconds(),
	})
	return evicted
}

// Stop halts the scheduler and waits for a running job to finish or ctx to end
func (s *RetentionScheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
