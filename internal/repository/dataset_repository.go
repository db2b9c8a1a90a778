package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"climate-dashboard/internal/models"
	"climate-dashboard/pkg/logging"
	"climate-dashboard/pkg/metrics"
)

// DatasetRepository provides access to uploaded datasets
type DatasetRepository interface {
	Save(ctx context.Context, dataset *models.Dataset) error
	Get(ctx context.Context, id string) (*models.Dataset, error)
	List(ctx context.Context) ([]*models.Dataset, error)
	Delete(ctx context.Context, id string) error

	// EvictExpired drops every dataset past its expiry and returns how many were removed
	EvictExpired(ctx context.Context) int

	HealthCheck(ctx context.Context) error
}

// Options tunes the in-memory repository
type Options struct {
	TTL         time.Duration
	MaxDatasets int
	Now         func() time.Time
}

// memoryRepository implements DatasetRepository on a guarded map.
// Stored datasets are never modified after Save.
type memoryRepository struct {
	mu       sync.RWMutex
	datasets map[string]*models.Dataset
	ttl      time.Duration
	max      int
	now      func() time.Time
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewMemoryRepository creates an in-memory dataset repository
func NewMemoryRepository(opts Options, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) DatasetRepository {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &memoryRepository{
		datasets: make(map[string]*models.Dataset),
		ttl:      opts.TTL,
		max:      opts.MaxDatasets,
		now:      now,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// Save stores a dataset, stamping its load and expiry times. When the
// repository is full the dataset loaded first is evicted.
func (r *memoryRepository) Save(ctx context.Context, dataset *models.Dataset) error {
	if dataset == nil || dataset.ID == "" {
		return fmt.Errorf("failed to save dataset: missing id")
	}

	now := r.now()
	dataset.LoadedAt = now
	if r.ttl > 0 {
		dataset.ExpiresAt = now.Add(r.ttl)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.datasets[dataset.ID]; !exists && r.max > 0 {
		for len(r.datasets) >= r.max {
			oldest := r.oldestLocked()
			delete(r.datasets, oldest.ID)
			r.metrics.RecordEviction("capacity")
			r.logger.Info(ctx, "[REPO_EVICT] Dataset evicted at capacity", logging.Fields{
				"dataset_id":   oldest.ID,
				"max_datasets": r.max,
			})
		}
	}

	r.datasets[dataset.ID] = dataset
	r.metrics.StoredDatasets.Set(float64(len(r.datasets)))

	r.logger.Debug(ctx, "[REPO_SAVE] Dataset stored", logging.Fields{
		"dataset_id": dataset.ID,
		"rows":       len(dataset.Observations),
		"expires_at": dataset.ExpiresAt,
	})

	return nil
}

func (r *memoryRepository) oldestLocked() *models.Dataset {
	var oldest *models.Dataset
	for _, ds := range r.datasets {
		if oldest == nil || ds.LoadedAt.Before(oldest.LoadedAt) ||
			(ds.LoadedAt.Equal(oldest.LoadedAt) && ds.ID < oldest.ID) {
			oldest = ds
		}
	}
	return oldest
}

func (r *memoryRepository) expired(ds *models.Dataset, now time.Time) bool {
	return !ds.ExpiresAt.IsZero() && !now.Before(ds.ExpiresAt)
}

// Get retrieves a dataset by ID. Expired datasets are reported as not found
// even before the eviction job removes them.
func (r *memoryRepository) Get(ctx context.Context, id string) (*models.Dataset, error) {
	r.mu.RLock()
	ds, ok := r.datasets[id]
	r.mu.RUnlock()

	if !ok || r.expired(ds, r.now()) {
		return nil, &NotFoundError{
			Resource: "dataset",
			ID:       id,
		}
	}

	return ds, nil
}

// List returns live datasets, most recently loaded first
func (r *memoryRepository) List(ctx context.Context) ([]*models.Dataset, error) {
	now := r.now()

	r.mu.RLock()
	datasets := make([]*models.Dataset, 0, len(r.datasets))
	for _, ds := range r.datasets {
		if !r.expired(ds, now) {
			datasets = append(datasets, ds)
		}
	}
	r.mu.RUnlock()

	sort.Slice(datasets, func(i, j int) bool {
		if datasets[i].LoadedAt.Equal(datasets[j].LoadedAt) {
			return datasets[i].ID < datasets[j].ID
		}
		return datasets[i].LoadedAt.After(datasets[j].LoadedAt)
	})

	return datasets, nil
}

// Delete removes a dataset
func (r *memoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.datasets[id]; !ok {
		return &NotFoundError{
			Resource: "dataset",
			ID:       id,
		}
	}

	delete(r.datasets, id)
	r.metrics.StoredDatasets.Set(float64(len(r.datasets)))

	r.logger.Debug(ctx, "[REPO_DELETE] Dataset deleted", logging.Fields{
		"dataset_id": id,
	})

	return nil
}

// EvictExpired removes datasets whose expiry has passed
func (r *memoryRepository) EvictExpired(ctx context.Context) int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, ds := range r.datasets {
		if r.expired(ds, now) {
			delete(r.datasets, id)
			r.metrics.RecordEviction("expired")
			evicted++
		}
	}
	r.metrics.StoredDatasets.Set(float64(len(r.datasets)))

	if evicted > 0 {
		r.logger.Info(ctx, "[REPO_EVICT] Expired datasets evicted", logging.Fields{
			"evicted":   evicted,
			"remaining": len(r.datasets),
		})
	}

	return evicted
}

// HealthCheck performs a repository health check
func (r *memoryRepository) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("repository health check: %w", err)
	}
	return nil
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
