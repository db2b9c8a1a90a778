package repository

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-dashboard/internal/models"
	"climate-dashboard/pkg/logging"
	"climate-dashboard/pkg/metrics"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRepository(t *testing.T, ttl time.Duration, max int) (DatasetRepository, *fakeClock, *metrics.Collector) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	logger := logging.NewStructuredLogger("test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	collector := metrics.NewCollectorWithRegisterer("test", prometheus.NewRegistry())

	repo := NewMemoryRepository(Options{TTL: ttl, MaxDatasets: max, Now: clock.Now}, logger, collector)
	return repo, clock, collector
}

func TestMemoryRepository_SaveGetDelete(t *testing.T) {
	repo, clock, collector := newTestRepository(t, time.Hour, 10)
	ctx := context.Background()

	ds := &models.Dataset{ID: "a", Name: "a.csv"}
	require.NoError(t, repo.Save(ctx, ds))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a.csv", got.Name)
	assert.Equal(t, clock.Now(), got.LoadedAt)
	assert.Equal(t, clock.Now().Add(time.Hour), got.ExpiresAt)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.StoredDatasets))

	require.NoError(t, repo.Delete(ctx, "a"))
	_, err = repo.Get(ctx, "a")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "dataset", notFound.Resource)
	assert.False(t, notFound.IsTransient())
	assert.Equal(t, 0.0, testutil.ToFloat64(collector.StoredDatasets))

	err = repo.Delete(ctx, "a")
	assert.ErrorAs(t, err, &notFound)
}

func TestMemoryRepository_SaveRejectsMissingID(t *testing.T) {
	repo, _, _ := newTestRepository(t, time.Hour, 10)

	assert.Error(t, repo.Save(context.Background(), &models.Dataset{}))
	assert.Error(t, repo.Save(context.Background(), nil))
}

func TestMemoryRepository_Expiry(t *testing.T) {
	repo, clock, collector := newTestRepository(t, 10*time.Minute, 10)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Dataset{ID: "old"}))
	clock.Advance(6 * time.Minute)
	require.NoError(t, repo.Save(ctx, &models.Dataset{ID: "new"}))
	clock.Advance(5 * time.Minute)

	_, err := repo.Get(ctx, "old")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound, "expired datasets are hidden before eviction")

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "new", listed[0].ID)

	assert.Equal(t, 1, repo.EvictExpired(ctx))
	assert.Equal(t, 0, repo.EvictExpired(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.EvictionsTotal.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.StoredDatasets))
}

func TestMemoryRepository_CapacityEvictsOldest(t *testing.T) {
	repo, clock, collector := newTestRepository(t, time.Hour, 2)
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Save(ctx, &models.Dataset{ID: id}))
		clock.Advance(time.Second)
	}

	_, err := repo.Get(ctx, "first")
	assert.Error(t, err)

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "third", listed[0].ID)
	assert.Equal(t, "second", listed[1].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.EvictionsTotal.WithLabelValues("capacity")))
}

func TestMemoryRepository_ResaveDoesNotEvict(t *testing.T) {
	repo, _, _ := newTestRepository(t, time.Hour, 1)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Dataset{ID: "only", Name: "v1"}))
	require.NoError(t, repo.Save(ctx, &models.Dataset{ID: "only", Name: "v2"}))

	got, err := repo.Get(ctx, "only")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Name)
}

func TestMemoryRepository_ConcurrentAccess(t *testing.T) {
	repo, _, _ := newTestRepository(t, time.Hour, 50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			_ = repo.Save(ctx, &models.Dataset{ID: id})
			_, _ = repo.Get(ctx, id)
			_, _ = repo.List(ctx)
			repo.EvictExpired(ctx)
		}(i)
	}
	wg.Wait()

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 20)
}

func TestMemoryRepository_HealthCheck(t *testing.T) {
	repo, _, _ := newTestRepository(t, time.Hour, 1)

	assert.NoError(t, repo.HealthCheck(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, repo.HealthCheck(ctx))
}
