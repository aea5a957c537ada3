package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/core/ports"
)

// --- Mock LocationSource ---

type mockLocation struct {
	currentFn func(ctx context.Context) (domain.Fix, error)
	calls     int
}

func (m *mockLocation) Current(ctx context.Context) (domain.Fix, error) {
	m.calls++
	if m.currentFn != nil {
		return m.currentFn(ctx)
	}
	return domain.Fix{}, domain.ErrPermissionDenied
}

// --- Mock Terrain ---

type mockTerrain struct {
	lookupFn func(ctx context.Context, points []domain.GeoPoint) ([]domain.TerrainPoint, error)
	calls    [][]domain.GeoPoint
}

func (m *mockTerrain) Lookup(ctx context.Context, points []domain.GeoPoint) ([]domain.TerrainPoint, error) {
	m.calls = append(m.calls, points)
	if m.lookupFn != nil {
		return m.lookupFn(ctx, points)
	}
	return flat(0)(ctx, points)
}

// flat resolves every point to the same elevation.
func flat(elevation float64) func(ctx context.Context, points []domain.GeoPoint) ([]domain.TerrainPoint, error) {
	return func(ctx context.Context, points []domain.GeoPoint) ([]domain.TerrainPoint, error) {
		out := make([]domain.TerrainPoint, len(points))
		for i, p := range points {
			out[i] = domain.TerrainPoint{GeoPoint: p, Elevation: domain.Meters(elevation)}
		}
		return out, nil
	}
}

// --- Mock PeakProvider ---

type mockPeakProvider struct {
	peaksNearFn func(ctx context.Context, center domain.GeoPoint, radius float64) ([]domain.Peak, error)
	radius      float64
	calls       int
}

func (m *mockPeakProvider) PeaksNear(ctx context.Context, center domain.GeoPoint, radius float64) ([]domain.Peak, error) {
	m.calls++
	m.radius = radius
	if m.peaksNearFn != nil {
		return m.peaksNearFn(ctx, center, radius)
	}
	return nil, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	err       error
	queries   []*ports.QueryEvent
	viewsheds []*ports.ViewshedEvent
}

func (m *mockPublisher) PublishQuery(ctx context.Context, event *ports.QueryEvent) error {
	m.queries = append(m.queries, event)
	return m.err
}

func (m *mockPublisher) PublishViewshed(ctx context.Context, event *ports.ViewshedEvent) error {
	m.viewsheds = append(m.viewsheds, event)
	return m.err
}

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errCacheMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttlSeconds
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock PeakRepository ---

type mockPeakRepo struct {
	upsertBatchFn func(ctx context.Context, peaks []domain.Peak) error
	findNearbyFn  func(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.Peak, error)
}

func (m *mockPeakRepo) UpsertBatch(ctx context.Context, peaks []domain.Peak) error {
	if m.upsertBatchFn != nil {
		return m.upsertBatchFn(ctx, peaks)
	}
	return nil
}

func (m *mockPeakRepo) FindNearby(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.Peak, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, center, radius, limit)
	}
	return nil, nil
}

func (m *mockPeakRepo) Count(ctx context.Context) (int, error) { return 0, nil }
