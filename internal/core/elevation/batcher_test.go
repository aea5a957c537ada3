package elevation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/core/elevation"
)

// --- Mock ElevationProvider ---

type mockProvider struct {
	elevationsFn func(ctx context.Context, points []domain.GeoPoint) ([]float64, error)
	sizes        []int
	started      []time.Time
}

func (m *mockProvider) Elevations(ctx context.Context, points []domain.GeoPoint) ([]float64, error) {
	m.sizes = append(m.sizes, len(points))
	m.started = append(m.started, time.Now())
	if m.elevationsFn != nil {
		return m.elevationsFn(ctx, points)
	}
	// elevation encodes the latitude so order can be checked
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Lat
	}
	return out, nil
}

func makePoints(n int) []domain.GeoPoint {
	points := make([]domain.GeoPoint, n)
	for i := range points {
		points[i] = domain.GeoPoint{Lat: float64(i), Lon: 1}
	}
	return points
}

// --- Tests ---

func TestBatcher_SplitsAndPreservesOrder(t *testing.T) {
	const limit = 5
	const delay = 20 * time.Millisecond
	provider := &mockProvider{}
	b := elevation.NewBatcher(provider, limit, delay)

	points := makePoints(3*limit + 1)
	got, err := b.Lookup(context.Background(), points)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(provider.sizes) != 4 {
		t.Fatalf("expected 4 batches, got %d", len(provider.sizes))
	}
	for i, want := range []int{limit, limit, limit, 1} {
		if provider.sizes[i] != want {
			t.Errorf("batch %d: expected %d points, got %d", i, want, provider.sizes[i])
		}
	}
	for i := 1; i < len(provider.started); i++ {
		if gap := provider.started[i].Sub(provider.started[i-1]); gap < delay {
			t.Errorf("batch %d dispatched %v after previous, expected >= %v", i, gap, delay)
		}
	}

	if len(got) != len(points) {
		t.Fatalf("expected %d results, got %d", len(points), len(got))
	}
	for i, tp := range got {
		if tp.GeoPoint != points[i] {
			t.Errorf("result %d is %+v, expected %+v", i, tp.GeoPoint, points[i])
		}
		if !tp.Resolved() || *tp.Elevation != float64(i) {
			t.Errorf("result %d has wrong elevation", i)
		}
	}
}

func TestBatcher_Empty(t *testing.T) {
	provider := &mockProvider{}
	b := elevation.NewBatcher(provider, 10, time.Second)
	got, err := b.Lookup(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 || len(provider.sizes) != 0 {
		t.Errorf("expected no requests, got %d", len(provider.sizes))
	}
}

func TestBatcher_FailureAbortsLookup(t *testing.T) {
	calls := 0
	provider := &mockProvider{
		elevationsFn: func(ctx context.Context, points []domain.GeoPoint) ([]float64, error) {
			calls++
			if calls == 2 {
				return nil, &domain.ProviderError{Provider: "open-elevation", Operation: "lookup", Batch: -1, Status: 503}
			}
			return make([]float64, len(points)), nil
		},
	}
	b := elevation.NewBatcher(provider, 2, 0)

	got, err := b.Lookup(context.Background(), makePoints(7))
	if err == nil {
		t.Fatal("expected error")
	}
	if got != nil {
		t.Errorf("expected no partial result, got %d points", len(got))
	}
	if calls != 2 {
		t.Errorf("expected lookup to stop after the failed batch, got %d calls", calls)
	}

	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if pe.Batch != 1 || pe.Status != 503 {
		t.Errorf("expected batch 1 status 503, got batch %d status %d", pe.Batch, pe.Status)
	}
}

func TestBatcher_WrapsPlainErrors(t *testing.T) {
	boom := errors.New("connection reset")
	provider := &mockProvider{
		elevationsFn: func(ctx context.Context, points []domain.GeoPoint) ([]float64, error) {
			return nil, boom
		},
	}
	_, err := elevation.NewBatcher(provider, 10, 0).Lookup(context.Background(), makePoints(3))
	if !domain.IsProviderFailure(err) {
		t.Fatalf("expected provider failure, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
}

func TestBatcher_LengthMismatch(t *testing.T) {
	provider := &mockProvider{
		elevationsFn: func(ctx context.Context, points []domain.GeoPoint) ([]float64, error) {
			return make([]float64, len(points)-1), nil
		},
	}
	_, err := elevation.NewBatcher(provider, 10, 0).Lookup(context.Background(), makePoints(4))
	if !domain.IsProviderFailure(err) {
		t.Fatalf("expected provider failure, got %v", err)
	}
}

func TestBatcher_CancelBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := &mockProvider{
		elevationsFn: func(reqCtx context.Context, points []domain.GeoPoint) ([]float64, error) {
			cancel()
			if reqCtx.Err() != nil {
				t.Error("in-flight request was interrupted")
			}
			return make([]float64, len(points)), nil
		},
	}
	b := elevation.NewBatcher(provider, 2, time.Hour)

	_, err := b.Lookup(ctx, makePoints(5))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(provider.sizes) != 1 {
		t.Errorf("expected 1 request before cancellation, got %d", len(provider.sizes))
	}
}

func TestBatcher_Batches(t *testing.T) {
	b := elevation.NewBatcher(&mockProvider{}, 100, 0)
	for n, want := range map[int]int{0: 0, 1: 1, 100: 1, 101: 2, 301: 4} {
		if got := b.Batches(n); got != want {
			t.Errorf("Batches(%d) = %d, expected %d", n, got, want)
		}
	}
}
