package visibility

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/pkg/geospatial"
)

// --- Mock Terrain ---

type mockTerrain struct {
	elevationFn func(i int, p domain.GeoPoint) float64
	err         error
	requested   []domain.GeoPoint
}

func (m *mockTerrain) Lookup(ctx context.Context, points []domain.GeoPoint) ([]domain.TerrainPoint, error) {
	m.requested = append(m.requested, points...)
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.TerrainPoint, len(points))
	for i, p := range points {
		var e float64
		if m.elevationFn != nil {
			e = m.elevationFn(i, p)
		}
		out[i] = domain.TerrainPoint{GeoPoint: p, Elevation: domain.Meters(e)}
	}
	return out, nil
}

func scenario() (domain.Observer, domain.VisiblePeak) {
	observer := domain.Observer{
		Location:  domain.GeoPoint{Lat: 0, Lon: 0},
		Elevation: 100,
		EyeHeight: 1.6,
	}
	peak := domain.Peak{
		Name:      "Test Peak",
		Location:  geospatial.Destination(observer.Location, 0, 5000),
		Elevation: 2000,
	}
	return observer, Annotate(observer, []domain.Peak{peak})[0]
}

func flatSamples(n int, elevation float64) []domain.SightSample {
	samples := make([]domain.SightSample, n)
	for i := range samples {
		samples[i] = domain.SightSample{Index: i, Distance: float64(i+1) * 500, Elevation: elevation}
	}
	return samples
}

// --- Tests ---

func TestRay_TiesBlock(t *testing.T) {
	ray := NewRay(100, 200, 1000)
	if h := ray.Height(500); h != 150 {
		t.Fatalf("expected height 150, got %f", h)
	}
	if !ray.Blocked(150, 500) {
		t.Error("ground level with the ray should block")
	}
	if ray.Blocked(149.9, 500) {
		t.Error("ground below the ray should not block")
	}
	if !ray.Blocked(151, 500) {
		t.Error("ground above the ray should block")
	}
}

func TestSightlineVisible_ClearProfile(t *testing.T) {
	observer, peak := scenario()
	if !SightlineVisible(observer, peak, flatSamples(9, 50)) {
		t.Error("expected peak visible over low terrain")
	}
}

func TestSightlineVisible_RidgeOccludes(t *testing.T) {
	observer, peak := scenario()
	samples := flatSamples(9, 50)
	samples[4].Elevation = 1900
	if SightlineVisible(observer, peak, samples) {
		t.Error("expected peak occluded by ridge at sample 4")
	}
}

func TestSightlineVisible_NoSamples(t *testing.T) {
	observer, peak := scenario()
	if !SightlineVisible(observer, peak, nil) {
		t.Error("expected peak visible when nothing lies in between")
	}
}

func TestSightlineStrategy_Resolve(t *testing.T) {
	observer, peak := scenario()

	terrain := &mockTerrain{elevationFn: func(i int, p domain.GeoPoint) float64 { return 50 }}
	got, err := NewSightlineStrategy(terrain, 500).Resolve(context.Background(), observer, []domain.VisiblePeak{peak})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(terrain.requested) != 9 {
		t.Errorf("expected 9 samples, got %d", len(terrain.requested))
	}
	if !got[0].IsVisible {
		t.Error("expected peak visible")
	}
	if peak.IsVisible {
		t.Error("input slice was modified")
	}

	ridge := &mockTerrain{elevationFn: func(i int, p domain.GeoPoint) float64 {
		if i == 4 {
			return 1900
		}
		return 50
	}}
	got, err = NewSightlineStrategy(ridge, 500).Resolve(context.Background(), observer, []domain.VisiblePeak{peak})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].IsVisible {
		t.Error("expected peak occluded")
	}
}

func TestSightlineStrategy_ScattersPerPeak(t *testing.T) {
	observer := domain.Observer{Location: domain.GeoPoint{Lat: 46, Lon: 7}, Elevation: 500, EyeHeight: 1.6}
	peaks := Annotate(observer, []domain.Peak{
		{Name: "North", Location: geospatial.Destination(observer.Location, 0, 3000), Elevation: 900},
		{Name: "East", Location: geospatial.Destination(observer.Location, 90, 3000), Elevation: 900},
	})

	// a wall only on the eastern sightline
	terrain := &mockTerrain{elevationFn: func(i int, p domain.GeoPoint) float64 {
		if geospatial.Bearing(observer.Location, p) > 45 {
			return 2000
		}
		return 400
	}}
	got, err := NewSightlineStrategy(terrain, 500).Resolve(context.Background(), observer, peaks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got[0].IsVisible {
		t.Error("expected North visible")
	}
	if got[1].IsVisible {
		t.Error("expected East occluded")
	}
}

func TestSightlineStrategy_ProviderFailure(t *testing.T) {
	observer, peak := scenario()
	failure := &domain.ProviderError{Provider: "elevation", Operation: "lookup", Batch: 0, Status: 500}
	_, err := NewSightlineStrategy(&mockTerrain{err: failure}, 500).Resolve(context.Background(), observer, []domain.VisiblePeak{peak})
	if !errors.Is(err, failure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
}

func TestNew_Strategies(t *testing.T) {
	for name, want := range map[string]string{"": StrategySightline, "sightline": StrategySightline, "rings": StrategyRings} {
		s, err := New(name, &mockTerrain{}, Options{})
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", name, err)
		}
		if s.Name() != want {
			t.Errorf("%q: expected %s, got %s", name, want, s.Name())
		}
	}
	if _, err := New("raytrace", &mockTerrain{}, Options{}); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
