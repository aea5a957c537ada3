package visibility

import (
	"context"
	"errors"
	"math"
	"testing"

	geo "github.com/paulmach/go.geo"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/pkg/geospatial"
)

var center = domain.GeoPoint{Lat: 46.5, Lon: 8.0}

// wallTerrain is flat at 0 m except for a 500 m wall between 2200 and 2600 m
// from center.
func wallTerrain() *mockTerrain {
	return &mockTerrain{elevationFn: func(i int, p domain.GeoPoint) float64 {
		d := geospatial.PlanarDistance(center, p)
		if d >= 2200 && d <= 2600 {
			return 500
		}
		return 0
	}}
}

func TestViewshed_FlatTerrainFullyVisible(t *testing.T) {
	observer := domain.Observer{Location: center, Elevation: 0, EyeHeight: 1.6, Heading: 30}
	s := NewRingStrategy(&mockTerrain{}, 400, true)

	vs, err := s.Viewshed(context.Background(), observer, 60, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vs.StoppedAt != -1 {
		t.Errorf("expected full propagation, stopped at %d", vs.StoppedAt)
	}
	for _, r := range vs.Rings {
		if r.Visible != len(r.Samples) {
			t.Errorf("ring %d: %d of %d visible", r.Index, r.Visible, len(r.Samples))
		}
	}
}

func TestViewshed_RingZeroAlwaysVisible(t *testing.T) {
	observer := domain.Observer{Location: center, Elevation: 0, EyeHeight: 1.6}
	terrain := &mockTerrain{elevationFn: func(i int, p domain.GeoPoint) float64 {
		if geospatial.PlanarDistance(center, p) < 500 {
			return 10000
		}
		return 0
	}}

	vs, err := NewRingStrategy(terrain, 400, true).Viewshed(context.Background(), observer, 360, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, smp := range vs.Rings[0].Samples {
		if !smp.Visible {
			t.Fatal("ring 0 point marked occluded")
		}
	}
	if vs.Rings[1].Visible != 0 {
		t.Errorf("expected ring 1 dark behind the inner wall, %d visible", vs.Rings[1].Visible)
	}
	if vs.StoppedAt != 1 {
		t.Errorf("expected propagation to stop at ring 1, got %d", vs.StoppedAt)
	}
}

func TestViewshed_WallShadows(t *testing.T) {
	observer := domain.Observer{Location: center, Elevation: 0, EyeHeight: 1.6}

	for _, stop := range []bool{true, false} {
		vs, err := NewRingStrategy(wallTerrain(), 400, stop).Viewshed(context.Background(), observer, 360, 5000)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, r := range vs.Rings {
			switch {
			case r.Radius <= 2600:
				if r.Visible != len(r.Samples) {
					t.Errorf("stop=%v ring %d (%.0f m): %d of %d visible", stop, r.Index, r.Radius, r.Visible, len(r.Samples))
				}
			default:
				if r.Visible != 0 {
					t.Errorf("stop=%v ring %d (%.0f m) behind wall has %d visible", stop, r.Index, r.Radius, r.Visible)
				}
				for _, smp := range r.Samples {
					if smp.Visible {
						t.Fatalf("stop=%v ring %d sample %d visible behind wall", stop, r.Index, smp.Slot)
					}
				}
			}
		}
		if stop && vs.StoppedAt < 0 {
			t.Error("expected propagation to stop behind the wall")
		}
		if !stop && vs.StoppedAt != -1 {
			t.Errorf("expected full propagation without the stop policy, got %d", vs.StoppedAt)
		}
	}
}

func TestViewshed_DarkOutermostRing(t *testing.T) {
	observer := domain.Observer{Location: center, Elevation: 0, EyeHeight: 1.6}
	terrain := &mockTerrain{elevationFn: func(i int, p domain.GeoPoint) float64 {
		if geospatial.PlanarDistance(center, p) > 4900 {
			return -10000
		}
		return 0
	}}

	vs, err := NewRingStrategy(terrain, 400, true).Viewshed(context.Background(), observer, 360, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := len(vs.Rings) - 1
	if vs.Rings[last-1].Visible == 0 {
		t.Fatalf("expected ring %d lit, got none visible", last-1)
	}
	if vs.Rings[last].Visible != 0 {
		t.Fatalf("expected the outermost ring dark, %d visible", vs.Rings[last].Visible)
	}
	if vs.StoppedAt != last {
		t.Errorf("expected propagation to stop at ring %d, got %d", last, vs.StoppedAt)
	}
}

func TestRingStrategy_ResolvePeaks(t *testing.T) {
	observer := domain.Observer{Location: center, Elevation: 0, EyeHeight: 1.6}
	peaks := Annotate(observer, []domain.Peak{
		{Name: "Low", Location: geospatial.Destination(center, 10, 4000), Elevation: 0},
		{Name: "Tall", Location: geospatial.Destination(center, 200, 4000), Elevation: 3000},
		{Name: "Near", Location: geospatial.Destination(center, 100, 1000), Elevation: 50},
	})

	got, err := NewRingStrategy(wallTerrain(), 400, false).Resolve(context.Background(), observer, peaks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].IsVisible {
		t.Error("expected Low occluded by the wall")
	}
	if !got[1].IsVisible {
		t.Error("expected Tall visible above the wall")
	}
	if !got[2].IsVisible {
		t.Error("expected Near visible in front of the wall")
	}

	// a dark ring inside the peak's range occludes it under the stop policy
	got, err = NewRingStrategy(wallTerrain(), 400, true).Resolve(context.Background(), observer, peaks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[1].IsVisible {
		t.Error("expected Tall occluded under the dark ring approximation")
	}
	if !got[2].IsVisible {
		t.Error("expected Near visible")
	}
}

func TestRingStrategy_ProviderFailure(t *testing.T) {
	observer := domain.Observer{Location: center}
	failure := &domain.ProviderError{Provider: "elevation", Operation: "lookup", Batch: 2}
	peaks := Annotate(observer, []domain.Peak{{Name: "P", Location: geospatial.Destination(center, 0, 3000), Elevation: 100}})

	_, err := NewRingStrategy(&mockTerrain{err: failure}, 100, true).Resolve(context.Background(), observer, peaks)
	if !errors.Is(err, failure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
}

func TestInterpolate(t *testing.T) {
	p0 := geo.NewPoint(-10, 100)
	p1 := geo.NewPoint(10, 100)
	e, x, err := interpolate(p0, p1, 0, 100, geo.NewPoint(0, 1000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(e-50) > 1e-9 {
		t.Errorf("expected elevation 50, got %f", e)
	}
	if math.Abs(x-100) > 1e-9 {
		t.Errorf("expected distance 100, got %f", x)
	}
}

func TestInterpolate_Degenerate(t *testing.T) {
	tests := []struct {
		name   string
		p0, p1 *geo.Point
	}{
		{"coincident", geo.NewPoint(5, 100), geo.NewPoint(5, 100)},
		{"parallel", geo.NewPoint(0, 100), geo.NewPoint(0, 200)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := interpolate(tt.p0, tt.p1, 10, 20, geo.NewPoint(0, 1000))
			if !errors.Is(err, domain.ErrGeometryDegenerate) {
				t.Fatalf("expected ErrGeometryDegenerate, got %v", err)
			}
		})
	}
}
