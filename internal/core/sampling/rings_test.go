package sampling

import (
	"math"
	"testing"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/pkg/geospatial"
)

func TestRings_Layout(t *testing.T) {
	p := RingParams{
		Center:  domain.GeoPoint{Lat: 46.0, Lon: 7.0},
		Heading: 90,
		FOV:     60,
		Radius:  10000,
		Budget:  400,
	}
	rings, err := Rings(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spacing := p.Spacing()
	wantRings := int(math.Ceil(p.Radius / spacing))
	if len(rings) != wantRings {
		t.Fatalf("expected %d rings, got %d", wantRings, len(rings))
	}
	if last := rings[len(rings)-1].Radius; math.Abs(last-p.Radius) > 1e-6 {
		t.Errorf("outermost ring at %f, expected %f", last, p.Radius)
	}

	total := 0
	for k, r := range rings {
		if r.Index != k {
			t.Errorf("ring %d has index %d", k, r.Index)
		}
		arc := r.Radius * p.FOV * math.Pi / 180
		want := int(math.Max(1, math.Round(arc/spacing)))
		if len(r.Samples) != want {
			t.Errorf("ring %d: expected %d points, got %d", k, want, len(r.Samples))
		}
		for j, s := range r.Samples {
			if s.Ring != k || s.Slot != j {
				t.Errorf("ring %d slot %d tagged %d/%d", k, j, s.Ring, s.Slot)
			}
			if d := geospatial.PlanarDistance(p.Center, s.Point); math.Abs(d-r.Radius) > r.Radius*0.002 {
				t.Errorf("ring %d slot %d at %f m, expected %f", k, j, d, r.Radius)
			}
			b := geospatial.Bearing(p.Center, s.Point)
			if math.Abs(geospatial.AngularDifference(p.Heading, b)) > p.FOV/2+0.01 {
				t.Errorf("ring %d slot %d bearing %f outside sector", k, j, b)
			}
		}
		total += len(r.Samples)
	}

	// roughly uniform density keeps the total near the budget
	if total < p.Budget/2 || total > p.Budget*2 {
		t.Errorf("total points %d far from budget %d", total, p.Budget)
	}
}

func TestRings_FirstPointAtSectorStart(t *testing.T) {
	p := RingParams{Center: domain.GeoPoint{Lat: 10, Lon: 10}, Heading: 0, FOV: 90, Radius: 5000, Budget: 200}
	rings, err := Rings(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outer := rings[len(rings)-1]
	first := geospatial.Bearing(p.Center, outer.Samples[0].Point)
	if math.Abs(geospatial.AngularDifference(315, first)) > 0.05 {
		t.Errorf("expected first point at 315, got %f", first)
	}
	last := geospatial.Bearing(p.Center, outer.Samples[len(outer.Samples)-1].Point)
	if math.Abs(geospatial.AngularDifference(45, last)) > 0.05 {
		t.Errorf("expected last point at 45, got %f", last)
	}
}

func TestRings_FullCircleDoesNotRepeat(t *testing.T) {
	p := RingParams{Center: domain.GeoPoint{Lat: 0, Lon: 0}, FOV: 360, Radius: 3000, Budget: 300}
	rings, err := Rings(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outer := rings[len(rings)-1]
	first := outer.Samples[0].Point
	last := outer.Samples[len(outer.Samples)-1].Point
	if geospatial.PlanarDistance(first, last) < 1 {
		t.Error("full circle ring repeats its first point")
	}
}

func TestRings_Invalid(t *testing.T) {
	for _, p := range []RingParams{
		{FOV: 60, Radius: 0, Budget: 10},
		{FOV: 0, Radius: 100, Budget: 10},
		{FOV: 60, Radius: 100, Budget: 0},
	} {
		if _, err := Rings(p); err == nil {
			t.Errorf("expected error for %+v", p)
		}
	}
}

func TestApplyRingElevations(t *testing.T) {
	rings := []domain.Ring{
		{Samples: make([]domain.SightSample, 1)},
		{Samples: make([]domain.SightSample, 2)},
	}
	resolved := []domain.TerrainPoint{
		{Elevation: domain.Meters(1)},
		{Elevation: domain.Meters(2)},
		{Elevation: domain.Meters(3)},
	}
	if err := ApplyRingElevations(rings, resolved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rings[1].Samples[1].Elevation != 3 {
		t.Errorf("expected last sample at 3, got %f", rings[1].Samples[1].Elevation)
	}
	if err := ApplyRingElevations(rings, resolved[:2]); err == nil {
		t.Error("expected error on short result")
	}
	if got := len(RingPoints(rings)); got != 3 {
		t.Errorf("expected 3 points, got %d", got)
	}
}
