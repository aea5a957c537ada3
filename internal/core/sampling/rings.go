package sampling

import (
	"errors"
	"fmt"
	"math"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/pkg/geospatial"
)

// RingParams describes the sector to cover with rings.
type RingParams struct {
	Center  domain.GeoPoint
	Heading float64 // degrees, centre of the sector
	FOV     float64 // sector width in degrees; >= 360 covers the full circle
	Radius  float64 // meters
	Budget  int     // target number of points over the whole sector
}

// FullCircle reports whether the params cover all directions.
func (p RingParams) FullCircle() bool {
	return p.FOV >= 360
}

// Spacing is the target distance in meters between neighbouring points,
// derived from the sector area divided by the budget.
func (p RingParams) Spacing() float64 {
	fov := math.Min(p.FOV, 360)
	area := fov / 360 * math.Pi * p.Radius * p.Radius
	return math.Sqrt(area / float64(p.Budget))
}

func (p RingParams) validate() error {
	var errs []error
	if p.Radius <= 0 {
		errs = append(errs, errors.New("radius must be positive"))
	}
	if p.FOV <= 0 {
		errs = append(errs, errors.New("fov must be positive"))
	}
	if p.Budget <= 0 {
		errs = append(errs, errors.New("budget must be positive"))
	}
	return errors.Join(errs...)
}

// Rings lays out concentric rings over the sector. Ring k (zero-based) sits at
// Radius*(k+1)/ringCount, so ring 0 is the innermost ring and the last ring
// lies on Radius. Each ring holds max(1, round(arc/spacing)) points, evenly
// spread from heading-fov/2.
func Rings(p RingParams) ([]domain.Ring, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	fov := math.Min(p.FOV, 360)
	spacing := p.Spacing()
	ringCount := int(math.Ceil(p.Radius / spacing))

	rings := make([]domain.Ring, ringCount)
	for k := range rings {
		radius := p.Radius * float64(k+1) / float64(ringCount)
		arc := radius * fov * math.Pi / 180
		count := int(math.Max(1, math.Round(arc/spacing)))

		start, step := SlotBearings(p.Heading, fov, count)

		samples := make([]domain.SightSample, count)
		for j := range samples {
			bearing := geospatial.NormalizeBearing(start + float64(j)*step)
			samples[j] = domain.SightSample{
				Point:    geospatial.Destination(p.Center, bearing, radius),
				Distance: radius,
				Ring:     k,
				Slot:     j,
			}
		}
		rings[k] = domain.Ring{Index: k, Radius: radius, Samples: samples}
	}
	return rings, nil
}

// SlotBearings returns the bearing of slot 0 and the angle between
// neighbouring slots for a ring of count points. A full circle spreads the
// points evenly; a sector puts the first and last point on its edges.
func SlotBearings(heading, fov float64, count int) (start, step float64) {
	fov = math.Min(fov, 360)
	start = geospatial.NormalizeBearing(heading - fov/2)
	switch {
	case fov >= 360:
		step = 360 / float64(count)
	case count > 1:
		step = fov / float64(count-1)
	}
	return start, step
}

// RingPoints flattens all ring sample coordinates, ring by ring.
func RingPoints(rings []domain.Ring) []domain.GeoPoint {
	var n int
	for _, r := range rings {
		n += len(r.Samples)
	}
	points := make([]domain.GeoPoint, 0, n)
	for _, r := range rings {
		points = append(points, SamplePoints(r.Samples)...)
	}
	return points
}

// ApplyRingElevations scatters a flat result sequence produced from
// RingPoints back onto the rings.
func ApplyRingElevations(rings []domain.Ring, resolved []domain.TerrainPoint) error {
	var n int
	for _, r := range rings {
		n += len(r.Samples)
	}
	if n != len(resolved) {
		return fmt.Errorf("apply ring elevations: %d samples, %d results", n, len(resolved))
	}

	offset := 0
	for k := range rings {
		size := len(rings[k].Samples)
		if err := ApplyElevations(rings[k].Samples, resolved[offset:offset+size]); err != nil {
			return fmt.Errorf("ring %d: %w", k, err)
		}
		offset += size
	}
	return nil
}
