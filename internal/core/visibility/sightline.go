package visibility

import (
	"context"
	"fmt"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/core/sampling"
)

// SightlineStrategy samples the ground along the straight segment from the
// observer to each peak and checks every sample against the sightline.
type SightlineStrategy struct {
	terrain Terrain
	segment float64
}

// NewSightlineStrategy creates the sightline strategy. segment is the sample
// spacing in meters; non-positive values use sampling.DefaultSegmentLength.
func NewSightlineStrategy(terrain Terrain, segment float64) *SightlineStrategy {
	if segment <= 0 {
		segment = sampling.DefaultSegmentLength
	}
	return &SightlineStrategy{terrain: terrain, segment: segment}
}

func (s *SightlineStrategy) Name() string { return StrategySightline }

// Resolve samples all sightlines, resolves their elevations in a single
// ordered lookup and scatters the results back per peak.
func (s *SightlineStrategy) Resolve(ctx context.Context, observer domain.Observer, peaks []domain.VisiblePeak) ([]domain.VisiblePeak, error) {
	lines := make([][]domain.SightSample, len(peaks))
	var points []domain.GeoPoint
	for i, p := range peaks {
		lines[i] = sampling.Sightline(observer.Location, p.Location, s.segment)
		points = append(points, sampling.SamplePoints(lines[i])...)
	}

	if len(points) > 0 {
		resolved, err := s.terrain.Lookup(ctx, points)
		if err != nil {
			return nil, err
		}
		if len(resolved) != len(points) {
			return nil, fmt.Errorf("sightline lookup: %d points, %d results", len(points), len(resolved))
		}
		offset := 0
		for i := range lines {
			n := len(lines[i])
			if err := sampling.ApplyElevations(lines[i], resolved[offset:offset+n]); err != nil {
				return nil, fmt.Errorf("peak %q: %w", peaks[i].Name, err)
			}
			offset += n
		}
	}

	out := make([]domain.VisiblePeak, len(peaks))
	for i, p := range peaks {
		p.IsVisible = SightlineVisible(observer, p, lines[i])
		out[i] = p
	}
	return out, nil
}

// SightlineVisible reports whether every sample lies strictly below the ray
// from the observer's eye to the peak. It stops at the first blocking sample.
func SightlineVisible(observer domain.Observer, peak domain.VisiblePeak, samples []domain.SightSample) bool {
	ray := NewRay(observer.EyeElevation(), peak.Elevation, peak.Distance)
	for _, s := range samples {
		if ray.Blocked(s.Elevation, s.Distance) {
			return false
		}
	}
	return true
}
