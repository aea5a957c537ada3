// Package sampling lays out the terrain sample points that feed the
// visibility engine: evenly spaced points along a single sightline, or
// concentric rings of roughly uniform density around the observer.
package sampling

import (
	"fmt"
	"math"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/pkg/geospatial"
)

// DefaultSegmentLength is the spacing between sightline samples in meters.
const DefaultSegmentLength = 500.0

// Sightline returns the points strictly between from and to, spaced every
// segment meters starting at from. Index 0 is nearest to from. When the two
// points are closer than 2*segment the result is empty.
func Sightline(from, to domain.GeoPoint, segment float64) []domain.SightSample {
	if segment <= 0 {
		segment = DefaultSegmentLength
	}
	total := geospatial.PlanarDistance(from, to)
	n := SightlineLength(total, segment)
	if n == 0 {
		return nil
	}

	dLat := to.Lat - from.Lat
	dLon := to.Lon - from.Lon

	samples := make([]domain.SightSample, n)
	for i := range samples {
		x := float64(i+1) * segment
		t := x / total
		samples[i] = domain.SightSample{
			Point:    domain.GeoPoint{Lat: from.Lat + dLat*t, Lon: from.Lon + dLon*t},
			Distance: x,
			Index:    i,
		}
	}
	return samples
}

// SightlineLength is the number of intermediate samples for a sightline of
// the given length: floor(distance/segment) - 1, never negative.
func SightlineLength(distance, segment float64) int {
	// tolerate round-off so that an exact multiple of segment is not cut short
	n := int(math.Floor(distance/segment+1e-9)) - 1
	if n < 0 {
		return 0
	}
	return n
}

// SamplePoints flattens sample coordinates in order, ready for an elevation lookup.
func SamplePoints(samples []domain.SightSample) []domain.GeoPoint {
	points := make([]domain.GeoPoint, len(samples))
	for i, s := range samples {
		points[i] = s.Point
	}
	return points
}

// ApplyElevations writes resolved elevations back onto samples by index.
func ApplyElevations(samples []domain.SightSample, resolved []domain.TerrainPoint) error {
	if len(samples) != len(resolved) {
		return fmt.Errorf("apply elevations: %d samples, %d results", len(samples), len(resolved))
	}
	for i := range samples {
		if !resolved[i].Resolved() {
			return fmt.Errorf("apply elevations: sample %d unresolved", i)
		}
		samples[i].Elevation = *resolved[i].Elevation
	}
	return nil
}
