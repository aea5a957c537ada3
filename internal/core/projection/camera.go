// Package projection places visible peaks inside a camera's field of view.
package projection

import (
	"math"
	"sort"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/pkg/geospatial"
)

const (
	DefaultFOV              = 60.0
	DefaultVerticalFOV      = 45.0
	DefaultOverlapThreshold = 5.0
)

// Camera describes the viewport. Width and Height are in screen units;
// leaving them at 1 yields normalized coordinates.
type Camera struct {
	FOV              float64 // horizontal, degrees
	VerticalFOV      float64 // degrees
	OverlapThreshold float64 // minimum bearing separation between labels, degrees; zero means the default
	Width            float64
	Height           float64
}

// DefaultCamera returns a 60° camera with normalized screen coordinates.
func DefaultCamera() Camera {
	return Camera{
		FOV:              DefaultFOV,
		VerticalFOV:      DefaultVerticalFOV,
		OverlapThreshold: DefaultOverlapThreshold,
		Width:            1,
		Height:           1,
	}
}

func (c Camera) withDefaults() Camera {
	d := DefaultCamera()
	if c.FOV <= 0 {
		c.FOV = d.FOV
	}
	if c.VerticalFOV <= 0 {
		c.VerticalFOV = d.VerticalFOV
	}
	if c.OverlapThreshold <= 0 {
		c.OverlapThreshold = d.OverlapThreshold
	}
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	return c
}

// Project keeps the visible peaks inside the field of view around the
// observer's heading, orders them tallest first and drops any peak whose
// bearing lies within OverlapThreshold of a peak already kept. The result is
// greedy in priority order, not a globally optimal label set.
func (c Camera) Project(observer domain.Observer, peaks []domain.VisiblePeak) []domain.ProjectedPoint {
	c = c.withDefaults()
	half := c.FOV / 2

	var inView []domain.ProjectedPoint
	for _, p := range peaks {
		if !p.IsVisible {
			continue
		}
		offset := geospatial.AngularDifference(observer.Heading, p.Bearing)
		if math.Abs(offset) > half {
			continue
		}
		inView = append(inView, domain.ProjectedPoint{
			VisiblePeak:   p,
			BearingOffset: offset,
			X:             (offset + half) / c.FOV * c.Width,
			Y:             c.verticalPosition(observer, p),
		})
	}
	sort.SliceStable(inView, func(i, j int) bool {
		return inView[i].Elevation > inView[j].Elevation
	})

	kept := make([]domain.ProjectedPoint, 0, len(inView))
	for _, candidate := range inView {
		if c.overlaps(candidate, kept) {
			continue
		}
		kept = append(kept, candidate)
	}
	return kept
}

func (c Camera) overlaps(candidate domain.ProjectedPoint, kept []domain.ProjectedPoint) bool {
	for _, k := range kept {
		if math.Abs(geospatial.AngularDifference(k.Bearing, candidate.Bearing)) <= c.OverlapThreshold {
			return true
		}
	}
	return false
}

// verticalPosition maps the elevation angle of the peak seen from the
// observer's eye onto the screen, 0 at the top. Peaks outside the vertical
// field of view are pinned to the nearest edge.
func (c Camera) verticalPosition(observer domain.Observer, p domain.VisiblePeak) float64 {
	angle := ElevationAngle(observer, p)
	y := (c.VerticalFOV/2 - angle) / c.VerticalFOV * c.Height
	return math.Max(0, math.Min(c.Height, y))
}

// ElevationAngle is the angle in degrees above the horizontal from the
// observer's eye to the summit.
func ElevationAngle(observer domain.Observer, p domain.VisiblePeak) float64 {
	return math.Atan2(p.Elevation-observer.EyeElevation(), p.Distance) * 180 / math.Pi
}
