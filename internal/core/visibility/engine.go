// Package visibility decides which peaks an observer can see over the
// intervening terrain. Two interchangeable strategies share one shadow test:
// per-peak sightlines (the primary strategy) and ring propagation, which also
// produces whole-area viewsheds.
package visibility

import (
	"context"
	"fmt"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/pkg/geospatial"
)

const (
	StrategySightline = "sightline"
	StrategyRings     = "rings"
)

// Terrain resolves elevations for an ordered point sequence, preserving order.
// *elevation.Batcher satisfies it.
type Terrain interface {
	Lookup(ctx context.Context, points []domain.GeoPoint) ([]domain.TerrainPoint, error)
}

// Strategy assigns IsVisible to every peak seen from observer. Peaks must
// already carry Bearing and Distance (see Annotate). The input slice is not
// modified.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, observer domain.Observer, peaks []domain.VisiblePeak) ([]domain.VisiblePeak, error)
}

// Options tunes the strategies.
type Options struct {
	SegmentLength  float64 // sightline sample spacing, meters
	RingBudget     int     // points over the full circle for ring propagation
	StopOnDarkRing bool    // see RingStrategy
}

// New returns the strategy registered under name.
func New(name string, terrain Terrain, opts Options) (Strategy, error) {
	switch name {
	case StrategySightline, "":
		return NewSightlineStrategy(terrain, opts.SegmentLength), nil
	case StrategyRings:
		return NewRingStrategy(terrain, opts.RingBudget, opts.StopOnDarkRing), nil
	default:
		return nil, fmt.Errorf("%w: unknown visibility strategy %q", domain.ErrInvalidRequest, name)
	}
}

// Annotate measures bearing and distance from the observer to each peak.
func Annotate(observer domain.Observer, peaks []domain.Peak) []domain.VisiblePeak {
	out := make([]domain.VisiblePeak, len(peaks))
	for i, p := range peaks {
		out[i] = domain.VisiblePeak{
			Peak:     p,
			Bearing:  geospatial.Bearing(observer.Location, p.Location),
			Distance: geospatial.PlanarDistance(observer.Location, p.Location),
		}
	}
	return out
}

// Ray is the straight sightline f(x) = origin + slope*x from the observer's
// eye (x = 0) to a target at a given horizontal distance.
type Ray struct {
	origin float64
	slope  float64
}

// NewRay builds the sightline from eye elevation to a target elevation at
// distance meters.
func NewRay(eye, target, distance float64) Ray {
	if distance <= 0 {
		return Ray{origin: eye}
	}
	return Ray{origin: eye, slope: (target - eye) / distance}
}

// Height is the elevation of the sightline at horizontal distance x.
func (r Ray) Height(x float64) float64 {
	return r.origin + r.slope*x
}

// Blocked is the shadow test: ground at elevation e, x meters from the eye,
// blocks the sightline when it reaches the ray. Ties block.
func (r Ray) Blocked(e, x float64) bool {
	return e >= r.Height(x)
}
