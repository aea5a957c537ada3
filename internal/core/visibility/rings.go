package visibility

import (
	"context"
	"fmt"
	"math"
	"sort"

	geo "github.com/paulmach/go.geo"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/core/sampling"
	"github.com/samirrijal/peakview/internal/pkg/geospatial"
)

const DefaultRingBudget = 2000

// RingStrategy propagates visibility outward across concentric rings. A
// point is visible only if it passes the shadow test against an interpolated
// sample on every inner ring its sightline crosses. Ring 0 is visible by
// definition.
//
// With stopOnDarkRing set, a ring without any visible point ends the
// propagation and every farther ring is treated as occluded. This is an
// approximation: a gap in a nearer ridge can still expose farther terrain.
type RingStrategy struct {
	terrain        Terrain
	budget         int
	stopOnDarkRing bool
}

// NewRingStrategy creates the ring-propagation strategy. budget is the number
// of sample points over a full circle.
func NewRingStrategy(terrain Terrain, budget int, stopOnDarkRing bool) *RingStrategy {
	if budget <= 0 {
		budget = DefaultRingBudget
	}
	return &RingStrategy{terrain: terrain, budget: budget, stopOnDarkRing: stopOnDarkRing}
}

func (s *RingStrategy) Name() string { return StrategyRings }

// Viewshed samples a sector of the given width around the observer's heading
// out to radius meters and resolves the visibility of every ring point. The
// budget is scaled down with the sector width.
func (s *RingStrategy) Viewshed(ctx context.Context, observer domain.Observer, fov, radius float64) (*domain.Viewshed, error) {
	a, err := s.run(ctx, observer, fov, radius)
	if err != nil {
		return nil, err
	}
	return &domain.Viewshed{
		Observer:  observer,
		FOV:       math.Min(fov, 360),
		Radius:    radius,
		Rings:     a.rings,
		StoppedAt: a.stoppedAt,
	}, nil
}

// Resolve builds a full-circle viewshed reaching the farthest peak and tests
// each peak against every ring inside its distance.
func (s *RingStrategy) Resolve(ctx context.Context, observer domain.Observer, peaks []domain.VisiblePeak) ([]domain.VisiblePeak, error) {
	var radius float64
	for _, p := range peaks {
		radius = math.Max(radius, p.Distance)
	}
	out := make([]domain.VisiblePeak, len(peaks))
	if radius <= 0 {
		for i, p := range peaks {
			p.IsVisible = true
			out[i] = p
		}
		return out, nil
	}

	a, err := s.run(ctx, observer, 360, radius)
	if err != nil {
		return nil, err
	}
	for i, p := range peaks {
		p.IsVisible = a.targetVisible(geospatial.ToLocal(observer.Location, p.Location), p.Elevation)
		out[i] = p
	}
	return out, nil
}

func (s *RingStrategy) run(ctx context.Context, observer domain.Observer, fov, radius float64) (*arena, error) {
	budget := s.budget
	if fov < 360 {
		budget = int(math.Max(1, math.Round(float64(s.budget)*fov/360)))
	}
	rings, err := sampling.Rings(sampling.RingParams{
		Center:  observer.Location,
		Heading: observer.Heading,
		FOV:     fov,
		Radius:  radius,
		Budget:  budget,
	})
	if err != nil {
		return nil, fmt.Errorf("ring layout: %w", err)
	}

	resolved, err := s.terrain.Lookup(ctx, sampling.RingPoints(rings))
	if err != nil {
		return nil, err
	}
	if err := sampling.ApplyRingElevations(rings, resolved); err != nil {
		return nil, err
	}

	a := newArena(observer, rings, fov)
	a.propagate(s.stopOnDarkRing)
	return a, nil
}

// arena holds the per-ring result buffers of one propagation. Ring k's
// Visible flags are written exactly once, after every inner ring is final,
// and are never revisited.
type arena struct {
	eye       float64
	rings     []domain.Ring
	local     [][]*geo.Point
	angles    [][]float64 // bearing of each point relative to the ring's first point
	span      float64
	stoppedAt int
}

func newArena(observer domain.Observer, rings []domain.Ring, fov float64) *arena {
	a := &arena{
		eye:       observer.EyeElevation(),
		rings:     rings,
		local:     make([][]*geo.Point, len(rings)),
		angles:    make([][]float64, len(rings)),
		span:      math.Min(fov, 360),
		stoppedAt: -1,
	}
	for k, r := range rings {
		a.local[k] = make([]*geo.Point, len(r.Samples))
		a.angles[k] = make([]float64, len(r.Samples))
		var base float64
		for j, smp := range r.Samples {
			p := geospatial.ToLocal(observer.Location, smp.Point)
			a.local[k][j] = p
			if j == 0 {
				base = localBearing(p)
			}
			a.angles[k][j] = a.relative(localBearing(p), base)
		}
	}
	return a
}

func (a *arena) propagate(stopOnDarkRing bool) {
	for k := range a.rings {
		samples := a.rings[k].Samples
		if k == 0 {
			for j := range samples {
				samples[j].Visible = true
			}
			a.rings[k].Visible = len(samples)
			continue
		}

		visible := 0
		for j := range samples {
			if a.pointVisible(k, j) {
				samples[j].Visible = true
				visible++
			}
		}
		a.rings[k].Visible = visible
		if stopOnDarkRing && visible == 0 {
			a.stoppedAt = k
			return
		}
	}
}

// pointVisible tests sample j of ring k against every inner ring.
func (a *arena) pointVisible(k, j int) bool {
	return a.visibleThrough(k, a.local[k][j], a.rings[k].Samples[j].Elevation)
}

// targetVisible applies the propagation result to an arbitrary target.
func (a *arena) targetVisible(target *geo.Point, elevation float64) bool {
	distance := target.DistanceFrom(geo.NewPoint(0, 0))
	inner := sort.Search(len(a.rings), func(k int) bool {
		return a.rings[k].Radius >= distance
	})
	if a.stoppedAt >= 0 && a.stoppedAt < inner {
		return false
	}
	return a.visibleThrough(inner, target, elevation)
}

// visibleThrough checks the sightline to target against rings [0, limit).
func (a *arena) visibleThrough(limit int, target *geo.Point, elevation float64) bool {
	ray := NewRay(a.eye, elevation, target.DistanceFrom(geo.NewPoint(0, 0)))
	for k := limit - 1; k >= 0; k-- {
		e, x, err := a.crossing(k, target)
		if err != nil {
			return false
		}
		if ray.Blocked(e, x) {
			return false
		}
	}
	return true
}

// crossing interpolates the ground where the sightline to target crosses
// ring k. It returns the elevation and the distance from the observer.
func (a *arena) crossing(k int, target *geo.Point) (float64, float64, error) {
	samples := a.rings[k].Samples
	if len(samples) == 1 {
		return samples[0].Elevation, a.local[k][0].DistanceFrom(geo.NewPoint(0, 0)), nil
	}

	i0, i1 := a.nearestPair(k, target)
	return interpolate(a.local[k][i0], a.local[k][i1], samples[i0].Elevation, samples[i1].Elevation, target)
}

// nearestPair returns the two points of ring k closest to target. Points on a
// ring are ordered by bearing, and for a target outside the ring the planar
// distance grows with angular separation, so only the neighbours of the
// target's bearing need to be compared.
func (a *arena) nearestPair(k int, target *geo.Point) (int, int) {
	angles := a.angles[k]
	n := len(angles)
	rel := a.relative(localBearing(target), localBearing(a.local[k][0]))
	idx := sort.SearchFloat64s(angles, rel)

	seen := make(map[int]bool, 4)
	var candidates []int
	for _, c := range []int{idx - 2, idx - 1, idx, idx + 1} {
		if a.span >= 360 {
			c = ((c % n) + n) % n
		} else {
			c = max(0, min(n-1, c))
		}
		if !seen[c] {
			seen[c] = true
			candidates = append(candidates, c)
		}
	}
	sort.Slice(candidates, func(x, y int) bool {
		return a.local[k][candidates[x]].DistanceFrom(target) < a.local[k][candidates[y]].DistanceFrom(target)
	})
	return candidates[0], candidates[1]
}

// relative measures bearing clockwise from base. Inside a sector, directions
// in the uncovered gap closer to the sector start come out negative so they
// sort before the first point.
func (a *arena) relative(bearing, base float64) float64 {
	d := geospatial.NormalizeBearing(bearing - base)
	if a.span < 360 && d > (a.span+360)/2 {
		d -= 360
	}
	return d
}

// interpolate intersects the chord p0-p1 with the line from target to the
// observer at the origin, and interpolates the elevation proportionally
// along the chord. Parallel or coincident inputs yield ErrGeometryDegenerate.
func interpolate(p0, p1 *geo.Point, e0, e1 float64, target *geo.Point) (float64, float64, error) {
	chord := p1.Clone().Subtract(p0)
	denom := cross(chord, target)
	scale := chord.DistanceFrom(geo.NewPoint(0, 0)) * target.DistanceFrom(geo.NewPoint(0, 0))
	if scale == 0 || math.Abs(denom) < 1e-12*scale {
		return 0, 0, domain.ErrGeometryDegenerate
	}

	t := cross(target, p0) / denom
	t = math.Max(0, math.Min(1, t))
	at := geo.NewLine(p0, p1).Interpolate(t)
	if at.Dot(target) <= 0 {
		return 0, 0, domain.ErrGeometryDegenerate
	}
	return e0 + t*(e1-e0), at.DistanceFrom(geo.NewPoint(0, 0)), nil
}

// cross is the z component of the 2-D cross product a × b.
func cross(a, b *geo.Point) float64 {
	return a.X()*b.Y() - a.Y()*b.X()
}

// localBearing is the compass bearing of a tangent-plane point seen from the origin.
func localBearing(p *geo.Point) float64 {
	return geospatial.NormalizeBearing(math.Atan2(p.X(), p.Y()) * 180 / math.Pi)
}
