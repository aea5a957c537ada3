package ports

import (
	"context"

	"github.com/samirrijal/peakview/internal/core/domain"
)

// LocationSource yields the observer's current fix on demand. It returns
// domain.ErrPermissionDenied when no fix is available.
type LocationSource interface {
	Current(ctx context.Context) (domain.Fix, error)
}

// ElevationProvider resolves ground elevation for an ordered batch of points.
// The result has one elevation per point, in input order. Implementations
// fail the whole batch on any error.
type ElevationProvider interface {
	Elevations(ctx context.Context, points []domain.GeoPoint) ([]float64, error)
}

// PeakProvider returns named peaks with a known elevation within radiusMeters
// of center.
type PeakProvider interface {
	PeaksNear(ctx context.Context, center domain.GeoPoint, radiusMeters float64) ([]domain.Peak, error)
}
