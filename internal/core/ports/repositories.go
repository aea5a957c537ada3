package ports

import (
	"context"

	"github.com/samirrijal/peakview/internal/core/domain"
)

// PeakRepository persists the peak catalog.
type PeakRepository interface {
	UpsertBatch(ctx context.Context, peaks []domain.Peak) error
	FindNearby(ctx context.Context, center domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Peak, error)
	Count(ctx context.Context) (int, error)
}
