package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/core/ports"
	"github.com/samirrijal/peakview/internal/pkg/metrics"
)

// CachedPeakProvider puts a read-through cache in front of a PeakProvider.
// Only peak lists are cached; elevations never are.
type CachedPeakProvider struct {
	next  ports.PeakProvider
	cache ports.CacheService
	ttl   int
}

// NewCachedPeakProvider wraps next. A nil cache disables caching.
func NewCachedPeakProvider(next ports.PeakProvider, cache ports.CacheService, ttlSeconds int) *CachedPeakProvider {
	if ttlSeconds <= 0 {
		ttlSeconds = 3600
	}
	return &CachedPeakProvider{next: next, cache: cache, ttl: ttlSeconds}
}

func (c *CachedPeakProvider) PeaksNear(ctx context.Context, center domain.GeoPoint, radiusMeters float64) ([]domain.Peak, error) {
	cacheKey := fmt.Sprintf("peaks:near:%.4f:%.4f:%.0f", center.Lat, center.Lon, radiusMeters)
	if c.cache != nil {
		if data, err := c.cache.Get(ctx, cacheKey); err == nil {
			var peaks []domain.Peak
			if err := json.Unmarshal(data, &peaks); err == nil {
				metrics.CacheHits.WithLabelValues("peaks_near").Inc()
				return peaks, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("peaks_near").Inc()
	}

	peaks, err := c.next.PeaksNear(ctx, center, radiusMeters)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if data, err := json.Marshal(peaks); err == nil {
			_ = c.cache.Set(ctx, cacheKey, data, c.ttl)
		}
	}
	return peaks, nil
}
