package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/core/ports"
)

// IngestService copies peaks from an upstream provider into the catalog.
type IngestService struct {
	source ports.PeakProvider
	repo   ports.PeakRepository
}

// NewIngestService creates a new IngestService.
func NewIngestService(source ports.PeakProvider, repo ports.PeakRepository) *IngestService {
	return &IngestService{source: source, repo: repo}
}

// Ingest fetches peaks around center and upserts them. It returns the number
// of peaks written.
func (s *IngestService) Ingest(ctx context.Context, center domain.GeoPoint, radiusMeters float64) (int, error) {
	peaks, err := s.source.PeaksNear(ctx, center, radiusMeters)
	if err != nil {
		return 0, fmt.Errorf("fetch peaks: %w", err)
	}
	if len(peaks) == 0 {
		return 0, nil
	}
	if err := s.repo.UpsertBatch(ctx, peaks); err != nil {
		return 0, fmt.Errorf("upsert peaks: %w", err)
	}
	slog.Info("peaks ingested", "count", len(peaks), "lat", center.Lat, "lon", center.Lon, "radius", radiusMeters)
	return len(peaks), nil
}

// RepositoryPeakProvider serves peaks from the catalog.
type RepositoryPeakProvider struct {
	repo  ports.PeakRepository
	limit int
}

// NewRepositoryPeakProvider creates a PeakProvider backed by repo. limit caps
// the number of peaks returned per lookup.
func NewRepositoryPeakProvider(repo ports.PeakRepository, limit int) *RepositoryPeakProvider {
	if limit <= 0 {
		limit = 500
	}
	return &RepositoryPeakProvider{repo: repo, limit: limit}
}

func (p *RepositoryPeakProvider) PeaksNear(ctx context.Context, center domain.GeoPoint, radiusMeters float64) ([]domain.Peak, error) {
	return p.repo.FindNearby(ctx, center, radiusMeters, p.limit)
}
