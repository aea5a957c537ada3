package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/core/usecases"
)

func TestIngestService_Ingest(t *testing.T) {
	var stored []domain.Peak
	repo := &mockPeakRepo{upsertBatchFn: func(ctx context.Context, peaks []domain.Peak) error {
		stored = peaks
		return nil
	}}
	svc := usecases.NewIngestService(northPeak(), repo)

	n, err := svc.Ingest(context.Background(), origin, 7000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 || len(stored) != 1 || stored[0].ID != "n1" {
		t.Errorf("expected 1 peak stored, got %d %+v", n, stored)
	}
}

func TestIngestService_Ingest_Empty(t *testing.T) {
	called := false
	repo := &mockPeakRepo{upsertBatchFn: func(ctx context.Context, peaks []domain.Peak) error {
		called = true
		return nil
	}}
	svc := usecases.NewIngestService(&mockPeakProvider{}, repo)

	n, err := svc.Ingest(context.Background(), origin, 7000)
	if err != nil || n != 0 {
		t.Fatalf("expected nothing ingested, got %d %v", n, err)
	}
	if called {
		t.Error("upsert should not run for an empty result")
	}
}

func TestIngestService_Ingest_RepoError(t *testing.T) {
	repo := &mockPeakRepo{upsertBatchFn: func(ctx context.Context, peaks []domain.Peak) error {
		return errors.New("db down")
	}}
	svc := usecases.NewIngestService(northPeak(), repo)

	if _, err := svc.Ingest(context.Background(), origin, 7000); err == nil {
		t.Fatal("expected error")
	}
}

func TestRepositoryPeakProvider(t *testing.T) {
	var gotLimit int
	repo := &mockPeakRepo{findNearbyFn: func(ctx context.Context, center domain.GeoPoint, radius float64, limit int) ([]domain.Peak, error) {
		gotLimit = limit
		return []domain.Peak{{Name: "A"}}, nil
	}}
	p := usecases.NewRepositoryPeakProvider(repo, 0)

	peaks, err := p.PeaksNear(context.Background(), origin, 7000)
	if err != nil || len(peaks) != 1 {
		t.Fatalf("unexpected result %v %v", peaks, err)
	}
	if gotLimit != 500 {
		t.Errorf("expected default limit 500, got %d", gotLimit)
	}
}
