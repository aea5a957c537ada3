//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/samirrijal/peakview/internal/adapters/postgres"
	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/pkg/config"
)

func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("peakview-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestPeakRepo_UpsertAndFindNearby(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewPeakRepo(db)
	ctx := context.Background()

	peaks := []domain.Peak{
		{ID: "test:node/1", Name: "Eiger", Location: domain.GeoPoint{Lat: 46.5775, Lon: 8.0052}, Elevation: 3967},
		{ID: "test:node/2", Name: "Mönch", Location: domain.GeoPoint{Lat: 46.5586, Lon: 7.9974}, Elevation: 4110},
		{ID: "test:node/3", Name: "Far", Location: domain.GeoPoint{Lat: 47.5, Lon: 8.0}, Elevation: 900},
	}
	if err := repo.UpsertBatch(ctx, peaks); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM peaks WHERE source_id LIKE 'test:%'`)
	})

	got, err := repo.FindNearby(ctx, domain.GeoPoint{Lat: 46.5775, Lon: 8.0052}, 5000, 10)
	if err != nil {
		t.Fatalf("find nearby: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Eiger" {
		t.Fatalf("expected Eiger then Mönch, got %+v", got)
	}

	peaks[0].Elevation = 3970
	if err := repo.UpsertBatch(ctx, peaks[:1]); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	got, _ = repo.FindNearby(ctx, peaks[0].Location, 10, 1)
	if len(got) != 1 || got[0].Elevation != 3970 {
		t.Errorf("expected updated elevation, got %+v", got)
	}
}
