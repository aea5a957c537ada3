package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/peakview/internal/core/domain"
)

// PeakRepo implements ports.PeakRepository with pgx and PostGIS.
type PeakRepo struct {
	db *DB
}

// NewPeakRepo creates a new PeakRepo.
func NewPeakRepo(db *DB) *PeakRepo {
	return &PeakRepo{db: db}
}

const upsertPeak = `
	INSERT INTO peaks (source_id, name, location, elevation)
	VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5)
	ON CONFLICT (source_id) DO UPDATE
	SET name = EXCLUDED.name, location = EXCLUDED.location,
	    elevation = EXCLUDED.elevation, updated_at = now()
`

// UpsertBatch inserts or updates peaks keyed by their source ID using pgx.Batch.
func (r *PeakRepo) UpsertBatch(ctx context.Context, peaks []domain.Peak) error {
	batch := &pgx.Batch{}
	for _, p := range peaks {
		if p.ID == "" {
			return fmt.Errorf("peak %q has no source id", p.Name)
		}
		batch.Queue(upsertPeak, p.ID, p.Name, p.Location.Lon, p.Location.Lat, p.Elevation)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range peaks {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// FindNearby returns peaks within radiusMeters using PostGIS ST_DWithin,
// nearest first.
func (r *PeakRepo) FindNearby(ctx context.Context, center domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Peak, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT source_id, name,
		       ST_Y(location::geometry) AS lat,
		       ST_X(location::geometry) AS lon,
		       elevation
		FROM peaks
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography)
		LIMIT $4
	`, center.Lon, center.Lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var peaks []domain.Peak
	for rows.Next() {
		var p domain.Peak
		if err := rows.Scan(&p.ID, &p.Name, &p.Location.Lat, &p.Location.Lon, &p.Elevation); err != nil {
			return nil, err
		}
		peaks = append(peaks, p)
	}
	return peaks, rows.Err()
}

// Count returns the number of peaks in the catalog.
func (r *PeakRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM peaks`).Scan(&n)
	return n, err
}
