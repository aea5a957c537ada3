package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/samirrijal/peakview/internal/adapters/overpass"
	"github.com/samirrijal/peakview/internal/adapters/postgres"
	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/core/usecases"
	"github.com/samirrijal/peakview/internal/pkg/config"
	"github.com/samirrijal/peakview/internal/pkg/logging"
)

// Manifest lists the regions whose peaks are copied into the catalog.
type Manifest struct {
	Source  string   `json:"source"`
	Regions []Region `json:"regions"`
}

// Region is a circular area to ingest.
type Region struct {
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Radius float64 `json:"radius"` // meters
}

func main() {
	cfg, err := config.Load("peakview-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	manifestPath := "regions.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	log.Printf("Peakview ingestor: %d regions from %s", len(manifest.Regions), manifest.Source)

	// Optional CLI arg: comma separated region names
	filter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			filter[strings.TrimSpace(s)] = true
		}
	}

	repo := postgres.NewPeakRepo(db)
	svc := usecases.NewIngestService(overpass.New(cfg.Peaks.OverpassURL, cfg.Peaks.Timeout()), repo)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	// Public Overpass instances allow two concurrent slots per client.
	sem := make(chan struct{}, 2)

	for _, region := range manifest.Regions {
		if len(filter) > 0 && !filter[region.Name] {
			continue
		}
		if region.Radius <= 0 {
			log.Printf("SKIP [%s]: radius must be positive", region.Name)
			continue
		}

		wg.Add(1)
		go func(r Region) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			n, err := svc.Ingest(ctx, domain.GeoPoint{Lat: r.Lat, Lon: r.Lon}, r.Radius)
			if err != nil {
				log.Printf("ERROR [%s]: %v", r.Name, err)
				return
			}
			log.Printf("[%s] %d peaks", r.Name, n)

			mu.Lock()
			total += n
			mu.Unlock()
		}(region)
	}

	wg.Wait()

	count, err := repo.Count(ctx)
	if err != nil {
		log.Printf("count peaks: %v", err)
	}
	log.Printf("ingestion complete: %d peaks written, %d in catalog", total, count)
}
