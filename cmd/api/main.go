package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/peakview/internal/adapters/http"
	natsadapter "github.com/samirrijal/peakview/internal/adapters/nats"
	"github.com/samirrijal/peakview/internal/adapters/openelevation"
	"github.com/samirrijal/peakview/internal/adapters/overpass"
	"github.com/samirrijal/peakview/internal/adapters/postgres"
	"github.com/samirrijal/peakview/internal/adapters/valkey"
	"github.com/samirrijal/peakview/internal/core/elevation"
	"github.com/samirrijal/peakview/internal/core/ports"
	"github.com/samirrijal/peakview/internal/core/projection"
	"github.com/samirrijal/peakview/internal/core/usecases"
	"github.com/samirrijal/peakview/internal/core/visibility"
	"github.com/samirrijal/peakview/internal/pkg/config"
	"github.com/samirrijal/peakview/internal/pkg/logging"
	"github.com/samirrijal/peakview/internal/pkg/telemetry"
	"github.com/samirrijal/peakview/internal/workflows"
)

func main() {
	cfg, err := config.Load("peakview-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{}

	// Peak catalog: live Overpass queries or the ingested PostGIS table
	var peaks ports.PeakProvider
	switch cfg.Peaks.Source {
	case "postgres":
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		go db.ReportPoolStats(ctx, 15*time.Second)
		deps.DB = db
		peaks = usecases.NewRepositoryPeakProvider(postgres.NewPeakRepo(db), 0)
	default:
		peaks = overpass.New(cfg.Peaks.OverpassURL, cfg.Peaks.Timeout())
	}

	// Cache (peak lists only)
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, peak cache disabled", "error", err)
	} else {
		defer cache.Close()
		deps.Cache = cache
		peaks = usecases.NewCachedPeakProvider(peaks, cache, cfg.Peaks.CacheTTL)
	}

	// NATS events
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
	} else {
		defer pub.Close()
		events = pub
		deps.NATS = pub.Conn()
	}

	// Terrain
	elevations := openelevation.New(cfg.Elevation.BaseURL, cfg.Elevation.Timeout())
	terrain := elevation.NewBatcher(elevations, cfg.Elevation.MaxPoints, cfg.Elevation.Delay())

	deps.Peaks = usecases.NewPeakService(peaks, terrain, events, usecases.PeakSettings{
		Strategy:  cfg.Engine.Strategy,
		EyeHeight: cfg.Engine.EyeHeight,
		Radius:    cfg.Peaks.Radius,
		MaxRadius: cfg.Peaks.MaxRadius,
		Engine: visibility.Options{
			SegmentLength:  cfg.Engine.SegmentLength,
			RingBudget:     cfg.Engine.RingBudget,
			StopOnDarkRing: cfg.Engine.StopOnDarkRing,
		},
		Camera: projection.Camera{
			FOV:              cfg.Camera.FOV,
			VerticalFOV:      cfg.Camera.VerticalFOV,
			OverlapThreshold: cfg.Camera.OverlapThreshold,
			Width:            cfg.Camera.Width,
			Height:           cfg.Camera.Height,
		},
	})
	deps.Viewsheds = usecases.NewViewshedService(terrain, events, usecases.ViewshedSettings{
		EyeHeight:      cfg.Engine.EyeHeight,
		Radius:         cfg.Peaks.Radius,
		MaxRadius:      cfg.Peaks.MaxRadius,
		Budget:         cfg.Engine.RingBudget,
		MaxBudget:      cfg.Engine.MaxRingBudget,
		StopOnDarkRing: cfg.Engine.StopOnDarkRing,
	})

	// Background viewshed jobs
	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			slog.Warn("temporal unavailable, viewshed jobs disabled", "error", err)
		} else {
			defer tc.Close()
			deps.Jobs = workflows.NewStarter(tc, cfg.Temporal.TaskQueue)
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "Peakview API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "peaks", cfg.Peaks.Source, "strategy", cfg.Engine.Strategy)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
