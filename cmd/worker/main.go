package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/peakview/internal/adapters/nats"
	"github.com/samirrijal/peakview/internal/adapters/openelevation"
	"github.com/samirrijal/peakview/internal/core/elevation"
	"github.com/samirrijal/peakview/internal/core/ports"
	"github.com/samirrijal/peakview/internal/core/usecases"
	"github.com/samirrijal/peakview/internal/pkg/config"
	"github.com/samirrijal/peakview/internal/pkg/logging"
	"github.com/samirrijal/peakview/internal/pkg/telemetry"
	"github.com/samirrijal/peakview/internal/workflows"
)

func main() {
	cfg, err := config.Load("peakview-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(context.Background(), cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Viewshed results are only delivered through NATS, so the worker
	// still runs without it but nobody hears about finished jobs.
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, viewshed results will not be published", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	elevations := openelevation.New(cfg.Elevation.BaseURL, cfg.Elevation.Timeout())
	terrain := elevation.NewBatcher(elevations, cfg.Elevation.MaxPoints, cfg.Elevation.Delay())
	viewsheds := usecases.NewViewshedService(terrain, events, usecases.ViewshedSettings{
		EyeHeight:      cfg.Engine.EyeHeight,
		Radius:         cfg.Peaks.Radius,
		MaxRadius:      cfg.Peaks.MaxRadius,
		Budget:         cfg.Engine.RingBudget,
		MaxBudget:      cfg.Engine.MaxRingBudget,
		StopOnDarkRing: cfg.Engine.StopOnDarkRing,
	})

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	// One job at a time: the elevation provider is rate limited per client.
	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: 1,
	})

	w.RegisterWorkflow(workflows.ViewshedWorkflow)
	w.RegisterActivity(&workflows.ViewshedActivities{Viewsheds: viewsheds})

	slog.Info("viewshed worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
