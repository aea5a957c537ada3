package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/peakview/internal/adapters/postgres"
	"github.com/samirrijal/peakview/internal/adapters/valkey"
	"github.com/samirrijal/peakview/internal/core/usecases"
	"github.com/samirrijal/peakview/internal/workflows"
)

// JobStarter schedules asynchronous viewshed jobs. *workflows.Starter satisfies it.
type JobStarter interface {
	StartViewshed(ctx context.Context, input workflows.ViewshedInput) (string, error)
}

// Dependencies holds all services needed by HTTP handlers. Jobs, NATS, DB and
// Cache are optional and left nil when the backing service is not configured.
type Dependencies struct {
	Peaks     *usecases.PeakService
	Viewsheds *usecases.ViewshedService
	Jobs      JobStarter
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache
}
