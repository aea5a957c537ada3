// Package elevation turns arbitrarily long point sequences into a sequential
// stream of bounded, rate-limited elevation requests.
package elevation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/core/ports"
	"github.com/samirrijal/peakview/internal/pkg/metrics"
	"github.com/samirrijal/peakview/internal/pkg/telemetry"
)

const (
	DefaultMaxPoints = 15000
	DefaultDelay     = time.Second
)

// Batcher splits lookups into request-size-bounded batches and sends them
// one after another, waiting Delay between consecutive requests.
type Batcher struct {
	provider  ports.ElevationProvider
	maxPoints int
	delay     time.Duration
}

// NewBatcher creates a Batcher. Non-positive limits fall back to the defaults;
// a negative delay is treated as zero.
func NewBatcher(provider ports.ElevationProvider, maxPoints int, delay time.Duration) *Batcher {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	if delay < 0 {
		delay = 0
	}
	return &Batcher{provider: provider, maxPoints: maxPoints, delay: delay}
}

// Batches returns how many requests a lookup of n points issues.
func (b *Batcher) Batches(n int) int {
	return (n + b.maxPoints - 1) / b.maxPoints
}

// Lookup resolves every point, preserving order. The first failed batch
// aborts the lookup and no partial result is returned. Cancellation is
// honoured between batches; a request already sent runs to completion.
func (b *Batcher) Lookup(ctx context.Context, points []domain.GeoPoint) ([]domain.TerrainPoint, error) {
	batches := b.Batches(len(points))
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanElevation)
	defer span.End()
	span.SetAttributes(attribute.Int(telemetry.AttrPoints, len(points)))

	out, err := b.lookup(ctx, points, batches)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "elevation lookup failed")
	}
	return out, err
}

func (b *Batcher) lookup(ctx context.Context, points []domain.GeoPoint, batches int) ([]domain.TerrainPoint, error) {
	out := make([]domain.TerrainPoint, 0, len(points))

	for i := 0; i < batches; i++ {
		if i > 0 && b.delay > 0 {
			timer := time.NewTimer(b.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := i * b.maxPoints
		end := min(start+b.maxPoints, len(points))
		chunk := points[start:end]

		elevations, err := b.provider.Elevations(context.WithoutCancel(ctx), chunk)
		if err != nil {
			metrics.ElevationBatches.WithLabelValues("error").Inc()
			return nil, batchError(i, err)
		}
		if len(elevations) != len(chunk) {
			metrics.ElevationBatches.WithLabelValues("error").Inc()
			return nil, batchError(i, fmt.Errorf("expected %d elevations, got %d", len(chunk), len(elevations)))
		}
		metrics.ElevationBatches.WithLabelValues("ok").Inc()
		metrics.ElevationPoints.Add(float64(len(chunk)))

		for j, p := range chunk {
			out = append(out, domain.TerrainPoint{GeoPoint: p, Elevation: domain.Meters(elevations[j])})
		}
		slog.Debug("elevation batch resolved", "batch", i+1, "of", batches, "points", len(chunk))
	}
	return out, nil
}

func batchError(batch int, err error) error {
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		tagged := *pe
		tagged.Batch = batch
		return &tagged
	}
	return &domain.ProviderError{Provider: "elevation", Operation: "lookup", Batch: batch, Err: err}
}
