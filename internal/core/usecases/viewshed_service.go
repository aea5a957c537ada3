package usecases

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/core/ports"
	"github.com/samirrijal/peakview/internal/core/sampling"
	"github.com/samirrijal/peakview/internal/core/visibility"
	"github.com/samirrijal/peakview/internal/pkg/logging"
	"github.com/samirrijal/peakview/internal/pkg/metrics"
	"github.com/samirrijal/peakview/internal/pkg/telemetry"
)

// ViewshedSettings are the service-wide viewshed defaults.
type ViewshedSettings struct {
	EyeHeight      float64
	Radius         float64
	MaxRadius      float64
	Budget         int
	MaxBudget      int
	StopOnDarkRing bool
}

// ViewshedRequest describes one viewshed computation. FOV >= 360 covers the
// full circle; zero values fall back to the service settings.
type ViewshedRequest struct {
	JobID     string
	Location  ports.LocationSource
	FOV       float64
	Radius    float64
	Budget    int
	EyeHeight *float64
}

// ViewshedService computes ring-propagation visibility maps.
type ViewshedService struct {
	terrain  visibility.Terrain
	events   ports.EventPublisher
	settings ViewshedSettings
}

// NewViewshedService creates a new ViewshedService. events may be nil.
func NewViewshedService(terrain visibility.Terrain, events ports.EventPublisher, settings ViewshedSettings) *ViewshedService {
	if settings.Radius <= 0 {
		settings.Radius = 7000
	}
	if settings.MaxRadius < settings.Radius {
		settings.MaxRadius = settings.Radius
	}
	if settings.Budget <= 0 {
		settings.Budget = visibility.DefaultRingBudget
	}
	if settings.MaxBudget < settings.Budget {
		settings.MaxBudget = settings.Budget
	}
	return &ViewshedService{terrain: terrain, events: events, settings: settings}
}

// Compute samples rings around the observer, resolves their elevations and
// propagates visibility outward.
func (s *ViewshedService) Compute(ctx context.Context, req ViewshedRequest) (*domain.Viewshed, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanViewshed)
	defer span.End()

	vs, err := s.compute(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "viewshed failed")
		metrics.QueriesTotal.WithLabelValues(visibility.StrategyRings, "error").Inc()
		return nil, err
	}
	metrics.QueriesTotal.WithLabelValues(visibility.StrategyRings, "ok").Inc()
	metrics.ViewshedRings.Observe(float64(len(vs.Rings)))
	span.SetAttributes(
		attribute.Int(telemetry.AttrRings, len(vs.Rings)),
		attribute.Float64(telemetry.AttrRadius, vs.Radius),
	)

	s.publish(ctx, req.JobID, vs)
	return vs, nil
}

func (s *ViewshedService) compute(ctx context.Context, req ViewshedRequest) (*domain.Viewshed, error) {
	fov := req.FOV
	if fov <= 0 || fov > 360 {
		fov = 360
	}
	radius := req.Radius
	if radius <= 0 {
		radius = s.settings.Radius
	}
	if radius > s.settings.MaxRadius {
		return nil, fmt.Errorf("%w: radius %.0f exceeds the limit of %.0f m", domain.ErrInvalidRequest, radius, s.settings.MaxRadius)
	}
	budget := req.Budget
	if budget <= 0 {
		budget = s.settings.Budget
	}
	if budget > s.settings.MaxBudget {
		return nil, fmt.Errorf("%w: budget %d exceeds the limit of %d points", domain.ErrInvalidRequest, budget, s.settings.MaxBudget)
	}

	eyeHeight := s.settings.EyeHeight
	if req.EyeHeight != nil {
		eyeHeight = *req.EyeHeight
	}
	observer, err := resolveObserver(ctx, req.Location, s.terrain, eyeHeight)
	if err != nil {
		return nil, err
	}

	strategy := visibility.NewRingStrategy(s.terrain, budget, s.settings.StopOnDarkRing)
	vs, err := strategy.Viewshed(ctx, observer, fov, radius)
	if err != nil {
		return nil, fmt.Errorf("viewshed: %w", err)
	}
	return vs, nil
}

func (s *ViewshedService) publish(ctx context.Context, jobID string, vs *domain.Viewshed) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishViewshed(ctx, NewViewshedEvent(jobID, vs)); err != nil {
		logging.FromContext(ctx).Warn("publish viewshed event failed", "error", err)
	}
}

// NewViewshedEvent packs a viewshed into its wire form. Slot positions are
// given as bearings so that full-budget viewsheds stay within a single
// message.
func NewViewshedEvent(jobID string, vs *domain.Viewshed) *ports.ViewshedEvent {
	event := &ports.ViewshedEvent{
		JobID:     jobID,
		Observer:  vs.Observer,
		FOV:       vs.FOV,
		Radius:    vs.Radius,
		Rings:     len(vs.Rings),
		StoppedAt: vs.StoppedAt,
		Arena:     make([]ports.ViewshedRing, 0, len(vs.Rings)),
	}
	for _, r := range vs.Rings {
		start, step := sampling.SlotBearings(vs.Observer.Heading, vs.FOV, len(r.Samples))
		mask := make([]byte, len(r.Samples))
		for j, smp := range r.Samples {
			mask[j] = '0'
			if smp.Visible {
				mask[j] = '1'
			}
		}
		event.Arena = append(event.Arena, ports.ViewshedRing{
			Index:   r.Index,
			Radius:  r.Radius,
			Start:   start,
			Step:    step,
			Visible: r.Visible,
			Mask:    string(mask),
		})
		event.Samples += len(r.Samples)
		event.Visible += r.Visible
	}
	return event
}
