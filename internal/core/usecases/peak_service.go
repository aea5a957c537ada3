package usecases

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/core/ports"
	"github.com/samirrijal/peakview/internal/core/projection"
	"github.com/samirrijal/peakview/internal/core/visibility"
	"github.com/samirrijal/peakview/internal/pkg/logging"
	"github.com/samirrijal/peakview/internal/pkg/metrics"
	"github.com/samirrijal/peakview/internal/pkg/telemetry"
)

// PeakSettings are the service-wide defaults a query may override.
type PeakSettings struct {
	Strategy  string
	EyeHeight float64
	Radius    float64 // default peak search radius, meters
	MaxRadius float64
	Engine    visibility.Options
	Camera    projection.Camera
}

// QueryRequest describes one visible-peaks query. Zero values fall back to
// the service settings.
type QueryRequest struct {
	Location  ports.LocationSource
	Radius    float64
	EyeHeight *float64
	Strategy  string
	Camera    projection.Camera
}

// QueryResult carries every candidate peak with its visibility flag (for a
// map view) and the projected camera overlay.
type QueryResult struct {
	Observer  domain.Observer         `json:"observer"`
	Strategy  string                  `json:"strategy"`
	Radius    float64                 `json:"radius"`
	Peaks     []domain.VisiblePeak    `json:"peaks"`
	Projected []domain.ProjectedPoint `json:"projected"`
}

// Visible counts the peaks marked visible.
func (r *QueryResult) Visible() int {
	n := 0
	for _, p := range r.Peaks {
		if p.IsVisible {
			n++
		}
	}
	return n
}

// PeakService answers which peaks are visible from an observer fix.
type PeakService struct {
	peaks    ports.PeakProvider
	terrain  visibility.Terrain
	events   ports.EventPublisher
	settings PeakSettings
}

// NewPeakService creates a new PeakService. events may be nil.
func NewPeakService(peaks ports.PeakProvider, terrain visibility.Terrain, events ports.EventPublisher, settings PeakSettings) *PeakService {
	if settings.Strategy == "" {
		settings.Strategy = visibility.StrategySightline
	}
	if settings.Radius <= 0 {
		settings.Radius = 7000
	}
	if settings.MaxRadius < settings.Radius {
		settings.MaxRadius = settings.Radius
	}
	return &PeakService{peaks: peaks, terrain: terrain, events: events, settings: settings}
}

// Query reads the location once, gathers the peaks around it, resolves their
// visibility with the selected strategy and projects the visible ones.
func (s *PeakService) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	strategyName := req.Strategy
	if strategyName == "" {
		strategyName = s.settings.Strategy
	}
	strategy, err := visibility.New(strategyName, s.terrain, s.settings.Engine)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanPeakQuery)
	defer span.End()
	start := time.Now()

	result, err := s.query(ctx, req, strategy)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "peak query failed")
	}
	metrics.QueriesTotal.WithLabelValues(strategy.Name(), outcome).Inc()
	metrics.QueryDuration.WithLabelValues(strategy.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String(telemetry.AttrStrategy, strategy.Name()),
		attribute.Int(telemetry.AttrPeaks, len(result.Peaks)),
		attribute.Int(telemetry.AttrVisible, result.Visible()),
	)
	metrics.PeaksEvaluated.Observe(float64(len(result.Peaks)))
	metrics.PeaksVisible.Observe(float64(result.Visible()))

	s.publish(ctx, result)
	return result, nil
}

func (s *PeakService) query(ctx context.Context, req QueryRequest, strategy visibility.Strategy) (*QueryResult, error) {
	eyeHeight := s.settings.EyeHeight
	if req.EyeHeight != nil {
		eyeHeight = *req.EyeHeight
	}
	observer, err := resolveObserver(ctx, req.Location, s.terrain, eyeHeight)
	if err != nil {
		return nil, err
	}

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Float64(telemetry.AttrObserverLat, observer.Location.Lat),
		attribute.Float64(telemetry.AttrObserverLon, observer.Location.Lon),
		attribute.Float64(telemetry.AttrObserverAngle, observer.Heading),
	)

	radius := s.radius(req.Radius)
	fetchCtx, fetchSpan := telemetry.Tracer().Start(ctx, telemetry.SpanPeakProvider)
	fetchSpan.SetAttributes(attribute.Float64(telemetry.AttrRadius, radius))
	peaks, err := s.peaks.PeaksNear(fetchCtx, observer.Location, radius)
	fetchSpan.End()
	if err != nil {
		return nil, fmt.Errorf("fetch peaks: %w", err)
	}
	logging.FromContext(ctx).Debug("peaks fetched", "count", len(peaks), "radius", radius)

	resolved, err := strategy.Resolve(ctx, observer, visibility.Annotate(observer, peaks))
	if err != nil {
		return nil, fmt.Errorf("resolve visibility: %w", err)
	}

	return &QueryResult{
		Observer:  observer,
		Strategy:  strategy.Name(),
		Radius:    radius,
		Peaks:     resolved,
		Projected: s.camera(req.Camera).Project(observer, resolved),
	}, nil
}

func (s *PeakService) radius(requested float64) float64 {
	switch {
	case requested <= 0:
		return s.settings.Radius
	case requested > s.settings.MaxRadius:
		return s.settings.MaxRadius
	default:
		return requested
	}
}

// camera overlays the request's non-zero camera fields on the service default.
func (s *PeakService) camera(override projection.Camera) projection.Camera {
	c := s.settings.Camera
	if override.FOV > 0 {
		c.FOV = override.FOV
	}
	if override.VerticalFOV > 0 {
		c.VerticalFOV = override.VerticalFOV
	}
	if override.OverlapThreshold > 0 {
		c.OverlapThreshold = override.OverlapThreshold
	}
	if override.Width > 0 {
		c.Width = override.Width
	}
	if override.Height > 0 {
		c.Height = override.Height
	}
	return c
}

func (s *PeakService) publish(ctx context.Context, result *QueryResult) {
	if s.events == nil {
		return
	}
	event := &ports.QueryEvent{
		Observer:  result.Observer,
		Strategy:  result.Strategy,
		Peaks:     len(result.Peaks),
		Visible:   result.Visible(),
		Projected: len(result.Projected),
	}
	if err := s.events.PublishQuery(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("publish query event failed", "error", err)
	}
}
