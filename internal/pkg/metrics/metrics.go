package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "peakview",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "peakview",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "peakview",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Engine metrics
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "peakview",
		Subsystem: "engine",
		Name:      "queries_total",
		Help:      "Total visibility queries by strategy and outcome",
	}, []string{"strategy", "outcome"})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "peakview",
		Subsystem: "engine",
		Name:      "query_duration_seconds",
		Help:      "End-to-end duration of visibility queries",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"strategy"})

	PeaksEvaluated = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "peakview",
		Subsystem: "engine",
		Name:      "peaks_evaluated",
		Help:      "Candidate peaks per query",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	PeaksVisible = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "peakview",
		Subsystem: "engine",
		Name:      "peaks_visible",
		Help:      "Visible peaks per query",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	ViewshedRings = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "peakview",
		Subsystem: "engine",
		Name:      "viewshed_rings",
		Help:      "Rings laid out per viewshed",
		Buckets:   []float64{5, 10, 20, 40, 80, 160},
	})

	// Provider metrics
	ElevationBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "peakview",
		Subsystem: "elevation",
		Name:      "batches_total",
		Help:      "Elevation batches sent, by outcome",
	}, []string{"outcome"})

	ElevationPoints = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "peakview",
		Subsystem: "elevation",
		Name:      "points_total",
		Help:      "Points resolved by the elevation provider",
	})

	ProviderRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "peakview",
		Subsystem: "provider",
		Name:      "request_duration_seconds",
		Help:      "Duration of outbound provider requests",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"provider"})

	ProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "peakview",
		Subsystem: "provider",
		Name:      "errors_total",
		Help:      "Failed outbound provider requests",
	}, []string{"provider"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "peakview",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "peakview",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "peakview",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "peakview",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "peakview",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "peakview",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics copies connection counts from a *pgxpool.Stat.
func UpdateDBPoolMetrics(stat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}) {
	DBPoolConnsAcquired.Set(float64(stat.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(stat.IdleConns()))
	DBPoolConnsOpen.Set(float64(stat.TotalConns()))
}
