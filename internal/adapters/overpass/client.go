// Package overpass is a PeakProvider that queries OpenStreetMap through the
// Overpass API for natural=peak features.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/pkg/geospatial"
	"github.com/samirrijal/peakview/internal/pkg/metrics"
)

const providerName = "overpass"

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *coordinate       `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type response struct {
	Elements []element `json:"elements"`
}

// Client posts Overpass QL queries to an interpreter endpoint.
type Client struct {
	url     string
	timeout time.Duration
	http    *fasthttp.Client
}

// New creates a Client for the interpreter at url, e.g.
// "https://overpass-api.de/api/interpreter".
func New(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:     url,
		timeout: timeout,
		http:    &fasthttp.Client{Name: "peakview", MaxResponseBodySize: 32 << 20},
	}
}

// Query builds the Overpass QL for all peaks inside box. Ways and relations
// are reported by their center.
func Query(box domain.Bounds, timeout time.Duration) string {
	area := fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", box.MinLat, box.MinLon, box.MaxLat, box.MaxLon)
	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", int(timeout.Seconds()))
	for _, kind := range []string{"node", "way", "relation"} {
		fmt.Fprintf(&b, "  %s[\"natural\"=\"peak\"](%s);\n", kind, area)
	}
	b.WriteString(");\nout center tags;\n")
	return b.String()
}

// PeaksNear returns named peaks with a parseable elevation no farther than
// radiusMeters (great-circle) from center.
func (c *Client) PeaksNear(ctx context.Context, center domain.GeoPoint, radiusMeters float64) ([]domain.Peak, error) {
	query := Query(geospatial.BoundingBox(center, radiusMeters), c.timeout)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)

	args.Set("data", query)
	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBody(args.QueryString())

	start := time.Now()
	err := c.http.DoTimeout(req, resp, requestTimeout(ctx, c.timeout))
	metrics.ProviderRequestDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, c.fail(0, err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return nil, c.fail(status, fmt.Errorf("unexpected status"))
	}

	var out response
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, c.fail(0, fmt.Errorf("decode response: %w", err))
	}

	peaks := make([]domain.Peak, 0, len(out.Elements))
	for _, el := range out.Elements {
		p, ok := el.peak()
		if !ok {
			continue
		}
		if geospatial.GreatCircleDistance(center, p.Location) > radiusMeters {
			continue
		}
		peaks = append(peaks, p)
	}
	return peaks, nil
}

func (c *Client) fail(status int, err error) error {
	metrics.ProviderErrors.WithLabelValues(providerName).Inc()
	return &domain.ProviderError{Provider: providerName, Operation: "query", Batch: -1, Status: status, Err: err}
}

// peak converts an element, rejecting those without a name, a position or a
// parseable elevation.
func (el element) peak() (domain.Peak, bool) {
	name := strings.TrimSpace(el.Tags["name"])
	if name == "" {
		return domain.Peak{}, false
	}
	ele, ok := ParseElevation(el.Tags["ele"])
	if !ok {
		return domain.Peak{}, false
	}

	var loc domain.GeoPoint
	switch {
	case el.Lat != nil && el.Lon != nil:
		loc = domain.GeoPoint{Lat: *el.Lat, Lon: *el.Lon}
	case el.Center != nil:
		loc = domain.GeoPoint{Lat: el.Center.Lat, Lon: el.Center.Lon}
	default:
		return domain.Peak{}, false
	}

	return domain.Peak{
		ID:        fmt.Sprintf("osm:%s/%d", el.Type, el.ID),
		Name:      name,
		Location:  loc,
		Elevation: ele,
	}, true
}

// ParseElevation reads an OSM ele tag in meters. It strips an "m" suffix and
// digit-group spaces, converts an "ft" suffix, and reads a comma as a
// thousands separator when exactly three digits follow it ("3,050") and as a
// decimal comma otherwise ("1234,5").
func ParseElevation(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	scale := 1.0
	switch {
	case strings.HasSuffix(s, "ft"):
		s, scale = strings.TrimSuffix(s, "ft"), 0.3048
	case strings.HasSuffix(s, "m"):
		s = strings.TrimSuffix(s, "m")
	}
	s = strings.ReplaceAll(s, " ", "")
	if i := strings.LastIndex(s, ","); i >= 0 {
		if len(s)-i-1 == 3 && !strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v * scale, true
}

func requestTimeout(ctx context.Context, timeout time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			return max(d, time.Millisecond)
		}
	}
	return timeout
}
