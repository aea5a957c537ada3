// Package openelevation is an ElevationProvider backed by an Open-Elevation
// compatible HTTP API.
package openelevation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/pkg/metrics"
)

const providerName = "open-elevation"

type location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type lookupRequest struct {
	Locations []location `json:"locations"`
}

type lookupResponse struct {
	Results []struct {
		Latitude  float64  `json:"latitude"`
		Longitude float64  `json:"longitude"`
		Elevation *float64 `json:"elevation"`
	} `json:"results"`
}

// Client posts point batches to {baseURL}/lookup.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
}

// New creates a Client. baseURL is the API root, e.g.
// "https://api.open-elevation.com/api/v1".
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                "peakview",
			MaxResponseBodySize: 64 << 20,
		},
	}
}

// Elevations resolves one batch. Any transport failure, non-2xx status,
// missing value or count mismatch fails the whole batch.
func (c *Client) Elevations(ctx context.Context, points []domain.GeoPoint) ([]float64, error) {
	payload := lookupRequest{Locations: make([]location, len(points))}
	for i, p := range points {
		payload.Locations[i] = location{Latitude: p.Lat, Longitude: p.Lon}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal lookup: %w", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/lookup")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBody(body)

	start := time.Now()
	err = c.http.DoTimeout(req, resp, requestTimeout(ctx, c.timeout))
	metrics.ProviderRequestDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, c.fail(0, err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return nil, c.fail(status, fmt.Errorf("unexpected status"))
	}

	var out lookupResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, c.fail(0, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Results) != len(points) {
		return nil, c.fail(0, fmt.Errorf("expected %d results, got %d", len(points), len(out.Results)))
	}

	elevations := make([]float64, len(out.Results))
	for i, r := range out.Results {
		if r.Elevation == nil {
			return nil, c.fail(0, fmt.Errorf("no elevation for point %d", i))
		}
		elevations[i] = *r.Elevation
	}
	return elevations, nil
}

func (c *Client) fail(status int, err error) error {
	metrics.ProviderErrors.WithLabelValues(providerName).Inc()
	return &domain.ProviderError{Provider: providerName, Operation: "lookup", Batch: -1, Status: status, Err: err}
}

// requestTimeout shortens the client timeout to the context deadline.
func requestTimeout(ctx context.Context, timeout time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			return max(d, time.Millisecond)
		}
	}
	return timeout
}
