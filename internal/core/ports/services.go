package ports

import (
	"context"

	"github.com/samirrijal/peakview/internal/core/domain"
)

// QueryEvent summarises a finished visible-peaks query.
type QueryEvent struct {
	Observer  domain.Observer `json:"observer"`
	Strategy  string          `json:"strategy"`
	Peaks     int             `json:"peaks"`
	Visible   int             `json:"visible"`
	Projected int             `json:"projected"`
}

// ViewshedRing is one ring of a published viewshed. Slot j lies Radius
// meters from the observer on bearing Start + j*Step, and Mask[j] is '1' when
// that slot is visible.
type ViewshedRing struct {
	Index   int     `json:"index"`
	Radius  float64 `json:"radius"`
	Start   float64 `json:"start"`
	Step    float64 `json:"step"`
	Visible int     `json:"visible"`
	Mask    string  `json:"mask"`
}

// ViewshedEvent carries a finished viewshed computation, including the
// visibility of every ring slot.
type ViewshedEvent struct {
	JobID     string          `json:"job_id,omitempty"`
	Observer  domain.Observer `json:"observer"`
	FOV       float64         `json:"fov"`
	Radius    float64         `json:"radius"`
	Rings     int             `json:"rings"`
	Samples   int             `json:"samples"`
	Visible   int             `json:"visible"`
	StoppedAt int             `json:"stopped_at"`
	Arena     []ViewshedRing  `json:"arena"`
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishQuery(ctx context.Context, event *QueryEvent) error
	PublishViewshed(ctx context.Context, event *ViewshedEvent) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
