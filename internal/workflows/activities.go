package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/core/usecases"
)

// ErrTypeInvalidRequest tags activity failures that retrying cannot fix.
const ErrTypeInvalidRequest = "InvalidRequest"

// ViewshedActivities holds the activity implementations for the viewshed workflow.
type ViewshedActivities struct {
	Viewsheds *usecases.ViewshedService
}

// ComputeViewshed runs the ring propagation for one job.
func (a *ViewshedActivities) ComputeViewshed(ctx context.Context, input ViewshedInput) (*ViewshedSummary, error) {
	location := usecases.FixedLocation{
		Location:  domain.GeoPoint{Lat: input.Lat, Lon: input.Lon},
		Elevation: input.Elevation,
		Heading:   input.Heading,
	}
	vs, err := a.Viewsheds.Compute(ctx, usecases.ViewshedRequest{
		JobID:     input.JobID,
		Location:  location,
		FOV:       input.FOV,
		Radius:    input.Radius,
		Budget:    input.Budget,
		EyeHeight: input.EyeHeight,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) || errors.Is(err, domain.ErrPermissionDenied) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidRequest, err)
		}
		return nil, fmt.Errorf("compute viewshed %s: %w", input.JobID, err)
	}

	summary := &ViewshedSummary{
		JobID:     input.JobID,
		FOV:       vs.FOV,
		Radius:    vs.Radius,
		Rings:     len(vs.Rings),
		StoppedAt: vs.StoppedAt,
	}
	for _, r := range vs.Rings {
		summary.Samples += len(r.Samples)
		summary.Visible += r.Visible
	}
	return summary, nil
}
