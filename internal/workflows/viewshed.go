package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ViewshedInput is the input for the viewshed workflow.
type ViewshedInput struct {
	JobID     string
	Lat       float64
	Lon       float64
	Elevation *float64
	Heading   float64
	FOV       float64
	Radius    float64
	Budget    int
	EyeHeight *float64
}

// ViewshedSummary is the workflow result. The per-ring visibility is
// published on NATS as a ports.ViewshedEvent carrying the job ID; the
// workflow history only keeps the counts.
type ViewshedSummary struct {
	JobID     string  `json:"job_id"`
	FOV       float64 `json:"fov"`
	Radius    float64 `json:"radius"`
	Rings     int     `json:"rings"`
	Samples   int     `json:"samples"`
	Visible   int     `json:"visible"`
	StoppedAt int     `json:"stopped_at"`
}

// ViewshedWorkflow runs a viewshed computation as a durable job. Elevation
// provider failures are retried with backoff; invalid requests are not.
func ViewshedWorkflow(ctx workflow.Context, input ViewshedInput) (*ViewshedSummary, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting viewshed workflow", "jobID", input.JobID, "radius", input.Radius)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        5 * time.Second,
			BackoffCoefficient:     2,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrTypeInvalidRequest},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var summary ViewshedSummary
	if err := workflow.ExecuteActivity(ctx, "ComputeViewshed", input).Get(ctx, &summary); err != nil {
		logger.Warn("viewshed failed", "error", err)
		return nil, err
	}

	logger.Info("Viewshed computed", "rings", summary.Rings, "visible", summary.Visible)
	return &summary, nil
}
