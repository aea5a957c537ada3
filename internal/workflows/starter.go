package workflows

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/client"
)

// Starter launches viewshed workflows on a task queue.
type Starter struct {
	client    client.Client
	taskQueue string
}

// NewStarter creates a new Starter.
func NewStarter(c client.Client, taskQueue string) *Starter {
	return &Starter{client: c, taskQueue: taskQueue}
}

// StartViewshed schedules a viewshed job and returns its workflow ID. The
// job ID doubles as the workflow ID; one is generated when empty.
func (s *Starter) StartViewshed(ctx context.Context, input ViewshedInput) (string, error) {
	if input.JobID == "" {
		input.JobID = fmt.Sprintf("viewshed-%d", time.Now().UnixNano())
	}
	run, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        input.JobID,
		TaskQueue: s.taskQueue,
	}, ViewshedWorkflow, input)
	if err != nil {
		return "", fmt.Errorf("start viewshed workflow: %w", err)
	}
	return run.GetID(), nil
}
