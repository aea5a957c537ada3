package http

import (
	"github.com/gofiber/fiber/v2"

	natsadapter "github.com/samirrijal/peakview/internal/adapters/nats"
	"github.com/samirrijal/peakview/internal/core/usecases"
	"github.com/samirrijal/peakview/internal/workflows"
)

// VisiblePeaksHandler answers which peaks are visible from the observer in
// the query string and where they land on screen.
func VisiblePeaksHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := parsePeakQuery(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		req, err := in.request()
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		result, err := deps.Peaks.Query(c.UserContext(), req)
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(result)
	}
}

// ViewshedHandler computes a ring-propagation viewshed synchronously.
func ViewshedHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := parseObserverQuery(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		fix, err := in.fix()
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		var fov, radius *float64
		if err := queryFloats(c, map[string]**float64{"fov": &fov, "radius": &radius}); err != nil {
			return errBadRequest(c, err.Error())
		}
		budget := c.QueryInt("budget", 0)
		if budget < 0 {
			return errBadRequest(c, "budget must not be negative")
		}
		if deref(radius) < 0 {
			return errBadRequest(c, "radius must not be negative")
		}

		vs, err := deps.Viewsheds.Compute(c.UserContext(), usecases.ViewshedRequest{
			Location:  usecases.FixedLocation(fix),
			FOV:       deref(fov),
			Radius:    deref(radius),
			Budget:    budget,
			EyeHeight: in.EyeHeight,
		})
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(vs)
	}
}

// viewshedJobRequest is the body of POST /v1/viewshed/jobs.
type viewshedJobRequest struct {
	observerInput
	FOV    float64 `json:"fov"`
	Radius float64 `json:"radius"`
	Budget int     `json:"budget"`
}

// ViewshedJobResponse acknowledges a scheduled viewshed job.
type ViewshedJobResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Subject string `json:"subject"` // NATS subject the result summary is published on
}

// StartViewshedJobHandler schedules a viewshed as a durable background job.
func StartViewshedJobHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Jobs == nil {
			return errUnavailable(c, "viewshed jobs are not enabled")
		}

		var req viewshedJobRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		fix, err := req.fix()
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if req.Radius < 0 || req.Budget < 0 {
			return errBadRequest(c, "radius and budget must not be negative")
		}

		input := workflows.ViewshedInput{
			Lat:       fix.Location.Lat,
			Lon:       fix.Location.Lon,
			Elevation: fix.Elevation,
			Heading:   fix.Heading,
			FOV:       req.FOV,
			Radius:    req.Radius,
			Budget:    req.Budget,
			EyeHeight: req.EyeHeight,
		}
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			input.JobID = "viewshed-" + rid
		}

		jobID, err := deps.Jobs.StartViewshed(c.UserContext(), input)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("start viewshed job", "error", err)
			return errUnavailable(c, "could not schedule viewshed job")
		}

		return c.Status(fiber.StatusAccepted).JSON(ViewshedJobResponse{
			JobID:   jobID,
			Status:  "scheduled",
			Subject: natsadapter.SubjectViewshed,
		})
	}
}
