package http

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/core/projection"
	"github.com/samirrijal/peakview/internal/core/usecases"
	"github.com/samirrijal/peakview/internal/pkg/geospatial"
)

// observerInput is an observer fix as sent by clients, either as query
// parameters or as JSON (jobs, WebSocket).
type observerInput struct {
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Elevation *float64 `json:"elevation,omitempty"`
	Heading   float64  `json:"heading"`
	EyeHeight *float64 `json:"eye_height,omitempty"`
}

func (in observerInput) fix() (domain.Fix, error) {
	if in.Lat == nil || in.Lon == nil {
		return domain.Fix{}, errors.New("lat and lon are required")
	}
	if *in.Lat < -90 || *in.Lat > 90 {
		return domain.Fix{}, errors.New("lat must be between -90 and 90")
	}
	if *in.Lon < -180 || *in.Lon > 180 {
		return domain.Fix{}, errors.New("lon must be between -180 and 180")
	}
	if in.EyeHeight != nil && *in.EyeHeight < 0 {
		return domain.Fix{}, errors.New("eye_height must not be negative")
	}
	return domain.Fix{
		Location:  domain.GeoPoint{Lat: *in.Lat, Lon: *in.Lon},
		Elevation: in.Elevation,
		Heading:   geospatial.NormalizeBearing(in.Heading),
	}, nil
}

// cameraInput carries the optional camera overrides of a peaks query.
type cameraInput struct {
	FOV         float64 `json:"fov,omitempty"`
	VerticalFOV float64 `json:"vertical_fov,omitempty"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
}

func (in cameraInput) camera() (projection.Camera, error) {
	if in.FOV < 0 || in.FOV > 360 {
		return projection.Camera{}, errors.New("fov must be between 0 and 360")
	}
	if in.VerticalFOV < 0 || in.VerticalFOV >= 180 {
		return projection.Camera{}, errors.New("vertical_fov must be between 0 and 180")
	}
	if in.Width < 0 || in.Height < 0 {
		return projection.Camera{}, errors.New("width and height must not be negative")
	}
	return projection.Camera{
		FOV:         in.FOV,
		VerticalFOV: in.VerticalFOV,
		Width:       in.Width,
		Height:      in.Height,
	}, nil
}

// peakQueryInput is a complete visible-peaks query.
type peakQueryInput struct {
	observerInput
	cameraInput
	Radius   float64 `json:"radius,omitempty"`
	Strategy string  `json:"strategy,omitempty"`
}

func (in peakQueryInput) request() (usecases.QueryRequest, error) {
	fix, err := in.fix()
	if err != nil {
		return usecases.QueryRequest{}, err
	}
	camera, err := in.camera()
	if err != nil {
		return usecases.QueryRequest{}, err
	}
	if in.Radius < 0 {
		return usecases.QueryRequest{}, errors.New("radius must not be negative")
	}
	return usecases.QueryRequest{
		Location:  usecases.FixedLocation(fix),
		Radius:    in.Radius,
		EyeHeight: in.EyeHeight,
		Strategy:  in.Strategy,
		Camera:    camera,
	}, nil
}

// queryFloat parses an optional numeric query parameter. It returns nil when
// the parameter is absent.
func queryFloat(c *fiber.Ctx, name string) (*float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &v, nil
}

// queryFloats fills each target from the query parameter of the same key.
// Absent parameters leave the target untouched.
func queryFloats(c *fiber.Ctx, targets map[string]**float64) error {
	for name, target := range targets {
		v, err := queryFloat(c, name)
		if err != nil {
			return err
		}
		if v != nil {
			*target = v
		}
	}
	return nil
}

func parseObserverQuery(c *fiber.Ctx) (observerInput, error) {
	var in observerInput
	var heading *float64
	err := queryFloats(c, map[string]**float64{
		"lat":        &in.Lat,
		"lon":        &in.Lon,
		"elevation":  &in.Elevation,
		"heading":    &heading,
		"eye_height": &in.EyeHeight,
	})
	if heading != nil {
		in.Heading = *heading
	}
	return in, err
}

func parsePeakQuery(c *fiber.Ctx) (peakQueryInput, error) {
	observer, err := parseObserverQuery(c)
	if err != nil {
		return peakQueryInput{}, err
	}
	in := peakQueryInput{observerInput: observer, Strategy: c.Query("strategy")}

	var fov, vfov, width, height, radius *float64
	if err := queryFloats(c, map[string]**float64{
		"fov":          &fov,
		"vertical_fov": &vfov,
		"width":        &width,
		"height":       &height,
		"radius":       &radius,
	}); err != nil {
		return peakQueryInput{}, err
	}
	in.FOV = deref(fov)
	in.VerticalFOV = deref(vfov)
	in.Width = deref(width)
	in.Height = deref(height)
	in.Radius = deref(radius)
	return in, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
