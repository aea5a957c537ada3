package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/peakview/internal/core/domain"
	"github.com/samirrijal/peakview/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	observerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Observer",
		Fields: graphql.Fields{
			"location":   &graphql.Field{Type: geoPointType},
			"elevation":  &graphql.Field{Type: graphql.Float},
			"heading":    &graphql.Field{Type: graphql.Float},
			"eye_height": &graphql.Field{Type: graphql.Float},
		},
	})

	peakType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Peak",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"location":   &graphql.Field{Type: geoPointType},
			"elevation":  &graphql.Field{Type: graphql.Float},
			"bearing":    &graphql.Field{Type: graphql.Float},
			"distance":   &graphql.Field{Type: graphql.Float},
			"is_visible": &graphql.Field{Type: graphql.Boolean},
		},
	})

	projectedType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProjectedPeak",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"name":           &graphql.Field{Type: graphql.String},
			"location":       &graphql.Field{Type: geoPointType},
			"elevation":      &graphql.Field{Type: graphql.Float},
			"bearing":        &graphql.Field{Type: graphql.Float},
			"distance":       &graphql.Field{Type: graphql.Float},
			"bearing_offset": &graphql.Field{Type: graphql.Float},
			"x":              &graphql.Field{Type: graphql.Float},
			"y":              &graphql.Field{Type: graphql.Float},
		},
	})

	peakQueryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PeakQuery",
		Fields: graphql.Fields{
			"observer":  &graphql.Field{Type: observerType},
			"strategy":  &graphql.Field{Type: graphql.String},
			"radius":    &graphql.Field{Type: graphql.Float},
			"peaks":     &graphql.Field{Type: graphql.NewList(peakType)},
			"projected": &graphql.Field{Type: graphql.NewList(projectedType)},
		},
	})

	sampleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RingSample",
		Fields: graphql.Fields{
			"location":  &graphql.Field{Type: geoPointType},
			"elevation": &graphql.Field{Type: graphql.Float},
			"distance":  &graphql.Field{Type: graphql.Float},
			"slot":      &graphql.Field{Type: graphql.Int},
			"visible":   &graphql.Field{Type: graphql.Boolean},
		},
	})

	ringType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Ring",
		Fields: graphql.Fields{
			"index":   &graphql.Field{Type: graphql.Int},
			"radius":  &graphql.Field{Type: graphql.Float},
			"visible": &graphql.Field{Type: graphql.Int},
			"samples": &graphql.Field{Type: graphql.NewList(sampleType)},
		},
	})

	viewshedType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Viewshed",
		Fields: graphql.Fields{
			"observer":   &graphql.Field{Type: observerType},
			"fov":        &graphql.Field{Type: graphql.Float},
			"radius":     &graphql.Field{Type: graphql.Float},
			"stopped_at": &graphql.Field{Type: graphql.Int},
			"rings":      &graphql.Field{Type: graphql.NewList(ringType)},
		},
	})

	observerArgs := func(extra graphql.FieldConfigArgument) graphql.FieldConfigArgument {
		args := graphql.FieldConfigArgument{
			"lat":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lon":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
			"elevation":  &graphql.ArgumentConfig{Type: graphql.Float},
			"heading":    &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
			"eye_height": &graphql.ArgumentConfig{Type: graphql.Float},
			"fov":        &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
			"radius":     &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
		}
		for k, v := range extra {
			args[k] = v
		}
		return args
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"visiblePeaks": &graphql.Field{
				Type:        peakQueryType,
				Description: "Peaks around an observer with their visibility and screen placement",
				Args: observerArgs(graphql.FieldConfigArgument{
					"strategy":     &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"vertical_fov": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
					"width":        &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
					"height":       &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				}),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					in := peakQueryInput{
						observerInput: observerFromArgs(p.Args),
						cameraInput: cameraInput{
							FOV:         p.Args["fov"].(float64),
							VerticalFOV: p.Args["vertical_fov"].(float64),
							Width:       p.Args["width"].(float64),
							Height:      p.Args["height"].(float64),
						},
						Radius:   p.Args["radius"].(float64),
						Strategy: p.Args["strategy"].(string),
					}
					req, err := in.request()
					if err != nil {
						return nil, err
					}
					result, err := deps.Peaks.Query(p.Context, req)
					if err != nil {
						return nil, err
					}
					return peakQueryToMap(result), nil
				},
			},
			"viewshed": &graphql.Field{
				Type:        viewshedType,
				Description: "Ring-propagation visibility map around an observer",
				Args: observerArgs(graphql.FieldConfigArgument{
					"budget": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				}),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					in := observerFromArgs(p.Args)
					fix, err := in.fix()
					if err != nil {
						return nil, err
					}
					vs, err := deps.Viewsheds.Compute(p.Context, usecases.ViewshedRequest{
						Location:  usecases.FixedLocation(fix),
						FOV:       p.Args["fov"].(float64),
						Radius:    p.Args["radius"].(float64),
						Budget:    p.Args["budget"].(int),
						EyeHeight: in.EyeHeight,
					})
					if err != nil {
						return nil, err
					}
					return viewshedToMap(vs), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func observerFromArgs(args map[string]interface{}) observerInput {
	in := observerInput{Heading: args["heading"].(float64)}
	lat := args["lat"].(float64)
	lon := args["lon"].(float64)
	in.Lat, in.Lon = &lat, &lon
	if v, ok := args["elevation"].(float64); ok {
		in.Elevation = &v
	}
	if v, ok := args["eye_height"].(float64); ok {
		in.EyeHeight = &v
	}
	return in
}

func observerToMap(o domain.Observer) map[string]interface{} {
	return map[string]interface{}{
		"location":   o.Location,
		"elevation":  o.Elevation,
		"heading":    o.Heading,
		"eye_height": o.EyeHeight,
	}
}

func peakToMap(p domain.VisiblePeak) map[string]interface{} {
	return map[string]interface{}{
		"id":         p.ID,
		"name":       p.Name,
		"location":   p.Location,
		"elevation":  p.Elevation,
		"bearing":    p.Bearing,
		"distance":   p.Distance,
		"is_visible": p.IsVisible,
	}
}

func peakQueryToMap(r *usecases.QueryResult) map[string]interface{} {
	peaks := make([]map[string]interface{}, 0, len(r.Peaks))
	for _, p := range r.Peaks {
		peaks = append(peaks, peakToMap(p))
	}
	projected := make([]map[string]interface{}, 0, len(r.Projected))
	for _, p := range r.Projected {
		m := peakToMap(p.VisiblePeak)
		m["bearing_offset"] = p.BearingOffset
		m["x"] = p.X
		m["y"] = p.Y
		projected = append(projected, m)
	}
	return map[string]interface{}{
		"observer":  observerToMap(r.Observer),
		"strategy":  r.Strategy,
		"radius":    r.Radius,
		"peaks":     peaks,
		"projected": projected,
	}
}

func viewshedToMap(vs *domain.Viewshed) map[string]interface{} {
	rings := make([]map[string]interface{}, 0, len(vs.Rings))
	for _, r := range vs.Rings {
		samples := make([]map[string]interface{}, 0, len(r.Samples))
		for _, s := range r.Samples {
			samples = append(samples, map[string]interface{}{
				"location":  s.Point,
				"elevation": s.Elevation,
				"distance":  s.Distance,
				"slot":      s.Slot,
				"visible":   s.Visible,
			})
		}
		rings = append(rings, map[string]interface{}{
			"index":   r.Index,
			"radius":  r.Radius,
			"visible": r.Visible,
			"samples": samples,
		})
	}
	return map[string]interface{}{
		"observer":   observerToMap(vs.Observer),
		"fov":        vs.FOV,
		"radius":     vs.Radius,
		"stopped_at": vs.StoppedAt,
		"rings":      rings,
	}
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
