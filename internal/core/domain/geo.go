package domain

// GeoPoint represents a geographic coordinate (WGS 84) in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// TerrainPoint is a GeoPoint with ground elevation in meters above sea level.
// Elevation stays nil until the elevation provider (or interpolation) resolves it.
type TerrainPoint struct {
	GeoPoint
	Elevation *float64 `json:"elevation,omitempty"`
}

// Resolved reports whether the elevation of the point is known.
func (t TerrainPoint) Resolved() bool {
	return t.Elevation != nil
}

// Meters returns a pointer to v, for filling optional elevations.
func Meters(v float64) *float64 {
	return &v
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}
