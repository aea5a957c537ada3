package domain

// Peak is a named summit with a known elevation. Peaks lacking a name or an
// elevation are dropped by the providers and never reach the engine.
type Peak struct {
	ID        string   `json:"id,omitempty"`
	Name      string   `json:"name"`
	Location  GeoPoint `json:"location"`
	Elevation float64  `json:"elevation"`
}

// VisiblePeak is a Peak annotated for a single observer fix. Bearing and
// Distance are measured from the observer; IsVisible is assigned once.
type VisiblePeak struct {
	Peak
	Bearing   float64 `json:"bearing"`
	Distance  float64 `json:"distance"`
	IsVisible bool    `json:"is_visible"`
}

// Observer is the viewpoint of a query.
type Observer struct {
	Location  GeoPoint `json:"location"`
	Elevation float64  `json:"elevation"`  // ground elevation, meters
	Heading   float64  `json:"heading"`    // degrees clockwise from geographic north
	EyeHeight float64  `json:"eye_height"` // meters above ground
}

// EyeElevation is the height of the sightline origin.
func (o Observer) EyeElevation() float64 {
	return o.Elevation + o.EyeHeight
}

// Fix is a single reading from a location source. Elevation is optional; a
// missing value is resolved through the elevation provider.
type Fix struct {
	Location  GeoPoint `json:"location"`
	Elevation *float64 `json:"elevation,omitempty"`
	Heading   float64  `json:"heading"`
}

// SightSample is one elevation-annotated sample. Sightline samples use Index
// and Distance; ring samples use Ring and Slot. Visible is only meaningful for
// ring samples and is written once when the owning ring is resolved.
type SightSample struct {
	Point     GeoPoint `json:"point"`
	Elevation float64  `json:"elevation"`
	Distance  float64  `json:"distance"`
	Index     int      `json:"index"`
	Ring      int      `json:"ring"`
	Slot      int      `json:"slot"`
	Visible   bool     `json:"visible"`
}

// ProjectedPoint is a visible peak placed on screen.
type ProjectedPoint struct {
	VisiblePeak
	BearingOffset float64 `json:"bearing_offset"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
}

// Ring is one resolved ring of a viewshed.
type Ring struct {
	Index   int           `json:"index"`
	Radius  float64       `json:"radius"`
	Samples []SightSample `json:"samples"`
	Visible int           `json:"visible"`
}

// Viewshed is the ring-propagation result over a sector around an observer.
// StoppedAt is the index of the dark ring that ended propagation under the
// stop-on-dark-ring policy, or -1 when no ring stopped it.
type Viewshed struct {
	Observer  Observer `json:"observer"`
	FOV       float64  `json:"fov"`
	Radius    float64  `json:"radius"`
	Rings     []Ring   `json:"rings"`
	StoppedAt int      `json:"stopped_at"`
}
