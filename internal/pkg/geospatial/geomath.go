package geospatial

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	geo "github.com/paulmach/go.geo"

	"github.com/samirrijal/peakview/internal/core/domain"
)

// EarthRadius is the mean Earth radius in meters.
const EarthRadius = 6371008.8

// Bearing returns the initial compass bearing from one point to another in
// degrees, normalised to [0, 360).
func Bearing(from, to domain.GeoPoint) float64 {
	phi1 := toRad(from.Lat)
	phi2 := toRad(to.Lat)
	dLon := toRad(to.Lon - from.Lon)

	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)

	return NormalizeBearing(toDeg(math.Atan2(y, x)))
}

// NormalizeBearing maps any angle in degrees into [0, 360).
func NormalizeBearing(deg float64) float64 {
	b := math.Mod(deg, 360)
	if b < 0 {
		b += 360
	}
	if b >= 360 {
		b = 0
	}
	return b
}

// AngularDifference returns the signed smallest rotation from a to b in
// degrees, in (-180, 180]. Positive is clockwise.
func AngularDifference(a, b float64) float64 {
	d := NormalizeBearing(b - a)
	if d > 180 {
		d -= 360
	}
	return d
}

// PlanarDistance approximates the distance in meters between two points with
// an equirectangular projection scaled by the cosine of the mean latitude.
func PlanarDistance(a, b domain.GeoPoint) float64 {
	meanLat := toRad((a.Lat + b.Lat) / 2)
	x := toRad(b.Lon-a.Lon) * math.Cos(meanLat)
	y := toRad(b.Lat - a.Lat)
	return math.Hypot(x, y) * EarthRadius
}

// GreatCircleDistance calculates the great-circle distance in meters between two points.
func GreatCircleDistance(a, b domain.GeoPoint) float64 {
	ll1 := s2.LatLngFromDegrees(a.Lat, a.Lon)
	ll2 := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return ll1.Distance(ll2).Radians() * EarthRadius
}

// Destination returns the point reached by travelling meters along a great
// circle that leaves origin on the given initial bearing. Bearing(origin,
// Destination(origin, b, d)) is b.
func Destination(origin domain.GeoPoint, bearing, meters float64) domain.GeoPoint {
	delta := meters / EarthRadius
	theta := toRad(bearing)
	phi1 := toRad(origin.Lat)
	lambda1 := toRad(origin.Lon)

	sinPhi2 := math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta)
	phi2 := math.Asin(math.Max(-1, math.Min(1, sinPhi2)))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*sinPhi2,
	)

	ll := s2.LatLng{Lat: s1.Angle(phi2), Lng: s1.Angle(lambda2)}.Normalized()
	return domain.GeoPoint{Lat: ll.Lat.Degrees(), Lon: ll.Lng.Degrees()}
}

// ToLocal projects p onto the tangent plane at origin. The returned point has
// X pointing east and Y pointing north, both in meters.
func ToLocal(origin, p domain.GeoPoint) *geo.Point {
	x := toRad(p.Lon-origin.Lon) * math.Cos(toRad(origin.Lat)) * EarthRadius
	y := toRad(p.Lat-origin.Lat) * EarthRadius
	return geo.NewPoint(x, y)
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
func BoundingBox(center domain.GeoPoint, radiusMeters float64) domain.Bounds {
	latDelta := toDeg(radiusMeters / EarthRadius)
	lonDelta := latDelta / math.Cos(toRad(center.Lat))

	return domain.Bounds{
		MinLat: center.Lat - latDelta,
		MinLon: center.Lon - lonDelta,
		MaxLat: center.Lat + latDelta,
		MaxLon: center.Lon + lonDelta,
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
