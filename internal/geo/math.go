package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// EarthRadius is the WGS84 equatorial radius in meters.
const EarthRadius = 6378137.0

// MetersPerDegree is the length of one degree of arc on the equator.
const MetersPerDegree = 2 * math.Pi * EarthRadius / 360.0

// Distance returns the planar Euclidean distance between a and b in degrees.
//
// Longitude and latitude are treated as a flat plane. This is an approximation
// that holds at the scale of one country's border and is not a geodesic distance.
func Distance(a, b Coordinate) float64 {
	return planar.Distance(a.Point(), b.Point())
}

// DistanceSquared is Distance without the square root.
func DistanceSquared(a, b Coordinate) float64 {
	return planar.DistanceSquared(a.Point(), b.Point())
}

// PlanarMeters converts the planar offset between a and b to meters using a
// fixed degrees-to-meters factor, with the longitude axis shrunk by
// cos(refLat). refLat is in degrees.
func PlanarMeters(a, b Coordinate, refLat float64) float64 {
	kx := MetersPerDegree * math.Cos(refLat*math.Pi/180.0)
	dx := (b.X - a.X) * kx
	dy := (b.Y - a.Y) * MetersPerDegree
	return math.Hypot(dx, dy)
}

// MeanLatitude returns the arithmetic mean of Y over coords, 0 when empty.
func MeanLatitude(coords []Coordinate) float64 {
	if len(coords) == 0 {
		return 0
	}
	var sum float64
	for _, c := range coords {
		sum += c.Y
	}
	return sum / float64(len(coords))
}

// Point converts c to an orb point ([lon, lat]).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.X, c.Y}
}

// FromPoint converts an orb point to a Coordinate.
func FromPoint(p orb.Point) Coordinate {
	return Coordinate{X: p.Lon(), Y: p.Lat()}
}
