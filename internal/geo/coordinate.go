// Package geo holds the point and coordinate types shared by the outline
// pipeline together with the flat-plane distance helpers it relies on.
package geo

import "math"

// Valid WGS84 ranges in degrees.
const (
	MinLongitude = -180.0
	MaxLongitude = 180.0
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
)

// PointRecord is a validated, country-tagged station point.
// Longitude and latitude are finite and inside the WGS84 ranges.
type PointRecord struct {
	CountryCode string  `json:"country_code" yaml:"country_code"`
	Longitude   float64 `json:"longitude" yaml:"longitude"`
	Latitude    float64 `json:"latitude" yaml:"latitude"`
}

// Coordinate returns the geometry-only projection of the record.
func (r PointRecord) Coordinate() Coordinate {
	return Coordinate{X: r.Longitude, Y: r.Latitude}
}

// Coordinate is a planar point where X is longitude and Y is latitude.
type Coordinate struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Less reports whether c sorts before o in (X, then Y) order.
// This order picks the path seed and breaks nearest-neighbor ties.
func (c Coordinate) Less(o Coordinate) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	return c.Y < o.Y
}

// InRange reports whether lon/lat are finite and inside WGS84 bounds.
func InRange(lon, lat float64) bool {
	if math.IsNaN(lon) || math.IsInf(lon, 0) || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return false
	}
	return lon >= MinLongitude && lon <= MaxLongitude &&
		lat >= MinLatitude && lat <= MaxLatitude
}

// Smallest returns the index of the smallest coordinate in (X, then Y) order.
// Equal values resolve to the earliest index. It returns -1 for an empty slice.
func Smallest(coords []Coordinate) int {
	if len(coords) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(coords); i++ {
		if coords[i].Less(coords[best]) {
			best = i
		}
	}
	return best
}
