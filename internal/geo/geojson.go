package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LineString converts an ordered coordinate sequence into an orb line string.
// The result is never nil, so an empty path encodes as "coordinates": [].
func LineString(coords []Coordinate) orb.LineString {
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		ls = append(ls, c.Point())
	}
	return ls
}

// FromLineString converts an orb line string back into coordinates.
func FromLineString(ls orb.LineString) []Coordinate {
	coords := make([]Coordinate, 0, len(ls))
	for _, p := range ls {
		coords = append(coords, FromPoint(p))
	}
	return coords
}

// PointsFeatureCollection builds a GeoJSON collection with one Point feature
// per station, tagged with its country code.
func PointsFeatureCollection(records []PointRecord) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = make([]*geojson.Feature, 0, len(records))

	for _, r := range records {
		f := geojson.NewFeature(r.Coordinate().Point())
		f.Properties["country_code"] = r.CountryCode
		fc.Append(f)
	}

	return fc
}
