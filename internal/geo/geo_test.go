package geo_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/borderline/internal/geo"
)

func TestCoordinateLess(t *testing.T) {
	cases := []struct {
		name string
		a, b geo.Coordinate
		want bool
	}{
		{"SmallerX", geo.Coordinate{X: 1, Y: 9}, geo.Coordinate{X: 2, Y: 0}, true},
		{"LargerX", geo.Coordinate{X: 3, Y: 0}, geo.Coordinate{X: 2, Y: 9}, false},
		{"SameXSmallerY", geo.Coordinate{X: 2, Y: 1}, geo.Coordinate{X: 2, Y: 2}, true},
		{"Equal", geo.Coordinate{X: 2, Y: 2}, geo.Coordinate{X: 2, Y: 2}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Less(tc.b))
		})
	}
}

func TestSmallest(t *testing.T) {
	assert.Equal(t, -1, geo.Smallest(nil))

	coords := []geo.Coordinate{{X: 1, Y: 1}, {X: 0, Y: 5}, {X: 0, Y: 2}, {X: 0, Y: 2}}
	assert.Equal(t, 2, geo.Smallest(coords), "earliest of equal minima wins")
}

func TestInRange(t *testing.T) {
	assert.True(t, geo.InRange(180, -90))
	assert.True(t, geo.InRange(-180, 90))
	assert.False(t, geo.InRange(180.0001, 0))
	assert.False(t, geo.InRange(0, -90.5))
	assert.False(t, geo.InRange(math.NaN(), 0))
	assert.False(t, geo.InRange(0, math.Inf(1)))
}

func TestPlanarMetersCloseToGeodesicAtCountryScale(t *testing.T) {
	a := geo.Coordinate{X: 10, Y: 47}
	b := geo.Coordinate{X: 10.3, Y: 47.2}

	planar := geo.PlanarMeters(a, b, (a.Y+b.Y)/2)
	geodesic := orbgeo.Distance(orb.Point{a.X, a.Y}, orb.Point{b.X, b.Y})

	assert.InEpsilon(t, geodesic, planar, 0.01)
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, geo.Distance(geo.Coordinate{}, geo.Coordinate{X: 3, Y: 4}), 1e-12)
	assert.InDelta(t, 25.0, geo.DistanceSquared(geo.Coordinate{}, geo.Coordinate{X: 3, Y: 4}), 1e-12)
}

func TestMeanLatitude(t *testing.T) {
	assert.Zero(t, geo.MeanLatitude(nil))
	assert.InDelta(t, 48.0, geo.MeanLatitude([]geo.Coordinate{{Y: 47}, {Y: 49}}), 1e-12)
}

func TestLineStringRoundTrip(t *testing.T) {
	coords := []geo.Coordinate{{X: 10, Y: 47}, {X: 10.1, Y: 47.05}}
	ls := geo.LineString(coords)
	require.Len(t, ls, 2)
	assert.Equal(t, orb.Point{10, 47}, ls[0])
	assert.Equal(t, coords, geo.FromLineString(ls))

	assert.NotNil(t, geo.LineString(nil))
}

func TestPointsFeatureCollection(t *testing.T) {
	fc := geo.PointsFeatureCollection([]geo.PointRecord{
		{CountryCode: "AT", Longitude: 10, Latitude: 47},
		{CountryCode: "DE", Longitude: 13, Latitude: 52},
	})
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "DE", fc.Features[1].Properties["country_code"])

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)
	assert.Contains(t, string(data), `"coordinates":[13,52]`)
}
