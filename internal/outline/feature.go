package outline

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"

	"github.com/woozymasta/borderline/internal/geo"
)

// LineString returns the artifact path as an orb line string.
func (a Artifact) LineString() orb.LineString {
	return geo.LineString(a.Path)
}

// Simplified returns the path thinned with Douglas-Peucker at tolerance
// degrees. The artifact itself is left untouched; this is for display only.
// Paths under three points and non-positive tolerances are returned as is.
func (a Artifact) Simplified(tolerance float64) orb.LineString {
	ls := a.LineString()
	if tolerance <= 0 || len(ls) < 3 {
		return ls
	}

	out, ok := simplify.DouglasPeucker(tolerance).Simplify(ls.Clone()).(orb.LineString)
	if !ok {
		return ls
	}
	return out
}

// Feature builds a GeoJSON LineString feature carrying the diagnostics as
// properties. tolerance > 0 simplifies the drawn line; points always reports
// the unsimplified vertex count.
func (a Artifact) Feature(tolerance float64) *geojson.Feature {
	f := geojson.NewFeature(a.Simplified(tolerance))
	f.Properties["country_code"] = a.CountryCode
	f.Properties["points"] = a.Points()
	f.Properties["dropped_records"] = a.DroppedRecords
	f.Properties["is_degenerate"] = a.IsDegenerate
	if a.ClosureGapMeters != nil {
		f.Properties["closure_gap_m"] = *a.ClosureGapMeters
	} else {
		f.Properties["closure_gap_m"] = nil
	}
	return f
}
