// Package path orders an unordered set of boundary coordinates into an
// outline by greedy nearest-neighbor chaining.
//
// Algorithm:
//  1. Empty input yields an empty path.
//  2. The seed is the smallest coordinate in (X, then Y) order, so the start
//     does not depend on input order.
//  3. All other coordinates go into a fresh spatial.Index.
//  4. The chain repeatedly moves to the nearest unvisited coordinate,
//     with ties broken by the same (X, then Y) order, until the index is empty.
//  5. The gap between the first and last vertex is reported in meters. The
//     path is never closed.
//  6. The outline is flagged degenerate when it has fewer than three points
//     or when too many segments are much longer than the median segment.
//
// The chain is a heuristic and makes no optimality claim. Reconstruct never
// fails: every abnormal input is described by the returned Result.
//
// Complexity: O(n log n + Σk) with the R-tree index, where k is the number of
// candidates inside each tie box; O(n²) below the linear fallback threshold.
package path

import (
	"math"
	"sort"

	"github.com/woozymasta/borderline/internal/geo"
	"github.com/woozymasta/borderline/internal/spatial"
)

// Defaults for Options.
const (
	DefaultOutlierMultiple    = 5.0
	DefaultDegenerateFraction = 0.2
	// MinOutlinePoints is the smallest path that is not degenerate by size.
	MinOutlinePoints = 3
)

// Options tunes the degeneracy check and the underlying index.
// Zero, negative or non-finite fields are replaced by defaults.
type Options struct {
	// OutlierMultiple marks a segment as an outlier when it is longer than
	// this multiple of the median segment length.
	OutlierMultiple float64 `yaml:"outlier_multiple" toml:"outlier_multiple" json:"outlier_multiple"`
	// DegenerateFraction is the share of outlier segments above which the
	// outline is degenerate.
	DegenerateFraction float64 `yaml:"degenerate_fraction" toml:"degenerate_fraction" json:"degenerate_fraction"`
	// LinearFallbackThreshold is the largest point count indexed by linear scan.
	LinearFallbackThreshold int `yaml:"linear_fallback_threshold" toml:"linear_fallback_threshold" json:"linear_fallback_threshold"`
	// TieEpsilon is the distance tolerance in degrees for equal neighbors.
	TieEpsilon float64 `yaml:"tie_epsilon" toml:"tie_epsilon" json:"tie_epsilon"`
}

// DefaultOptions returns multiple 5, fraction 0.2, threshold 64, epsilon 1e-9.
func DefaultOptions() Options {
	return Options{
		OutlierMultiple:         DefaultOutlierMultiple,
		DegenerateFraction:      DefaultDegenerateFraction,
		LinearFallbackThreshold: spatial.DefaultLinearThreshold,
		TieEpsilon:              spatial.DefaultTieEpsilon,
	}
}

// Normalized returns o with unusable fields replaced by defaults.
func (o Options) Normalized() Options {
	d := DefaultOptions()
	if !positive(o.OutlierMultiple) {
		o.OutlierMultiple = d.OutlierMultiple
	}
	if !positive(o.DegenerateFraction) {
		o.DegenerateFraction = d.DegenerateFraction
	}
	if o.LinearFallbackThreshold <= 0 {
		o.LinearFallbackThreshold = d.LinearFallbackThreshold
	}
	if !positive(o.TieEpsilon) {
		o.TieEpsilon = d.TieEpsilon
	}
	return o
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Result is the ordered path plus its quality diagnostics.
type Result struct {
	// Path is the visiting order. It is a permutation of the input.
	Path []geo.Coordinate
	// ClosureGapMeters is the first-to-last distance, nil for an empty path.
	ClosureGapMeters *float64
	// IsDegenerate flags a path too short or too erratic to trust.
	IsDegenerate bool
	// MedianSegment is the median consecutive-segment length in degrees.
	MedianSegment float64
	// OutlierSegments counts segments longer than OutlierMultiple×MedianSegment.
	OutlierSegments int
}

// Reconstruct orders coords into a path. coords is not modified.
func Reconstruct(coords []geo.Coordinate, opts Options) Result {
	opts = opts.Normalized()

	if len(coords) == 0 {
		return Result{Path: []geo.Coordinate{}, IsDegenerate: true}
	}

	seed := geo.Smallest(coords)

	rest := make([]spatial.Item, 0, len(coords)-1)
	for i, c := range coords {
		if i == seed {
			continue
		}
		rest = append(rest, spatial.Item{ID: i, Coordinate: c})
	}
	idx := spatial.Build(rest, spatial.Options{
		LinearThreshold: opts.LinearFallbackThreshold,
		TieEpsilon:      opts.TieEpsilon,
	})

	ordered := make([]geo.Coordinate, 0, len(coords))
	current := coords[seed]
	ordered = append(ordered, current)

	for {
		next, ok := idx.Nearest(current)
		if !ok {
			break
		}
		idx.Remove(next.ID)
		ordered = append(ordered, next.Coordinate)
		current = next.Coordinate
	}

	res := Result{Path: ordered}
	gap := ClosureGap(ordered)
	res.ClosureGapMeters = &gap
	res.MedianSegment, res.OutlierSegments = segmentStats(ordered, opts.OutlierMultiple)
	res.IsDegenerate = degenerate(len(ordered), res.OutlierSegments, opts.DegenerateFraction)

	return res
}

// ClosureGap returns the distance in meters between the first and last
// vertex of path, using the planar offset scaled at the path's mean latitude.
// It returns 0 for paths shorter than two points.
func ClosureGap(path []geo.Coordinate) float64 {
	if len(path) < 2 {
		return 0
	}
	return geo.PlanarMeters(path[0], path[len(path)-1], geo.MeanLatitude(path))
}

// SegmentLengths returns the planar length of every consecutive segment.
func SegmentLengths(path []geo.Coordinate) []float64 {
	if len(path) < 2 {
		return nil
	}
	out := make([]float64, len(path)-1)
	for i := 1; i < len(path); i++ {
		out[i-1] = geo.Distance(path[i-1], path[i])
	}
	return out
}

// segmentStats returns the median segment length and the outlier count.
func segmentStats(path []geo.Coordinate, multiple float64) (float64, int) {
	lengths := SegmentLengths(path)
	if len(lengths) == 0 {
		return 0, 0
	}

	median := Median(lengths)
	limit := median * multiple

	outliers := 0
	for _, l := range lengths {
		if l > limit {
			outliers++
		}
	}
	return median, outliers
}

func degenerate(points, outliers int, fraction float64) bool {
	if points < MinOutlinePoints {
		return true
	}
	return float64(outliers)/float64(points-1) > fraction
}

// Median returns the median of values without reordering them.
// It returns 0 for an empty slice.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
