// Package spatial provides nearest-neighbor indexes over a set of unvisited
// coordinates.
//
// Distances are planar Euclidean over (longitude, latitude) treated as a
// flat plane (see geo.Distance). This approximation is fine at the scale of
// a single country and is not a geodesic distance.
//
// Ties: when two or more unvisited coordinates lie within Options.TieEpsilon
// of the minimum distance, the one that is smallest in (X, then Y) order is
// returned. Identical values resolve by the smaller Item.ID. Both index
// implementations share this rule and return the same Item for the same
// sequence of queries.
//
// An index is owned by a single caller and is not safe for concurrent use.
// Build a fresh one per run.
package spatial

import (
	"iter"
	"math"

	"github.com/woozymasta/borderline/internal/geo"
)

// Defaults used when Options fields are left at zero.
const (
	DefaultLinearThreshold = 64
	DefaultTieEpsilon      = 1e-9
)

// Item is one indexed coordinate. ID identifies the node, so equal
// coordinate values from distinct records stay distinct.
type Item struct {
	ID         int
	Coordinate geo.Coordinate
}

// Index is the set of unvisited coordinates.
type Index interface {
	// Nearest returns the closest remaining item to from, or false when empty.
	Nearest(from geo.Coordinate) (Item, bool)
	// Remove drops the item with the given ID and reports whether it was present.
	Remove(id int) bool
	// Len returns the number of remaining items.
	Len() int
	// IsEmpty reports whether no items remain.
	IsEmpty() bool
}

// Options tunes index selection and tie handling.
type Options struct {
	// LinearThreshold is the largest size served by a linear scan.
	// Zero or negative selects DefaultLinearThreshold.
	LinearThreshold int
	// TieEpsilon is the distance tolerance, in degrees, for equal neighbors.
	TieEpsilon float64
}

// DefaultOptions returns LinearThreshold=64 and TieEpsilon=1e-9.
func DefaultOptions() Options {
	return Options{LinearThreshold: DefaultLinearThreshold, TieEpsilon: DefaultTieEpsilon}
}

// normalized replaces unusable values with defaults.
func (o Options) normalized() Options {
	if o.LinearThreshold <= 0 {
		o.LinearThreshold = DefaultLinearThreshold
	}
	if o.TieEpsilon <= 0 || math.IsNaN(o.TieEpsilon) || math.IsInf(o.TieEpsilon, 0) {
		o.TieEpsilon = DefaultTieEpsilon
	}
	return o
}

// Items numbers coords by position.
func Items(coords []geo.Coordinate) []Item {
	items := make([]Item, len(coords))
	for i, c := range coords {
		items[i] = Item{ID: i, Coordinate: c}
	}
	return items
}

// Build returns a linear index for up to opts.LinearThreshold items and an
// R-tree above it. IDs must be unique.
func Build(items []Item, opts Options) Index {
	opts = opts.normalized()
	if len(items) <= opts.LinearThreshold {
		return NewLinear(items, opts.TieEpsilon)
	}
	return NewRTree(items, opts.TieEpsilon)
}

// choose applies the nearest/tie rule to a candidate set. It walks the
// candidates twice: once for the minimum distance, once to pick the
// smallest coordinate within eps of it.
func choose(from geo.Coordinate, candidates iter.Seq[Item], eps float64) (Item, bool) {
	best := math.Inf(1)
	for it := range candidates {
		if d := geo.Distance(from, it.Coordinate); d < best {
			best = d
		}
	}
	if math.IsInf(best, 1) {
		return Item{}, false
	}

	var (
		pick  Item
		found bool
	)
	limit := best + eps
	for it := range candidates {
		if geo.Distance(from, it.Coordinate) > limit {
			continue
		}
		if !found || before(it, pick) {
			pick, found = it, true
		}
	}

	return pick, found
}

// before orders items by coordinate, then by ID.
func before(a, b Item) bool {
	if a.Coordinate != b.Coordinate {
		return a.Coordinate.Less(b.Coordinate)
	}
	return a.ID < b.ID
}
