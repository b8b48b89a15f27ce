// Package country selects the coordinates of one country from ingested records.
package country

import (
	"sort"
	"strings"

	"github.com/woozymasta/borderline/internal/geo"
)

// Normalize returns the canonical form of a country code: trimmed, upper case.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Filter returns the coordinates of every record whose code equals target
// after normalization. Matching is exact; "A" never matches "AT".
// Input order is kept. An empty result is valid and means "no data".
func Filter(records []geo.PointRecord, target string) []geo.Coordinate {
	want := Normalize(target)
	if want == "" {
		return []geo.Coordinate{}
	}

	out := make([]geo.Coordinate, 0)
	for _, r := range records {
		if Normalize(r.CountryCode) == want {
			out = append(out, r.Coordinate())
		}
	}

	return out
}

// Summary is the number of records carrying one country code.
type Summary struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// Count groups records by normalized code, sorted by code.
func Count(records []geo.PointRecord) []Summary {
	counts := make(map[string]int)
	for _, r := range records {
		counts[Normalize(r.CountryCode)]++
	}

	out := make([]Summary, 0, len(counts))
	for code, n := range counts {
		out = append(out, Summary{Code: code, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })

	return out
}
