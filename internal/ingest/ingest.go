// Package ingest turns raw table rows into validated point records.
//
// Ingest is purely positional: cell 0 is the country code, cell 1 the
// longitude and cell 2 the latitude. Header handling and column projection
// belong to the caller (see ReadCSV). Malformed rows are never returned as
// errors; each one is reported as a Rejection and counted.
package ingest

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/woozymasta/borderline/internal/geo"
)

// RawRow is one row of string cells with no schema guarantee.
type RawRow []string

// Reason classifies why a row was rejected.
type Reason int

const (
	// ReasonArity means the row has fewer than three cells.
	ReasonArity Reason = iota + 1
	// ReasonCountry means the country code cell is blank.
	ReasonCountry
	// ReasonNotNumeric means a coordinate cell does not parse as a number.
	ReasonNotNumeric
	// ReasonNotFinite means a coordinate parsed as NaN or ±Inf.
	ReasonNotFinite
	// ReasonOutOfRange means a coordinate lies outside WGS84 bounds.
	ReasonOutOfRange
)

// String returns a short label used in logs and JSON diagnostics.
func (r Reason) String() string {
	switch r {
	case ReasonArity:
		return "arity"
	case ReasonCountry:
		return "country"
	case ReasonNotNumeric:
		return "not_numeric"
	case ReasonNotFinite:
		return "not_finite"
	case ReasonOutOfRange:
		return "out_of_range"
	default:
		return "unknown"
	}
}

// Rejection records a discarded row by its index in the input.
type Rejection struct {
	Row    int
	Reason Reason
}

// Result pairs the valid records with the rejected rows.
type Result struct {
	Records    []geo.PointRecord
	Rejections []Rejection
}

// Rejected returns the number of discarded rows.
func (r Result) Rejected() int {
	return len(r.Rejections)
}

// Ingest validates rows in order. The output order is the input order
// restricted to valid rows, and len(Records)+Rejected() == len(rows).
func Ingest(rows []RawRow) Result {
	res := Result{Records: make([]geo.PointRecord, 0, len(rows))}

	for i, row := range rows {
		rec, reason := parseRow(row)
		if reason != 0 {
			res.Rejections = append(res.Rejections, Rejection{Row: i, Reason: reason})
			continue
		}
		res.Records = append(res.Records, rec)
	}

	return res
}

// parseRow validates one row, returning a zero Reason on success.
func parseRow(row RawRow) (geo.PointRecord, Reason) {
	if len(row) < 3 {
		return geo.PointRecord{}, ReasonArity
	}

	code := strings.TrimSpace(row[0])
	if code == "" {
		return geo.PointRecord{}, ReasonCountry
	}

	lon, reason := parseCoord(row[1])
	if reason != 0 {
		return geo.PointRecord{}, reason
	}
	lat, reason := parseCoord(row[2])
	if reason != 0 {
		return geo.PointRecord{}, reason
	}

	if !geo.InRange(lon, lat) {
		return geo.PointRecord{}, ReasonOutOfRange
	}

	return geo.PointRecord{CountryCode: code, Longitude: lon, Latitude: lat}, 0
}

// parseCoord parses one coordinate cell. Overflow reported by ParseFloat
// counts as non-finite, like explicit "NaN" or "Inf" cells.
func parseCoord(cell string) (float64, Reason) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, ReasonNotFinite
		}
		return 0, ReasonNotNumeric
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ReasonNotFinite
	}
	return v, 0
}
