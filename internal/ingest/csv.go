package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// Columns maps source table positions to the ingest layout.
type Columns struct {
	Country   int `yaml:"country" toml:"country" json:"country"`
	Longitude int `yaml:"longitude" toml:"longitude" json:"longitude"`
	Latitude  int `yaml:"latitude" toml:"latitude" json:"latitude"`
}

// DefaultColumns matches the station export layout: id, country, lon, lat.
func DefaultColumns() Columns {
	return Columns{Country: 1, Longitude: 2, Latitude: 3}
}

// CSVOptions controls how ReadCSV turns a table into RawRows.
type CSVOptions struct {
	Columns    Columns
	Comma      rune
	SkipHeader bool
}

// DefaultCSVOptions returns comma separated input with a header line.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Columns: DefaultColumns(), Comma: ',', SkipHeader: true}
}

// ErrColumns is returned when a column position is negative.
var ErrColumns = errors.New("ingest: negative column position")

// ReadCSV reads a whole table and projects every row onto
// (country, longitude, latitude). A row too short for the projection is
// truncated before the first missing cell so Ingest rejects it on arity
// instead of dropping it here.
//
// Errors are returned only for unreadable input; malformed data rows are
// left for Ingest to count.
func ReadCSV(r io.Reader, opts CSVOptions) ([]RawRow, error) {
	cols := opts.Columns
	if cols.Country < 0 || cols.Longitude < 0 || cols.Latitude < 0 {
		return nil, ErrColumns
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}

	var rows []RawRow
	for line := 0; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line+1, err)
		}
		if line == 0 && opts.SkipHeader {
			continue
		}
		rows = append(rows, project(rec, cols))
	}

	return rows, nil
}

// project copies the mapped cells out of rec.
func project(rec []string, cols Columns) RawRow {
	positions := [3]int{cols.Country, cols.Longitude, cols.Latitude}
	row := make(RawRow, 0, len(positions))
	for _, p := range positions {
		if p >= len(rec) {
			break
		}
		row = append(row, rec[p])
	}
	return row
}
