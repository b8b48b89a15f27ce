// Package outline packages a reconstructed path into the artifact handed to
// rendering collaborators, and wires the full ingest → filter → reconstruct
// pipeline behind Build.
package outline

import (
	"github.com/woozymasta/borderline/internal/country"
	"github.com/woozymasta/borderline/internal/geo"
	"github.com/woozymasta/borderline/internal/ingest"
	"github.com/woozymasta/borderline/internal/path"
)

// Artifact is the immutable result of one reconstruction.
type Artifact struct {
	CountryCode      string           `json:"country_code"`
	Path             []geo.Coordinate `json:"path"`
	DroppedRecords   int              `json:"dropped_records"`
	ClosureGapMeters *float64         `json:"closure_gap_m"`
	IsDegenerate     bool             `json:"is_degenerate"`
}

// Points returns the number of vertices in the path.
func (a Artifact) Points() int { return len(a.Path) }

// Empty reports the "no data" condition: no records matched the country.
func (a Artifact) Empty() bool { return len(a.Path) == 0 }

// Options is the configuration surface of the pipeline.
type Options struct {
	Path path.Options `yaml:"path" toml:"path" json:"path"`
	// SimplifyTolerance, in degrees, thins the line drawn from an artifact.
	// Zero disables it.
	SimplifyTolerance float64 `yaml:"simplify_tolerance" toml:"simplify_tolerance" json:"simplify_tolerance"`
}

// DefaultOptions returns path.DefaultOptions and no simplification.
func DefaultOptions() Options {
	return Options{Path: path.DefaultOptions()}
}

// Assemble packages res with the dropped-record count. The path is copied so
// the artifact never aliases caller memory.
func Assemble(res path.Result, dropped int) Artifact {
	a := Artifact{
		Path:           append([]geo.Coordinate{}, res.Path...),
		DroppedRecords: dropped,
		IsDegenerate:   res.IsDegenerate,
	}
	if res.ClosureGapMeters != nil {
		gap := *res.ClosureGapMeters
		a.ClosureGapMeters = &gap
	}
	if len(a.Path) < path.MinOutlinePoints {
		a.IsDegenerate = true
	}
	return a
}

// Build runs the whole pipeline for one country over raw rows. It never
// fails; empty or malformed input yields an empty, degenerate artifact.
func Build(rows []ingest.RawRow, code string, opts Options) Artifact {
	in := ingest.Ingest(rows)
	return FromRecords(in.Records, in.Rejected(), code, opts)
}

// FromRecords runs filter → reconstruct → assemble over already ingested
// records, so one ingest pass can serve many countries.
func FromRecords(records []geo.PointRecord, dropped int, code string, opts Options) Artifact {
	coords := country.Filter(records, code)
	a := Assemble(path.Reconstruct(coords, opts.Path), dropped)
	a.CountryCode = country.Normalize(code)
	return a
}
