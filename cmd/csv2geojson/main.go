package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/woozymasta/borderline/internal/geo"
	"github.com/woozymasta/borderline/internal/ingest"
	"github.com/woozymasta/borderline/internal/outline"
	"github.com/woozymasta/borderline/internal/processor"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Input     string  `short:"i" long:"in" description:"Input CSV path. Reads from stdin if empty"`
	Output    string  `short:"o" long:"out" description:"Output file path. Writes to stdout if empty"`
	Format    string  `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Country   string  `short:"C" long:"country" description:"Emit the reconstructed outline of this country instead of all points"`
	Delimiter string  `short:"d" long:"delimiter" description:"Field delimiter" default:","`
	NoHeader  bool    `long:"no-header" description:"Input has no header line"`
	Minify    bool    `short:"m" long:"minify" description:"Minify JSON output"`
	Simplify  float64 `short:"s" long:"simplify" description:"Douglas-Peucker tolerance in degrees for the outline line"`
	ColCode   int     `long:"col-country" description:"Country code column (0-based)" default:"1"`
	ColLon    int     `long:"col-lon" description:"Longitude column (0-based)" default:"2"`
	ColLat    int     `long:"col-lat" description:"Latitude column (0-based)" default:"3"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	comma := []rune(opts.Delimiter)
	if len(comma) != 1 {
		fmt.Fprintln(os.Stderr, "Error: --delimiter must be one character")
		os.Exit(1)
	}

	// Read Input
	var in io.Reader = os.Stdin
	if opts.Input != "" {
		f, err := os.Open(opts.Input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	rows, err := ingest.ReadCSV(in, ingest.CSVOptions{
		Columns:    ingest.Columns{Country: opts.ColCode, Longitude: opts.ColLon, Latitude: opts.ColLat},
		Comma:      comma[0],
		SkipHeader: !opts.NoHeader,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing CSV: %v\n", err)
		os.Exit(1)
	}
	res := ingest.Ingest(rows)

	var doc any
	var summary string
	if opts.Country != "" {
		a := outline.FromRecords(res.Records, res.Rejected(), opts.Country, outline.DefaultOptions())
		doc = a.Feature(opts.Simplify)
		summary = fmt.Sprintf("outline %s with %d points (degenerate: %t)", a.CountryCode, a.Points(), a.IsDegenerate)
	} else {
		doc = geo.PointsFeatureCollection(res.Records)
		summary = fmt.Sprintf("%d points", len(res.Records))
	}

	// marshal
	var outputData []byte
	if opts.Format == "yaml" {
		outputData, err = toYAML(doc)
	} else {
		outputData, err = processor.Marshal(doc, !opts.Minify)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
		os.Exit(1)
	}

	if res.Rejected() > 0 {
		fmt.Fprintf(os.Stderr, "Rejected %d of %d rows\n", res.Rejected(), len(rows))
	}

	if opts.Output != "" {
		err = os.WriteFile(opts.Output, outputData, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Successfully converted %s to %s (format: %s)\n", summary, opts.Output, opts.Format)
	} else {
		fmt.Println(string(outputData))
	}
}

// toYAML goes through the GeoJSON encoding so YAML keys match the JSON ones.
func toYAML(doc any) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return yaml.Marshal(tree)
}
