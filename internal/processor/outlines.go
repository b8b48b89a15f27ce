package processor

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/woozymasta/borderline/internal/config"
	"github.com/woozymasta/borderline/internal/country"
	"github.com/woozymasta/borderline/internal/geo"
	"github.com/woozymasta/borderline/internal/ingest"
	"github.com/woozymasta/borderline/internal/outline"
	"github.com/woozymasta/borderline/internal/render"

	"github.com/rs/zerolog/log"
)

// Entry describes one written outline in a dataset index.
type Entry struct {
	Code             string   `json:"code"`
	Points           int      `json:"points"`
	ClosureGapMeters *float64 `json:"closure_gap_m"`
	IsDegenerate     bool     `json:"is_degenerate"`
}

// Summary reports the outcome of processing a dataset.
type Summary struct {
	Dataset  string  `json:"dataset"`
	Rows     int     `json:"rows"`
	Rejected int     `json:"rejected"`
	Outlines []Entry `json:"outlines"`
	Skipped  bool    `json:"-"`
}

// Options controls batch generation.
type Options struct {
	OutDir      string
	Concurrency int
	Force       bool
	FastCheck   bool
	NoPreview   bool
	Pretty      bool
}

// validCode matches country codes that are safe as file names.
var validCode = regexp.MustCompile(`^[A-Z0-9_-]+$`)

type job struct {
	Code string
}

type result struct {
	Artifact outline.Artifact
}

// ProcessDataset fetches ds once, builds an outline for every configured
// country (every country present when none are listed) and writes
// {out}/{dataset}/{code}.geojson, {code}.webp and index.json.
func ProcessDataset(ctx context.Context, client *http.Client, cfg *config.Config, ds config.Dataset, opts Options) (Summary, error) {
	destDir := filepath.Join(opts.OutDir, ds.Name)
	summary := Summary{Dataset: ds.Name}

	// Fast Check
	if opts.FastCheck && !opts.Force {
		if _, err := os.Stat(filepath.Join(destDir, "index.json")); err == nil {
			log.Info().
				Str("dataset", ds.Name).
				Msg("Dataset index exists, skipping (fast-check)")
			summary.Skipped = true
			return summary, nil
		}
	}

	log.Info().
		Str("dataset", ds.Name).
		Str("source", ds.Source).
		Msg("Processing dataset")

	rows, err := FetchRows(ctx, client, ds)
	if err != nil {
		return summary, err
	}

	in := ingest.Ingest(rows)
	summary.Rows = len(rows)
	summary.Rejected = in.Rejected()
	if summary.Rejected > 0 {
		log.Warn().
			Str("dataset", ds.Name).
			Int("rejected", summary.Rejected).
			Int("rows", summary.Rows).
			Msg("Rows rejected during ingest")
	}

	candidates := ds.Countries
	if len(candidates) == 0 {
		for _, s := range country.Count(in.Records) {
			candidates = append(candidates, s.Code)
		}
	}

	// Codes become file names, so only plain tokens are written.
	codes := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = country.Normalize(c)
		if !validCode.MatchString(c) {
			log.Warn().
				Str("dataset", ds.Name).
				Str("country", c).
				Msg("Skipping country: code is not a plain token")
			continue
		}
		codes = append(codes, c)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return summary, err
	}

	results := processBatch(ctx, opts.Concurrency, codes, in.Records, summary.Rejected, cfg.Outline)

	for _, res := range results {
		a := res.Artifact
		summary.Outlines = append(summary.Outlines, Entry{
			Code:             a.CountryCode,
			Points:           a.Points(),
			ClosureGapMeters: a.ClosureGapMeters,
			IsDegenerate:     a.IsDegenerate,
		})

		if err := writeOutline(destDir, a, cfg, opts); err != nil {
			log.Error().Err(err).Str("dataset", ds.Name).Str("country", a.CountryCode).Msg("Failed to write outline")
			continue
		}

		event := log.Info()
		if a.Empty() || a.IsDegenerate {
			event = log.Warn()
		}
		event.
			Str("dataset", ds.Name).
			Str("country", a.CountryCode).
			Int("points", a.Points()).
			Bool("degenerate", a.IsDegenerate).
			Msg("Outline written")
	}

	data, err := Marshal(summary, true)
	if err != nil {
		return summary, err
	}
	if err := os.WriteFile(filepath.Join(destDir, "index.json"), data, 0644); err != nil {
		return summary, err
	}

	return summary, nil
}

// processBatch builds outlines for codes on a bounded worker pool.
// Each worker runs its own pipeline; records are only read.
func processBatch(
	ctx context.Context,
	concurrency int,
	codes []string,
	records []geo.PointRecord,
	dropped int,
	opts outline.Options,
) []result {
	if concurrency <= 0 {
		concurrency = 1
	}

	jobs := make(chan job, len(codes))
	results := make(chan result, len(codes))

	go func() {
		defer close(jobs)
		for _, c := range codes {
			select {
			case jobs <- job{Code: c}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					continue
				}
				results <- result{Artifact: outline.FromRecords(records, dropped, j.Code, opts)}
			}
		}()
	}
	wg.Wait()
	close(results)

	out := make([]result, 0, len(codes))
	for res := range results {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Artifact.CountryCode < out[j].Artifact.CountryCode
	})

	return out
}

// writeOutline saves the GeoJSON feature and, unless disabled, the preview.
func writeOutline(dir string, a outline.Artifact, cfg *config.Config, opts Options) error {
	geoPath := filepath.Join(dir, a.CountryCode+".geojson")
	if opts.Force || !exists(geoPath) {
		data, err := Marshal(a.Feature(cfg.Outline.SimplifyTolerance), opts.Pretty)
		if err != nil {
			return err
		}
		if err := os.WriteFile(geoPath, data, 0644); err != nil {
			return err
		}
	}

	if opts.NoPreview {
		return nil
	}

	imgPath := filepath.Join(dir, a.CountryCode+".webp")
	if !opts.Force && exists(imgPath) {
		return nil
	}
	return savePreview(imgPath, a, cfg.Preview, cfg.Outline.SimplifyTolerance)
}

// savePreview renders the artifact and writes it as WebP.
func savePreview(path string, a outline.Artifact, p config.Preview, tolerance float64) error {
	img := render.Preview(a, PreviewOptions(p, tolerance))

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	// We care about write errors on close
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("path", path).Msg("Failed to close file")
		}
	}()

	return render.EncodeWebP(f, img, p.Quality)
}

// PreviewOptions maps preview configuration onto render options.
func PreviewOptions(p config.Preview, tolerance float64) render.Options {
	return render.Options{
		Size:        p.Size,
		Stroke:      p.Stroke,
		Padding:     p.Padding,
		Supersample: 2,
		Tolerance:   tolerance,
	}
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
