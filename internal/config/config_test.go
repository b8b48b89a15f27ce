package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/borderline/internal/config"
	"github.com/woozymasta/borderline/internal/ingest"
	"github.com/woozymasta/borderline/internal/path"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_YAML(t *testing.T) {
	p := write(t, "config.yaml", `
outline:
  path:
    outlier_multiple: 4
  simplify_tolerance: 0.01
preview:
  size: 256
datasets:
  - name: stations
    source: https://example.com/stations.csv
    countries: [at, " de "]
  - name: local
    source: ./data/points.csv
    header: false
    delimiter: ";"
    columns: {country: 0, longitude: 1, latitude: 2}
`)
	cfg, err := config.Load(p)
	require.NoError(t, err)

	assert.Equal(t, 4.0, cfg.Outline.Path.OutlierMultiple)
	assert.Equal(t, path.DefaultDegenerateFraction, cfg.Outline.Path.DegenerateFraction)
	assert.Equal(t, 64, cfg.Outline.Path.LinearFallbackThreshold)
	assert.Equal(t, 0.01, cfg.Outline.SimplifyTolerance)

	assert.Equal(t, 256, cfg.Preview.Size)
	assert.Equal(t, config.DefaultPreviewStroke, cfg.Preview.Stroke)
	assert.Equal(t, config.DefaultPreviewPadding, cfg.Preview.Padding)
	assert.Equal(t, config.DefaultCacheTTL, cfg.Cache.TTLSeconds)

	require.Len(t, cfg.Datasets, 2)
	assert.Equal(t, []string{"AT", "DE"}, cfg.Datasets[0].Countries)
	assert.Equal(t, ingest.DefaultCSVOptions(), cfg.Datasets[0].CSVOptions())

	local, ok := cfg.Find("local")
	require.True(t, ok)
	opts := local.CSVOptions()
	assert.False(t, opts.SkipHeader)
	assert.Equal(t, ';', opts.Comma)
	assert.Equal(t, ingest.Columns{Country: 0, Longitude: 1, Latitude: 2}, opts.Columns)

	_, ok = cfg.Find("missing")
	assert.False(t, ok)
}

func TestLoad_ZeroPaddingKept(t *testing.T) {
	p := write(t, "config.yaml", "preview:\n  padding: 0\n")
	cfg, err := config.Load(p)
	require.NoError(t, err)
	assert.Zero(t, cfg.Preview.Padding)

	p = write(t, "config.toml", "[preview]\npadding = 0\n")
	cfg, err = config.Load(p)
	require.NoError(t, err)
	assert.Zero(t, cfg.Preview.Padding)

	neg := config.Config{Preview: config.Preview{Padding: -4}}
	neg.ApplyDefaults()
	assert.Equal(t, config.DefaultPreviewPadding, neg.Preview.Padding)
}

func TestLoad_TOML(t *testing.T) {
	p := write(t, "config.toml", `
[outline.path]
degenerate_fraction = 0.3

[[datasets]]
name = "stations"
source = "stations.csv"
countries = ["AT"]
`)
	cfg, err := config.Load(p)
	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.Outline.Path.DegenerateFraction)
	assert.Equal(t, path.DefaultOutlierMultiple, cfg.Outline.Path.OutlierMultiple)
	require.Len(t, cfg.Datasets, 1)
	assert.Equal(t, "stations.csv", cfg.Datasets[0].Source)
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
	}{
		{"NoName", "datasets:\n  - source: a.csv\n", config.ErrNoName},
		{"NoSource", "datasets:\n  - name: a\n", config.ErrNoSource},
		{"Duplicate", "datasets:\n  - {name: a, source: a.csv}\n  - {name: a, source: b.csv}\n", config.ErrDuplicateName},
		{"Columns", "datasets:\n  - {name: a, source: a.csv, columns: {country: -1, longitude: 1, latitude: 2}}\n", config.ErrColumns},
		{"Delimiter", "datasets:\n  - {name: a, source: a.csv, delimiter: ';;'}\n", config.ErrColumns},
		{"Padding", "preview: {size: 20, padding: 10}\n", config.ErrPreview},
		{"Quality", "preview: {quality: 101}\n", config.ErrPreview},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(write(t, "config.yaml", tc.body))
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = config.Load(write(t, "bad.yaml", "datasets: [\n"))
	assert.Error(t, err)
}
