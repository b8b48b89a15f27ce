// Package config handles configuration loading and shared data structures.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/borderline/internal/country"
	"github.com/woozymasta/borderline/internal/ingest"
	"github.com/woozymasta/borderline/internal/outline"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Validation errors.
var (
	ErrNoName        = errors.New("config: dataset without name")
	ErrDuplicateName = errors.New("config: duplicate dataset name")
	ErrNoSource      = errors.New("config: dataset without source")
	ErrColumns       = errors.New("config: invalid column positions")
	ErrPreview       = errors.New("config: invalid preview settings")
)

// Config represents the root configuration file structure.
type Config struct {
	Outline  outline.Options `yaml:"outline" toml:"outline" json:"outline"`
	Preview  Preview         `yaml:"preview" toml:"preview" json:"preview"`
	Cache    Cache           `yaml:"cache" toml:"cache" json:"-"`
	Datasets []Dataset       `yaml:"datasets" toml:"datasets" json:"datasets"`
}

// Dataset is one station table and the countries to outline from it.
type Dataset struct {
	Columns   *ingest.Columns `yaml:"columns,omitempty" toml:"columns,omitempty" json:"-"`
	Header    *bool           `yaml:"header,omitempty" toml:"header,omitempty" json:"-"`
	Name      string          `yaml:"name" toml:"name" json:"name"`
	Source    string          `yaml:"source" toml:"source" json:"-"` // http(s) URL or local path
	Delimiter string          `yaml:"delimiter,omitempty" toml:"delimiter,omitempty" json:"-"`
	Countries []string        `yaml:"countries,omitempty" toml:"countries,omitempty" json:"countries,omitempty"`
}

// Preview configures the raster preview of an outline.
type Preview struct {
	Size    int     `yaml:"size,omitempty" toml:"size,omitempty" json:"size"`
	Stroke  float64 `yaml:"stroke,omitempty" toml:"stroke,omitempty" json:"stroke"`
	Padding int     `yaml:"padding,omitempty" toml:"padding,omitempty" json:"padding"`
	Quality int     `yaml:"quality,omitempty" toml:"quality,omitempty" json:"quality"`
}

// Cache configures the optional Redis artifact cache.
type Cache struct {
	RedisAddr     string `yaml:"redis_addr,omitempty" toml:"redis_addr,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty" toml:"redis_password,omitempty"`
	RedisDB       int    `yaml:"redis_db,omitempty" toml:"redis_db,omitempty"`
	TTLSeconds    int    `yaml:"ttl_seconds,omitempty" toml:"ttl_seconds,omitempty"`
}

// Preview defaults.
const (
	DefaultPreviewSize    = 512
	DefaultPreviewStroke  = 2.0
	DefaultPreviewPadding = 16
	DefaultPreviewQuality = 85
	DefaultCacheTTL       = 3600
)

// Load reads and parses the configuration file from the specified path.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Defaults are applied and the result is validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Padding 0 is a valid setting, so its default is seeded before decoding.
	cfg := Config{Preview: Preview{Padding: DefaultPreviewPadding}}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills unset values in place. Negative preview padding is
// reset to the default; zero is kept.
func (c *Config) ApplyDefaults() {
	c.Outline.Path = c.Outline.Path.Normalized()

	if c.Preview.Size <= 0 {
		c.Preview.Size = DefaultPreviewSize
	}
	if c.Preview.Stroke <= 0 {
		c.Preview.Stroke = DefaultPreviewStroke
	}
	if c.Preview.Padding < 0 {
		c.Preview.Padding = DefaultPreviewPadding
	}
	if c.Preview.Quality <= 0 {
		c.Preview.Quality = DefaultPreviewQuality
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = DefaultCacheTTL
	}

	for i := range c.Datasets {
		ds := &c.Datasets[i]
		if ds.Columns == nil {
			cols := ingest.DefaultColumns()
			ds.Columns = &cols
		}
		if ds.Header == nil {
			header := true
			ds.Header = &header
		}
		for j, code := range ds.Countries {
			ds.Countries[j] = country.Normalize(code)
		}
	}
}

// Validate checks dataset names, sources, columns and preview bounds.
func (c *Config) Validate() error {
	if c.Preview.Padding*2 >= c.Preview.Size || c.Preview.Quality > 100 {
		return ErrPreview
	}

	seen := make(map[string]bool, len(c.Datasets))
	for _, ds := range c.Datasets {
		if ds.Name == "" {
			return ErrNoName
		}
		if seen[ds.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateName, ds.Name)
		}
		seen[ds.Name] = true

		if ds.Source == "" {
			return fmt.Errorf("%w: %s", ErrNoSource, ds.Name)
		}
		if ds.Columns != nil && (ds.Columns.Country < 0 || ds.Columns.Longitude < 0 || ds.Columns.Latitude < 0) {
			return fmt.Errorf("%w: %s", ErrColumns, ds.Name)
		}
		if len([]rune(ds.Delimiter)) > 1 {
			return fmt.Errorf("%w: %s: delimiter must be one character", ErrColumns, ds.Name)
		}
	}

	return nil
}

// CSVOptions returns the reader settings for the dataset.
func (d Dataset) CSVOptions() ingest.CSVOptions {
	opts := ingest.DefaultCSVOptions()
	if d.Columns != nil {
		opts.Columns = *d.Columns
	}
	if d.Header != nil {
		opts.SkipHeader = *d.Header
	}
	if r := []rune(d.Delimiter); len(r) == 1 {
		opts.Comma = r[0]
	}
	return opts
}

// Find returns the dataset with the given name.
func (c *Config) Find(name string) (Dataset, bool) {
	for _, ds := range c.Datasets {
		if ds.Name == name {
			return ds, true
		}
	}
	return Dataset{}, false
}
