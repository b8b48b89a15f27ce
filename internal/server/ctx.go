package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/woozymasta/borderline/internal/cache"
	"github.com/woozymasta/borderline/internal/config"
	"github.com/woozymasta/borderline/internal/country"
	"github.com/woozymasta/borderline/internal/geo"
	"github.com/woozymasta/borderline/internal/ingest"
	"github.com/woozymasta/borderline/internal/processor"

	"github.com/rs/zerolog/log"
)

// ErrUnknownDataset is returned when a dataset name is not configured.
var ErrUnknownDataset = errors.New("unknown dataset")

// dataset is the loaded, ingested state of one configured station table.
type dataset struct {
	Config     config.Dataset
	Records    []geo.PointRecord
	Countries  []country.Summary
	Rows       int
	Rejected   int
	Generation uint64
	LoadedAt   time.Time
}

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config *config.Config
	Cache  cache.Store

	client   *http.Client
	mu       sync.RWMutex
	datasets map[string]*dataset
	names    []string
}

// NewServerContext loads every configured dataset. Datasets that fail to
// load are skipped with a warning.
func NewServerContext(ctx context.Context, cfg *config.Config, store cache.Store, client *http.Client) *ServerContext {
	log.Info().Int("config_datasets_count", len(cfg.Datasets)).Msg("Initializing server context")

	if store == nil {
		store = cache.NewMemory(time.Duration(cfg.Cache.TTLSeconds) * time.Second)
	}
	if client == nil {
		client = http.DefaultClient
	}

	s := &ServerContext{
		Config:   cfg,
		Cache:    store,
		client:   client,
		datasets: make(map[string]*dataset, len(cfg.Datasets)),
	}

	for _, ds := range cfg.Datasets {
		if err := s.Reload(ctx, ds.Name); err != nil {
			log.Warn().
				Err(err).
				Str("dataset", ds.Name).
				Msg("Skipping dataset: load failed")
		}
	}

	log.Info().
		Int("valid_datasets_count", len(s.Names())).
		Msg("Server context initialized successfully")

	return s
}

// Reload fetches and ingests the named dataset again and bumps its
// generation so previously cached payloads are no longer addressed.
func (s *ServerContext) Reload(ctx context.Context, name string) error {
	ds, ok := s.Config.Find(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDataset, name)
	}

	rows, err := processor.FetchRows(ctx, s.client, ds)
	if err != nil {
		return err
	}
	in := ingest.Ingest(rows)

	next := &dataset{
		Config:    ds,
		Records:   in.Records,
		Countries: country.Count(in.Records),
		Rows:      len(rows),
		Rejected:  in.Rejected(),
		LoadedAt:  time.Now(),
	}

	s.mu.Lock()
	if prev, ok := s.datasets[name]; ok {
		next.Generation = prev.Generation + 1
	} else {
		s.names = append(s.names, name)
		sort.Strings(s.names)
	}
	s.datasets[name] = next
	s.mu.Unlock()

	log.Info().
		Str("dataset", name).
		Int("rows", next.Rows).
		Int("rejected", next.Rejected).
		Int("countries", len(next.Countries)).
		Uint64("generation", next.Generation).
		Msg("Dataset loaded")

	return nil
}

// Names returns loaded dataset names in sorted order.
func (s *ServerContext) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.names...)
}

// lookup returns the current snapshot of a dataset. The snapshot is never
// mutated after publication, so callers may read it without the lock.
func (s *ServerContext) lookup(name string) (*dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[name]
	return ds, ok
}
