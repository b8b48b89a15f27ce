// Package server handles HTTP requests and middleware.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/woozymasta/borderline/internal/cache"
	"github.com/woozymasta/borderline/internal/country"
	"github.com/woozymasta/borderline/internal/outline"
	"github.com/woozymasta/borderline/internal/processor"
	"github.com/woozymasta/borderline/internal/render"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
)

const etagCap = 20

// Output formats served under /api/outlines.
const (
	FormatGeoJSON = "geojson"
	FormatWebP    = "webp"
)

var contentTypes = map[string]string{
	FormatGeoJSON: "application/geo+json",
	FormatWebP:    "image/webp",
}

// DatasetInfo is one entry of the dataset listing.
type DatasetInfo struct {
	Name       string            `json:"name"`
	Rows       int               `json:"rows"`
	Rejected   int               `json:"rejected"`
	Records    int               `json:"records"`
	Generation uint64            `json:"generation"`
	Countries  []country.Summary `json:"countries"`
}

// Routes registers the API handlers on a new mux.
func (s *ServerContext) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/datasets", s.HandleDatasets)
	mux.HandleFunc("/api/outlines/", s.HandleOutline)
	return mux
}

// HandleDatasets serves the loaded datasets with per-country record counts.
func (s *ServerContext) HandleDatasets(w http.ResponseWriter, r *http.Request) {
	names := s.Names()
	out := make([]DatasetInfo, 0, len(names))
	for _, name := range names {
		ds, ok := s.lookup(name)
		if !ok {
			continue
		}
		out = append(out, DatasetInfo{
			Name:       name,
			Rows:       ds.Rows,
			Rejected:   ds.Rejected,
			Records:    len(ds.Records),
			Generation: ds.Generation,
			Countries:  ds.Countries,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(out)
}

// HandleOutline serves one country outline as GeoJSON or WebP.
func (s *ServerContext) HandleOutline(w http.ResponseWriter, r *http.Request) {
	// Path: /api/outlines/{dataset}/{code}.{format}
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 4 {
		http.NotFound(w, r)
		return
	}

	ds, ok := s.lookup(parts[2])
	if !ok {
		http.NotFound(w, r)
		return
	}

	file := parts[3]
	dot := strings.LastIndexByte(file, '.')
	if dot <= 0 {
		http.NotFound(w, r)
		return
	}
	code, format := country.Normalize(file[:dot]), file[dot+1:]
	contentType, ok := contentTypes[format]
	if !ok || code == "" {
		http.NotFound(w, r)
		return
	}

	payload, err := s.payload(r.Context(), ds, code, format)
	if err != nil {
		log.Error().
			Err(err).
			Str("dataset", ds.Config.Name).
			Str("country", code).
			Str("format", format).
			Msg("Failed to build outline")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	etag := payloadETag(payload)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	_, _ = w.Write(payload)
}

// payload returns the cached bytes for (dataset, generation, code, format),
// building and storing them on a miss. Cache failures only cost a rebuild.
func (s *ServerContext) payload(ctx context.Context, ds *dataset, code, format string) ([]byte, error) {
	key := cache.Key(ds.Config.Name, ds.Generation, code, format)

	data, hit, err := s.Cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
	}
	if hit {
		log.Trace().Str("key", key).Msg("Cache hit")
		return data, nil
	}

	a := outline.FromRecords(ds.Records, ds.Rejected, code, s.Config.Outline)
	if data, err = s.render(a, format); err != nil {
		return nil, err
	}

	if err := s.Cache.Set(ctx, key, data); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return data, nil
}

func (s *ServerContext) render(a outline.Artifact, format string) ([]byte, error) {
	tol := s.Config.Outline.SimplifyTolerance
	if format == FormatGeoJSON {
		return processor.Marshal(a.Feature(tol), false)
	}

	var buf bytes.Buffer
	img := render.Preview(a, processor.PreviewOptions(s.Config.Preview, tol))
	if err := render.EncodeWebP(&buf, img, s.Config.Preview.Quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func payloadETag(data []byte) string {
	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendUint(buf, xxhash.Sum64(data), 16)
	buf = append(buf, '"')
	return string(buf)
}
