package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/borderline/internal/cache"
	"github.com/woozymasta/borderline/internal/config"
)

const stationsCSV = `id,country,lon,lat
1,AT,10,47
2,AT,11,47
3,AT,11,48
4,AT,10,48
5,DE,13,52
6,DE,x,52
`

func newTestServer(t *testing.T, body string) (*ServerContext, *cache.Memory, string) {
	t.Helper()

	src := filepath.Join(t.TempDir(), "stations.csv")
	require.NoError(t, os.WriteFile(src, []byte(body), 0644))

	cfg := &config.Config{Datasets: []config.Dataset{{Name: "stations", Source: src}}}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	mem := cache.NewMemory(0)
	return NewServerContext(context.Background(), cfg, mem, nil), mem, src
}

func get(t *testing.T, h http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleDatasets(t *testing.T) {
	s, _, _ := newTestServer(t, stationsCSV)

	rec := get(t, s.Routes(), "/api/datasets", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []DatasetInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "stations", got[0].Name)
	assert.Equal(t, 6, got[0].Rows)
	assert.Equal(t, 1, got[0].Rejected)
	assert.Equal(t, 5, got[0].Records)
	require.Len(t, got[0].Countries, 2)
	assert.Equal(t, "AT", got[0].Countries[0].Code)
	assert.Equal(t, 4, got[0].Countries[0].Count)
}

func TestHandleOutline_GeoJSON(t *testing.T) {
	s, mem, _ := newTestServer(t, stationsCSV)
	h := s.Routes()

	rec := get(t, h, "/api/outlines/stations/at.geojson", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	var f struct {
		Geometry struct {
			Type        string       `json:"type"`
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties map[string]any `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, "LineString", f.Geometry.Type)
	assert.Equal(t, [][2]float64{{10, 47}, {10, 48}, {11, 48}, {11, 47}}, f.Geometry.Coordinates)
	assert.Equal(t, "AT", f.Properties["country_code"])
	assert.Equal(t, 1.0, f.Properties["dropped_records"])
	assert.Equal(t, false, f.Properties["is_degenerate"])
	assert.Equal(t, 1, mem.Len())

	again := get(t, h, "/api/outlines/stations/AT.geojson", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, again.Code)
	assert.Equal(t, 1, mem.Len(), "normalized code shares the cache entry")
}

func TestHandleOutline_NoDataIsEmptyLine(t *testing.T) {
	s, _, _ := newTestServer(t, stationsCSV)

	rec := get(t, s.Routes(), "/api/outlines/stations/FR.geojson", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"coordinates":[]`)
	assert.Contains(t, rec.Body.String(), `"closure_gap_m":null`)
}

func TestHandleOutline_WebP(t *testing.T) {
	s, _, _ := newTestServer(t, stationsCSV)

	rec := get(t, s.Routes(), "/api/outlines/stations/AT.webp", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))
	body := rec.Body.Bytes()
	require.Greater(t, len(body), 12)
	assert.Equal(t, "RIFF", string(body[:4]))
	assert.Equal(t, "WEBP", string(body[8:12]))
}

func TestHandleOutline_NotFound(t *testing.T) {
	s, _, _ := newTestServer(t, stationsCSV)
	h := s.Routes()

	for _, path := range []string{
		"/api/outlines/missing/AT.geojson",
		"/api/outlines/stations/AT.png",
		"/api/outlines/stations/AT",
		"/api/outlines/stations/.geojson",
		"/api/outlines/stations",
		"/api/outlines/stations/AT/extra.geojson",
	} {
		rec := get(t, h, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestReload_BumpsGeneration(t *testing.T) {
	s, mem, src := newTestServer(t, stationsCSV)
	h := s.Routes()

	first := get(t, h, "/api/outlines/stations/DE.geojson", nil)
	require.Equal(t, http.StatusOK, first.Code)

	require.NoError(t, os.WriteFile(src, []byte(stationsCSV+"7,DE,14,53\n"), 0644))
	require.NoError(t, s.Reload(context.Background(), "stations"))

	ds, ok := s.lookup("stations")
	require.True(t, ok)
	assert.Equal(t, uint64(1), ds.Generation)

	second := get(t, h, "/api/outlines/stations/DE.geojson", nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.NotEqual(t, first.Header().Get("ETag"), second.Header().Get("ETag"))
	assert.Equal(t, 2, mem.Len())
}

func TestReload_UnknownDataset(t *testing.T) {
	s, _, _ := newTestServer(t, stationsCSV)
	assert.ErrorIs(t, s.Reload(context.Background(), "nope"), ErrUnknownDataset)
}

func TestNewServerContext_SkipsFailedDataset(t *testing.T) {
	cfg := &config.Config{Datasets: []config.Dataset{{Name: "gone", Source: filepath.Join(t.TempDir(), "missing.csv")}}}
	cfg.ApplyDefaults()

	s := NewServerContext(context.Background(), cfg, nil, nil)
	assert.Empty(t, s.Names())
	assert.NotNil(t, s.Cache)

	rec := get(t, s.Routes(), "/api/outlines/gone/AT.geojson", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestLogger_RecordsStatus(t *testing.T) {
	var seen *statusRecorder
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = w.(*statusRecorder)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("tea"))
	}))

	rec := get(t, h, "/", nil)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, http.StatusTeapot, seen.statusCode)
	assert.Equal(t, 3, seen.written)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	s, _, src := newTestServer(t, stationsCSV)

	w, err := NewWatcher(s)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Watched())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	t.Cleanup(func() {
		cancel()
		_ = w.Close()
		<-w.Done()
	})

	require.NoError(t, os.WriteFile(src, []byte(stationsCSV+"7,FR,2,48\n"), 0644))

	require.Eventually(t, func() bool {
		ds, ok := s.lookup("stations")
		return ok && ds.Generation > 0 && len(ds.Records) == 6
	}, 5*time.Second, 50*time.Millisecond)
}
