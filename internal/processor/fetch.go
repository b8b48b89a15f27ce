// Package processor handles retrieval of station tables and batch generation
// of outline files.
package processor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/woozymasta/borderline/internal/config"
	"github.com/woozymasta/borderline/internal/ingest"

	"github.com/rs/zerolog/log"
)

// FetchRows downloads (http/https) or opens (local path) the dataset source
// and reads it as CSV with the dataset's column layout.
func FetchRows(ctx context.Context, client *http.Client, ds config.Dataset) ([]ingest.RawRow, error) {
	body, err := openSource(ctx, client, ds.Source)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", ds.Name, err)
	}
	defer func() { _ = body.Close() }()

	rows, err := ingest.ReadCSV(body, ds.CSVOptions())
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", ds.Name, err)
	}

	log.Debug().
		Str("dataset", ds.Name).
		Str("source", ds.Source).
		Int("rows", len(rows)).
		Msg("Dataset rows loaded")

	return rows, nil
}

// IsRemote reports whether source is fetched over HTTP.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func openSource(ctx context.Context, client *http.Client, source string) (io.ReadCloser, error) {
	if !IsRemote(source) {
		return os.Open(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return resp.Body, nil
}
