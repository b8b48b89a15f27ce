package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/borderline/internal/config"
	"github.com/woozymasta/borderline/internal/logger"
	"github.com/woozymasta/borderline/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string   `short:"c" long:"config"      env:"CONFIG_FILE"  description:"Path to configuration file" default:"config.yaml"`
	OutDir      string   `short:"o" long:"out"         env:"OUTPUT_DIR"   description:"Output directory" default:"outlines"`
	Limit       []string `short:"l" long:"limit"       env:"LIMIT_NAMES"  description:"Limit processing to specific dataset names"`
	Concurrency int      `short:"p" long:"concurrency" env:"CONCURRENCY"  description:"Concurrency" default:"8"`
	NoPreview   bool     `short:"g" long:"geojson-only" description:"Skip WebP previews"`
	Pretty      bool     `long:"pretty"                description:"Write indented GeoJSON"`
	Force       bool     `short:"f" long:"force"       description:"Force overwrite of existing files"`
	FastCheck   bool     `short:"F" long:"fast-check"  description:"Skip datasets that already have an index"`
}

func main() {
	_ = godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        16,
			MaxIdleConnsPerHost: 16,
		},
		Timeout: 60 * time.Second,
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}

	// Filter datasets if limit is set
	queue := cfg.Datasets
	if len(opts.Limit) > 0 {
		queue = make([]config.Dataset, 0, len(opts.Limit))
		seen := make(map[string]bool)

		for _, name := range opts.Limit {
			if seen[name] {
				continue
			}
			seen[name] = true

			if ds, ok := cfg.Find(name); ok {
				queue = append(queue, ds)
			} else {
				log.Error().
					Str("name", name).
					Msg("Dataset specified in --limit not found in configuration")
			}
		}
	}

	log.Info().
		Int("datasets_total", len(cfg.Datasets)).
		Int("datasets_queued", len(queue)).
		Bool("fast_check", opts.FastCheck).
		Msg("Starting loader")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch := processor.Options{
		OutDir:      opts.OutDir,
		Concurrency: opts.Concurrency,
		Force:       opts.Force,
		FastCheck:   opts.FastCheck,
		NoPreview:   opts.NoPreview,
		Pretty:      opts.Pretty,
	}

	failed := 0
	for _, ds := range queue {
		summary, err := processor.ProcessDataset(ctx, client, cfg, ds, batch)
		if err != nil {
			failed++
			log.Error().Err(err).Str("dataset", ds.Name).Msg("Failed to process dataset")
			continue
		}
		if summary.Skipped {
			continue
		}

		degenerate := 0
		for _, e := range summary.Outlines {
			if e.IsDegenerate {
				degenerate++
			}
		}
		log.Info().
			Str("dataset", ds.Name).
			Int("outlines", len(summary.Outlines)).
			Int("degenerate", degenerate).
			Int("rejected", summary.Rejected).
			Msg("Dataset finished")
	}

	if failed > 0 {
		log.Fatal().Int("failed", failed).Msg("Loader finished with errors")
	}
	log.Info().Msg("Loader finished successfully")
}
