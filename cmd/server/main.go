package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/borderline/internal/cache"
	"github.com/woozymasta/borderline/internal/config"
	"github.com/woozymasta/borderline/internal/logger"
	"github.com/woozymasta/borderline/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"     env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr       string `short:"a" long:"addr"       env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"       env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	RedisAddr  string `long:"redis-addr"           env:"REDIS_ADDR"     description:"Redis address for the outline cache (in-memory when empty)"`
	Watch      bool   `short:"w" long:"watch"      env:"WATCH_SOURCES"  description:"Reload local datasets when their files change"`
}

func main() {
	// Optional .env next to the binary; flags and real env still win.
	_ = godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.RedisAddr != "" {
		cfg.Cache.RedisAddr = opts.RedisAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openCache(ctx, cfg.Cache)
	srvCtx := server.NewServerContext(ctx, cfg, store, &http.Client{Timeout: 30 * time.Second})

	if opts.Watch {
		w, err := server.NewWatcher(srvCtx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start dataset watcher")
		}
		defer func() { _ = w.Close() }()
		go w.Run(ctx)
		log.Info().Int("sources", w.Watched()).Msg("Watching dataset sources")
	}

	handler := server.RequestLogger(srvCtx.Routes())

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("addr", listenAddr).
		Int("datasets_loaded", len(srvCtx.Names())).
		Bool("redis", cfg.Cache.RedisAddr != "").
		Msg("Web server started")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}

	log.Info().Msg("Web server stopped")
}

// openCache returns Redis when configured and reachable, otherwise an
// in-memory store.
func openCache(ctx context.Context, c config.Cache) cache.Store {
	ttl := time.Duration(c.TTLSeconds) * time.Second

	r := cache.OpenRedis(c.RedisAddr, c.RedisPassword, c.RedisDB, ttl)
	if r == nil {
		return cache.NewMemory(ttl)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		log.Warn().
			Err(err).
			Str("addr", c.RedisAddr).
			Msg("Redis unreachable, falling back to in-memory cache")
		_ = r.Close()
		return cache.NewMemory(ttl)
	}

	log.Info().Str("addr", c.RedisAddr).Msg("Using Redis outline cache")
	return r
}
