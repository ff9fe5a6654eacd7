// Package main implements the HTTP search API server for a static site.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apihttp "github.com/dsjohal14/sitesearch/internal/http"
	"github.com/dsjohal14/sitesearch/internal/libs/config"
	"github.com/dsjohal14/sitesearch/internal/libs/obs"
	"github.com/dsjohal14/sitesearch/internal/scope/db"
	"github.com/dsjohal14/sitesearch/internal/scope/feed"
	"github.com/dsjohal14/sitesearch/internal/scope/search"
	"github.com/rs/zerolog"
)

func main() {
	// Load config
	cfg, err := config.Load(os.Getenv("SITESEARCH_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Init logger
	obs.InitLogger(cfg.LogLevel)
	if cfg.LogFile != "" {
		rotator := obs.InitFileOutput(cfg.LogFile)
		defer func() { _ = rotator.Close() }()
	}
	logger := obs.Logger("api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closeSrc, err := newSource(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize index source")
	}
	defer closeSrc()

	index := search.NewIndex(src, obs.Logger("index"))
	if cfg.Preload {
		go index.EnsureLoaded(ctx)
	}

	// Create HTTP handler
	handler := apihttp.NewHandler(index, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort),
		Handler:           apihttp.NewRouter(handler, cfg.Origins()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
}

// newSource picks where the index comes from: Postgres, a local file, or
// the site's published search.xml, in that order
func newSource(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (search.Source, func(), error) {
	if cfg.DatabaseURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		conn, err := db.New(connectCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		src, err := conn.Entries(cfg.DBTable)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		logger.Info().Str("source", src.String()).Msg("using Postgres index source")
		return src, conn.Close, nil
	}

	if cfg.IndexFile != "" {
		logger.Info().Str("source", cfg.IndexFile).Msg("using local index file")
		return &feed.FileSource{Path: cfg.IndexFile}, func() {}, nil
	}

	indexURL, err := feed.ResolveIndexURL(cfg.SiteURL, cfg.IndexPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Info().Str("source", indexURL).Dur("timeout", cfg.FetchTimeout).Msg("using site index")
	return feed.NewHTTPSource(indexURL, cfg.FetchTimeout), func() {}, nil
}
