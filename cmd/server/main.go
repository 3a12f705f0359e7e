// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package main is the Cinematch HTTP server.
//
// The server initializes components in this order:
//
//  1. Configuration: defaults, config.yaml, .env and environment (Koanf v2)
//  2. Logging: zerolog, json or console
//  3. Stores: catalog snapshot, review ledger, user store
//  4. Recommendation cache: in-memory or Redis
//  5. Event bus: watermill gochannel with cache invalidation handlers
//  6. Service facade and chi router
//  7. Supervisor tree: ingest scheduler (optional), event bus, HTTP server
//
// The catalog snapshot is produced by cmd/ingest or by the scheduled
// ingest service (INGEST_SCHEDULE=true). Until a snapshot exists the
// catalog is empty.
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The HTTP server drains
// in-flight requests for SERVER_SHUTDOWN_TIMEOUT, the event router closes
// and the history store is closed last.
//
// # Example Usage
//
//	export DATA_DIR=/var/lib/cinematch
//	export HTTP_PORT=8080
//	./cinematch-server
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

	_ "github.com/tomtom215/cinematch/docs" // generated swagger docs
	"github.com/tomtom215/cinematch/internal/api"
	"github.com/tomtom215/cinematch/internal/cache"
	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/download"
	"github.com/tomtom215/cinematch/internal/events"
	"github.com/tomtom215/cinematch/internal/ingest"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/middleware"
	"github.com/tomtom215/cinematch/internal/review"
	"github.com/tomtom215/cinematch/internal/service"
	"github.com/tomtom215/cinematch/internal/supervisor"
	"github.com/tomtom215/cinematch/internal/supervisor/services"
	"github.com/tomtom215/cinematch/internal/users"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
}

//nolint:gocyclo // Sequential setup steps
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("data_dir", cfg.Data.Dir).
		Str("catalog", cfg.Data.CatalogPath()).
		Str("cache_backend", cfg.Cache.Backend).
		Bool("ingest_schedule", cfg.Ingest.Schedule).
		Msg("Starting Cinematch")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalogStore := catalog.NewStore(cfg.Data.CatalogPath())
	ledger := review.NewLedger(cfg.Data.ReviewsPath(), cfg.Review.ScoreMin, cfg.Review.ScoreMax)
	userStore := users.NewStore(cfg.Data.UsersPath(), cfg.Security.BcryptCost)

	cacher, err := cache.NewCacher(ctx, cache.OptionsFromConfig(cfg))
	if err != nil {
		return fmt.Errorf("create recommendation cache: %w", err)
	}
	defer func() {
		if err := cacher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache")
		}
	}()
	recs := cache.NewRecommendations(cacher, cfg.Cache.RecommendTTL)

	bus, err := events.NewBus(events.DefaultConfig(), logging.NewWatermillAdapter())
	if err != nil {
		return fmt.Errorf("create event bus: %w", err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()
	events.RegisterCacheInvalidation(bus, recs)

	svc := service.New(service.Deps{
		Catalog: catalogStore,
		Reviews: ledger,
		Users:   userStore,
		Cache:   recs,
		Events:  bus,
	}, service.OptionsFromConfig(cfg))

	// Warm the catalog so the first request does not pay for the load.
	if n, err := catalogStore.Len(ctx); err != nil {
		logging.Warn().Err(err).Msg("Catalog snapshot could not be loaded, serving empty catalog until reload")
	} else {
		logging.Info().Int("entries", n).Msg("Catalog ready")
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	// Data layer
	if cfg.Ingest.Schedule {
		closeHistory, err := addIngestScheduler(cfg, tree, svc)
		if err != nil {
			return err
		}
		defer closeHistory()
	}

	// Messaging layer
	tree.AddMessagingService(services.NewEventBusService(bus))

	// API layer
	perfMon := middleware.NewPerformanceMonitor(1000, 0)
	handler := api.NewHandler(svc, perfMon, version)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromConfig(cfg)))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, u := range unstopped {
		logging.Warn().Str("service", u.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Cinematch stopped")
	return nil
}

// addIngestScheduler wires the scheduled pipeline into the data layer. The
// returned func closes the run history store.
func addIngestScheduler(cfg *config.Config, tree *supervisor.SupervisorTree, svc *service.Service) (func(), error) {
	var history ingest.RunHistory = ingest.NewInMemoryHistory()
	closeHistory := func() {}

	if cfg.Data.HistoryDir != "" {
		badgerHistory, db, err := ingest.OpenBadgerHistory(cfg.Data.HistoryPath())
		if err != nil {
			return nil, err
		}
		history = badgerHistory
		closeHistory = func() {
			if err := db.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing history store")
			}
		}
	}

	pipeline := ingest.NewPipeline(ingest.OptionsFromConfig(cfg), history, svc)

	var fetcher services.Fetcher
	if cfg.Ingest.DownloadFirst {
		fetcher = download.New(download.OptionsFromConfig(cfg), nil)
	}

	tree.AddDataService(services.NewIngestSchedulerService(pipeline, fetcher, services.IngestScheduleFromConfig(cfg)))
	logging.Info().
		Dur("interval", cfg.Ingest.Interval).
		Bool("download_first", cfg.Ingest.DownloadFirst).
		Msg("Ingest scheduler added")
	return closeHistory, nil
}
