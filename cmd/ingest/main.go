// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Command ingest builds the catalog snapshot from the raw dataset dump.
//
// It reads title.ratings, title.basics, name.basics and title.principals
// from IMDB_DIR and writes CATALOG_FILE under DATA_DIR. Configuration is
// the same as the server's.
//
// Flags:
//
//	-download   fetch the dataset files before ingesting
//	-force      with -download, replace files that already exist
//
// The exit status is 1 when any stage fails. A running server picks up
// the new snapshot on POST /api/v1/admin/catalog/reload.
//
// Do not point HISTORY_DIR at the same directory as a server running with
// INGEST_SCHEDULE=true; the run history store is single-process.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/download"
	"github.com/tomtom215/cinematch/internal/ingest"
	"github.com/tomtom215/cinematch/internal/logging"
)

func main() {
	fetch := flag.Bool("download", false, "download the dataset files before ingesting")
	force := flag.Bool("force", false, "re-download files that already exist")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	os.Exit(run(ctx, stop, cfg, *fetch, *force))
}

func run(ctx context.Context, stop context.CancelFunc, cfg *config.Config, fetch, force bool) int {
	defer stop()

	if fetch {
		report, err := download.New(download.OptionsFromConfig(cfg), nil).DownloadAll(ctx, ingest.DatasetFiles, force)
		if err != nil {
			logging.Error().Err(err).Msg("Dataset download failed")
			return 1
		}
		logging.Info().
			Strs("downloaded", report.Downloaded).
			Strs("skipped", report.Skipped).
			Int64("bytes", report.Bytes).
			Msg("Dataset download complete")
	}

	var history ingest.RunHistory = ingest.NewInMemoryHistory()
	if cfg.Data.HistoryDir != "" {
		badgerHistory, db, err := ingest.OpenBadgerHistory(cfg.Data.HistoryPath())
		if err != nil {
			logging.Error().Err(err).Str("dir", cfg.Data.HistoryPath()).Msg("Failed to open run history")
			return 1
		}
		defer func() {
			if err := db.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing run history")
			}
		}()
		history = badgerHistory
	}

	result, err := ingest.NewPipeline(ingest.OptionsFromConfig(cfg), history).Run(ctx)
	if err != nil {
		var ioErr *ingest.IOError
		if errors.As(err, &ioErr) {
			logging.Error().
				Str("stage", ioErr.Stage).
				Str("path", ioErr.Path).
				Err(ioErr.Err).
				Msg("Ingest stage could not read its input")
		} else {
			logging.Error().Err(err).Msg("Ingest failed")
		}
		return 1
	}

	logging.Info().
		Int("entries", result.Stats.Entries).
		Str("catalog", cfg.Data.CatalogPath()).
		Dur("duration", result.Stats.Duration()).
		Msg("Catalog snapshot written")
	return 0
}
