// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/download"
	"github.com/tomtom215/cinematch/internal/ingest"
	"github.com/tomtom215/cinematch/internal/logging"
)

// Ingester runs one ingestion pass. Satisfied by *ingest.Pipeline.
type Ingester interface {
	Run(ctx context.Context) (*ingest.Result, error)
}

// Fetcher refreshes the dataset files. Satisfied by *download.Downloader.
type Fetcher interface {
	DownloadAll(ctx context.Context, files []string, force bool) (*download.Report, error)
}

// IngestSchedule controls IngestSchedulerService.
type IngestSchedule struct {
	Interval     time.Duration
	RunOnStartup bool
}

// IngestScheduleFromConfig maps the ingest section.
func IngestScheduleFromConfig(cfg *config.Config) IngestSchedule {
	return IngestSchedule{
		Interval:     cfg.Ingest.Interval,
		RunOnStartup: cfg.Ingest.RunOnStartup,
	}
}

// IngestSchedulerService runs ingestion on a fixed interval. A failed run
// is logged and the previous catalog stays in service; the scheduler
// itself keeps going.
type IngestSchedulerService struct {
	ingester Ingester
	fetcher  Fetcher
	schedule IngestSchedule
	name     string

	runs     atomic.Int64
	failures atomic.Int64
}

// NewIngestSchedulerService creates the scheduler. fetcher may be nil, in
// which case the files already on disk are used.
func NewIngestSchedulerService(ingester Ingester, fetcher Fetcher, schedule IngestSchedule) *IngestSchedulerService {
	if schedule.Interval <= 0 {
		schedule.Interval = 24 * time.Hour
	}
	return &IngestSchedulerService{
		ingester: ingester,
		fetcher:  fetcher,
		schedule: schedule,
		name:     "ingest-scheduler",
	}
}

// Serve implements suture.Service.
func (s *IngestSchedulerService) Serve(ctx context.Context) error {
	logger := logging.Ctx(ctx).With().Str("component", s.name).Logger()
	logger.Info().
		Dur("interval", s.schedule.Interval).
		Bool("run_on_startup", s.schedule.RunOnStartup).
		Bool("download_first", s.fetcher != nil).
		Msg("Ingest scheduler started")

	if s.schedule.RunOnStartup {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.schedule.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *IngestSchedulerService) runOnce(ctx context.Context) {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	logger := logging.Ctx(ctx).With().Str("component", s.name).Logger()
	s.runs.Add(1)

	if s.fetcher != nil {
		report, err := s.fetcher.DownloadAll(ctx, ingest.DatasetFiles, true)
		if err != nil {
			s.failures.Add(1)
			logger.Error().Err(err).Msg("Scheduled download failed, keeping current catalog")
			return
		}
		logger.Info().
			Strs("downloaded", report.Downloaded).
			Int64("bytes", report.Bytes).
			Msg("Scheduled download complete")
	}

	_, err := s.ingester.Run(ctx)
	switch {
	case errors.Is(err, ingest.ErrRunInProgress):
		logger.Warn().Msg("Skipping scheduled ingestion, a run is already in progress")
	case err != nil && ctx.Err() == nil:
		s.failures.Add(1)
		logger.Error().Err(err).Msg("Scheduled ingestion failed, keeping current catalog")
	}
}

// Runs returns how many scheduled runs have started.
func (s *IngestSchedulerService) Runs() int64 { return s.runs.Load() }

// Failures returns how many scheduled runs failed.
func (s *IngestSchedulerService) Failures() int64 { return s.failures.Load() }

// String implements fmt.Stringer for suture's logs.
func (s *IngestSchedulerService) String() string {
	return s.name
}
