// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package download fetches the raw dataset dumps that ingestion reads.
//
// Each GET runs through a circuit breaker so a failing mirror stops being
// hammered, and files are paced by a token-bucket limiter. A file lands
// under its final name only after it has been fully written.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/fsutil"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
)

// breakerName labels the breaker in logs and metrics.
const breakerName = "dataset-download"

// Options configures a Downloader.
type Options struct {
	BaseURL         string
	Dir             string
	Timeout         time.Duration
	FilesPerMinute  int
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// OptionsFromConfig builds Options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:         cfg.Download.BaseURL,
		Dir:             cfg.Data.IMDbPath(),
		Timeout:         cfg.Download.Timeout,
		FilesPerMinute:  cfg.Download.FilesPerMinute,
		BreakerFailures: cfg.Download.BreakerFailures,
		BreakerTimeout:  cfg.Download.BreakerTimeout,
	}
}

// StatusError is returned for a non-200 response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Report summarizes a DownloadAll call.
type Report struct {
	Downloaded []string `json:"downloaded"`
	Skipped    []string `json:"skipped"`
	Bytes      int64    `json:"bytes"`
}

// Downloader fetches dataset files into a directory.
type Downloader struct {
	opts    Options
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[int64]
	limiter *rate.Limiter
}

// New creates a Downloader. client may be nil.
func New(opts Options, client *http.Client) *Downloader {
	if client == nil {
		client = &http.Client{}
	}

	limit := rate.Inf
	if opts.FilesPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.FilesPerMinute))
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[int64](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			shouldTrip := counts.ConsecutiveFailures >= opts.BreakerFailures
			if shouldTrip {
				logging.Warn().Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Downloader{
		opts:    opts,
		client:  client,
		cb:      cb,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// DownloadAll fetches every file in files. Existing files are kept unless
// force is set. It stops at the first failure.
func (d *Downloader) DownloadAll(ctx context.Context, files []string, force bool) (*Report, error) {
	report := &Report{}
	for _, file := range files {
		n, skipped, err := d.Download(ctx, file, force)
		if err != nil {
			return report, err
		}
		if skipped {
			report.Skipped = append(report.Skipped, file)
			continue
		}
		report.Downloaded = append(report.Downloaded, file)
		report.Bytes += n
	}
	return report, nil
}

// Download fetches one file and returns the bytes written. It reports
// skipped=true when the file already exists and force is false.
func (d *Downloader) Download(ctx context.Context, file string, force bool) (n int64, skipped bool, err error) {
	dest := filepath.Join(d.opts.Dir, file)
	logger := logging.Ctx(ctx).With().Str("component", "download").Str("file", file).Logger()

	if !force {
		if _, err := os.Stat(dest); err == nil {
			metrics.RecordDownloadSkipped(file)
			logger.Info().Msg("File already present, skipping")
			return 0, true, nil
		}
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return 0, false, err
	}

	src, err := url.JoinPath(d.opts.BaseURL, file)
	if err != nil {
		return 0, false, fmt.Errorf("build url for %s: %w", file, err)
	}

	start := time.Now()
	logger.Info().Str("url", src).Msg("Downloading")

	n, err = d.cb.Execute(func() (int64, error) {
		return d.fetch(ctx, src, dest)
	})
	metrics.RecordDownload(file, n, time.Since(start), err)

	if err != nil {
		result := "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "rejected"
		}
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, result).Inc()
		return 0, false, fmt.Errorf("download %s: %w", file, err)
	}

	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	logger.Info().Int64("bytes", n).Dur("duration", time.Since(start)).Msg("Downloaded")
	return n, false, nil
}

// fetch streams src into dest through a temp file.
func (d *Downloader) fetch(ctx context.Context, src, dest string) (int64, error) {
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, http.NoBody)
	if err != nil {
		return 0, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return 0, &StatusError{URL: src, StatusCode: resp.StatusCode}
	}

	var n int64
	err = fsutil.WriteFileAtomic(dest, 0o640, func(w io.Writer) error {
		var copyErr error
		n, copyErr = io.Copy(w, resp.Body)
		return copyErr
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// State returns the breaker state.
func (d *Downloader) State() gobreaker.State {
	return d.cb.State()
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
