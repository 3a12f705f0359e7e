// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - API endpoint latency and throughput
// - Catalog ingestion and loading
// - Dataset downloads
// - Review and preference writes
// - Recommendation cache efficiency
// - Event bus traffic

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Catalog Metrics
	CatalogEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_entries",
			Help: "Number of movies in the loaded catalog view",
		},
	)

	CatalogLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_load_duration_seconds",
			Help:    "Time to read and index the catalog snapshot",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	CatalogLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_loads_total",
			Help: "Total number of catalog snapshot loads",
		},
		[]string{"result"}, // "success", "error"
	)

	// Ingestion Metrics
	IngestRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_total",
			Help: "Rows processed by the ingestion pipeline",
		},
		[]string{"stage", "outcome"}, // outcome: "kept", "filtered", "malformed"
	)

	IngestRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_run_duration_seconds",
			Help:    "Duration of ingestion pipeline runs",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 2400},
		},
	)

	IngestRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_runs_total",
			Help: "Total number of ingestion runs",
		},
		[]string{"result"}, // "success", "io_error", "canceled", "error"
	)

	IngestLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_last_success_timestamp",
			Help: "Unix timestamp of the last successful ingestion",
		},
	)

	// Download Metrics
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_downloads_total",
			Help: "Dataset file downloads",
		},
		[]string{"file", "result"}, // result: "success", "skipped", "error"
	)

	DownloadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dataset_download_bytes_total",
			Help: "Bytes written by dataset downloads",
		},
	)

	DownloadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataset_download_duration_seconds",
			Help:    "Duration of a single dataset file download",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"file"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Review and Preference Metrics
	ReviewOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_operations_total",
			Help: "Review ledger operations",
		},
		[]string{"operation", "result"}, // operation: "submit", "delete"
	)

	PreferenceUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preference_updates_total",
			Help: "Preference profile writes triggered by reviews",
		},
		[]string{"result"}, // "success", "failed"
	)

	UserRegistrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_registrations_total",
			Help: "User registration attempts",
		},
		[]string{"result"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Login attempts",
		},
		[]string{"result"}, // "success", "failure"
	)

	// Search Metrics
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_duration_seconds",
			Help:    "Time to filter and rank a catalog search",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	SearchMatches = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_matches",
			Help:    "Number of catalog entries matching a search before the result cap",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000, 10000},
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"backend"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"backend"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Cache entries removed",
		},
		[]string{"backend", "reason"}, // reason: "expired", "invalidated", "cleared"
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Events published to the in-process bus",
		},
		[]string{"topic"},
	)

	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_processed_total",
			Help: "Events handled by subscribers",
		},
		[]string{"topic", "result"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCatalogLoad records a catalog snapshot load.
func RecordCatalogLoad(duration time.Duration, entries int, err error) {
	CatalogLoadDuration.Observe(duration.Seconds())
	if err != nil {
		CatalogLoads.WithLabelValues("error").Inc()
		return
	}
	CatalogLoads.WithLabelValues("success").Inc()
	CatalogEntries.Set(float64(entries))
}

// RecordIngestStage records row counts for one pipeline stage.
func RecordIngestStage(stage string, seen, kept, malformed int64) {
	filtered := seen - kept - malformed
	if filtered < 0 {
		filtered = 0
	}
	IngestRows.WithLabelValues(stage, "kept").Add(float64(kept))
	IngestRows.WithLabelValues(stage, "filtered").Add(float64(filtered))
	IngestRows.WithLabelValues(stage, "malformed").Add(float64(malformed))
}

// RecordIngestRun records a finished pipeline run. result is one of the
// ingest_runs_total result labels.
func RecordIngestRun(duration time.Duration, result string) {
	IngestRunDuration.Observe(duration.Seconds())
	IngestRuns.WithLabelValues(result).Inc()
	if result == "success" {
		IngestLastSuccess.Set(float64(time.Now().Unix()))
	}
}

// RecordDownload records a dataset file download.
func RecordDownload(file string, bytes int64, duration time.Duration, err error) {
	if err != nil {
		DownloadsTotal.WithLabelValues(file, "error").Inc()
		return
	}
	DownloadsTotal.WithLabelValues(file, "success").Inc()
	DownloadBytes.Add(float64(bytes))
	DownloadDuration.WithLabelValues(file).Observe(duration.Seconds())
}

// RecordDownloadSkipped records a file left in place because it already exists.
func RecordDownloadSkipped(file string) {
	DownloadsTotal.WithLabelValues(file, "skipped").Inc()
}

// RecordReviewOperation records a ledger submit or delete.
func RecordReviewOperation(operation string, err error, sentinels map[error]string) {
	ReviewOperations.WithLabelValues(operation, classify(err, sentinels)).Inc()
}

// RecordPreferenceUpdate records a review-driven profile write.
func RecordPreferenceUpdate(err error) {
	if err != nil {
		PreferenceUpdates.WithLabelValues("failed").Inc()
		return
	}
	PreferenceUpdates.WithLabelValues("success").Inc()
}

// RecordRegistration records a registration attempt.
func RecordRegistration(result string) {
	UserRegistrations.WithLabelValues(result).Inc()
}

// RecordLogin records a login attempt.
func RecordLogin(success bool) {
	if success {
		LoginAttempts.WithLabelValues("success").Inc()
		return
	}
	LoginAttempts.WithLabelValues("failure").Inc()
}

// RecordSearch records a search.
func RecordSearch(duration time.Duration, matches int) {
	SearchDuration.Observe(duration.Seconds())
	SearchMatches.Observe(float64(matches))
}

// RecordCacheHit records a cache hit.
func RecordCacheHit(backend string) {
	CacheHits.WithLabelValues(backend).Inc()
}

// RecordCacheMiss records a cache miss.
func RecordCacheMiss(backend string) {
	CacheMisses.WithLabelValues(backend).Inc()
}

// RecordCacheEviction records removed cache entries.
func RecordCacheEviction(backend, reason string, count int) {
	CacheEvictions.WithLabelValues(backend, reason).Add(float64(count))
}

// RecordEventPublished records a published event.
func RecordEventPublished(topic string) {
	EventsPublished.WithLabelValues(topic).Inc()
}

// RecordEventProcessed records a handled event.
func RecordEventProcessed(topic string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	EventsProcessed.WithLabelValues(topic, result).Inc()
}

// classify maps err to a label using the first matching sentinel.
func classify(err error, sentinels map[error]string) string {
	if err == nil {
		return "success"
	}
	for sentinel, label := range sentinels {
		if errors.Is(err, sentinel) {
			return label
		}
	}
	return "error"
}
