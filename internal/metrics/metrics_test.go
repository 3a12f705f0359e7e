// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package metrics

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/movies", "200"))

	RecordAPIRequest("GET", "/api/v1/movies", "200", 15*time.Millisecond)
	RecordAPIRequest("GET", "/api/v1/movies", "200", 30*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/movies", "200"))
	if after-before != 2 {
		t.Errorf("api_requests_total delta = %v, want 2", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("after inc = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("after dec = %v, want %v", got, before)
	}
}

func TestRecordCatalogLoad(t *testing.T) {
	okBefore := testutil.ToFloat64(CatalogLoads.WithLabelValues("success"))
	errBefore := testutil.ToFloat64(CatalogLoads.WithLabelValues("error"))

	RecordCatalogLoad(time.Second, 42, nil)
	if got := testutil.ToFloat64(CatalogEntries); got != 42 {
		t.Errorf("catalog_entries = %v, want 42", got)
	}

	RecordCatalogLoad(time.Second, 0, errors.New("bad snapshot"))
	if got := testutil.ToFloat64(CatalogEntries); got != 42 {
		t.Errorf("failed load changed catalog_entries to %v", got)
	}

	if d := testutil.ToFloat64(CatalogLoads.WithLabelValues("success")) - okBefore; d != 1 {
		t.Errorf("success delta = %v", d)
	}
	if d := testutil.ToFloat64(CatalogLoads.WithLabelValues("error")) - errBefore; d != 1 {
		t.Errorf("error delta = %v", d)
	}
}

func TestRecordIngestStage(t *testing.T) {
	stage := "test_stage"
	RecordIngestStage(stage, 10, 6, 1)

	tests := []struct {
		outcome string
		want    float64
	}{
		{"kept", 6},
		{"filtered", 3},
		{"malformed", 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(IngestRows.WithLabelValues(stage, tt.outcome)); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.outcome, got, tt.want)
		}
	}
}

func TestRecordIngestRun(t *testing.T) {
	before := testutil.ToFloat64(IngestRuns.WithLabelValues("io_error"))
	RecordIngestRun(time.Minute, "io_error")
	if d := testutil.ToFloat64(IngestRuns.WithLabelValues("io_error")) - before; d != 1 {
		t.Errorf("io_error delta = %v", d)
	}

	RecordIngestRun(time.Minute, "success")
	if got := testutil.ToFloat64(IngestLastSuccess); got == 0 {
		t.Error("ingest_last_success_timestamp not set")
	}
}

func TestRecordReviewOperation(t *testing.T) {
	errDup := errors.New("duplicate")
	sentinels := map[error]string{errDup: "duplicate"}

	before := testutil.ToFloat64(ReviewOperations.WithLabelValues("submit", "duplicate"))
	RecordReviewOperation("submit", fmt.Errorf("movie tt1: %w", errDup), sentinels)
	if d := testutil.ToFloat64(ReviewOperations.WithLabelValues("submit", "duplicate")) - before; d != 1 {
		t.Errorf("duplicate delta = %v", d)
	}

	before = testutil.ToFloat64(ReviewOperations.WithLabelValues("submit", "error"))
	RecordReviewOperation("submit", errors.New("disk full"), sentinels)
	if d := testutil.ToFloat64(ReviewOperations.WithLabelValues("submit", "error")) - before; d != 1 {
		t.Errorf("error delta = %v", d)
	}
}

func TestRecordLogin(t *testing.T) {
	before := testutil.ToFloat64(LoginAttempts.WithLabelValues("failure"))
	RecordLogin(false)
	if d := testutil.ToFloat64(LoginAttempts.WithLabelValues("failure")) - before; d != 1 {
		t.Errorf("failure delta = %v", d)
	}
}

func TestCacheMetrics(t *testing.T) {
	RecordCacheHit("memory_test")
	RecordCacheHit("memory_test")
	RecordCacheMiss("memory_test")
	RecordCacheEviction("memory_test", "cleared", 3)

	if got := testutil.ToFloat64(CacheHits.WithLabelValues("memory_test")); got != 2 {
		t.Errorf("hits = %v", got)
	}
	if got := testutil.ToFloat64(CacheMisses.WithLabelValues("memory_test")); got != 1 {
		t.Errorf("misses = %v", got)
	}
	if got := testutil.ToFloat64(CacheEvictions.WithLabelValues("memory_test", "cleared")); got != 3 {
		t.Errorf("evictions = %v", got)
	}
}

func TestConcurrentMetricRecording(t *testing.T) {
	const workers = 20
	before := testutil.ToFloat64(EventsPublished.WithLabelValues("concurrency.test"))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RecordEventPublished("concurrency.test")
			RecordEventProcessed("concurrency.test", nil)
		}()
	}
	wg.Wait()

	if d := testutil.ToFloat64(EventsPublished.WithLabelValues("concurrency.test")) - before; d != workers {
		t.Errorf("published delta = %v, want %d", d, workers)
	}
}
