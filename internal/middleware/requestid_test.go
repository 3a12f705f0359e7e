// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/cinematch/internal/logging"
)

type capturedIDs struct {
	request     string
	logRequest  string
	correlation string
}

func serveWithRequestID(t *testing.T, header string) (*httptest.ResponseRecorder, capturedIDs) {
	t.Helper()

	var got capturedIDs
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.request = GetRequestID(r.Context())
		got.logRequest = logging.RequestIDFromContext(r.Context())
		got.correlation = logging.CorrelationIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, got
}

func TestRequestID_GeneratesNewID(t *testing.T) {
	rec, got := serveWithRequestID(t, "")

	responseID := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(responseID); err != nil {
		t.Fatalf("response ID %q is not a UUID: %v", responseID, err)
	}
	if got.request != responseID {
		t.Errorf("context ID = %q, header = %q", got.request, responseID)
	}
	if got.logRequest != responseID {
		t.Errorf("logging request ID = %q, want %q", got.logRequest, responseID)
	}
	if got.correlation == "" {
		t.Error("expected a correlation ID")
	}
}

func TestRequestID_UpstreamHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantKeep bool
	}{
		{"plain", "abc-123", true},
		{"proxy style", "host.example:42", true},
		{"newline injection", "abc\nforged=1", false},
		{"too long", strings.Repeat("a", 129), false},
		{"spaces", "a b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, got := serveWithRequestID(t, tt.header)
			responseID := rec.Header().Get(RequestIDHeader)

			if tt.wantKeep && responseID != tt.header {
				t.Errorf("response ID = %q, want %q", responseID, tt.header)
			}
			if !tt.wantKeep && responseID == tt.header {
				t.Errorf("unsafe upstream ID %q was kept", tt.header)
			}
			if got.request != responseID {
				t.Errorf("context ID = %q, header = %q", got.request, responseID)
			}
		})
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		rec, _ := serveWithRequestID(t, "")
		id := rec.Header().Get(RequestIDHeader)
		if seen[id] {
			t.Fatalf("duplicate request ID %s", id)
		}
		seen[id] = true
	}
}
