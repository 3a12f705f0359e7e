// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/tomtom215/cinematch/docs"
	"github.com/tomtom215/cinematch/internal/cache"
	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/middleware"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/ranking"
	"github.com/tomtom215/cinematch/internal/review"
	"github.com/tomtom215/cinematch/internal/service"
	"github.com/tomtom215/cinematch/internal/users"
)

const (
	alice    = "alice@example.com"
	password = "Secret1"
)

type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

type resultData struct {
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func testMovies() []models.Movie {
	return []models.Movie{
		{
			ID: "tt0000001", Title: "Desert Heat", Year: 1995, Genres: []string{"Action", "Drama"},
			Rating: 8.0, Votes: 50000,
			Cast: models.Cast{Actor: []string{"Actor A"}, Actress: []string{"Actress B"}, Director: []string{"Director C"}},
		},
		{
			ID: "tt0000002", Title: "Quiet Rooms", Year: 2001, Genres: []string{"Drama"},
			Rating: 7.0, Votes: 20000,
			Cast: models.Cast{Actor: []string{}, Actress: []string{"Actress B"}, Director: []string{}},
		},
		{
			ID: "tt0000003", Title: "Laugh Track", Year: 2010, Genres: []string{"Comedy"},
			Rating: 6.5, Votes: 3000,
			Cast: models.Cast{Actor: []string{"Actor D"}, Actress: []string{}, Director: []string{}},
		},
	}
}

func newTestService(t *testing.T) *service.Service {
	t.Helper()
	dir := t.TempDir()

	snapshot := filepath.Join(dir, "movies.json")
	if err := catalog.WriteSnapshot(snapshot, testMovies()); err != nil {
		t.Fatal(err)
	}

	mem := cache.NewMemory(time.Minute)
	t.Cleanup(func() { _ = mem.Close() })

	return service.New(service.Deps{
		Catalog: catalog.NewStore(snapshot),
		Reviews: review.NewLedger(filepath.Join(dir, "reviews.json"), 0, 5),
		Users:   users.NewStore(filepath.Join(dir, "users.json"), bcrypt.MinCost),
		Cache:   cache.NewRecommendations(mem, 0),
	}, service.Options{
		Ranking:         ranking.DefaultOptions(),
		ActingThreshold: 4,
		PasswordPolicy:  config.DefaultPasswordPolicy(),
	})
}

func newTestServer(t *testing.T, svc Facade, mw *ChiMiddleware) http.Handler {
	t.Helper()
	if mw == nil {
		cfg := DefaultChiMiddlewareConfig()
		cfg.RateLimitDisabled = true
		mw = NewChiMiddleware(cfg)
	}
	h := NewHandler(svc, middleware.NewPerformanceMonitor(100, time.Hour), "test")
	return NewRouter(h, mw).SetupChi()
}

func do(t *testing.T, srv http.Handler, method, target string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode body %q: %v", method, target, rec.Body.String(), err)
		}
	}
	return rec, env
}

func decodeResult(t *testing.T, env envelope, v interface{}) string {
	t.Helper()
	var rd resultData
	if err := json.Unmarshal(env.Data, &rd); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if v != nil {
		if err := json.Unmarshal(rd.Result, v); err != nil {
			t.Fatalf("decode result %s: %v", rd.Result, err)
		}
	}
	return rd.Message
}

func registerBody(email string, genres ...string) map[string]interface{} {
	return map[string]interface{}{
		"email":            email,
		"display_name":     "Alice",
		"password":         password,
		"confirm_password": password,
		"genres":           genres,
	}
}

func reviewBody(email string, acting int) map[string]interface{} {
	return map[string]interface{}{
		"email":                email,
		"recommendation_score": 4,
		"acting_score":         acting,
		"quality_score":        4,
		"rewatch_score":        3,
		"engagement":           4,
		"written_review":       "Solid.",
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, newTestService(t), nil)

	rec, env := do(t, srv, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var health HealthStatus
	if err := json.Unmarshal(env.Data, &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "healthy" || health.Catalog == nil || health.Catalog.CatalogEntries != 3 {
		t.Errorf("health = %+v", health)
	}
	if health.Version != "test" {
		t.Errorf("Version = %q", health.Version)
	}

	rec, _ = do(t, srv, http.MethodGet, "/api/v1/health/live", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d", rec.Code)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("missing request ID header")
	}
}

func TestSearchMovies(t *testing.T) {
	srv := newTestServer(t, newTestService(t), nil)

	tests := []struct {
		name    string
		query   string
		status  int
		wantIDs []string
	}{
		{"all", "", http.StatusOK, []string{"tt0000001", "tt0000002", "tt0000003"}},
		{"genre", "?genre=Drama", http.StatusOK, []string{"tt0000001", "tt0000002"}},
		{"title", "?title=quiet", http.StatusOK, []string{"tt0000002"}},
		{"cast", "?cast=actress+b&year=2001", http.StatusOK, []string{"tt0000002"}},
		{"director is not cast", "?cast=director+c", http.StatusOK, []string{}},
		{"min rating", "?min_rating=7.5", http.StatusOK, []string{"tt0000001"}},
		{"no match", "?genre=Western", http.StatusOK, []string{}},
		{"bad year", "?year=nineteen", http.StatusBadRequest, nil},
		{"rating out of range", "?min_rating=11", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, srv, http.MethodGet, "/api/v1/movies"+tt.query, nil)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				if env.Status != "error" || env.Error == nil {
					t.Errorf("expected error envelope, got %+v", env)
				}
				return
			}

			var res ranking.SearchResult
			decodeResult(t, env, &res)
			if res.Total != len(tt.wantIDs) {
				t.Fatalf("Total = %d, want %d", res.Total, len(tt.wantIDs))
			}
			got := make(map[string]bool)
			for _, hit := range res.Results {
				got[hit.ID] = true
			}
			for _, id := range tt.wantIDs {
				if !got[id] {
					t.Errorf("missing %s in %v", id, got)
				}
			}
		})
	}
}

func TestGetMovieAndGenres(t *testing.T) {
	srv := newTestServer(t, newTestService(t), nil)

	rec, env := do(t, srv, http.MethodGet, "/api/v1/movies/tt0000003", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var detail service.MovieDetail
	decodeResult(t, env, &detail)
	if detail.Movie.Title != "Laugh Track" || detail.ReviewCount != 0 {
		t.Errorf("detail = %+v", detail)
	}

	rec, env = do(t, srv, http.MethodGet, "/api/v1/movies/tt9999999", nil)
	if rec.Code != http.StatusNotFound || env.Error.Code != ErrCodeNotFound {
		t.Errorf("missing movie: status %d, error %+v", rec.Code, env.Error)
	}
	if env.Error.Message != service.MsgMovieNotFound {
		t.Errorf("Message = %q", env.Error.Message)
	}

	rec, env = do(t, srv, http.MethodGet, "/api/v1/genres", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("genres status = %d", rec.Code)
	}
	var genres []string
	decodeResult(t, env, &genres)
	if strings.Join(genres, ",") != "Action,Comedy,Drama" {
		t.Errorf("genres = %v", genres)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t, newTestService(t), nil)

	rec, env := do(t, srv, http.MethodPost, "/api/v1/users", registerBody(alice, "Drama"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	var user models.PublicUser
	if msg := decodeResult(t, env, &user); msg != service.MsgRegistered {
		t.Errorf("message = %q", msg)
	}
	if strings.Contains(string(env.Data), password) {
		t.Error("response leaks the password")
	}

	tests := []struct {
		name    string
		method  string
		target  string
		body    interface{}
		status  int
		code    string
		wantMsg string
	}{
		{
			name: "duplicate", method: http.MethodPost, target: "/api/v1/users",
			body: registerBody(alice, "Drama"), status: http.StatusConflict, code: ErrCodeConflict,
			wantMsg: service.MsgEmailExists,
		},
		{
			name: "weak password", method: http.MethodPost, target: "/api/v1/users",
			body: map[string]interface{}{
				"email": "bob@example.com", "password": "short", "confirm_password": "short",
			},
			status: http.StatusBadRequest, code: ErrCodeValidation,
			wantMsg: "Password must be at least 6 characters.",
		},
		{
			name: "mismatch", method: http.MethodPost, target: "/api/v1/users",
			body: map[string]interface{}{
				"email": "bob@example.com", "password": password, "confirm_password": "Other1x",
			},
			status: http.StatusBadRequest, code: ErrCodeValidation, wantMsg: service.MsgPasswordMismatch,
		},
		{
			name: "unknown field", method: http.MethodPost, target: "/api/v1/users",
			body:   map[string]interface{}{"email": "bob@example.com", "admin": true},
			status: http.StatusBadRequest, code: ErrCodeBadRequest,
		},
		{
			name: "wrong password", method: http.MethodPost, target: "/api/v1/sessions",
			body:   map[string]string{"email": alice, "password": "Wrong1x"},
			status: http.StatusUnauthorized, code: ErrCodeUnauthorized, wantMsg: service.MsgInvalidCredentials,
		},
		{
			name: "unknown user", method: http.MethodPost, target: "/api/v1/sessions",
			body:   map[string]string{"email": "nobody@example.com", "password": password},
			status: http.StatusUnauthorized, code: ErrCodeUnauthorized, wantMsg: service.MsgInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, srv, tt.method, tt.target, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tt.status, rec.Body.String())
			}
			if env.Error == nil || env.Error.Code != tt.code {
				t.Fatalf("error = %+v, want code %s", env.Error, tt.code)
			}
			if tt.wantMsg != "" && env.Error.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", env.Error.Message, tt.wantMsg)
			}
		})
	}

	rec, env = do(t, srv, http.MethodPost, "/api/v1/sessions", map[string]string{"email": alice, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	if msg := decodeResult(t, env, nil); msg != service.MsgLoginSuccessful {
		t.Errorf("login message = %q", msg)
	}
}

func TestWeakPasswordListsAllErrors(t *testing.T) {
	srv := newTestServer(t, newTestService(t), nil)

	_, env := do(t, srv, http.MethodPost, "/api/v1/users", map[string]interface{}{
		"email": "bob@example.com", "password": "abc", "confirm_password": "abc",
	})
	if env.Error == nil {
		t.Fatal("expected error")
	}
	errs, ok := env.Error.Details["errors"].([]interface{})
	if !ok || len(errs) != 3 {
		t.Errorf("details = %+v", env.Error.Details)
	}
}

func TestReviewLifecycle(t *testing.T) {
	srv := newTestServer(t, newTestService(t), nil)
	do(t, srv, http.MethodPost, "/api/v1/users", registerBody(alice, "Drama"))

	rec, env := do(t, srv, http.MethodPost, "/api/v1/movies/tt0000001/reviews", reviewBody(alice, 5))
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}
	var rev models.Review
	if msg := decodeResult(t, env, &rev); msg != service.MsgReviewSubmitted {
		t.Errorf("message = %q", msg)
	}
	if rev.Rating != 2.0 {
		t.Errorf("Rating = %v, want 2.0", rev.Rating)
	}

	failures := []struct {
		name   string
		target string
		body   interface{}
		status int
		code   string
	}{
		{"duplicate", "/api/v1/movies/tt0000001/reviews", reviewBody(alice, 3), http.StatusConflict, ErrCodeConflict},
		{"unknown movie", "/api/v1/movies/tt7777777/reviews", reviewBody(alice, 3), http.StatusNotFound, ErrCodeNotFound},
		{"unknown user", "/api/v1/movies/tt0000002/reviews", reviewBody("eve@example.com", 3), http.StatusNotFound, ErrCodeNotFound},
		{"score out of range", "/api/v1/movies/tt0000002/reviews", reviewBody(alice, 9), http.StatusBadRequest, ErrCodeValidation},
		{"bad movie id", "/api/v1/movies/nm0000001/reviews", reviewBody(alice, 3), http.StatusBadRequest, ErrCodeValidation},
		{"empty body", "/api/v1/movies/tt0000002/reviews", nil, http.StatusBadRequest, ErrCodeBadRequest},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, srv, http.MethodPost, tt.target, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tt.status, rec.Body.String())
			}
			if env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("error = %+v, want %s", env.Error, tt.code)
			}
		})
	}

	rec, env = do(t, srv, http.MethodGet, "/api/v1/users/alice%40example.com/reviews", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("user reviews status = %d", rec.Code)
	}
	var history []service.UserReview
	decodeResult(t, env, &history)
	if len(history) != 1 || history[0].MovieID != "tt0000001" || history[0].Movie == nil {
		t.Errorf("history = %+v", history)
	}

	rec, _ = do(t, srv, http.MethodDelete, "/api/v1/movies/tt0000001/reviews/"+alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec, env = do(t, srv, http.MethodDelete, "/api/v1/movies/tt0000001/reviews/"+alice, nil)
	if rec.Code != http.StatusNotFound || env.Error.Message != service.MsgReviewNotFound {
		t.Errorf("second delete: status %d, error %+v", rec.Code, env.Error)
	}
}

func TestRecommendations(t *testing.T) {
	srv := newTestServer(t, newTestService(t), nil)
	do(t, srv, http.MethodPost, "/api/v1/users", registerBody(alice, "Comedy"))

	rec, env := do(t, srv, http.MethodGet, "/api/v1/users/alice%40example.com/recommendations", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var movies []models.Movie
	decodeResult(t, env, &movies)
	if len(movies) != 1 || movies[0].ID != "tt0000003" {
		t.Errorf("recommendations = %+v", movies)
	}

	rec, env = do(t, srv, http.MethodGet, "/api/v1/users/nobody@example.com/recommendations", nil)
	if rec.Code != http.StatusNotFound || env.Error.Message != service.MsgUserNotFound {
		t.Errorf("unknown user: status %d, error %+v", rec.Code, env.Error)
	}
}

func TestReloadCatalog(t *testing.T) {
	srv := newTestServer(t, newTestService(t), nil)

	rec, env := do(t, srv, http.MethodPost, "/api/v1/admin/catalog/reload", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if msg := decodeResult(t, env, nil); msg != "Catalog reloaded with 3 movies." {
		t.Errorf("message = %q", msg)
	}
}

func TestRoutingErrors(t *testing.T) {
	srv := newTestServer(t, newTestService(t), nil)

	rec, env := do(t, srv, http.MethodGet, "/api/v1/nothing-here", nil)
	if rec.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("unknown route: status %d, error %+v", rec.Code, env.Error)
	}

	rec, env = do(t, srv, http.MethodPut, "/api/v1/genres", nil)
	if rec.Code != http.StatusMethodNotAllowed || env.Error == nil || env.Error.Code != ErrCodeMethodNotAllowed {
		t.Errorf("wrong method: status %d, error %+v", rec.Code, env.Error)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, newTestService(t), nil)
	do(t, srv, http.MethodGet, "/api/v1/genres", nil)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `api_requests_total{endpoint="/api/v1/genres"`) {
		t.Error("metrics output does not include the genres route")
	}
}

func TestSwaggerDocs(t *testing.T) {
	srv := newTestServer(t, newTestService(t), nil)

	tests := []struct {
		path string
		want string
	}{
		{"/swagger/index.html", "swagger-ui"},
		{"/swagger/doc.json", `"/movies/{id}/reviews"`},
		{"/swagger/doc.json", `"basePath": "/api/v1"`},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", tt.path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), tt.want) {
			t.Errorf("%s does not contain %s", tt.path, tt.want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	srv := newTestServer(t, newTestService(t), NewChiMiddleware(cfg))

	for i := 0; i < 2; i++ {
		if rec, _ := do(t, srv, http.MethodGet, "/api/v1/genres", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}

	rec, env := do(t, srv, http.MethodGet, "/api/v1/genres", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeRateLimited {
		t.Errorf("error = %+v", env.Error)
	}

	// Health is outside the limited group.
	if rec, _ := do(t, srv, http.MethodGet, "/api/v1/health/live", nil); rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"https://app.example.com"}
	srv := newTestServer(t, newTestService(t), NewChiMiddleware(cfg))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

// stubFacade returns a fixed result for review submission.
type stubFacade struct {
	*service.Service
	submit service.Result
}

func (s stubFacade) SubmitReview(context.Context, service.ReviewInput) service.Result {
	return s.submit
}

func TestConsistencyFailureMapsToPartialFailure(t *testing.T) {
	stub := stubFacade{
		Service: newTestService(t),
		submit: service.Result{
			Message: service.MsgPreferencesNotSaved,
			Data:    models.NewReview(models.Scores{Acting: 5}, ""),
			Err:     service.ErrConsistency,
		},
	}
	srv := newTestServer(t, stub, nil)

	rec, env := do(t, srv, http.MethodPost, "/api/v1/movies/tt0000001/reviews", reviewBody(alice, 5))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodePartialFailure {
		t.Fatalf("error = %+v", env.Error)
	}
	if _, ok := env.Error.Details["result"]; !ok {
		t.Error("partial failure should carry the stored review")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrInvalidInput, http.StatusBadRequest, ErrCodeValidation},
		{catalog.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{review.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{users.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{review.ErrAlreadyReviewed, http.StatusConflict, ErrCodeConflict},
		{users.ErrEmailExists, http.StatusConflict, ErrCodeConflict},
		{users.ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeUnauthorized},
		{service.ErrConsistency, http.StatusInternalServerError, ErrCodePartialFailure},
		{catalog.ErrMalformedSnapshot, http.StatusServiceUnavailable, ErrCodeUnavailable},
		{review.ErrMalformedLedger, http.StatusServiceUnavailable, ErrCodeUnavailable},
		{users.ErrMalformedUsers, http.StatusServiceUnavailable, ErrCodeUnavailable},
		{nil, http.StatusInternalServerError, ErrCodeInternal},
	}

	for _, tt := range tests {
		status, code := statusFor(tt.err)
		if status != tt.status || code != tt.code {
			t.Errorf("statusFor(%v) = %d %s, want %d %s", tt.err, status, code, tt.status, tt.code)
		}
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("a\nb\tc"); got != `a\x0ab\x09c` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
