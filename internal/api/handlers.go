// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"context"
	"time"

	"github.com/tomtom215/cinematch/internal/middleware"
	"github.com/tomtom215/cinematch/internal/ranking"
	"github.com/tomtom215/cinematch/internal/service"
)

// Facade is the part of the core the HTTP layer calls.
// *service.Service implements it.
type Facade interface {
	Search(ctx context.Context, f ranking.Filters) service.Result
	Genres(ctx context.Context) service.Result
	Movie(ctx context.Context, id string) service.Result
	Recommendations(ctx context.Context, email string) service.Result
	ReviewsForUser(ctx context.Context, email string) service.Result
	Register(ctx context.Context, in service.RegisterInput) service.Result
	Login(ctx context.Context, email, password string) service.Result
	SubmitReview(ctx context.Context, in service.ReviewInput) service.Result
	DeleteReview(ctx context.Context, email, movieID string) service.Result
	ReloadCatalog(ctx context.Context) service.Result
	Status(ctx context.Context) service.Result
}

var _ Facade = (*service.Service)(nil)

// Handler contains dependencies for API handlers.
//
// Methods are split across files:
//   - handlers_health.go: liveness and health
//   - handlers_catalog.go: search, movie detail, genres, reload
//   - handlers_users.go: registration, login, recommendations, review history
//   - handlers_reviews.go: review submission and deletion
type Handler struct {
	svc       Facade
	perfMon   *middleware.PerformanceMonitor
	version   string
	startTime time.Time
}

// NewHandler creates a handler. perfMon may be nil.
func NewHandler(svc Facade, perfMon *middleware.PerformanceMonitor, version string) *Handler {
	return &Handler{
		svc:       svc,
		perfMon:   perfMon,
		version:   version,
		startTime: time.Now(),
	}
}
