// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinematch/internal/models"
)

// RecommendationPrefix starts every per-user recommendation key.
const RecommendationPrefix = "recommendations:"

// RecommendationKey returns the cache key for a user's recommendations.
func RecommendationKey(email string) string {
	return RecommendationPrefix + email
}

// Recommendations stores per-user recommendation lists as JSON.
type Recommendations struct {
	c   Cacher
	ttl time.Duration
}

// NewRecommendations wraps c. A zero ttl uses the backend default.
func NewRecommendations(c Cacher, ttl time.Duration) *Recommendations {
	return &Recommendations{c: c, ttl: ttl}
}

// Get returns the cached list for email. A corrupt entry is treated as a
// miss and removed.
func (r *Recommendations) Get(ctx context.Context, email string) ([]models.Movie, bool, error) {
	key := RecommendationKey(email)
	data, ok, err := r.c.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}

	var movies []models.Movie
	if err := json.Unmarshal(data, &movies); err != nil {
		_ = r.c.Delete(ctx, key)
		return nil, false, nil
	}
	return movies, true, nil
}

// Put caches the list for email.
func (r *Recommendations) Put(ctx context.Context, email string, movies []models.Movie) error {
	data, err := json.Marshal(movies)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	return r.c.Set(ctx, RecommendationKey(email), data, r.ttl)
}

// Evict removes the cached list for email.
func (r *Recommendations) Evict(ctx context.Context, email string) error {
	return r.c.Delete(ctx, RecommendationKey(email))
}

// Clear removes every cached list.
func (r *Recommendations) Clear(ctx context.Context) (int, error) {
	return r.c.DeletePrefix(ctx, RecommendationPrefix)
}

// Backend names the underlying cache.
func (r *Recommendations) Backend() string {
	return r.c.Backend()
}
