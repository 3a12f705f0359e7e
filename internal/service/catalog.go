// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/events"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/ranking"
)

// MovieDetail is a catalog entry with its reviews keyed by reviewer email.
type MovieDetail struct {
	Movie         models.Movie             `json:"movie"`
	Reviews       map[string]models.Review `json:"reviews"`
	ReviewCount   int                      `json:"review_count"`
	AverageRating float64                  `json:"average_rating"`
}

// Search ranks the catalog against f.
func (s *Service) Search(ctx context.Context, f ranking.Filters) Result {
	start := time.Now()

	entries, err := s.catalog.All(ctx)
	if err != nil {
		return s.internal(ctx, "search", err)
	}

	res := ranking.Search(entries, f, s.opts.Ranking)
	metrics.RecordSearch(time.Since(start), res.Total)

	logging.Ctx(ctx).Debug().
		Interface("filters", f).
		Int("total", res.Total).
		Int("count", res.Count).
		Dur("duration", time.Since(start)).
		Msg("Search complete")
	return ok(fmt.Sprintf(msgSearchTemplate, res.Count), res)
}

// Genres lists catalog genres alphabetically.
func (s *Service) Genres(ctx context.Context) Result {
	genres, err := s.catalog.Genres(ctx)
	if err != nil {
		return s.internal(ctx, "genres", err)
	}
	if genres == nil {
		genres = []string{}
	}
	return ok("", genres)
}

// Movie returns one entry and its reviews.
func (s *Service) Movie(ctx context.Context, id string) Result {
	m, err := s.catalog.ByID(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return fail(MsgMovieNotFound, err)
	}
	if err != nil {
		return s.internal(ctx, "movie", err)
	}

	reviews, err := s.reviews.ForMovie(ctx, id)
	if err != nil {
		return s.internal(ctx, "movie reviews", err)
	}

	detail := MovieDetail{Movie: m, Reviews: reviews, ReviewCount: len(reviews)}
	if len(reviews) > 0 {
		var sum float64
		for _, r := range reviews {
			sum += r.Rating
		}
		detail.AverageRating = sum / float64(len(reviews))
	}
	return ok("", detail)
}

// Recommendations returns the user's preference-ranked titles, from the
// cache when present.
func (s *Service) Recommendations(ctx context.Context, email string) Result {
	user, err := s.users.Get(ctx, email)
	if err != nil {
		return s.userLookupFailed(ctx, "recommendations", err)
	}

	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, email)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Recommendation cache read failed")
		}
		if hit {
			return ok(fmt.Sprintf(msgRecommendTemplate, len(cached)), cached)
		}
	}

	if user.Preferences.IsEmpty() {
		return ok(MsgNoGenrePreferences, []models.Movie{})
	}

	// Load once so the lookup below only reads the in-memory view.
	if _, err := s.catalog.Len(ctx); err != nil {
		return s.internal(ctx, "recommendations", err)
	}
	var lookupErr error
	lookup := func(genre string) []models.Movie {
		entries, err := s.catalog.ByGenre(ctx, genre)
		if err != nil && lookupErr == nil {
			lookupErr = err
		}
		return entries
	}

	recs := ranking.Recommend(user.Preferences, lookup, s.opts.Ranking)
	if lookupErr != nil {
		return s.internal(ctx, "recommendations", lookupErr)
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, email, recs); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Recommendation cache write failed")
		}
	}
	return ok(fmt.Sprintf(msgRecommendTemplate, len(recs)), recs)
}

// ReloadCatalog drops the in-memory catalog, reads the snapshot again and
// clears cached recommendations.
func (s *Service) ReloadCatalog(ctx context.Context) Result {
	s.catalog.Invalidate()
	n, err := s.catalog.Len(ctx)
	if err != nil {
		return s.internal(ctx, "reload catalog", err)
	}

	s.afterCatalogReload(ctx, n)
	return ok(fmt.Sprintf(msgCatalogReloadedTempl, n), map[string]int{"entries": n})
}

// Invalidate implements ingest.Invalidator so a finished ingestion run
// refreshes the catalog and the recommendation cache.
func (s *Service) Invalidate() {
	s.ReloadCatalog(context.Background())
}

func (s *Service) afterCatalogReload(ctx context.Context, entries int) {
	if s.events != nil {
		err := s.events.Publish(ctx, events.NewCatalogReloaded(entries))
		if err == nil {
			return
		}
		logging.Ctx(ctx).Warn().Err(err).Msg("Publishing catalog reload failed, clearing cache directly")
	}
	if s.cache != nil {
		if _, err := s.cache.Clear(ctx); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Recommendation cache clear failed")
		}
	}
}

// sortedMovieIDs returns map keys in ascending order.
func sortedMovieIDs(m map[string]models.Review) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
