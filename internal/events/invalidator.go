// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package events

import (
	"context"

	"github.com/tomtom215/cinematch/internal/logging"
)

// RecommendationCache is the part of the recommendation cache the
// invalidator needs.
type RecommendationCache interface {
	Evict(ctx context.Context, email string) error
	Clear(ctx context.Context) (int, error)
}

// RegisterCacheInvalidation evicts a user's cached recommendations on
// every review event and clears all of them on a catalog reload.
func RegisterCacheInvalidation(b *Bus, c RecommendationCache) {
	evict := func(ctx context.Context, e Event) error {
		if err := c.Evict(ctx, e.Email); err != nil {
			return err
		}
		logging.Ctx(ctx).Debug().
			Str("topic", e.Topic).
			Str("email", logging.SanitizeEmail(e.Email)).
			Msg("Recommendations evicted")
		return nil
	}

	b.Handle("recommendations.evict.submitted", TopicReviewSubmitted, evict)
	b.Handle("recommendations.evict.deleted", TopicReviewDeleted, evict)
	b.Handle("recommendations.clear", TopicCatalogReloaded, func(ctx context.Context, e Event) error {
		n, err := c.Clear(ctx)
		if err != nil {
			return err
		}
		logging.Ctx(ctx).Info().
			Int("evicted", n).
			Int("entries", e.Entries).
			Msg("Recommendation cache cleared after catalog reload")
		return nil
	})
}
