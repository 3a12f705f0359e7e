// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package ranking

import (
	"sort"

	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/preference"
)

// GenreLookup returns the catalog entries tagged with genre, in catalog order.
type GenreLookup func(genre string) []models.Movie

// Recommend walks the profile's genres from strongest to weakest and takes
// the PerGenreLimit highest rated titles of each. An empty profile yields
// an empty, non-nil list.
func Recommend(p preference.Profile, byGenre GenreLookup, opts Options) []models.Movie {
	opts = opts.withDefaults()

	out := make([]models.Movie, 0)
	for _, genre := range preference.RankedGenres(p) {
		out = append(out, topRated(byGenre(genre), opts.PerGenreLimit)...)
	}
	return out
}

// topRated returns the n highest rated entries; equal ratings keep input order.
func topRated(entries []models.Movie, n int) []models.Movie {
	sorted := make([]models.Movie, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rating > sorted[j].Rating
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
