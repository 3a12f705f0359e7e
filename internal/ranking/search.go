// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package ranking

import (
	"sort"
	"strings"

	"github.com/tomtom215/cinematch/internal/models"
)

// Filters narrow a search. Zero values match everything; set filters
// combine with AND.
type Filters struct {
	// Title is a case-insensitive substring of the title.
	Title string `json:"title,omitempty"`

	// Genre must equal one of the movie's genres.
	Genre string `json:"genre,omitempty"`

	// Year must equal the release year.
	Year int `json:"year,omitempty"`

	// MinRating is the inclusive lower bound on rating.
	MinRating float64 `json:"min_rating,omitempty"`

	// Cast is a case-insensitive substring of any actor, actress or director name.
	Cast string `json:"cast,omitempty"`
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f == Filters{}
}

// Hit is a matched movie with its search score.
type Hit struct {
	models.Movie
	Score float64 `json:"score"`
}

// SearchResult is a ranked, capped result list.
type SearchResult struct {
	Results []Hit `json:"results"`

	// Count is len(Results).
	Count int `json:"count"`

	// Total is the number of matches before the cap.
	Total int `json:"total"`
}

// Score returns votes/(votes+prior)*rating. A non-positive denominator scores 0.
func Score(m *models.Movie, prior float64) float64 {
	votes := float64(m.Votes)
	if votes+prior <= 0 {
		return 0
	}
	return votes / (votes + prior) * m.Rating
}

// Search filters entries, ranks the matches by Score and caps the list.
// Entries are not modified.
func Search(entries []models.Movie, f Filters, opts Options) SearchResult {
	opts = opts.withDefaults()
	m := newMatcher(f)

	hits := make([]Hit, 0)
	for i := range entries {
		if !m.match(&entries[i]) {
			continue
		}
		hits = append(hits, Hit{Movie: entries[i], Score: Score(&entries[i], opts.PriorVotes)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	total := len(hits)
	if len(hits) > opts.MaxResults {
		hits = hits[:opts.MaxResults]
	}
	return SearchResult{Results: hits, Count: len(hits), Total: total}
}

// matcher holds the lowercased filters so each entry is checked without
// re-lowering them.
type matcher struct {
	f     Filters
	title string
	cast  string
}

func newMatcher(f Filters) matcher {
	return matcher{
		f:     f,
		title: strings.ToLower(f.Title),
		cast:  strings.ToLower(f.Cast),
	}
}

func (m matcher) match(mv *models.Movie) bool {
	if m.title != "" && !strings.Contains(strings.ToLower(mv.Title), m.title) {
		return false
	}
	if m.f.Genre != "" && !mv.HasGenre(m.f.Genre) {
		return false
	}
	if m.f.Year != 0 && mv.Year != m.f.Year {
		return false
	}
	if m.f.MinRating > 0 && mv.Rating < m.f.MinRating {
		return false
	}
	if m.cast != "" && !anyContains(mv.CastNames(), m.cast) {
		return false
	}
	return true
}

func anyContains(names []string, needle string) bool {
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), needle) {
			return true
		}
	}
	return false
}
