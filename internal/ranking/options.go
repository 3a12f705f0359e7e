// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package ranking orders catalog entries for search and builds
// preference-weighted recommendations.
//
// # Search
//
// Matches are scored with a vote-damped rating:
//
//	score = votes / (votes + prior) * rating
//
// so a highly rated title with few votes ranks below a slightly lower rated
// title that many people voted on. Ties keep catalog order.
//
// # Recommendations
//
// For each genre in the profile, strongest first, the highest rated titles
// of that genre are appended. Titles in several preferred genres may appear
// more than once.
//
// All functions are pure. They read the entries they are given and never
// touch storage.
package ranking

import "github.com/tomtom215/cinematch/internal/config"

// Defaults used when an Options field is zero.
const (
	DefaultMaxResults    = 100
	DefaultPriorVotes    = 5000
	DefaultPerGenreLimit = 5
)

// Options tunes search and recommendation.
type Options struct {
	// MaxResults caps the search result list.
	MaxResults int

	// PriorVotes is the damping constant.
	PriorVotes float64

	// PerGenreLimit is how many titles each genre contributes to recommendations.
	PerGenreLimit int
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		MaxResults:    DefaultMaxResults,
		PriorVotes:    DefaultPriorVotes,
		PerGenreLimit: DefaultPerGenreLimit,
	}
}

// OptionsFromConfig maps the search and recommend sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxResults:    cfg.Search.MaxResults,
		PriorVotes:    cfg.Search.PriorVotes,
		PerGenreLimit: cfg.Recommend.PerGenreLimit,
	}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.PriorVotes <= 0 {
		o.PriorVotes = DefaultPriorVotes
	}
	if o.PerGenreLimit <= 0 {
		o.PerGenreLimit = DefaultPerGenreLimit
	}
	return o
}
