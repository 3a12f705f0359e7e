// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package models

// Scores are the five structured components of a review.
type Scores struct {
	Recommendation int `json:"recommendation_score"`
	Acting         int `json:"acting_score"`
	Quality        int `json:"quality_score"`
	Rewatch        int `json:"rewatch_score"`
	Engagement     int `json:"engagement"`
}

// Sum adds the five components.
func (s Scores) Sum() int {
	return s.Recommendation + s.Acting + s.Quality + s.Rewatch + s.Engagement
}

// Rating is the derived review rating, sum/10.
func (s Scores) Rating() float64 {
	return float64(s.Sum()) / 10
}

// Components returns the scores in ledger column order.
func (s Scores) Components() [5]int {
	return [5]int{s.Recommendation, s.Acting, s.Quality, s.Rewatch, s.Engagement}
}

// Review is one ledger record, keyed externally by (movie id, email).
type Review struct {
	Scores
	Rating        float64 `json:"rating"`
	WrittenReview string  `json:"written_review"`
}

// NewReview derives the rating from scores.
func NewReview(scores Scores, written string) Review {
	return Review{Scores: scores, Rating: scores.Rating(), WrittenReview: written}
}
