// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/events"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/preference"
	"github.com/tomtom215/cinematch/internal/review"
	"github.com/tomtom215/cinematch/internal/validation"
)

// ReviewInput is a review submission. Score bounds are checked by the ledger.
type ReviewInput struct {
	Email   string `json:"email" validate:"required,email"`
	MovieID string `json:"movie_id" validate:"required,titleid"`
	models.Scores
	WrittenReview string `json:"written_review" validate:"max=5000"`
}

// UserReview is one row of a user's review history. Movie is nil when the
// title is no longer in the catalog.
type UserReview struct {
	MovieID string        `json:"movie_id"`
	Movie   *models.Movie `json:"movie"`
	Review  models.Review `json:"review"`
}

// SubmitReview stores a review, feeds a strong acting score back into the
// reviewer's cast preferences and announces the change.
func (s *Service) SubmitReview(ctx context.Context, in ReviewInput) Result {
	if verr := validation.ValidateStruct(&in); verr != nil {
		return invalid(verr)
	}

	if res, found := s.requireUser(ctx, in.Email, "submit review"); !found {
		return res
	}

	movie, err := s.catalog.ByID(ctx, in.MovieID)
	if errors.Is(err, catalog.ErrNotFound) {
		return fail(MsgMovieNotFound, err)
	}
	if err != nil {
		return s.internal(ctx, "submit review", err)
	}

	rev, err := s.reviews.Submit(ctx, in.Email, in.MovieID, in.Scores, in.WrittenReview)
	switch {
	case errors.Is(err, review.ErrAlreadyReviewed):
		return fail(MsgAlreadyReviewed, err)
	case errors.Is(err, review.ErrInvalidScores):
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			return invalid(verr)
		}
		return fail(err.Error(), fmt.Errorf("%w: %w", ErrInvalidInput, err))
	case err != nil:
		return s.internal(ctx, "submit review", err)
	}

	var prefErr error
	if in.Acting > s.opts.ActingThreshold {
		prefErr = s.recordCastSignal(ctx, in.Email, movie.CastNames())
	}

	s.announce(ctx, events.NewReviewSubmitted(in.Email, in.MovieID))

	if prefErr != nil {
		logging.Ctx(ctx).Warn().
			Err(prefErr).
			Str("email", logging.SanitizeEmail(in.Email)).
			Str("movie_id", in.MovieID).
			Msg("Consistency warning: review stored without preference update")
		return Result{
			Success: false,
			Message: MsgPreferencesNotSaved,
			Data:    rev,
			Err:     fmt.Errorf("%w: %w", ErrConsistency, prefErr),
		}
	}
	return ok(MsgReviewSubmitted, rev)
}

func (s *Service) recordCastSignal(ctx context.Context, email string, names []string) error {
	_, err := s.users.UpdatePreferences(ctx, email, func(p preference.Profile) preference.Profile {
		return preference.RecordCastSignal(p, names)
	})
	metrics.RecordPreferenceUpdate(err)
	return err
}

// DeleteReview removes a review. Cast weights it added stay in place.
func (s *Service) DeleteReview(ctx context.Context, email, movieID string) Result {
	err := s.reviews.Delete(ctx, email, movieID)
	if errors.Is(err, review.ErrNotFound) {
		return fail(MsgReviewNotFound, err)
	}
	if err != nil {
		return s.internal(ctx, "delete review", err)
	}

	s.announce(ctx, events.NewReviewDeleted(email, movieID))
	return ok(MsgReviewDeleted, nil)
}

// ReviewsForUser lists the user's reviews with their movies, ordered by
// movie ID.
func (s *Service) ReviewsForUser(ctx context.Context, email string) Result {
	if res, found := s.requireUser(ctx, email, "user reviews"); !found {
		return res
	}

	byMovie, err := s.reviews.ForUser(ctx, email)
	if err != nil {
		return s.internal(ctx, "user reviews", err)
	}

	out := make([]UserReview, 0, len(byMovie))
	for _, id := range sortedMovieIDs(byMovie) {
		row := UserReview{MovieID: id, Review: byMovie[id]}
		m, err := s.catalog.ByID(ctx, id)
		switch {
		case err == nil:
			row.Movie = &m
		case !errors.Is(err, catalog.ErrNotFound):
			return s.internal(ctx, "user reviews", err)
		}
		out = append(out, row)
	}
	return ok(fmt.Sprintf("%d reviews.", len(out)), out)
}

// announce publishes e, or evicts the reviewer's recommendations directly
// when no bus is available.
func (s *Service) announce(ctx context.Context, e events.Event) {
	if s.events != nil {
		err := s.events.Publish(ctx, e)
		if err == nil {
			return
		}
		logging.Ctx(ctx).Warn().Err(err).Str("topic", e.Topic).Msg("Event publish failed, evicting cache directly")
	}
	if s.cache != nil && e.Email != "" {
		if err := s.cache.Evict(ctx, e.Email); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Recommendation cache eviction failed")
		}
	}
}
