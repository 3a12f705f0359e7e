// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package review stores structured reviews, at most one per movie and user.
//
// The ledger is a single JSON file mapping movie id to user email to review.
// It is read once, mutated in memory and rewritten whole on every change.
// One mutex serializes all access, which is sufficient for one process;
// several processes sharing the file would need an external lock.
package review

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinematch/internal/fsutil"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/validation"
)

var (
	// ErrAlreadyReviewed is returned when the user already reviewed the movie.
	ErrAlreadyReviewed = errors.New("review already exists")

	// ErrNotFound is returned when deleting a review that does not exist.
	ErrNotFound = errors.New("review not found")

	// ErrInvalidScores wraps a *validation.RequestValidationError.
	ErrInvalidScores = errors.New("invalid review scores")

	// ErrMalformedLedger is returned when the persisted ledger cannot be
	// decoded or holds a record that breaks the review invariants.
	ErrMalformedLedger = errors.New("malformed review ledger")
)

// metricLabels maps ledger errors to review_operations_total results.
var metricLabels = map[error]string{
	ErrAlreadyReviewed: "duplicate",
	ErrNotFound:        "not_found",
	ErrInvalidScores:   "invalid",
}

// ledgerData is the persisted shape: movie id -> email -> review.
type ledgerData map[string]map[string]models.Review

// Ledger is the review store.
type Ledger struct {
	path     string
	scoreMin int
	scoreMax int

	mu     sync.Mutex
	loaded bool
	data   ledgerData
}

// NewLedger returns a ledger backed by the file at path. Scores outside
// [scoreMin, scoreMax] are rejected.
func NewLedger(path string, scoreMin, scoreMax int) *Ledger {
	return &Ledger{path: path, scoreMin: scoreMin, scoreMax: scoreMax}
}

// ValidateScores checks each component against the configured bounds.
func (l *Ledger) ValidateScores(s models.Scores) error {
	fields := []struct {
		name  string
		value int
	}{
		{"recommendation_score", s.Recommendation},
		{"acting_score", s.Acting},
		{"quality_score", s.Quality},
		{"rewatch_score", s.Rewatch},
		{"engagement", s.Engagement},
	}

	var errs []validation.ValidationError
	for _, f := range fields {
		if e := validation.ValidateRange(f.name, f.value, l.scoreMin, l.scoreMax); e != nil {
			errs = append(errs, *e)
		}
	}
	if verr := validation.NewRequestValidationError(errs...); verr != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScores, verr)
	}
	return nil
}

// Submit stores a new review and returns it with its derived rating.
// Nothing is written when the scores are invalid or the pair already has a review.
func (l *Ledger) Submit(ctx context.Context, email, movieID string, scores models.Scores, written string) (models.Review, error) {
	rev, err := l.submit(email, movieID, scores, written)
	metrics.RecordReviewOperation("submit", err, metricLabels)
	if err != nil {
		return models.Review{}, err
	}

	logging.Ctx(ctx).Info().
		Str("component", "review").
		Str("movie_id", movieID).
		Str("email", logging.SanitizeEmail(email)).
		Float64("rating", rev.Rating).
		Msg("Review stored")
	return rev, nil
}

func (l *Ledger) submit(email, movieID string, scores models.Scores, written string) (models.Review, error) {
	if err := l.ValidateScores(scores); err != nil {
		return models.Review{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(); err != nil {
		return models.Review{}, err
	}

	byUser, hadMovie := l.data[movieID]
	if _, exists := byUser[email]; exists {
		return models.Review{}, fmt.Errorf("%w: movie %s", ErrAlreadyReviewed, movieID)
	}

	rev := models.NewReview(scores, written)
	if !hadMovie {
		byUser = make(map[string]models.Review)
		l.data[movieID] = byUser
	}
	byUser[email] = rev

	if err := l.persist(); err != nil {
		delete(byUser, email)
		if !hadMovie {
			delete(l.data, movieID)
		}
		return models.Review{}, err
	}
	return rev, nil
}

// ForMovie returns the reviews of a movie keyed by email. The map is empty
// when there are none.
func (l *Ledger) ForMovie(_ context.Context, movieID string) (map[string]models.Review, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(); err != nil {
		return nil, err
	}

	out := make(map[string]models.Review, len(l.data[movieID]))
	for email, rev := range l.data[movieID] {
		out[email] = rev
	}
	return out, nil
}

// ForUser returns a user's reviews keyed by movie id.
func (l *Ledger) ForUser(_ context.Context, email string) (map[string]models.Review, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(); err != nil {
		return nil, err
	}

	out := make(map[string]models.Review)
	for movieID, byUser := range l.data {
		if rev, ok := byUser[email]; ok {
			out[movieID] = rev
		}
	}
	return out, nil
}

// Get returns one review.
func (l *Ledger) Get(_ context.Context, email, movieID string) (models.Review, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(); err != nil {
		return models.Review{}, err
	}
	rev, ok := l.data[movieID][email]
	if !ok {
		return models.Review{}, fmt.Errorf("%w: movie %s", ErrNotFound, movieID)
	}
	return rev, nil
}

// Delete removes a user's review of a movie. A movie left with no reviews
// is removed from the ledger.
func (l *Ledger) Delete(ctx context.Context, email, movieID string) error {
	err := l.delete(email, movieID)
	metrics.RecordReviewOperation("delete", err, metricLabels)
	if err != nil {
		return err
	}

	logging.Ctx(ctx).Info().
		Str("component", "review").
		Str("movie_id", movieID).
		Str("email", logging.SanitizeEmail(email)).
		Msg("Review deleted")
	return nil
}

func (l *Ledger) delete(email, movieID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(); err != nil {
		return err
	}

	byUser := l.data[movieID]
	rev, ok := byUser[email]
	if !ok {
		return fmt.Errorf("%w: movie %s", ErrNotFound, movieID)
	}

	delete(byUser, email)
	pruned := len(byUser) == 0
	if pruned {
		delete(l.data, movieID)
	}

	if err := l.persist(); err != nil {
		if pruned {
			l.data[movieID] = byUser
		}
		byUser[email] = rev
		return err
	}
	return nil
}

// ensureLoaded reads the file on first use. Callers hold mu.
//
//nolint:gosec // G304: path comes from configuration
func (l *Ledger) ensureLoaded() error {
	if l.loaded {
		return nil
	}

	data := make(ledgerData)
	raw, err := os.ReadFile(l.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read review ledger: %w", err)
	case len(raw) > 0:
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedLedger, l.path, err)
		}
		if data == nil {
			data = make(ledgerData)
		}
		if err := l.checkLoaded(data); err != nil {
			return fmt.Errorf("%s: %w", l.path, err)
		}
	}

	l.data = data
	l.loaded = true
	return nil
}

// checkLoaded rejects records that Submit could never have written. Movies
// left with an empty review map are pruned.
func (l *Ledger) checkLoaded(data ledgerData) error {
	for movieID, byUser := range data {
		if byUser == nil {
			return fmt.Errorf("%w: movie %s: null review map", ErrMalformedLedger, movieID)
		}
		if len(byUser) == 0 {
			delete(data, movieID)
			continue
		}
		for email, rev := range byUser {
			if email == "" {
				return fmt.Errorf("%w: movie %s: review without email", ErrMalformedLedger, movieID)
			}
			// Not wrapped: a load failure must not read as caller input error.
			if err := l.ValidateScores(rev.Scores); err != nil {
				return fmt.Errorf("%w: movie %s, email %s: %v", ErrMalformedLedger, movieID, email, err)
			}
			if want := rev.Scores.Rating(); math.Abs(rev.Rating-want) > 1e-9 {
				return fmt.Errorf("%w: movie %s, email %s: rating %v, scores give %v",
					ErrMalformedLedger, movieID, email, rev.Rating, want)
			}
		}
	}
	return nil
}

// persist rewrites the whole file. Callers hold mu.
func (l *Ledger) persist() error {
	out, err := json.MarshalIndent(l.data, "", "    ")
	if err != nil {
		return fmt.Errorf("encode review ledger: %w", err)
	}
	if err := fsutil.WriteBytesAtomic(l.path, 0o640, out); err != nil {
		return fmt.Errorf("write review ledger: %w", err)
	}
	return nil
}
