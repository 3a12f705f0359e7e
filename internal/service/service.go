// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package service is the core facade. Every operation returns a Result
// carrying a user-facing message; callers never see storage errors
// directly and the package knows nothing about HTTP.
//
// Writing a review and updating the reviewer's preferences are two
// separate stores. The review is written first and always kept. If the
// preference write then fails, the operation reports ErrConsistency in its
// message and logs a warning; the next qualifying review retries the
// signal from the current profile.
package service

import (
	"context"
	"errors"

	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/events"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/preference"
	"github.com/tomtom215/cinematch/internal/ranking"
)

// ErrConsistency marks a review that was stored while the matching
// preference update was not.
var ErrConsistency = errors.New("review saved but preferences not updated")

// User-facing messages.
const (
	MsgInternalError        = "An internal error occurred. Please try again later."
	MsgMovieNotFound        = "Movie not found."
	MsgUserNotFound         = "User not found."
	MsgReviewSubmitted      = "Review submitted successfully."
	MsgAlreadyReviewed      = "You have already submitted a review for this movie."
	MsgReviewDeleted        = "Review deleted."
	MsgReviewNotFound       = "Review not found."
	MsgPreferencesNotSaved  = "Review saved, but preferences could not be updated."
	MsgRegistered           = "User registered successfully."
	MsgEmailExists          = "Email already registered."
	MsgPasswordMismatch     = "Passwords do not match."
	MsgLoginSuccessful      = "Login successful."
	MsgInvalidCredentials   = "Invalid username/password."
	MsgNoGenrePreferences   = "No genre preferences set."
	MsgCatalogUnavailable   = "The movie catalog is not available yet."
	msgSearchTemplate       = "%d movies found."
	msgRecommendTemplate    = "%d recommendations."
	msgCatalogReloadedTempl = "Catalog reloaded with %d movies."
)

// Result is the outcome of a facade operation.
type Result struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`

	// Err is the underlying cause of a failure, for the caller's status
	// mapping. It is never serialized.
	Err error `json:"-"`
}

func ok(msg string, data interface{}) Result {
	return Result{Success: true, Message: msg, Data: data}
}

func fail(msg string, err error) Result {
	return Result{Success: false, Message: msg, Err: err}
}

// Catalog is the read side of the catalog store.
type Catalog interface {
	Len(ctx context.Context) (int, error)
	All(ctx context.Context) ([]models.Movie, error)
	ByID(ctx context.Context, id string) (models.Movie, error)
	Genres(ctx context.Context) ([]string, error)
	ByGenre(ctx context.Context, genre string) ([]models.Movie, error)
	Invalidate()
}

// Reviews is the review ledger.
type Reviews interface {
	Submit(ctx context.Context, email, movieID string, scores models.Scores, written string) (models.Review, error)
	Delete(ctx context.Context, email, movieID string) error
	ForMovie(ctx context.Context, movieID string) (map[string]models.Review, error)
	ForUser(ctx context.Context, email string) (map[string]models.Review, error)
}

// Users is the account store.
type Users interface {
	Create(ctx context.Context, email, displayName, password string, genres []string) (models.User, error)
	Get(ctx context.Context, email string) (models.User, error)
	Exists(ctx context.Context, email string) (bool, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	UpdatePreferences(ctx context.Context, email string, update func(preference.Profile) preference.Profile) (models.User, error)
}

// RecommendationCache caches per-user recommendation lists.
type RecommendationCache interface {
	Get(ctx context.Context, email string) ([]models.Movie, bool, error)
	Put(ctx context.Context, email string, movies []models.Movie) error
	Evict(ctx context.Context, email string) error
	Clear(ctx context.Context) (int, error)
}

// Deps are the stores the facade coordinates. Cache and Events are optional.
type Deps struct {
	Catalog Catalog
	Reviews Reviews
	Users   Users
	Cache   RecommendationCache
	Events  events.Publisher
}

// Options tunes the facade.
type Options struct {
	Ranking ranking.Options

	// ActingThreshold: acting scores strictly above it add a cast signal.
	ActingThreshold int

	PasswordPolicy config.PasswordPolicy
}

// OptionsFromConfig maps the relevant config sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Ranking:         ranking.OptionsFromConfig(cfg),
		ActingThreshold: cfg.Review.ActingThreshold,
		PasswordPolicy:  cfg.PasswordPolicy(),
	}
}

// Service is the core facade.
type Service struct {
	catalog Catalog
	reviews Reviews
	users   Users
	cache   RecommendationCache
	events  events.Publisher
	opts    Options
}

// New builds the facade.
func New(deps Deps, opts Options) *Service {
	return &Service{
		catalog: deps.Catalog,
		reviews: deps.Reviews,
		users:   deps.Users,
		cache:   deps.Cache,
		events:  deps.Events,
		opts:    opts,
	}
}
