// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cinematch/internal/ranking"
	"github.com/tomtom215/cinematch/internal/validation"
)

// searchQuery is the validated form of the search query string.
type searchQuery struct {
	Title     string  `json:"title" validate:"max=200"`
	Genre     string  `json:"genre" validate:"max=100"`
	Year      int     `json:"year" validate:"gte=0,lte=3000"`
	MinRating float64 `json:"min_rating" validate:"gte=0,lte=10"`
	Cast      string  `json:"cast" validate:"max=200"`
}

// SearchMovies handles GET /api/v1/movies.
//
// Query parameters (all optional, combined with AND):
//   - title: case-insensitive title substring
//   - genre: exact genre
//   - year: release year
//   - min_rating: inclusive rating floor
//   - cast: case-insensitive substring of any actor or actress
//
// @Summary Search movies
// @Description Filters the catalog and ranks hits by vote-damped rating
// @Tags Catalog
// @Produce json
// @Param title query string false "Title substring"
// @Param genre query string false "Exact genre"
// @Param year query int false "Release year"
// @Param min_rating query number false "Minimum rating (0-10)"
// @Param cast query string false "Actor or actress name substring"
// @Success 200 {object} models.APIResponse{data=ranking.SearchResult} "Ranked hits"
// @Failure 400 {object} models.APIResponse "Invalid parameters"
// @Failure 503 {object} models.APIResponse "Catalog unavailable"
// @Router /movies [get]
func (h *Handler) SearchMovies(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	year, err := getIntParam(r, "year")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	minRating, err := getFloatParam(r, "min_rating")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}

	req := searchQuery{
		Title:     strings.TrimSpace(q.Get("title")),
		Genre:     strings.TrimSpace(q.Get("genre")),
		Year:      year,
		MinRating: minRating,
		Cast:      strings.TrimSpace(q.Get("cast")),
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		respondErrorDetails(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	res := h.svc.Search(r.Context(), ranking.Filters{
		Title:     req.Title,
		Genre:     req.Genre,
		Year:      req.Year,
		MinRating: req.MinRating,
		Cast:      req.Cast,
	})
	respondResult(w, r, http.StatusOK, res, start)
}

// GetMovie handles GET /api/v1/movies/{id}.
// @Summary Get movie
// @Description Returns one catalog entry with its reviews and average review rating
// @Tags Catalog
// @Produce json
// @Param id path string true "Title ID (tt followed by digits)"
// @Success 200 {object} models.APIResponse{data=service.MovieDetail} "Movie retrieved"
// @Failure 404 {object} models.APIResponse "Movie not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /movies/{id} [get]
func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res := h.svc.Movie(r.Context(), chi.URLParam(r, "id"))
	respondResult(w, r, http.StatusOK, res, start)
}

// ListGenres handles GET /api/v1/genres.
// @Summary List genres
// @Tags Catalog
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]string} "Genres in alphabetical order"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /genres [get]
func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondResult(w, r, http.StatusOK, h.svc.Genres(r.Context()), start)
}

// ReloadCatalog handles POST /api/v1/admin/catalog/reload.
// @Summary Reload catalog
// @Description Re-reads the catalog snapshot and clears cached recommendations
// @Tags Admin
// @Produce json
// @Success 200 {object} models.APIResponse{data=object{entries=int}} "Catalog reloaded"
// @Failure 503 {object} models.APIResponse "Snapshot unreadable"
// @Router /admin/catalog/reload [post]
func (h *Handler) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondResult(w, r, http.StatusOK, h.svc.ReloadCatalog(r.Context()), start)
}
