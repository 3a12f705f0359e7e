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

	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/service"
)

// reviewRequest is the body of POST /api/v1/movies/{id}/reviews.
//
//	{"email": "a@example.com", "recommendation_score": 4, "acting_score": 5,
//	 "quality_score": 4, "rewatch_score": 3, "engagement": 4,
//	 "written_review": "..."}
type reviewRequest struct {
	Email string `json:"email"`
	models.Scores
	WrittenReview string `json:"written_review"`
}

// SubmitReview handles POST /api/v1/movies/{id}/reviews.
// @Summary Submit review
// @Description Stores or replaces the reviewer's review of a movie. Each score is 1-5.
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Title ID"
// @Param review body reviewRequest true "Review"
// @Success 201 {object} models.APIResponse{data=models.Review} "Review stored"
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 404 {object} models.APIResponse "Movie or user not found"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /movies/{id}/reviews [post]
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}

	res := h.svc.SubmitReview(r.Context(), service.ReviewInput{
		Email:         strings.TrimSpace(req.Email),
		MovieID:       chi.URLParam(r, "id"),
		Scores:        req.Scores,
		WrittenReview: req.WrittenReview,
	})
	respondResult(w, r, http.StatusCreated, res, start)
}

// DeleteReview handles DELETE /api/v1/movies/{id}/reviews/{email}.
// @Summary Delete review
// @Tags Reviews
// @Produce json
// @Param id path string true "Title ID"
// @Param email path string true "Reviewer email, percent-encoded"
// @Success 200 {object} models.APIResponse "Review deleted"
// @Failure 400 {object} models.APIResponse "Invalid email"
// @Failure 404 {object} models.APIResponse "Review not found"
// @Router /movies/{id}/reviews/{email} [delete]
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	email, ok := pathEmail(w, r)
	if !ok {
		return
	}
	res := h.svc.DeleteReview(r.Context(), email, chi.URLParam(r, "id"))
	respondResult(w, r, http.StatusOK, res, start)
}
