// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cinematch/internal/service"
)

// loginRequest is the body of POST /api/v1/sessions.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/v1/users.
// @Summary Register user
// @Tags Users
// @Accept json
// @Produce json
// @Param user body service.RegisterInput true "Registration form"
// @Success 201 {object} models.APIResponse{data=models.PublicUser} "User registered"
// @Failure 400 {object} models.APIResponse "Invalid request or weak password"
// @Failure 409 {object} models.APIResponse "Email already registered"
// @Router /users [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	in.Email = strings.TrimSpace(in.Email)

	respondResult(w, r, http.StatusCreated, h.svc.Register(r.Context(), in), start)
}

// Login handles POST /api/v1/sessions. It only checks credentials; no
// session or token is issued.
// @Summary Check credentials
// @Tags Users
// @Accept json
// @Produce json
// @Param credentials body loginRequest true "Email and password"
// @Success 200 {object} models.APIResponse{data=models.PublicUser} "Credentials valid"
// @Failure 401 {object} models.APIResponse "Invalid credentials"
// @Router /sessions [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}

	res := h.svc.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	respondResult(w, r, http.StatusOK, res, start)
}

// Recommendations handles GET /api/v1/users/{email}/recommendations.
// @Summary Recommend movies
// @Description Ranks titles from the user's top genres by preference weight and vote-damped rating
// @Tags Users
// @Produce json
// @Param email path string true "User email, percent-encoded"
// @Success 200 {object} models.APIResponse{data=[]models.Movie} "Recommendations"
// @Failure 404 {object} models.APIResponse "User not found"
// @Router /users/{email}/recommendations [get]
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	email, ok := pathEmail(w, r)
	if !ok {
		return
	}
	respondResult(w, r, http.StatusOK, h.svc.Recommendations(r.Context(), email), start)
}

// UserReviews handles GET /api/v1/users/{email}/reviews.
// @Summary List user reviews
// @Tags Users
// @Produce json
// @Param email path string true "User email, percent-encoded"
// @Success 200 {object} models.APIResponse{data=[]service.UserReview} "Review history"
// @Failure 404 {object} models.APIResponse "User not found"
// @Router /users/{email}/reviews [get]
func (h *Handler) UserReviews(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	email, ok := pathEmail(w, r)
	if !ok {
		return
	}
	respondResult(w, r, http.StatusOK, h.svc.ReviewsForUser(r.Context(), email), start)
}

// pathEmail reads the {email} parameter, which clients may percent-encode.
func pathEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil || email == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid email in path.", nil)
		return "", false
	}
	return email, true
}
