// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/review"
	"github.com/tomtom215/cinematch/internal/service"
	"github.com/tomtom215/cinematch/internal/users"
)

// Error codes carried in APIError.Code.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodePartialFailure   = "PARTIAL_FAILURE"
	ErrCodeUnavailable      = "SERVICE_UNAVAILABLE"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// statusFor maps a failed Result to an HTTP status and error code.
// The order matters: a consistency failure also wraps the review it kept.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrConsistency):
		return http.StatusInternalServerError, ErrCodePartialFailure
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, ErrCodeValidation
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, review.ErrNotFound),
		errors.Is(err, users.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, review.ErrAlreadyReviewed),
		errors.Is(err, users.ErrEmailExists):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, users.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case errors.Is(err, catalog.ErrMalformedSnapshot),
		errors.Is(err, review.ErrMalformedLedger),
		errors.Is(err, users.ErrMalformedUsers):
		return http.StatusServiceUnavailable, ErrCodeUnavailable
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}
