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
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/metrics"
	"github.com/tomtom215/cinematch/internal/users"
	"github.com/tomtom215/cinematch/internal/validation"
)

// ErrInvalidInput wraps every input rejection.
var ErrInvalidInput = errors.New("invalid input")

// RegisterInput is a registration form.
type RegisterInput struct {
	Email           string   `json:"email" validate:"required,email"`
	DisplayName     string   `json:"display_name" validate:"max=100"`
	Password        string   `json:"password" validate:"required"`
	ConfirmPassword string   `json:"confirm_password"`
	Genres          []string `json:"genres" validate:"dive,required"`
}

// Register creates an account. Checks run in order: field validation,
// password confirmation, password policy, then email uniqueness.
func (s *Service) Register(ctx context.Context, in RegisterInput) Result {
	if verr := validation.ValidateStruct(&in); verr != nil {
		metrics.RecordRegistration("invalid")
		return invalid(verr)
	}

	if in.Password != in.ConfirmPassword {
		metrics.RecordRegistration("invalid")
		return fail(MsgPasswordMismatch, fmt.Errorf("%w: password confirmation", ErrInvalidInput))
	}

	if policy := s.opts.PasswordPolicy.Validate(in.Password); !policy.Valid {
		metrics.RecordRegistration("weak_password")
		return Result{
			Success: false,
			Message: policy.Errors[0],
			Data:    map[string][]string{"errors": policy.Errors},
			Err:     fmt.Errorf("%w: %s", ErrInvalidInput, policy.Errors[0]),
		}
	}

	user, err := s.users.Create(ctx, in.Email, in.DisplayName, in.Password, in.Genres)
	if errors.Is(err, users.ErrEmailExists) {
		metrics.RecordRegistration("duplicate")
		return fail(MsgEmailExists, err)
	}
	if err != nil {
		metrics.RecordRegistration("error")
		return s.internal(ctx, "register", err)
	}

	metrics.RecordRegistration("success")
	return ok(MsgRegistered, user.Public())
}

// Login checks credentials. There are no sessions; a successful result
// carries the public profile.
func (s *Service) Login(ctx context.Context, email, password string) Result {
	user, err := s.users.Authenticate(ctx, email, password)
	metrics.RecordLogin(err == nil)

	if errors.Is(err, users.ErrInvalidCredentials) {
		logging.Ctx(ctx).Info().
			Str("email", logging.SanitizeEmail(email)).
			Msg("Login failed")
		return fail(MsgInvalidCredentials, err)
	}
	if err != nil {
		return s.internal(ctx, "login", err)
	}
	return ok(MsgLoginSuccessful, user.Public())
}

// requireUser returns found=false with a ready Result when email is not
// a registered user.
func (s *Service) requireUser(ctx context.Context, email, op string) (Result, bool) {
	exists, err := s.users.Exists(ctx, email)
	if err != nil {
		return s.internal(ctx, op, err), false
	}
	if !exists {
		return fail(MsgUserNotFound, users.ErrNotFound), false
	}
	return Result{}, true
}

func (s *Service) userLookupFailed(ctx context.Context, op string, err error) Result {
	if errors.Is(err, users.ErrNotFound) {
		return fail(MsgUserNotFound, err)
	}
	return s.internal(ctx, op, err)
}

// internal logs err and returns the generic failure.
func (s *Service) internal(ctx context.Context, op string, err error) Result {
	logging.Ctx(ctx).Error().Err(err).Str("operation", op).Msg("Operation failed")
	if errors.Is(err, catalog.ErrMalformedSnapshot) {
		return fail(MsgCatalogUnavailable, err)
	}
	return fail(MsgInternalError, err)
}

func invalid(verr *validation.RequestValidationError) Result {
	return Result{
		Success: false,
		Message: verr.Error(),
		Data:    verr.ToAPIError().Details,
		Err:     fmt.Errorf("%w: %w", ErrInvalidInput, verr),
	}
}
