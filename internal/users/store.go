// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package users persists accounts and their preference profiles.
//
// Like the review ledger, the store is one JSON file rewritten whole under
// a single mutex.
package users

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/cinematch/internal/fsutil"
	"github.com/tomtom215/cinematch/internal/logging"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/preference"
)

var (
	// ErrNotFound is returned for an unknown email.
	ErrNotFound = errors.New("user not found")

	// ErrEmailExists is returned when registering a taken email.
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidCredentials is returned by Authenticate for an unknown
	// email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMalformedUsers is returned when the users file cannot be decoded
	// or holds a record Create could not have written.
	ErrMalformedUsers = errors.New("malformed users file")
)

// Store is the user repository.
type Store struct {
	path string
	cost int

	mu     sync.Mutex
	loaded bool
	users  map[string]models.User
}

// NewStore returns a store backed by the file at path, hashing passwords
// with the given bcrypt cost.
func NewStore(path string, bcryptCost int) *Store {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Store{path: path, cost: bcryptCost}
}

// Create registers a user with a bcrypt-hashed password and a profile
// seeded from genres.
func (s *Store) Create(ctx context.Context, email, displayName, password string, genres []string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Preferences:  preference.Seed(genres),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return models.User{}, err
	}
	if _, exists := s.users[email]; exists {
		return models.User{}, ErrEmailExists
	}

	s.users[email] = user
	if err := s.persist(); err != nil {
		delete(s.users, email)
		return models.User{}, err
	}

	logging.Ctx(ctx).Info().
		Str("component", "users").
		Str("email", logging.SanitizeEmail(email)).
		Int("genres", user.Preferences.Genres.Len()).
		Msg("User registered")
	return user, nil
}

// Exists reports whether email is registered.
func (s *Store) Exists(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return false, err
	}
	_, ok := s.users[email]
	return ok, nil
}

// Get returns the user with the given email.
func (s *Store) Get(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return models.User{}, err
	}
	user, ok := s.users[email]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return cloneUser(user), nil
}

// Authenticate checks a password against the stored hash.
func (s *Store) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.Get(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// UpdatePreferences replaces a user's profile with update(current) and
// persists it. On a write failure the stored profile is unchanged.
func (s *Store) UpdatePreferences(ctx context.Context, email string, update func(preference.Profile) preference.Profile) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return models.User{}, err
	}
	user, ok := s.users[email]
	if !ok {
		return models.User{}, ErrNotFound
	}

	previous := user.Preferences
	user.Preferences = update(previous.Clone())
	s.users[email] = user

	if err := s.persist(); err != nil {
		user.Preferences = previous
		s.users[email] = user
		return models.User{}, err
	}

	logging.Ctx(ctx).Debug().
		Str("component", "users").
		Str("email", logging.SanitizeEmail(email)).
		Int("cast", user.Preferences.Cast.Len()).
		Msg("Preferences updated")
	return cloneUser(user), nil
}

// Count returns the number of registered users.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		return 0, err
	}
	return len(s.users), nil
}

func cloneUser(u models.User) models.User {
	u.Preferences = u.Preferences.Clone()
	return u
}

// ensureLoaded reads the file on first use. Callers hold mu.
//
//nolint:gosec // G304: path comes from configuration
func (s *Store) ensureLoaded() error {
	if s.loaded {
		return nil
	}

	users := make(map[string]models.User)
	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read users: %w", err)
	case len(raw) > 0:
		if err := json.Unmarshal(raw, &users); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedUsers, s.path, err)
		}
		if users == nil {
			users = make(map[string]models.User)
		}
	}

	for key, u := range users {
		if u.Email == "" {
			u.Email = key
			users[key] = u
		}
		if err := checkLoaded(key, &u); err != nil {
			return fmt.Errorf("%s: %w", s.path, err)
		}
	}

	s.users = users
	s.loaded = true
	return nil
}

// checkLoaded rejects a persisted record whose key, email or password hash
// is unusable. Negative preference weights fail earlier, in decoding.
func checkLoaded(key string, u *models.User) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: record without email", ErrMalformedUsers)
	case u.Email != key:
		return fmt.Errorf("%w: record %s holds email %s", ErrMalformedUsers, key, u.Email)
	}
	if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
		return fmt.Errorf("%w: record %s: password is not a bcrypt hash", ErrMalformedUsers, key)
	}
	return nil
}

// persist rewrites the whole file. Callers hold mu.
func (s *Store) persist() error {
	out, err := json.MarshalIndent(s.users, "", "    ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if err := fsutil.WriteBytesAtomic(s.path, 0o600, out); err != nil {
		return fmt.Errorf("write users: %w", err)
	}
	return nil
}
