// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package models

import "github.com/tomtom215/cinematch/internal/preference"

// User is a registered account as stored in the users file.
// PasswordHash is never serialized to API responses; see PublicUser.
type User struct {
	Email        string             `json:"email"`
	DisplayName  string             `json:"displayName"`
	PasswordHash string             `json:"password"`
	Preferences  preference.Profile `json:"preferences"`
}

// PublicUser is the API view of a user.
type PublicUser struct {
	Email       string             `json:"email"`
	DisplayName string             `json:"display_name"`
	Preferences preference.Profile `json:"preferences"`
}

// Public strips credentials.
func (u *User) Public() PublicUser {
	return PublicUser{Email: u.Email, DisplayName: u.DisplayName, Preferences: u.Preferences}
}
