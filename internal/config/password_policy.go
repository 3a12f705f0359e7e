// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package config

import (
	"errors"
	"fmt"
	"unicode"
)

// PasswordPolicy defines the requirements for a new account password.
type PasswordPolicy struct {
	MinLength        int
	RequireDigit     bool
	RequireUppercase bool
	RequireLowercase bool
}

// DefaultPasswordPolicy returns the registration policy: at least 6
// characters with a digit, an uppercase and a lowercase letter.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        6,
		RequireDigit:     true,
		RequireUppercase: true,
		RequireLowercase: true,
	}
}

// PasswordValidationResult lists every rule the password failed, in check order.
type PasswordValidationResult struct {
	Valid  bool
	Errors []string
}

type charClasses struct {
	hasUpper bool
	hasLower bool
	hasDigit bool
}

func analyzeCharClasses(password string) charClasses {
	var cc charClasses
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			cc.hasUpper = true
		case unicode.IsLower(r):
			cc.hasLower = true
		case unicode.IsDigit(r):
			cc.hasDigit = true
		}
	}
	return cc
}

// Validate checks password against the policy.
func (p PasswordPolicy) Validate(password string) PasswordValidationResult {
	result := PasswordValidationResult{Valid: true}
	fail := func(msg string) {
		result.Valid = false
		result.Errors = append(result.Errors, msg)
	}

	if len([]rune(password)) < p.MinLength {
		fail(fmt.Sprintf("Password must be at least %d characters.", p.MinLength))
	}

	cc := analyzeCharClasses(password)
	if p.RequireDigit && !cc.hasDigit {
		fail("Password must include at least one digit.")
	}
	if p.RequireUppercase && !cc.hasUpper {
		fail("Password must include at least one uppercase letter.")
	}
	if p.RequireLowercase && !cc.hasLower {
		fail("Password must include at least one lowercase letter.")
	}

	return result
}

// ValidateWithError returns the first failed rule as an error, or nil.
func (p PasswordPolicy) ValidateWithError(password string) error {
	result := p.Validate(password)
	if !result.Valid {
		return errors.New(result.Errors[0])
	}
	return nil
}
