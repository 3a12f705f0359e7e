// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package config

import "testing"

func TestPasswordPolicy_Validate(t *testing.T) {
	t.Parallel()

	policy := DefaultPasswordPolicy()

	tests := []struct {
		name      string
		password  string
		wantValid bool
		wantFirst string
	}{
		{"valid", "Secret1", true, ""},
		{"too short", "Ab1", false, "Password must be at least 6 characters."},
		{"no digit", "Secrets", false, "Password must include at least one digit."},
		{"no uppercase", "secret1", false, "Password must include at least one uppercase letter."},
		{"no lowercase", "SECRET1", false, "Password must include at least one lowercase letter."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := policy.Validate(tt.password)
			if result.Valid != tt.wantValid {
				t.Fatalf("Validate(%q).Valid = %v, want %v (errors: %v)", tt.password, result.Valid, tt.wantValid, result.Errors)
			}
			if !tt.wantValid && result.Errors[0] != tt.wantFirst {
				t.Errorf("Validate(%q).Errors[0] = %q, want %q", tt.password, result.Errors[0], tt.wantFirst)
			}
		})
	}
}

func TestPasswordPolicy_ValidateWithError(t *testing.T) {
	t.Parallel()

	policy := DefaultPasswordPolicy()
	if err := policy.ValidateWithError("Secret1"); err != nil {
		t.Errorf("ValidateWithError() error = %v, want nil", err)
	}
	if err := policy.ValidateWithError("abc"); err == nil {
		t.Error("ValidateWithError() error = nil, want failure")
	}
}

func TestConfig_PasswordPolicyMinLength(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Security.PasswordMinLength = 10
	if got := cfg.PasswordPolicy().MinLength; got != 10 {
		t.Errorf("PasswordPolicy().MinLength = %d, want 10", got)
	}
}
