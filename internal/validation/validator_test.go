// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil {
		t.Fatal("GetValidator() should not return nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

type reviewRequest struct {
	MovieID string `json:"movie_id" validate:"required,titleid"`
	Email   string `json:"email" validate:"required,email"`
	Acting  int    `json:"acting_score" validate:"gte=0,lte=5"`
	Text    string `json:"written_review" validate:"max=20"`
}

type signupRequest struct {
	Password string   `json:"password" validate:"required"`
	Confirm  string   `json:"confirm_password" validate:"eqfield=Password"`
	Genres   []string `json:"genres" validate:"dive,required"`
	Hidden   string   `json:"-" validate:"omitempty,oneof=a b"`
}

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
	}{
		{
			name:  "review",
			input: &reviewRequest{MovieID: "tt0111161", Email: "a@example.com", Acting: 5, Text: "great"},
		},
		{
			name:  "review lower bound",
			input: &reviewRequest{MovieID: "tt1", Email: "a@example.com", Acting: 0},
		},
		{
			name:  "signup",
			input: &signupRequest{Password: "Secret1", Confirm: "Secret1", Genres: []string{"Drama"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(tt.input); err != nil {
				t.Errorf("ValidateStruct() unexpected error: %v", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantTag   string
		wantMsg   string
	}{
		{
			name:      "bad title id",
			input:     &reviewRequest{MovieID: "nm0000001", Email: "a@example.com"},
			wantField: "movie_id",
			wantTag:   "titleid",
			wantMsg:   "movie_id must be a title identifier like tt0111161",
		},
		{
			name:      "bad email",
			input:     &reviewRequest{MovieID: "tt1", Email: "nope"},
			wantField: "email",
			wantTag:   "email",
			wantMsg:   "email must be a valid email address",
		},
		{
			name:      "score above range",
			input:     &reviewRequest{MovieID: "tt1", Email: "a@example.com", Acting: 6},
			wantField: "acting_score",
			wantTag:   "lte",
			wantMsg:   "acting_score must be less than or equal to 5",
		},
		{
			name:      "score below range",
			input:     &reviewRequest{MovieID: "tt1", Email: "a@example.com", Acting: -1},
			wantField: "acting_score",
			wantTag:   "gte",
			wantMsg:   "acting_score must be greater than or equal to 0",
		},
		{
			name:      "review too long",
			input:     &reviewRequest{MovieID: "tt1", Email: "a@example.com", Text: strings.Repeat("x", 21)},
			wantField: "written_review",
			wantTag:   "max",
			wantMsg:   "written_review must be at most 20 characters",
		},
		{
			name:      "passwords differ",
			input:     &signupRequest{Password: "a", Confirm: "b"},
			wantField: "confirm_password",
			wantTag:   "eqfield",
			wantMsg:   "confirm_password must match Password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() expected error")
			}
			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), err)
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Tag() != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", errs[0].Tag(), tt.wantTag)
			}
			if errs[0].Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", errs[0].Error(), tt.wantMsg)
			}
			if !err.HasTag(tt.wantTag) {
				t.Errorf("HasTag(%q) = false", tt.wantTag)
			}
		})
	}
}

func TestToAPIError_SingleError(t *testing.T) {
	err := ValidateStruct(&reviewRequest{MovieID: "tt1", Email: "a@example.com", Acting: 9})
	if err == nil {
		t.Fatal("expected error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if apiErr.Details["field"] != "acting_score" {
		t.Errorf("Details[field] = %v", apiErr.Details["field"])
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	err := ValidateStruct(&reviewRequest{})
	if err == nil {
		t.Fatal("expected error")
	}

	apiErr := err.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("Details[fields] has type %T", apiErr.Details["fields"])
	}
	if len(fields) != 2 {
		t.Errorf("len(fields) = %d, want 2", len(fields))
	}
	if !strings.Contains(apiErr.Message, "movie_id is required") {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestValidateRange(t *testing.T) {
	tests := []struct {
		value   int
		wantTag string
	}{
		{-1, "gte"},
		{0, ""},
		{3, ""},
		{5, ""},
		{6, "lte"},
	}

	for _, tt := range tests {
		err := ValidateRange("quality_score", tt.value, 0, 5)
		switch {
		case tt.wantTag == "" && err != nil:
			t.Errorf("ValidateRange(%d) = %v, want nil", tt.value, err)
		case tt.wantTag != "" && (err == nil || err.Tag() != tt.wantTag):
			t.Errorf("ValidateRange(%d) = %v, want tag %s", tt.value, err, tt.wantTag)
		}
	}
}

func TestNewRequestValidationError(t *testing.T) {
	if NewRequestValidationError() != nil {
		t.Error("empty input should give nil")
	}

	err := NewRequestValidationError(
		NewFieldError("a", "gte", "0", -1, "a is low"),
		NewFieldError("b", "lte", "5", 9, "b is high"),
	)
	if err.Error() != "a is low; b is high" {
		t.Errorf("Error() = %q", err.Error())
	}
}
