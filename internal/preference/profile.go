// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package preference holds a user's weighted genre and cast affinities.
//
// Profiles are values. Every update returns a new Profile and leaves the
// input untouched; the caller persists the result.
//
// Genre weights are set once at registration. Reviews only ever raise cast
// weights. RecordGenreSignal exists for symmetry but no runtime path calls
// it, so genre preferences do not drift after registration.
package preference

// Weight constants.
const (
	// BaseWeight is assigned to every genre selected at registration.
	BaseWeight = 1.0

	// ReviewIncrement is added per name for each qualifying review signal.
	ReviewIncrement = 0.2
)

// Profile is the persisted preferences block of a user record.
type Profile struct {
	Genres Weights `json:"genres"`
	Cast   Weights `json:"cast"`
}

// Seed builds the registration profile: each selected genre at BaseWeight,
// no cast weights. Repeated genres are stored once.
func Seed(genres []string) Profile {
	var p Profile
	for _, g := range genres {
		if g == "" {
			continue
		}
		p.Genres.set(g, BaseWeight)
	}
	return p
}

// RecordCastSignal adds ReviewIncrement to each name's cast weight.
func RecordCastSignal(p Profile, names []string) Profile {
	out := p.Clone()
	for _, name := range names {
		if name == "" {
			continue
		}
		out.Cast.add(name, ReviewIncrement)
	}
	return out
}

// RecordGenreSignal adds ReviewIncrement to each genre's weight.
func RecordGenreSignal(p Profile, genres []string) Profile {
	out := p.Clone()
	for _, g := range genres {
		if g == "" {
			continue
		}
		out.Genres.add(g, ReviewIncrement)
	}
	return out
}

// RankedGenres returns genres by descending weight, ties in insertion order.
func RankedGenres(p Profile) []string {
	return p.Genres.Ranked()
}

// RankedCast returns cast names by descending weight, ties in insertion order.
func RankedCast(p Profile) []string {
	return p.Cast.Ranked()
}

// Clone returns a deep copy.
func (p Profile) Clone() Profile {
	return Profile{Genres: p.Genres.Clone(), Cast: p.Cast.Clone()}
}

// IsEmpty reports whether the profile has no genre preferences.
func (p Profile) IsEmpty() bool {
	return p.Genres.Len() == 0
}
