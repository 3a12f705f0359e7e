// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package models holds the records shared by the catalog, ledger, user
// store and HTTP layer, with the JSON shapes they are persisted in.
package models

import (
	"errors"
	"fmt"
)

// Principal categories kept by ingestion.
const (
	CategoryActor    = "actor"
	CategoryActress  = "actress"
	CategoryDirector = "director"
)

// Cast lists credited names per category, deduplicated, in first-credited order.
type Cast struct {
	Actor    []string `json:"actor"`
	Actress  []string `json:"actress"`
	Director []string `json:"director"`
}

// Movie is one catalog entry. Rating and Votes are always populated.
type Movie struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Year    int      `json:"year"`
	Genres  []string `json:"genres"`
	Runtime *int     `json:"runtime"`
	Rating  float64  `json:"rating"`
	Votes   int      `json:"votes"`
	Cast    Cast     `json:"cast"`
}

// CastNames returns actor names followed by actress names.
func (m *Movie) CastNames() []string {
	names := make([]string, 0, len(m.Cast.Actor)+len(m.Cast.Actress))
	names = append(names, m.Cast.Actor...)
	return append(names, m.Cast.Actress...)
}

// Directors returns the director names.
func (m *Movie) Directors() []string {
	return m.Cast.Director
}

// HasGenre reports whether genre is one of the movie's genres.
func (m *Movie) HasGenre(genre string) bool {
	for _, g := range m.Genres {
		if g == genre {
			return true
		}
	}
	return false
}

// ErrInvalidMovie marks a catalog record that fails its invariants.
var ErrInvalidMovie = errors.New("invalid catalog record")

// Validate enforces the invariants a stored catalog record must satisfy.
func (m *Movie) Validate() error {
	switch {
	case m.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidMovie)
	case m.Title == "":
		return fmt.Errorf("%w %s: missing title", ErrInvalidMovie, m.ID)
	case m.Year <= 0:
		return fmt.Errorf("%w %s: missing year", ErrInvalidMovie, m.ID)
	case m.Votes <= 0:
		return fmt.Errorf("%w %s: missing votes", ErrInvalidMovie, m.ID)
	case m.Rating < 0 || m.Rating > 10:
		return fmt.Errorf("%w %s: rating %v out of range", ErrInvalidMovie, m.ID, m.Rating)
	}
	return nil
}
