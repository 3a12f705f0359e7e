// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package catalog

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinematch/internal/fsutil"
	"github.com/tomtom215/cinematch/internal/models"
)

// Snapshot layout: one JSON object mapping title id to movie record, in
// ingestion order.
//
//	{"tt0111161": {"id": "tt0111161", "title": ..., "cast": {...}}, ...}

// ErrMalformedSnapshot marks a snapshot that cannot be decoded.
var ErrMalformedSnapshot = errors.New("malformed catalog snapshot")

// WriteSnapshot atomically replaces the snapshot at path.
func WriteSnapshot(path string, movies []models.Movie) error {
	return fsutil.WriteFileAtomic(path, 0o640, func(w io.Writer) error {
		return EncodeSnapshot(w, movies)
	})
}

// EncodeSnapshot writes movies as a single object, one record per line,
// preserving slice order.
func EncodeSnapshot(w io.Writer, movies []models.Movie) error {
	if _, err := io.WriteString(w, "{"); err != nil {
		return err
	}

	for i := range movies {
		m := &movies[i]

		key, err := json.Marshal(m.ID)
		if err != nil {
			return fmt.Errorf("encode id %s: %w", m.ID, err)
		}
		record, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode movie %s: %w", m.ID, err)
		}

		sep := ",\n"
		if i == 0 {
			sep = "\n"
		}
		if _, err := io.WriteString(w, sep); err != nil {
			return err
		}
		if _, err := w.Write(key); err != nil {
			return err
		}
		if _, err := io.WriteString(w, ": "); err != nil {
			return err
		}
		if _, err := w.Write(record); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "\n}\n")
	return err
}

// ReadSnapshot loads the snapshot at path. A missing file is an empty catalog.
//
//nolint:gosec // G304: path comes from configuration
func ReadSnapshot(path string) ([]models.Movie, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open catalog snapshot: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	return DecodeSnapshot(f)
}

// DecodeSnapshot reads a snapshot in file order. Each record is checked
// against the catalog invariants; the first bad record fails the decode.
// Records without an id take it from their key.
func DecodeSnapshot(r io.Reader) ([]models.Movie, error) {
	dec := stdjson.NewDecoder(r)

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if delim, ok := tok.(stdjson.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected object, got %v", ErrMalformedSnapshot, tok)
	}

	var movies []models.Movie
	seen := make(map[string]struct{})

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
		}
		id, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected id, got %v", ErrMalformedSnapshot, tok)
		}

		var raw stdjson.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: record %s: %v", ErrMalformedSnapshot, id, err)
		}

		m, err := decodeRecord(id, raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrMalformedSnapshot, id)
		}
		seen[id] = struct{}{}
		movies = append(movies, m)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	return movies, nil
}

// requiredFields detects ranking inputs that are absent or null. Both
// would otherwise decode to zero and reach the ranking formula.
type requiredFields struct {
	Rating *float64 `json:"rating"`
	Votes  *int     `json:"votes"`
}

func decodeRecord(id string, raw []byte) (models.Movie, error) {
	var m models.Movie
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return m, fmt.Errorf("%w: %w %s: null record", ErrMalformedSnapshot, models.ErrInvalidMovie, id)
	}

	var req requiredFields
	if err := json.Unmarshal(raw, &req); err != nil {
		return m, fmt.Errorf("%w: record %s: %v", ErrMalformedSnapshot, id, err)
	}
	switch {
	case req.Rating == nil:
		return m, fmt.Errorf("%w: %w %s: missing rating", ErrMalformedSnapshot, models.ErrInvalidMovie, id)
	case req.Votes == nil:
		return m, fmt.Errorf("%w: %w %s: missing votes", ErrMalformedSnapshot, models.ErrInvalidMovie, id)
	}

	if err := json.Unmarshal(raw, &m); err != nil {
		return m, fmt.Errorf("%w: record %s: %v", ErrMalformedSnapshot, id, err)
	}

	switch {
	case m.ID == "":
		m.ID = id
	case m.ID != id:
		return m, fmt.Errorf("%w: record key %s holds id %s", ErrMalformedSnapshot, id, m.ID)
	}

	if err := m.Validate(); err != nil {
		return m, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	return m, nil
}
