// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package ingest

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/cinematch/internal/models"
)

// Stage names, also used as log fields and metric labels.
const (
	StageRatings    = "ratings"
	StageBasics     = "basics"
	StageNames      = "names"
	StagePrincipals = "principals"
)

// Dataset file names inside the dataset directory.
const (
	RatingsFile    = "title.ratings.tsv.gz"
	BasicsFile     = "title.basics.tsv.gz"
	NamesFile      = "name.basics.tsv.gz"
	PrincipalsFile = "title.principals.tsv.gz"
)

// DatasetFiles lists every file a run reads, in stage order.
var DatasetFiles = []string{RatingsFile, BasicsFile, NamesFile, PrincipalsFile}

// ErrRunInProgress is returned by Run while another run is active.
var ErrRunInProgress = errors.New("ingestion already in progress")

// IOError reports a missing or unreadable dataset file. The run that hit
// it produced no catalog and left the previous snapshot untouched.
type IOError struct {
	Stage string
	Path  string
	Err   error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("ingest %s stage: %s: %v", e.Stage, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// StageStats counts the rows one stage looked at.
type StageStats struct {
	Seen      int64 `json:"seen"`
	Kept      int64 `json:"kept"`
	Malformed int64 `json:"malformed"`
}

// Filtered is the number of well-formed rows the stage dropped.
func (s StageStats) Filtered() int64 {
	return s.Seen - s.Kept - s.Malformed
}

// Stats holds statistics about one pipeline run.
type Stats struct {
	Ratings    StageStats `json:"ratings"`
	Basics     StageStats `json:"basics"`
	Names      StageStats `json:"names"`
	Principals StageStats `json:"principals"`

	// Entries is the number of movies written to the snapshot.
	Entries int `json:"entries"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// Error is the failure message of an unsuccessful run.
	Error string `json:"error,omitempty"`
}

// Succeeded reports whether the run wrote a snapshot.
func (s *Stats) Succeeded() bool {
	return s.Error == "" && !s.EndTime.IsZero()
}

// Duration returns the duration of the run.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// RowsSeen totals rows across all stages.
func (s *Stats) RowsSeen() int64 {
	return s.Ratings.Seen + s.Basics.Seen + s.Names.Seen + s.Principals.Seen
}

// RecordsPerSecond returns the row throughput.
func (s *Stats) RecordsPerSecond() float64 {
	duration := s.Duration().Seconds()
	if duration == 0 {
		return 0
	}
	return float64(s.RowsSeen()) / duration
}

// stage returns the counters for a stage name.
func (s *Stats) stage(name string) *StageStats {
	switch name {
	case StageRatings:
		return &s.Ratings
	case StageBasics:
		return &s.Basics
	case StageNames:
		return &s.Names
	default:
		return &s.Principals
	}
}

// Result is the outcome of a run. Movies is empty unless the run succeeded.
type Result struct {
	Movies []models.Movie
	Stats  Stats
}
