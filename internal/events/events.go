// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package events carries domain events between the core and its caches
// over an in-process Watermill pub/sub.
//
// Publishers never wait for consumers. A consumer that keeps failing after
// its retries has the message logged and dropped, so one bad event cannot
// wedge the topic.
package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version.
const SchemaVersion = 1

// Topics.
const (
	TopicReviewSubmitted = "review.submitted"
	TopicReviewDeleted   = "review.deleted"
	TopicCatalogReloaded = "catalog.reloaded"
)

// Event is the payload published on every topic.
type Event struct {
	SchemaVersion int       `json:"schema_version"`
	EventID       string    `json:"event_id"`
	Topic         string    `json:"topic"`
	Timestamp     time.Time `json:"timestamp"`

	// Email identifies the user for review events.
	Email string `json:"email,omitempty"`

	// MovieID identifies the title for review events.
	MovieID string `json:"movie_id,omitempty"`

	// Entries is the catalog size after a reload.
	Entries int `json:"entries,omitempty"`
}

// NewReviewSubmitted builds a review.submitted event.
func NewReviewSubmitted(email, movieID string) Event {
	return newEvent(TopicReviewSubmitted, email, movieID)
}

// NewReviewDeleted builds a review.deleted event.
func NewReviewDeleted(email, movieID string) Event {
	return newEvent(TopicReviewDeleted, email, movieID)
}

// NewCatalogReloaded builds a catalog.reloaded event.
func NewCatalogReloaded(entries int) Event {
	e := newEvent(TopicCatalogReloaded, "", "")
	e.Entries = entries
	return e
}

func newEvent(topic, email, movieID string) Event {
	return Event{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Topic:         topic,
		Timestamp:     time.Now().UTC(),
		Email:         email,
		MovieID:       movieID,
	}
}

// Validate checks the fields its topic requires.
func (e *Event) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("event: missing event_id")
	}
	switch e.Topic {
	case TopicReviewSubmitted, TopicReviewDeleted:
		if e.Email == "" || e.MovieID == "" {
			return fmt.Errorf("event %s: %s requires email and movie_id", e.EventID, e.Topic)
		}
	case TopicCatalogReloaded:
	default:
		return fmt.Errorf("event %s: unknown topic %q", e.EventID, e.Topic)
	}
	return nil
}

// Marshal encodes the event.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal decodes and validates an event.
func Unmarshal(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}
