// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package services

import (
	"context"
	"fmt"

	"github.com/thejerf/suture/v4"
)

// EventRouter is the run side of *events.Bus.
type EventRouter interface {
	Run(ctx context.Context) error
}

// EventBusService runs the event router that dispatches to the cache
// invalidation handlers. Handlers must be registered before the tree starts.
type EventBusService struct {
	router EventRouter
	name   string
}

// NewEventBusService wraps router.
func NewEventBusService(router EventRouter) *EventBusService {
	return &EventBusService{router: router, name: "event-bus"}
}

// Serve implements suture.Service. A watermill router cannot be started
// twice, so a failure is reported with suture.ErrDoNotRestart; the service
// keeps working without the bus by evicting cache entries directly.
func (s *EventBusService) Serve(ctx context.Context) error {
	err := s.router.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("%w: event router stopped: %w", suture.ErrDoNotRestart, err)
	}
	return fmt.Errorf("%w: event router stopped", suture.ErrDoNotRestart)
}

// String implements fmt.Stringer for suture's logs.
func (s *EventBusService) String() string {
	return s.name
}
