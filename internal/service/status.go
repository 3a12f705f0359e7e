// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package service

import "context"

// Status is the readiness summary shown by the health endpoint.
type Status struct {
	CatalogEntries int  `json:"catalog_entries"`
	CacheEnabled   bool `json:"cache_enabled"`
	EventsEnabled  bool `json:"events_enabled"`
}

// Status loads the catalog if needed and reports its size.
func (s *Service) Status(ctx context.Context) Result {
	n, err := s.catalog.Len(ctx)
	if err != nil {
		return s.internal(ctx, "status", err)
	}
	return ok("", Status{
		CatalogEntries: n,
		CacheEnabled:   s.cache != nil,
		EventsEnabled:  s.events != nil,
	})
}
