// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Package services adapts long-running components to suture.Service:
// Serve(ctx) blocks until ctx is canceled and returns an error only when
// the component failed and should be restarted.
//
//   - HTTPServerService: ListenAndServe plus graceful Shutdown
//   - EventBusService: runs the event router
//   - IngestSchedulerService: periodic download and ingestion
package services
