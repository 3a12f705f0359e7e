// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package supervisor runs the server's long-lived services under suture v4.

The tree has three layers, each its own supervisor so a crash in one
restarts only that layer:

	RootSupervisor ("cinematch")
	├── DataSupervisor ("data-layer")
	│   └── IngestSchedulerService (if ingest.schedule is set)
	├── MessagingSupervisor ("messaging-layer")
	│   └── EventBusService (cache invalidation handlers)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Supervisor events (restarts, backoff, timeouts) are logged through
sutureslog, which is handed a slog.Logger backed by zerolog.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewEventBusService(bus))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)
*/
package supervisor
