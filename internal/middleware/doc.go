// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

/*
Package middleware provides HTTP middleware shared by the API router.

All middleware uses the chi signature func(http.Handler) http.Handler:

  - RequestID: assigns or accepts an X-Request-ID and seeds the logging
    context with request and correlation IDs
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern
  - PerformanceMonitor: sliding window of recent requests with per-route
    percentiles, reported by the health endpoint

Route-scoped middleware (PrometheusMetrics, PerformanceMonitor.Middleware)
reads the route pattern after the handler returns, so it must run inside
the chi router rather than wrap it.
*/
package middleware
