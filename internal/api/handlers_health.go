// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/cinematch/internal/middleware"
	"github.com/tomtom215/cinematch/internal/service"
)

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status        string                  `json:"status"`
	Version       string                  `json:"version,omitempty"`
	UptimeSeconds float64                 `json:"uptime_seconds"`
	Catalog       *service.Status         `json:"catalog,omitempty"`
	Error         string                  `json:"error,omitempty"`
	Routes        []middleware.RouteStats `json:"routes,omitempty"`
}

// Health reports whether the catalog can be served. A catalog that fails
// to load makes the service degraded, answered with 503.
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse{data=HealthStatus} "Healthy"
// @Failure 503 {object} models.APIResponse{data=HealthStatus} "Degraded"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	health := HealthStatus{
		Status:        "healthy",
		Version:       h.version,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}

	status := http.StatusOK
	res := h.svc.Status(r.Context())
	if st, ok := res.Data.(service.Status); res.Success && ok {
		health.Catalog = &st
	} else {
		health.Status = "degraded"
		health.Error = res.Message
		status = http.StatusServiceUnavailable
	}

	if h.perfMon != nil {
		health.Routes = h.perfMon.Stats()
	}

	respondSuccess(w, status, health, start, false)
}

// HealthLive answers as long as the process serves HTTP.
// @Summary Liveness
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Now(), false)
}
