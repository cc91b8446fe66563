// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package api

import (
	"net/http"
	"time"
)

// Version is reported by the health endpoint. Overridden at build time.
var Version = "dev"

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	AuthMode          string  `json:"auth_mode"`
	WebSocketClients  int     `json:"websocket_clients"`
	CacheKeys         int64   `json:"cache_keys"`
	CacheHitRate      float64 `json:"cache_hit_rate"`
	Uptime            float64 `json:"uptime"`
}

// Health reports overall status. A failed database ping degrades the
// status but still answers 200.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db.Ping(r.Context()) == nil
	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	clients := 0
	if h.wsHub != nil {
		clients = h.wsHub.GetClientCount()
	}

	NewResponseWriter(w, r).Success(HealthStatus{
		Status:            status,
		Version:           Version,
		DatabaseConnected: dbConnected,
		AuthMode:          h.config.Security.AuthMode,
		WebSocketClients:  clients,
		CacheKeys:         h.cache.GetStats().TotalKeys,
		CacheHitRate:      h.cache.HitRate(),
		Uptime:            time.Since(h.startTime).Seconds(),
	})
}

// HealthLive answers 200 while the process is alive.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady answers 200 only when the database is reachable.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.db.Ping(r.Context()); err != nil {
		rw.ServiceUnavailable("Database unavailable")
		return
	}
	rw.Success(map[string]interface{}{
		"ready":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}
