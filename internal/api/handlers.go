// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/posmap/internal/auth"
	"github.com/tomtom215/posmap/internal/cache"
	"github.com/tomtom215/posmap/internal/config"
	"github.com/tomtom215/posmap/internal/logging"
	"github.com/tomtom215/posmap/internal/models"
	ws "github.com/tomtom215/posmap/internal/websocket"
)

// PointStore is the persistence the handlers need. *database.DB
// implements it.
type PointStore interface {
	Ping(ctx context.Context) error
	ListPoints(ctx context.Context, offset, limit int) ([]models.PointOfSale, int64, error)
	AllPoints(ctx context.Context) ([]models.PointOfSale, error)
	GetPoint(ctx context.Context, id int64) (*models.PointOfSale, error)
	CreatePoint(ctx context.Context, in models.PointInput) (*models.PointOfSale, error)
	UpdatePoint(ctx context.Context, id int64, in models.PointInput) (*models.PointOfSale, error)
	DeletePoint(ctx context.Context, id int64) error
	SalesByZone(ctx context.Context) ([]models.ZoneSales, error)
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_points.go: Data Gateway CRUD and sales by zone
//   - handlers_auth.go: login and register
//   - handlers_analytics.go: cached aggregate views
//   - handlers_report.go: report JSON and CSV export
//   - handlers_health.go: health probes
//   - handlers_websocket.go: point change feed
type Handler struct {
	db        PointStore
	auth      *auth.Service
	config    *config.Config
	wsHub     *ws.Hub
	cache     *cache.Cache
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates the API handler. wsHub may be nil, in which case
// mutations are not broadcast and the change feed answers 503.
func NewHandler(db PointStore, authService *auth.Service, cfg *config.Config, wsHub *ws.Hub) *Handler {
	ttl := cfg.Cache.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Handler{
		db:        db,
		auth:      authService,
		config:    cfg,
		wsHub:     wsHub,
		cache:     cache.New("aggregates", ttl),
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Close stops the cache janitor.
func (h *Handler) Close() {
	h.cache.Close()
}

// ClearCache invalidates every cached aggregate. Mutations call it so the
// next analytics request recomputes from the store.
func (h *Handler) ClearCache() {
	h.cache.Clear()
	logging.Debug().Msg("Aggregate cache cleared")
}

// reference returns the current time in the configured server timezone.
func (h *Handler) reference() time.Time {
	return h.now().In(h.config.Server.Location())
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts requests without an Origin header (the CLI
// subscriber sends none), same-host origins and configured CORS origins.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}

	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Ctx(r.Context()).Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
