// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/posmap/internal/auth"
	"github.com/tomtom215/posmap/internal/middleware"
)

// Router wires the handlers into a chi route tree.
type Router struct {
	handler       *Handler
	middleware    *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. The auth middleware is built from the
// handler's configuration and token manager.
func NewRouter(handler *Handler) *Router {
	var jwtManager *auth.JWTManager
	if handler.auth != nil {
		jwtManager = handler.auth.Tokens()
	}
	return &Router{
		handler:       handler,
		middleware:    auth.NewMiddleware(jwtManager, handler.config.Security.AuthMode, writeAuthError),
		chiMiddleware: NewChiMiddleware(ChiMiddlewareConfigFromSecurity(&handler.config.Security)),
	}
}

// Setup builds the HTTP handler with every route and the global
// middleware chain.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()
	h := router.handler

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight
	r.Use(auth.SecurityHeaders)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAuth())
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
	})

	r.Route("/api/v1/points", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Get("/", h.ListPoints)
		r.Get("/sales-by-zone", h.SalesByZone)
		r.Get("/{id}", h.GetPoint)

		r.Group(func(r chi.Router) {
			r.Use(router.middleware.Authenticate)
			r.Use(router.chiMiddleware.RateLimitWrite())
			r.Post("/", h.CreatePoint)
			r.Put("/{id}", h.UpdatePoint)
			r.Delete("/{id}", h.DeletePoint)
		})
	})

	r.Route("/api/v1/analytics", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitAnalytics())
		r.Get("/summary", h.AnalyticsSummary)
		r.Get("/coverage", h.AnalyticsCoverage)
		r.Get("/quality", h.AnalyticsQuality)
		r.Get("/dashboard", h.AnalyticsDashboard)
		r.Get("/series", h.AnalyticsSeries)
		r.Get("/top", h.AnalyticsTop)
		r.Get("/trend", h.AnalyticsTrend)
	})

	r.Route("/api/v1/report", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Get("/", h.Report)
		r.With(router.chiMiddleware.RateLimitExport()).Get("/export.csv", h.ExportReportCSV)
	})

	r.Get("/api/v1/ws", h.WebSocket)

	return r
}
