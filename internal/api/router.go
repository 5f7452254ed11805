// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielramos222/gridwatch/internal/config"
)

// Router wires handlers and middleware into the HTTP routing tree.
type Router struct {
	handler *Handler
	cfg     *config.ServerConfig
}

// NewRouter creates the router.
func NewRouter(handler *Handler, cfg *config.ServerConfig) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup builds the routing tree. Health endpoints skip the rate limiter so
// external monitoring can poll freely; API endpoints are rate limited per IP.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(router.cfg))

	r.Route("/health", func(r chi.Router) {
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimitMiddleware(router.cfg))
		r.Use(metricsMiddleware)

		r.Get("/interventions", router.handler.Interventions)
		r.Get("/interventions/last-update", router.handler.LastUpdate)
		r.Get("/interventions/{numeroONS}", router.handler.Intervention)
		r.Get("/changes", router.handler.Changes)
		r.Get("/monitor/status", router.handler.MonitorStatus)
		r.Post("/monitor/sync", router.handler.MonitorSync)
		r.Get("/deadletter", router.handler.DeadLetters)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
