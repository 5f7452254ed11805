// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/danielramos222/gridwatch/internal/config"
	"github.com/danielramos222/gridwatch/internal/metrics"
)

// corsMiddleware builds the CORS handler from the server configuration.
// An empty origin list denies cross-origin requests.
func corsMiddleware(cfg *config.ServerConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           86400,
	})
}

// rateLimitMiddleware builds an IP-keyed rate limiter.
func rateLimitMiddleware(cfg *config.ServerConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitReqs <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		cfg.RateLimitReqs,
		cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

// metricsMiddleware records request counts and latency per route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		routePattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				routePattern = p
			}
		}
		metrics.ObserveAPIRequest(r.Method, routePattern, ww.Status(), time.Since(start))
	})
}
