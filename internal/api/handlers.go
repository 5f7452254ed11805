// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/danielramos222/gridwatch/internal/database"
	"github.com/danielramos222/gridwatch/internal/models"
	"github.com/danielramos222/gridwatch/internal/monitor"
	"github.com/danielramos222/gridwatch/internal/notify"
)

const defaultChangesLimit = 100

// InterventionStore is the snapshot read surface backing the API.
type InterventionStore interface {
	Ping(ctx context.Context) error
	ListInterventions(ctx context.Context) ([]models.Intervention, error)
	GetIntervention(ctx context.Context, numeroONS string) (models.Intervention, error)
	ListChanges(ctx context.Context, limit int) ([]models.ChangeRecord, error)
	LastUpdate(ctx context.Context) (time.Time, error)
}

// MonitorService exposes the polling loop to the API.
type MonitorService interface {
	Status() models.MonitorStatus
	Sync(ctx context.Context) error
	InFallback() bool
}

// SessionStatus reports the auth state.
type SessionStatus interface {
	Status() models.AuthStatus
}

// UpstreamPinger checks upstream reachability for the health endpoint.
type UpstreamPinger interface {
	Ping(ctx context.Context) error
}

// DeadLetterLister exposes dead-lettered notifications.
type DeadLetterLister interface {
	List() ([]notify.DeadLetterEntry, error)
}

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	store      InterventionStore
	monitor    MonitorService
	session    SessionStatus
	upstream   UpstreamPinger
	deadLetter DeadLetterLister
	version    string
	startTime  time.Time
}

// NewHandler creates the API handler set. Any dependency may be nil; the
// affected endpoints degrade instead of panicking.
func NewHandler(store InterventionStore, mon MonitorService, session SessionStatus, upstream UpstreamPinger, dead DeadLetterLister, version string) *Handler {
	return &Handler{
		store:      store,
		monitor:    mon,
		session:    session,
		upstream:   upstream,
		deadLetter: dead,
		version:    version,
		startTime:  time.Now(),
	}
}

// Health reports overall service health: database connectivity, upstream
// reachability with response time, and whether fallback data is being served.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbConnected := h.store != nil && h.store.Ping(ctx) == nil

	var upstreamOK bool
	var upstreamMS int64
	if h.upstream != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		start := time.Now()
		upstreamOK = h.upstream.Ping(pingCtx) == nil
		upstreamMS = time.Since(start).Milliseconds()
		cancel()
	}

	fallback := h.monitor != nil && h.monitor.InFallback()

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	} else if !upstreamOK || fallback {
		status = "degraded"
	}

	var lastCheck *time.Time
	if h.monitor != nil {
		lastCheck = h.monitor.Status().LastCheckTime
	}

	respondSuccess(w, models.HealthStatus{
		Status:                 status,
		Version:                h.version,
		DatabaseConnected:      dbConnected,
		UpstreamAvailable:      upstreamOK,
		UpstreamResponseTimeMS: upstreamMS,
		FallbackActive:         fallback,
		LastCheckTime:          lastCheck,
		Uptime:                 time.Since(h.startTime).Seconds(),
	}, 0)
}

// HealthLive is the liveness probe: 200 whenever the process runs.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, 0)
}

// HealthReady is the readiness probe: 200 only when the database answers.
// Upstream availability is NOT required; fallback mode still serves traffic.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.store.Ping(r.Context()) != nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"Database not available", nil)
		return
	}
	respondSuccess(w, map[string]interface{}{"ready": true}, 0)
}

// Interventions lists the current snapshot ordered by start time.
func (h *Handler) Interventions(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListInterventions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeDatabaseError,
			"Failed to list interventions", err)
		return
	}
	respondSuccess(w, items, len(items))
}

// Intervention returns one intervention by its ONS number.
func (h *Handler) Intervention(w http.ResponseWriter, r *http.Request) {
	numeroONS := chi.URLParam(r, "numeroONS")
	if numeroONS == "" {
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest,
			"Missing intervention number", nil)
		return
	}

	item, err := h.store.GetIntervention(r.Context(), numeroONS)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, ErrCodeNotFound,
				"Intervention not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeDatabaseError,
			"Failed to load intervention", err)
		return
	}
	respondSuccess(w, item, 1)
}

// LastUpdate reports when the snapshot last changed. Zero when the store is
// still empty.
func (h *Handler) LastUpdate(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.LastUpdate(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeDatabaseError,
			"Failed to read last update time", err)
		return
	}

	data := map[string]interface{}{"last_update": nil}
	if !t.IsZero() {
		data["last_update"] = t
	}
	respondSuccess(w, data, 0)
}

// Changes lists recent change records, newest first. The limit query
// parameter caps the result; it defaults to 100.
func (h *Handler) Changes(w http.ResponseWriter, r *http.Request) {
	limit := defaultChangesLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, ErrCodeBadRequest,
				"limit must be a positive integer", nil)
			return
		}
		limit = n
	}

	changes, err := h.store.ListChanges(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeDatabaseError,
			"Failed to list changes", err)
		return
	}
	respondSuccess(w, changes, len(changes))
}

// MonitorStatus reports the polling loop and auth session state.
func (h *Handler) MonitorStatus(w http.ResponseWriter, _ *http.Request) {
	st := h.monitor.Status()
	if h.session != nil {
		st.Auth = h.session.Status()
	}
	respondSuccess(w, st, 0)
}

// MonitorSync triggers an immediate poll cycle, bypassing the working-hours
// window. A cycle already in flight yields 409.
func (h *Handler) MonitorSync(w http.ResponseWriter, r *http.Request) {
	err := h.monitor.Sync(r.Context())
	if err != nil {
		if errors.Is(err, monitor.ErrCycleInProgress) {
			respondError(w, http.StatusConflict, ErrCodeConflict,
				"A poll cycle is already running", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError,
			"Sync failed", err)
		return
	}
	respondSuccess(w, h.monitor.Status(), 0)
}

// DeadLetters lists notifications that exhausted their delivery retries.
func (h *Handler) DeadLetters(w http.ResponseWriter, _ *http.Request) {
	if h.deadLetter == nil {
		respondSuccess(w, []notify.DeadLetterEntry{}, 0)
		return
	}
	entries, err := h.deadLetter.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, ErrCodeInternalError,
			"Failed to list dead letters", err)
		return
	}
	respondSuccess(w, entries, len(entries))
}
