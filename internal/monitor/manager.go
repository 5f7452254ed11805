// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danielramos222/gridwatch/internal/config"
	"github.com/danielramos222/gridwatch/internal/logging"
	"github.com/danielramos222/gridwatch/internal/metrics"
	"github.com/danielramos222/gridwatch/internal/models"
)

// ErrCycleInProgress is returned by Sync when a cycle is already running.
var ErrCycleInProgress = errors.New("monitor: check cycle already in progress")

// Store is the persistence surface the monitor needs. Satisfied by
// database.DB.
type Store interface {
	UpsertInterventions(ctx context.Context, items []models.Intervention) error
	DeleteInterventions(ctx context.Context, ids []string) error
	RecordChanges(ctx context.Context, changes []models.ChangeRecord) error
}

// Notifier receives detected changes. Satisfied by notify.Queue.
type Notifier interface {
	Enqueue(changes []models.ChangeRecord)
	Depth() int
}

// Monitor drives periodic intervention checks inside the configured
// working-hours window. Manual Sync requests bypass the window but share the
// same in-progress guard, so two cycles never overlap.
type Monitor struct {
	fetcher  *Fetcher
	tracker  *Tracker
	store    Store
	notifier Notifier
	interval time.Duration
	window   Window
	now      func() time.Time

	inProgress atomic.Bool
	fallback   atomic.Bool

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	lastCheck time.Time
	nextCheck time.Time
}

// New creates a monitor. The notifier may be nil when notifications are
// disabled.
func New(fetcher *Fetcher, tracker *Tracker, store Store, notifier Notifier, cfg *config.MonitorConfig) *Monitor {
	return &Monitor{
		fetcher:  fetcher,
		tracker:  tracker,
		store:    store,
		notifier: notifier,
		interval: cfg.Interval,
		window:   Window{Start: cfg.StartHour, End: cfg.EndHour},
		now:      time.Now,
	}
}

// Start launches the polling loop. Safe to call once; subsequent calls while
// running are no-ops.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	stopCh, doneCh := m.stopCh, m.doneCh
	m.mu.Unlock()

	logging.Info().
		Dur("interval", m.interval).
		Int("window_start", m.window.Start).
		Int("window_end", m.window.End).
		Msg("Monitor started")

	go m.loop(ctx, stopCh, doneCh)
}

// Stop terminates the polling loop and waits for it to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	doneCh := m.doneCh
	m.mu.Unlock()

	<-doneCh
	logging.Info().Msg("Monitor stopped")
}

func (m *Monitor) loop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	// Run the first check right away when inside the window
	m.tick(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick runs one scheduled check, skipping outside the working-hours window.
// The advertised next check is clamped to the window opening, so the status
// endpoint never announces a check the loop would skip.
func (m *Monitor) tick(ctx context.Context) {
	now := m.now()
	m.setNextCheck(m.window.NextOpen(now.Add(m.interval)))

	if !m.window.Contains(now) {
		metrics.MonitorCycles.WithLabelValues("skipped_window").Inc()
		logging.Debug().Time("now", now).Msg("Outside working hours, skipping check")
		return
	}

	if err := m.runCycle(ctx); err != nil {
		if errors.Is(err, ErrCycleInProgress) {
			metrics.MonitorCycles.WithLabelValues("skipped_in_progress").Inc()
			return
		}
		logging.Error().Err(err).Msg("Check cycle failed")
	}
}

// Sync triggers a check immediately, regardless of the window. Returns
// ErrCycleInProgress when a cycle is already running.
func (m *Monitor) Sync(ctx context.Context) error {
	return m.runCycle(ctx)
}

// runCycle performs one fetch/diff/persist/notify pass.
func (m *Monitor) runCycle(ctx context.Context) error {
	if !m.inProgress.CompareAndSwap(false, true) {
		return ErrCycleInProgress
	}
	defer m.inProgress.Store(false)

	start := time.Now()

	set, err := m.fetcher.Fetch(ctx)
	if err != nil {
		metrics.MonitorCycles.WithLabelValues("error").Inc()
		return err
	}
	m.fallback.Store(set.Fallback)

	changes := m.tracker.TrackChanges(set.Interventions)

	if err := m.persist(ctx, set, changes); err != nil {
		// The tracker already swapped; the next cycle will not re-detect
		// these changes, but notifications below still go out.
		logging.Error().Err(err).Msg("Failed to persist snapshot")
	}

	if len(changes) > 0 && m.notifier != nil {
		m.notifier.Enqueue(changes)
	}

	m.setLastCheck(start)
	metrics.MonitorCycles.WithLabelValues("ok").Inc()
	metrics.CycleDuration.Observe(time.Since(start).Seconds())

	logging.Info().
		Int("interventions", len(set.Interventions)).
		Int("changes", len(changes)).
		Bool("fallback", set.Fallback).
		Dur("took", time.Since(start)).
		Msg("Check cycle complete")

	return nil
}

// persist writes the snapshot and change history. Fallback data is not
// persisted so the store always reflects the last real upstream state.
func (m *Monitor) persist(ctx context.Context, set models.InterventionSet, changes []models.ChangeRecord) error {
	if set.Fallback {
		return nil
	}

	if err := m.store.UpsertInterventions(ctx, set.Interventions); err != nil {
		return err
	}

	var removed []string
	for _, ch := range changes {
		if ch.Kind == models.ChangeRemoved {
			removed = append(removed, ch.NumeroONS)
		}
	}
	if err := m.store.DeleteInterventions(ctx, removed); err != nil {
		return err
	}

	return m.store.RecordChanges(ctx, changes)
}

// InFallback reports whether the last cycle served fallback data.
func (m *Monitor) InFallback() bool {
	return m.fallback.Load()
}

// Status describes the monitor for the API.
func (m *Monitor) Status() models.MonitorStatus {
	m.mu.Lock()
	running := m.running
	last, next := m.lastCheck, m.nextCheck
	m.mu.Unlock()

	st := models.MonitorStatus{
		Running:        running,
		FallbackActive: m.fallback.Load(),
	}
	if !last.IsZero() {
		st.LastCheckTime = &last
	}
	if running && !next.IsZero() {
		st.NextCheckTime = &next
	}
	if m.notifier != nil {
		st.QueueDepth = m.notifier.Depth()
	}
	return st
}

func (m *Monitor) setLastCheck(t time.Time) {
	m.mu.Lock()
	m.lastCheck = t
	m.mu.Unlock()
}

func (m *Monitor) setNextCheck(t time.Time) {
	m.mu.Lock()
	m.nextCheck = t
	m.mu.Unlock()
}
