// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

// Package monitor runs the polling loop: fetch interventions, diff against
// the previous snapshot, persist, and hand changes to the notifier.
package monitor

import (
	"fmt"
	"sync"

	"github.com/danielramos222/gridwatch/internal/metrics"
	"github.com/danielramos222/gridwatch/internal/models"
)

// Tracker holds the last-known snapshot of interventions keyed by numero_ons
// and produces change records when a new snapshot arrives.
type Tracker struct {
	mu       sync.RWMutex
	snapshot map[string]models.Intervention
}

// NewTracker starts with an empty snapshot; every intervention of the first
// poll is reported as new. Use Seed to restore persisted state instead.
func NewTracker() *Tracker {
	return &Tracker{snapshot: make(map[string]models.Intervention)}
}

// Seed replaces the snapshot without producing change records. Called on
// startup with the persisted state so a restart does not re-announce
// everything as new.
func (t *Tracker) Seed(items []models.Intervention) {
	next := make(map[string]models.Intervention, len(items))
	for _, iv := range items {
		next[iv.NumeroONS] = iv
	}

	t.mu.Lock()
	t.snapshot = next
	t.mu.Unlock()

	metrics.SnapshotSize.Set(float64(len(next)))
}

// TrackChanges diffs the incoming set against the snapshot and atomically
// swaps the snapshot. The diff and swap happen under one lock, so feeding the
// same set twice always yields zero changes the second time.
func (t *Tracker) TrackChanges(items []models.Intervention) []models.ChangeRecord {
	next := make(map[string]models.Intervention, len(items))
	for _, iv := range items {
		next[iv.NumeroONS] = iv
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var changes []models.ChangeRecord

	for id, current := range next {
		previous, existed := t.snapshot[id]
		if !existed {
			iv := current
			changes = append(changes, models.ChangeRecord{
				NumeroONS:    id,
				Kind:         models.ChangeNew,
				Details:      []string{"Nova intervenção registrada"},
				Intervention: &iv,
			})
			continue
		}
		if details := diffIntervention(&previous, &current); len(details) > 0 {
			iv := current
			changes = append(changes, models.ChangeRecord{
				NumeroONS:    id,
				Kind:         models.ChangeModified,
				Details:      details,
				Intervention: &iv,
			})
		}
	}

	for id, previous := range t.snapshot {
		if _, stillThere := next[id]; !stillThere {
			iv := previous
			changes = append(changes, models.ChangeRecord{
				NumeroONS:    id,
				Kind:         models.ChangeRemoved,
				Details:      []string{"Intervenção removida"},
				Intervention: &iv,
			})
		}
	}

	t.snapshot = next

	metrics.SnapshotSize.Set(float64(len(next)))
	for _, ch := range changes {
		metrics.ChangesDetected.WithLabelValues(string(ch.Kind)).Inc()
	}

	return changes
}

// Snapshot returns a copy of the current snapshot.
func (t *Tracker) Snapshot() []models.Intervention {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.Intervention, 0, len(t.snapshot))
	for _, iv := range t.snapshot {
		out = append(out, iv)
	}
	return out
}

// Size returns the number of tracked interventions.
func (t *Tracker) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.snapshot)
}

// diffIntervention compares the fields that matter operationally and returns
// one human-readable line per difference.
func diffIntervention(previous, current *models.Intervention) []string {
	var details []string

	if previous.Situacao != current.Situacao {
		details = append(details, fmt.Sprintf("Situação alterada: %s → %s", previous.Situacao, current.Situacao))
	}
	if previous.DataHoraInicio != current.DataHoraInicio {
		details = append(details, fmt.Sprintf("Data/hora início alterada: %s → %s", previous.DataHoraInicio, current.DataHoraInicio))
	}
	if previous.DataHoraFim != current.DataHoraFim {
		details = append(details, fmt.Sprintf("Data/hora fim alterada: %s → %s", previous.DataHoraFim, current.DataHoraFim))
	}
	if previous.PossuiRecomendacao != current.PossuiRecomendacao {
		if current.PossuiRecomendacao {
			details = append(details, "Recomendação adicionada")
		} else {
			details = append(details, "Recomendação removida")
		}
	}

	return details
}
