// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package monitor

import (
	"testing"
	"time"

	"github.com/danielramos222/gridwatch/internal/models"
)

func iv(id, situacao string, recomendacao bool) models.Intervention {
	return models.Intervention{
		NumeroONS:          id,
		NumeroAgente:       "CMG",
		DataHoraInicio:     "2026-08-31T08:00:00",
		DataHoraFim:        "2026-08-31T12:00:00",
		Situacao:           situacao,
		Criticidade:        models.CriticalityLow,
		PossuiRecomendacao: recomendacao,
	}
}

func TestTrackChanges_FirstPollIsAllNew(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	changes := tracker.TrackChanges([]models.Intervention{
		iv("INT001", "Aprovada", false),
		iv("INT002", "Em Análise", false),
	})

	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	for _, ch := range changes {
		if ch.Kind != models.ChangeNew {
			t.Errorf("%s kind = %v, want novo", ch.NumeroONS, ch.Kind)
		}
		if len(ch.Details) != 1 || ch.Details[0] != "Nova intervenção registrada" {
			t.Errorf("%s details = %v", ch.NumeroONS, ch.Details)
		}
		if ch.Intervention == nil {
			t.Errorf("%s carries no intervention", ch.NumeroONS)
		}
	}
}

func TestTrackChanges_SameSetIsIdempotent(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	set := []models.Intervention{iv("INT001", "Aprovada", false)}

	tracker.TrackChanges(set)
	if changes := tracker.TrackChanges(set); len(changes) != 0 {
		t.Fatalf("second identical poll produced %d changes, want 0", len(changes))
	}
}

func TestTrackChanges_ModifiedFields(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	tracker.TrackChanges([]models.Intervention{iv("INT001", "Em Análise", false)})

	current := iv("INT001", "Aprovada", true)
	current.DataHoraInicio = "2026-09-01T08:00:00"
	changes := tracker.TrackChanges([]models.Intervention{current})

	if len(changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(changes))
	}
	ch := changes[0]
	if ch.Kind != models.ChangeModified {
		t.Fatalf("kind = %v, want alterado", ch.Kind)
	}

	want := []string{
		"Situação alterada: Em Análise → Aprovada",
		"Data/hora início alterada: 2026-08-31T08:00:00 → 2026-09-01T08:00:00",
		"Recomendação adicionada",
	}
	if len(ch.Details) != len(want) {
		t.Fatalf("details = %v, want %v", ch.Details, want)
	}
	for i := range want {
		if ch.Details[i] != want[i] {
			t.Errorf("details[%d] = %q, want %q", i, ch.Details[i], want[i])
		}
	}
}

func TestTrackChanges_RecommendationRemoved(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	tracker.TrackChanges([]models.Intervention{iv("INT001", "Aprovada", true)})
	changes := tracker.TrackChanges([]models.Intervention{iv("INT001", "Aprovada", false)})

	if len(changes) != 1 || changes[0].Details[0] != "Recomendação removida" {
		t.Fatalf("changes = %+v, want single Recomendação removida", changes)
	}
}

func TestTrackChanges_Removed(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	tracker.TrackChanges([]models.Intervention{
		iv("INT001", "Aprovada", false),
		iv("INT002", "Aprovada", false),
	})
	changes := tracker.TrackChanges([]models.Intervention{iv("INT001", "Aprovada", false)})

	if len(changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(changes))
	}
	ch := changes[0]
	if ch.NumeroONS != "INT002" || ch.Kind != models.ChangeRemoved {
		t.Fatalf("change = %+v, want INT002 removido", ch)
	}
	if ch.Details[0] != "Intervenção removida" {
		t.Errorf("details = %v", ch.Details)
	}
	if ch.Intervention == nil || ch.Intervention.NumeroONS != "INT002" {
		t.Error("removed change must carry the last-known record")
	}
	if tracker.Size() != 1 {
		t.Errorf("snapshot size = %d, want 1", tracker.Size())
	}
}

func TestTrackChanges_IrrelevantFieldsIgnored(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	first := iv("INT001", "Aprovada", false)
	first.Descricao = "antes"
	tracker.TrackChanges([]models.Intervention{first})

	second := first
	second.Descricao = "depois"
	second.Criticidade = models.CriticalityHigh

	if changes := tracker.TrackChanges([]models.Intervention{second}); len(changes) != 0 {
		t.Fatalf("description/criticality edits produced %d changes, want 0", len(changes))
	}
}

func TestSeed_ProducesNoChanges(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()
	set := []models.Intervention{iv("INT001", "Aprovada", false)}
	tracker.Seed(set)

	if tracker.Size() != 1 {
		t.Fatalf("snapshot size = %d after seed, want 1", tracker.Size())
	}
	if changes := tracker.TrackChanges(set); len(changes) != 0 {
		t.Fatalf("poll after seed produced %d changes, want 0", len(changes))
	}
}

func TestWindow(t *testing.T) {
	t.Parallel()

	w := Window{Start: 8, End: 18}

	tests := []struct {
		hour int
		want bool
	}{
		{0, false}, {7, false}, {8, true}, {12, true}, {17, true}, {18, false}, {23, false},
	}
	for _, tt := range tests {
		at := time.Date(2026, 8, 31, tt.hour, 30, 0, 0, time.UTC)
		if got := w.Contains(at); got != tt.want {
			t.Errorf("Contains(%02d:30) = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestWindow_NextOpen(t *testing.T) {
	t.Parallel()

	w := Window{Start: 8, End: 18}
	loc := time.UTC

	inside := time.Date(2026, 8, 31, 10, 0, 0, 0, loc)
	if got := w.NextOpen(inside); !got.Equal(inside) {
		t.Errorf("NextOpen(inside) = %v, want unchanged", got)
	}

	early := time.Date(2026, 8, 31, 6, 0, 0, 0, loc)
	if got := w.NextOpen(early); got.Hour() != 8 || got.Day() != 31 {
		t.Errorf("NextOpen(06:00) = %v, want same-day 08:00", got)
	}

	late := time.Date(2026, 8, 31, 20, 0, 0, 0, loc)
	if got := w.NextOpen(late); got.Hour() != 8 || got.Day() != 1 {
		t.Errorf("NextOpen(20:00) = %v, want next-day 08:00", got)
	}
}
