// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package notify

import (
	"strings"
	"testing"

	"github.com/danielramos222/gridwatch/internal/models"
)

func TestSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind models.ChangeKind
		want string
	}{
		{"new", models.ChangeNew, "Intervenção INT2024001 - Nova Intervenção"},
		{"modified", models.ChangeModified, "Intervenção INT2024001 - Intervenção Atualizada"},
		{"removed", models.ChangeRemoved, "Intervenção INT2024001 - Intervenção Removida"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Subject(&models.ChangeRecord{NumeroONS: "INT2024001", Kind: tt.kind})
			if got != tt.want {
				t.Errorf("Subject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBodyHTMLEscapesUpstreamText(t *testing.T) {
	t.Parallel()

	ch := &models.ChangeRecord{
		NumeroONS: "INT001",
		Kind:      models.ChangeModified,
		Details:   []string{"Situação alterada: <Aprovada> → Cancelada"},
		Intervention: &models.Intervention{
			NumeroONS: "INT001",
			Descricao: "<script>alert(1)</script>",
		},
	}

	got := BodyHTML(ch)
	if strings.Contains(got, "<script>") {
		t.Error("BodyHTML() did not escape description HTML")
	}
	if !strings.Contains(got, "&lt;Aprovada&gt;") {
		t.Error("BodyHTML() did not escape detail line")
	}
	if !strings.Contains(got, "<li>") {
		t.Error("BodyHTML() missing details list")
	}
}

func TestBodyHTMLRecommendationRow(t *testing.T) {
	t.Parallel()

	with := BodyHTML(&models.ChangeRecord{
		NumeroONS:    "INT001",
		Kind:         models.ChangeNew,
		Intervention: &models.Intervention{NumeroONS: "INT001", PossuiRecomendacao: true},
	})
	without := BodyHTML(&models.ChangeRecord{
		NumeroONS:    "INT001",
		Kind:         models.ChangeNew,
		Intervention: &models.Intervention{NumeroONS: "INT001"},
	})

	if !strings.Contains(with, "Recomendação") {
		t.Error("BodyHTML() missing recommendation row when flag set")
	}
	if strings.Contains(without, "Recomendação") {
		t.Error("BodyHTML() has recommendation row when flag unset")
	}
}

func TestBodyText(t *testing.T) {
	t.Parallel()

	ch := &models.ChangeRecord{
		NumeroONS: "INT001",
		Kind:      models.ChangeModified,
		Details:   []string{"Data/hora início alterada: 2024-01-01T08:00:00 → 2024-01-02T08:00:00"},
		Intervention: &models.Intervention{
			NumeroONS:      "INT001",
			NumeroAgente:   "CMG",
			Situacao:       "Aprovada",
			Criticidade:    models.CriticalityHigh,
			DataHoraInicio: "2024-01-02T08:00:00",
			DataHoraFim:    "2024-01-02T17:00:00",
		},
	}

	got := BodyText(ch)
	for _, want := range []string{
		"Intervenção INT001 - Intervenção Atualizada",
		"- Data/hora início alterada: 2024-01-01T08:00:00 → 2024-01-02T08:00:00",
		"Número ONS: INT001",
		"Criticidade: Alta",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("BodyText() missing %q in:\n%s", want, got)
		}
	}
}
