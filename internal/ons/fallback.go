// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package ons

import (
	"fmt"
	"time"

	"github.com/danielramos222/gridwatch/internal/models"
	onsmodels "github.com/danielramos222/gridwatch/internal/models/ons"
)

// mockTokenTTL matches the upstream's usual token lifetime.
const mockTokenTTL = 3600

// MockAuth produces a synthetic authentication response. Used when the real
// exchange is impossible (cooldown, upstream down) so the service keeps
// serving known data instead of failing.
func MockAuth(now time.Time) *onsmodels.AuthResponse {
	return &onsmodels.AuthResponse{
		AccessToken: fmt.Sprintf("mock_token_%d", now.Unix()),
		TokenType:   "Bearer",
		ExpiresIn:   fmt.Sprintf("%d", mockTokenTTL),
	}
}

// MockInterventions returns the static demonstration data set served in
// fallback mode. Timestamps are anchored to now so the entries always fall
// inside the default query window.
func MockInterventions(now time.Time) []models.Intervention {
	day := now.Format("2006-01-02")
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")

	return []models.Intervention{
		{
			NumeroONS:          "INT001",
			NumeroAgente:       "CMG",
			DataHoraInicio:     day + "T08:00:00",
			DataHoraFim:        day + "T12:00:00",
			Situacao:           "Aprovada",
			Criticidade:        models.CriticalityHigh,
			Descricao:          "Manutenção preventiva em linha de transmissão 500kV",
			Responsavel:        "CEMIG GT",
			PossuiRecomendacao: true,
		},
		{
			NumeroONS:          "INT002",
			NumeroAgente:       "TMG",
			DataHoraInicio:     day + "T14:00:00",
			DataHoraFim:        day + "T18:00:00",
			Situacao:           "Em Análise",
			Criticidade:        models.CriticalityMedium,
			Descricao:          "Substituição de relé de proteção em subestação",
			Responsavel:        "CEMIG TRANSMISSÃO",
			PossuiRecomendacao: false,
		},
		{
			NumeroONS:          "INT003",
			NumeroAgente:       "CD1",
			DataHoraInicio:     tomorrow + "T09:00:00",
			DataHoraFim:        tomorrow + "T11:00:00",
			Situacao:           "Aprovada",
			Criticidade:        models.CriticalityLow,
			Descricao:          "Inspeção de rotina em equipamentos de medição",
			Responsavel:        "CEMIG D",
			PossuiRecomendacao: false,
		},
	}
}
