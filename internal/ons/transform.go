// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package ons

import (
	"strings"

	"github.com/danielramos222/gridwatch/internal/models"
	onsmodels "github.com/danielramos222/gridwatch/internal/models/ons"
)

// ToIntervention converts an upstream record to the internal representation,
// deriving criticality, recommendation flag, and description.
func ToIntervention(src *onsmodels.Intervencao) models.Intervention {
	return models.Intervention{
		NumeroONS:          src.NumeroONS,
		NumeroAgente:       src.NumeroAgente,
		DataHoraInicio:     src.DataHoraInicio,
		DataHoraFim:        src.DataHoraFim,
		Situacao:           src.Situacao,
		Criticidade:        DeriveCriticality(src),
		Descricao:          buildDescription(src),
		Responsavel:        src.NomeAgenteResponsavel,
		PossuiRecomendacao: hasRecommendation(src),
	}
}

// ToInterventions converts a batch of upstream records.
func ToInterventions(src []onsmodels.Intervencao) []models.Intervention {
	out := make([]models.Intervention, 0, len(src))
	for i := range src {
		out = append(out, ToIntervention(&src[i]))
	}
	return out
}

// DeriveCriticality classifies an intervention by risk:
//
//	Alta  - elevated outage risk, risky postponement, or multiple losses
//	Média - protection relay involvement or weather dependency
//	Baixa - everything else
func DeriveCriticality(src *onsmodels.Intervencao) models.Criticality {
	if src.ElevadoRiscoDesligamento == "S" || src.PostergacaoTrazRisco || src.AcarretaPerdasMultiplas {
		return models.CriticalityHigh
	}
	if src.EnvolveReleProtecao || src.DependeCondicoesClimatica == "S" {
		return models.CriticalityMedium
	}
	return models.CriticalityLow
}

// hasRecommendation reports whether the record carries any of the flags that
// warrant an operational recommendation.
func hasRecommendation(src *onsmodels.Intervencao) bool {
	return src.ElevadoRiscoDesligamento == "S" ||
		src.DependeCondicoesClimatica == "S" ||
		src.ExecucaoPeriodoNoturno == "S"
}

// buildDescription joins the free-text fields with " | ", skipping blanks.
func buildDescription(src *onsmodels.Intervencao) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{src.Servicos, src.Observacoes, src.JustificativaForaPrazo} {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " | ")
}
