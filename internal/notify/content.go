// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

// Package notify delivers change notifications: a rate-limited FIFO queue in
// front of the email channel, with a Badger-backed dead-letter store for
// deliveries that exhausted their retries.
package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/danielramos222/gridwatch/internal/models"
)

// Subject builds the notification subject line for a change.
func Subject(ch *models.ChangeRecord) string {
	var label string
	switch ch.Kind {
	case models.ChangeNew:
		label = "Nova Intervenção"
	case models.ChangeModified:
		label = "Intervenção Atualizada"
	case models.ChangeRemoved:
		label = "Intervenção Removida"
	default:
		label = "Intervenção"
	}
	return fmt.Sprintf("Intervenção %s - %s", ch.NumeroONS, label)
}

// BodyHTML renders the notification body. All upstream strings pass through
// html escaping; the free-text fields come from an external system.
func BodyHTML(ch *models.ChangeRecord) string {
	var b strings.Builder

	b.WriteString("<html><body>")
	b.WriteString(fmt.Sprintf("<h2>%s</h2>", html.EscapeString(Subject(ch))))

	b.WriteString("<ul>")
	for _, d := range ch.Details {
		b.WriteString(fmt.Sprintf("<li>%s</li>", html.EscapeString(d)))
	}
	b.WriteString("</ul>")

	if iv := ch.Intervention; iv != nil {
		b.WriteString("<table border=\"0\" cellpadding=\"4\">")
		writeRow(&b, "Número ONS", iv.NumeroONS)
		writeRow(&b, "Agente", iv.NumeroAgente)
		writeRow(&b, "Situação", iv.Situacao)
		writeRow(&b, "Criticidade", string(iv.Criticidade))
		writeRow(&b, "Início", iv.DataHoraInicio)
		writeRow(&b, "Fim", iv.DataHoraFim)
		writeRow(&b, "Responsável", iv.Responsavel)
		if iv.PossuiRecomendacao {
			writeRow(&b, "Recomendação", "Sim")
		}
		if iv.Descricao != "" {
			writeRow(&b, "Descrição", iv.Descricao)
		}
		b.WriteString("</table>")
	}

	b.WriteString("</body></html>")
	return b.String()
}

// BodyText renders the plain-text alternative.
func BodyText(ch *models.ChangeRecord) string {
	var b strings.Builder

	b.WriteString(Subject(ch))
	b.WriteString("\n\n")
	for _, d := range ch.Details {
		b.WriteString("- ")
		b.WriteString(d)
		b.WriteString("\n")
	}

	if iv := ch.Intervention; iv != nil {
		b.WriteString("\n")
		fmt.Fprintf(&b, "Número ONS: %s\n", iv.NumeroONS)
		fmt.Fprintf(&b, "Agente: %s\n", iv.NumeroAgente)
		fmt.Fprintf(&b, "Situação: %s\n", iv.Situacao)
		fmt.Fprintf(&b, "Criticidade: %s\n", iv.Criticidade)
		fmt.Fprintf(&b, "Início: %s\n", iv.DataHoraInicio)
		fmt.Fprintf(&b, "Fim: %s\n", iv.DataHoraFim)
		if iv.Descricao != "" {
			fmt.Fprintf(&b, "Descrição: %s\n", iv.Descricao)
		}
	}

	return b.String()
}

func writeRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "<tr><td><b>%s</b></td><td>%s</td></tr>",
		html.EscapeString(label), html.EscapeString(value))
}
