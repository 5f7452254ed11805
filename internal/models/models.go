// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

// Package models defines the domain types shared across GridWatch components.
//
// The central type is Intervention, the internal representation of an ONS
// maintenance/outage record. Upstream wire shapes live in the ons subpackage;
// the translation between the two happens in internal/ons.
package models

import "time"

// Criticality is the derived risk tier of an intervention. It is not an
// upstream field; internal/ons derives it from the upstream risk flags.
type Criticality string

const (
	CriticalityHigh   Criticality = "Alta"
	CriticalityMedium Criticality = "Média"
	CriticalityLow    Criticality = "Baixa"
)

// Intervention is a grid intervention record as GridWatch stores and diffs it.
//
// Records are replaced wholesale on each poll cycle; no field is ever mutated
// in place. The upstream timestamp strings are kept verbatim so diffing and
// round-tripping never lose precision to time zone or format translation.
type Intervention struct {
	NumeroONS          string      `json:"numero_ons"`
	NumeroAgente       string      `json:"numero_agente"`
	DataHoraInicio     string      `json:"data_hora_inicio"`
	DataHoraFim        string      `json:"data_hora_fim"`
	Situacao           string      `json:"situacao"`
	Criticidade        Criticality `json:"criticidade"`
	Descricao          string      `json:"descricao"`
	Responsavel        string      `json:"responsavel"`
	PossuiRecomendacao bool        `json:"possui_recomendacao"`
}

// InterventionSet is the result of one fetch. Fallback is true when the set
// was produced by the fallback provider instead of the live upstream, so
// downstream consumers can always tell synthetic data from real data.
type InterventionSet struct {
	Interventions []Intervention `json:"interventions"`
	Fallback      bool           `json:"fallback"`
	FetchedAt     time.Time      `json:"fetched_at"`
}

// ChangeKind classifies what happened to an intervention between two polls.
// The values match the wording used in operator-facing notifications.
type ChangeKind string

const (
	ChangeNew      ChangeKind = "novo"
	ChangeModified ChangeKind = "alterado"
	ChangeRemoved  ChangeKind = "removido"
)

// ChangeRecord describes one detected change. Details holds one
// human-readable line per changed field (old value → new value).
//
// Intervention is the current record for new/modified changes and the
// last-known record for removed ones.
type ChangeRecord struct {
	NumeroONS    string        `json:"numero_ons"`
	Kind         ChangeKind    `json:"kind"`
	Details      []string      `json:"details"`
	Intervention *Intervention `json:"intervention,omitempty"`
}

// HealthStatus is the payload of the /health endpoint.
type HealthStatus struct {
	Status                 string     `json:"status"`
	Version                string     `json:"version"`
	DatabaseConnected      bool       `json:"database_connected"`
	UpstreamAvailable      bool       `json:"upstream_available"`
	UpstreamResponseTimeMS int64      `json:"upstream_response_time_ms"`
	FallbackActive         bool       `json:"fallback_active"`
	LastCheckTime          *time.Time `json:"last_check_time,omitempty"`
	Uptime                 float64    `json:"uptime_seconds"`
}

// AuthStatus describes the token session state: "idle", "authenticated",
// "cooldown", or "fallback".
type AuthStatus struct {
	State          string    `json:"state"`
	TokenExpiresAt time.Time `json:"token_expires_at,omitempty"`
	Failures       int       `json:"failures"`
}

// MonitorStatus is the payload of the /api/v1/monitor/status endpoint.
type MonitorStatus struct {
	Running        bool       `json:"running"`
	FallbackActive bool       `json:"fallback_active"`
	LastCheckTime  *time.Time `json:"last_check_time,omitempty"`
	NextCheckTime  *time.Time `json:"next_check_time,omitempty"`
	QueueDepth     int        `json:"queue_depth"`
	Auth           AuthStatus `json:"auth"`
}

// APIResponse is the standard response envelope for all API endpoints.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Error    *APIError   `json:"error,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

// APIError carries a machine-readable code alongside the human message.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Metadata holds response metadata common to all endpoints.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count,omitempty"`
}
