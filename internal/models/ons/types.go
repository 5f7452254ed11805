// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

// Package ons defines the wire types of the ONS Integra API.
//
// Field names and JSON tags follow the upstream OpenAPI specification, quirks
// included: expires_in arrives as a string, yes/no flags are "S"/"N" strings
// while others are real booleans. Translation into the internal shape happens
// in internal/ons, never here.
package ons

// AuthRequest is the body of POST /autenticar.
type AuthRequest struct {
	Usuario string `json:"usuario"`
	Senha   string `json:"senha"`
}

// AuthResponse is the success body of POST /autenticar.
// ExpiresIn is a string holding the TTL in seconds, e.g. "3600".
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    string `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// AuthError is the error body of POST /autenticar.
type AuthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Intervencao is one intervention record as returned by GET /sgi/intervencoes.
type Intervencao struct {
	NumeroONS                 string `json:"numeroONS"`
	NumeroAgente              string `json:"numeroAgente"`
	DataHoraSolicitacao       string `json:"dataHoraSolicitacao"`
	Situacao                  string `json:"situacao"`
	NomeCentroResponsavel     string `json:"nomeCentroResponsavel"`
	NomeAgenteSolicitante     string `json:"nomeAgenteSolicitante"`
	NomeAgenteResponsavel     string `json:"nomeAgenteResponsavel"`
	Malha                     string `json:"malha"`
	Servicos                  string `json:"servicos"`
	Observacoes               string `json:"observacoes"`
	DataHoraInicio            string `json:"dataHoraInicio"`
	DataHoraFim               string `json:"dataHoraFim"`
	Periodicidade             string `json:"periodicidade"`
	Natureza                  string `json:"natureza"`
	Classificacao             string `json:"classificacao"`
	JustificativaForaPrazo    string `json:"justificativaForaPrazo"`
	Tipo                      int    `json:"tipo"`
	Caracterizacao            string `json:"caracterizacao"`
	ElevadoRiscoDesligamento  string `json:"elevadoRiscoDesligamento"`
	DependeCondicoesClimatica string `json:"dependeCondicoesClimaticas"`
	ExecucaoPeriodoNoturno    string `json:"execucaoPeriodoNoturno"`
	PostergacaoTrazRisco      bool   `json:"postergacaoTrazRisco"`
	AcarretaPerdasMultiplas   bool   `json:"acarretaPerdasMultiplas"`
	EnvolveReleProtecao       bool   `json:"envolveReleProtecao"`
}

// IntervencoesResponse wraps the intervention listing. The upstream signals
// application-level errors inside a 200 response via IndErro.
type IntervencoesResponse struct {
	Intervencoes []Intervencao `json:"intervencoes"`
	Total        int           `json:"total"`
	IndErro      bool          `json:"indErro"`
	MensagemErro string        `json:"mensagemErro,omitempty"`
}
