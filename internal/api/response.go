// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/danielramos222/gridwatch/internal/logging"
	"github.com/danielramos222/gridwatch/internal/models"
)

// Error codes used across API responses.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
)

// respondJSON writes the response envelope with standard headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError writes an error envelope and logs the underlying error.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().
			Str("code", sanitizeLogValue(code)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// respondSuccess wraps data in a success envelope.
func respondSuccess(w http.ResponseWriter, data interface{}, count int) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			Count:     count,
		},
	})
}

// generateETag creates an ETag from the response bytes using FNV-1a.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return fmt.Sprintf("\"%08x\"", hash)
}

// sanitizeLogValue strips newlines so attacker-supplied strings cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}
