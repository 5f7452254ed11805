// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package ons

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors returned by the ONS client.
var (
	// ErrEmptyResponse is returned when the upstream answers 200 with an
	// empty body. The Integra API does this under load; it must be treated
	// as a failure, never as "zero interventions".
	ErrEmptyResponse = errors.New("ons: empty response body")

	// ErrInvalidAuthResponse is returned when the authentication response
	// is missing required fields.
	ErrInvalidAuthResponse = errors.New("ons: invalid authentication response")

	// ErrInvalidDateWindow is returned when a filter spans more than the
	// upstream's maximum window.
	ErrInvalidDateWindow = errors.New("ons: Período inválido")
)

// APIError represents a non-2xx response from the ONS API.
type APIError struct {
	StatusCode int
	Body       string

	// retryAfter carries the parsed Retry-After header on 429 responses.
	retryAfter time.Duration
}

func asAPIError(err error, target **APIError) bool {
	return errors.As(err, target)
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("ons: upstream returned %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("ons: upstream returned %d", e.StatusCode)
}

// IsAuthError reports whether err indicates a rejected or expired token.
// These responses require a token refresh, not a plain retry.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsTransient reports whether err is worth retrying: network failures,
// timeouts, 5xx responses, 408, rate limiting, and empty bodies.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrEmptyResponse) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 ||
			apiErr.StatusCode == http.StatusTooManyRequests ||
			apiErr.StatusCode == http.StatusRequestTimeout
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// Network-level failures (connection refused, DNS, timeouts) surface as
	// url.Error and are retryable.
	return !errors.Is(err, ErrInvalidAuthResponse) && !errors.Is(err, ErrInvalidDateWindow)
}
