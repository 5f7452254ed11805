// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package ons

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/danielramos222/gridwatch/internal/config"
	"github.com/danielramos222/gridwatch/internal/logging"
	"github.com/danielramos222/gridwatch/internal/metrics"
	onsmodels "github.com/danielramos222/gridwatch/internal/models/ons"
)

// CircuitBreakerClient wraps Client with a circuit breaker so a failing
// upstream stops consuming auth attempts and request timeouts.
//
// The breaker uses real time for its interval and timeout calculations.
// Tests should mock the underlying client, not the breaker.
type CircuitBreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewCircuitBreakerClient creates an ONS client with circuit breaker.
// The circuit opens after a 60% failure rate with minimum 6 requests,
// stays open for 2 minutes, and allows 1 probe request when half-open.
func NewCircuitBreakerClient(cfg *config.ONSConfig) *CircuitBreakerClient {
	client := NewClient(cfg)
	cbName := "ons-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 6 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},

		// Auth rejections are a token problem, not an upstream outage;
		// they must not open the circuit.
		IsSuccessful: func(err error) bool {
			return err == nil || IsAuthError(err)
		},
	})

	return &CircuitBreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps an ONS API call with circuit breaker protection.
func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	return result, nil
}

// castResult safely type-casts the circuit breaker result with error checking.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Authenticate exchanges credentials with circuit breaker protection.
func (cbc *CircuitBreakerClient) Authenticate(ctx context.Context, usuario, senha string) (*onsmodels.AuthResponse, error) {
	return castResult[*onsmodels.AuthResponse](cbc.execute(func() (interface{}, error) {
		return cbc.client.Authenticate(ctx, usuario, senha)
	}))
}

// FetchInterventions retrieves interventions with circuit breaker protection.
func (cbc *CircuitBreakerClient) FetchInterventions(ctx context.Context, token string, f Filter) ([]onsmodels.Intervencao, error) {
	return castResult[[]onsmodels.Intervencao](cbc.execute(func() (interface{}, error) {
		return cbc.client.FetchInterventions(ctx, token, f)
	}))
}

// Ping verifies upstream connectivity with circuit breaker protection.
func (cbc *CircuitBreakerClient) Ping(ctx context.Context) error {
	_, err := cbc.execute(func() (interface{}, error) {
		return nil, cbc.client.Ping(ctx)
	})
	return err
}

// State returns the current circuit state for status reporting.
func (cbc *CircuitBreakerClient) State() string {
	return stateToString(cbc.cb.State())
}
