// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package auth

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/danielramos222/gridwatch/internal/config"
	"github.com/danielramos222/gridwatch/internal/logging"
	"github.com/danielramos222/gridwatch/internal/metrics"
	"github.com/danielramos222/gridwatch/internal/models"
	onsmodels "github.com/danielramos222/gridwatch/internal/models/ons"
	"github.com/danielramos222/gridwatch/internal/ons"
)

// ErrCooldown is returned when authentication is blocked by the retry policy
// and fallback mode is disabled.
var ErrCooldown = errors.New("auth: exchange blocked by cooldown")

// Authenticator is the upstream credential exchange. Satisfied by
// ons.CircuitBreakerClient.
type Authenticator interface {
	Authenticate(ctx context.Context, usuario, senha string) (*onsmodels.AuthResponse, error)
}

// SessionManager owns the token lifecycle. Concurrent callers asking for a
// token while none is cached share a single upstream exchange; everyone gets
// the same result.
type SessionManager struct {
	client   Authenticator
	cache    *TokenCache
	policy   *RetryPolicy
	usuario  string
	senha    string
	timeout  time.Duration
	fallback bool

	group  singleflight.Group
	inMock atomic.Bool
	now    func() time.Time
}

// NewSessionManager wires the token cache and retry policy from config.
func NewSessionManager(client Authenticator, cfg *config.ONSConfig) *SessionManager {
	return &SessionManager{
		client:   client,
		cache:    NewTokenCache(cfg.TokenBuffer),
		policy:   NewRetryPolicy(cfg.MaxAuthAttempts, cfg.AuthCooldown, cfg.AuthResetAfter),
		usuario:  cfg.Usuario,
		senha:    cfg.Senha,
		timeout:  cfg.AuthTimeout,
		fallback: cfg.FallbackEnabled,
		now:      time.Now,
	}
}

// Token returns a usable bearer token, performing a credential exchange if
// the cache is empty or stale. When the exchange fails or is blocked by
// cooldown and fallback is enabled, a mock token is returned instead so
// callers can degrade to fallback data.
func (s *SessionManager) Token(ctx context.Context) (string, error) {
	if token, ok := s.cache.Get(); ok {
		return token, nil
	}

	// Concurrent refreshes collapse into one exchange
	result, err, _ := s.group.Do("auth", func() (interface{}, error) {
		// A racing caller may have refreshed while we waited on the group
		if token, ok := s.cache.Get(); ok {
			return token, nil
		}
		return s.exchange(ctx)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// exchange performs one credential exchange against the upstream, honoring
// the retry policy and falling back to a mock token when allowed.
func (s *SessionManager) exchange(ctx context.Context) (string, error) {
	if !s.policy.CanAttempt() {
		metrics.AuthCooldownActive.Set(1)
		if s.fallback {
			return s.mockToken("cooldown"), nil
		}
		return "", ErrCooldown
	}
	metrics.AuthCooldownActive.Set(0)

	exCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Authenticate(exCtx, s.usuario, s.senha)
	if err != nil {
		s.policy.RecordFailure()
		result := "failure"
		if errors.Is(err, context.DeadlineExceeded) {
			result = "timeout"
		}
		metrics.AuthExchanges.WithLabelValues(result).Inc()
		if s.policy.InCooldown() {
			metrics.AuthCooldownActive.Set(1)
		}

		logging.Warn().Err(err).Int("failures", s.policy.Failures()).Msg("Credential exchange failed")

		if s.fallback {
			return s.mockToken("exchange_failure"), nil
		}
		return "", err
	}

	// The client validated expires_in already; a parse failure here means
	// the validation contract was broken upstream of us.
	ttl, err := ons.ParseExpiresIn(resp.ExpiresIn)
	if err != nil {
		s.policy.RecordFailure()
		metrics.AuthExchanges.WithLabelValues("failure").Inc()
		if s.fallback {
			return s.mockToken("invalid_expiry"), nil
		}
		return "", err
	}

	s.cache.Set(resp.AccessToken, resp.TokenType, ttl)
	s.policy.Reset()
	s.inMock.Store(false)
	metrics.AuthExchanges.WithLabelValues("success").Inc()
	metrics.AuthFallbackActive.Set(0)
	metrics.AuthCooldownActive.Set(0)

	logging.Info().Dur("ttl", ttl).Msg("Credential exchange succeeded")
	return resp.AccessToken, nil
}

// mockToken produces a fallback token and records why it was needed.
func (s *SessionManager) mockToken(reason string) string {
	mock := ons.MockAuth(s.now())
	ttl, _ := ons.ParseExpiresIn(mock.ExpiresIn)
	s.cache.Set(mock.AccessToken, mock.TokenType, ttl)
	s.inMock.Store(true)
	metrics.AuthFallbackActive.Set(1)

	logging.Warn().Str("reason", reason).Msg("Handing out fallback token")
	return mock.AccessToken
}

// Invalidate drops the cached token. Called when the upstream rejects it
// before its computed expiry.
func (s *SessionManager) Invalidate() {
	s.cache.Clear()
}

// InFallback reports whether the current token is a mock token.
func (s *SessionManager) InFallback() bool {
	return s.inMock.Load()
}

// Status describes the session for the monitoring API.
func (s *SessionManager) Status() models.AuthStatus {
	state := "idle"
	switch {
	case s.inMock.Load():
		state = "fallback"
	case s.policy.InCooldown():
		state = "cooldown"
	case s.cache.IsValid():
		state = "authenticated"
	}
	return models.AuthStatus{
		State:          state,
		TokenExpiresAt: s.cache.ExpiresAt(),
		Failures:       s.policy.Failures(),
	}
}
