// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielramos222/gridwatch/internal/config"
	onsmodels "github.com/danielramos222/gridwatch/internal/models/ons"
)

// fakeAuthenticator counts exchanges and serves scripted responses.
type fakeAuthenticator struct {
	calls atomic.Int32
	delay time.Duration
	err   error
	token string
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, _, _ string) (*onsmodels.AuthResponse, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &onsmodels.AuthResponse{
		AccessToken: f.token,
		TokenType:   "Bearer",
		ExpiresIn:   "3600",
	}, nil
}

func testONSConfig(fallback bool) *config.ONSConfig {
	return &config.ONSConfig{
		TokenBuffer:     5 * time.Minute,
		AuthTimeout:     time.Second,
		MaxAuthAttempts: 3,
		AuthCooldown:    5 * time.Minute,
		AuthResetAfter:  30 * time.Minute,
		FallbackEnabled: fallback,
	}
}

func TestSessionManager_TokenCachedAcrossCalls(t *testing.T) {
	t.Parallel()

	fake := &fakeAuthenticator{token: "real-token"}
	sm := NewSessionManager(fake, testONSConfig(false))

	for i := 0; i < 3; i++ {
		token, err := sm.Token(context.Background())
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if token != "real-token" {
			t.Fatalf("Token() = %q, want real-token", token)
		}
	}

	if got := fake.calls.Load(); got != 1 {
		t.Errorf("Authenticate called %d times, want 1", got)
	}
}

func TestSessionManager_SingleFlight(t *testing.T) {
	t.Parallel()

	fake := &fakeAuthenticator{token: "real-token", delay: 50 * time.Millisecond}
	sm := NewSessionManager(fake, testONSConfig(false))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := sm.Token(context.Background())
			if err != nil {
				t.Errorf("Token() error = %v", err)
				return
			}
			if token != "real-token" {
				t.Errorf("Token() = %q, want real-token", token)
			}
		}()
	}
	wg.Wait()

	if got := fake.calls.Load(); got != 1 {
		t.Errorf("Authenticate called %d times for 10 concurrent callers, want 1", got)
	}
}

func TestSessionManager_FallbackOnFailure(t *testing.T) {
	t.Parallel()

	fake := &fakeAuthenticator{err: errors.New("upstream down")}
	sm := NewSessionManager(fake, testONSConfig(true))

	token, err := sm.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v, want fallback token", err)
	}
	if !strings.HasPrefix(token, "mock_token_") {
		t.Errorf("Token() = %q, want mock_token_ prefix", token)
	}
	if !sm.InFallback() {
		t.Error("InFallback() = false after fallback token")
	}
	if got := sm.Status().State; got != "fallback" {
		t.Errorf("Status().State = %q, want fallback", got)
	}
}

func TestSessionManager_ErrorWithoutFallback(t *testing.T) {
	t.Parallel()

	fake := &fakeAuthenticator{err: errors.New("upstream down")}
	sm := NewSessionManager(fake, testONSConfig(false))

	if _, err := sm.Token(context.Background()); err == nil {
		t.Fatal("Token() succeeded, want error when fallback is disabled")
	}
}

func TestSessionManager_CooldownBlocksExchanges(t *testing.T) {
	t.Parallel()

	fake := &fakeAuthenticator{err: errors.New("bad credentials")}
	sm := NewSessionManager(fake, testONSConfig(false))

	// Exhaust the attempt budget
	for i := 0; i < 3; i++ {
		if _, err := sm.Token(context.Background()); err == nil {
			t.Fatal("Token() succeeded with failing authenticator")
		}
	}

	// Next call must be rejected by the policy without hitting the upstream
	before := fake.calls.Load()
	_, err := sm.Token(context.Background())
	if !errors.Is(err, ErrCooldown) {
		t.Fatalf("Token() error = %v, want ErrCooldown", err)
	}
	if fake.calls.Load() != before {
		t.Error("upstream contacted during cooldown")
	}
	if got := sm.Status().State; got != "cooldown" {
		t.Errorf("Status().State = %q, want cooldown", got)
	}
}

func TestSessionManager_CooldownServesFallback(t *testing.T) {
	t.Parallel()

	fake := &fakeAuthenticator{err: errors.New("bad credentials")}
	sm := NewSessionManager(fake, testONSConfig(true))

	// Exhaust the attempt budget. Fallback mode serves mock tokens, so the
	// calls succeed while RecordFailure accumulates.
	for i := 0; i < 3; i++ {
		sm.Invalidate()
		if _, err := sm.Token(context.Background()); err != nil {
			t.Fatalf("Token() error = %v", err)
		}
	}

	before := fake.calls.Load()
	sm.Invalidate()
	token, err := sm.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if !strings.HasPrefix(token, "mock_token_") {
		t.Errorf("Token() = %q, want mock token during cooldown", token)
	}
	if fake.calls.Load() != before {
		t.Error("upstream contacted during cooldown")
	}
}

func TestSessionManager_ExchangeTimeout(t *testing.T) {
	t.Parallel()

	fake := &fakeAuthenticator{token: "slow", delay: 5 * time.Second}
	sm := NewSessionManager(fake, testONSConfig(false))

	start := time.Now()
	_, err := sm.Token(context.Background())
	if err == nil {
		t.Fatal("Token() succeeded, want timeout")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("exchange took %v, want bounded by the 1s auth timeout", elapsed)
	}
}

func TestSessionManager_InvalidateForcesRefresh(t *testing.T) {
	t.Parallel()

	fake := &fakeAuthenticator{token: "real-token"}
	sm := NewSessionManager(fake, testONSConfig(false))

	if _, err := sm.Token(context.Background()); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	sm.Invalidate()
	if _, err := sm.Token(context.Background()); err != nil {
		t.Fatalf("Token() error = %v", err)
	}

	if got := fake.calls.Load(); got != 2 {
		t.Errorf("Authenticate called %d times, want 2 after Invalidate", got)
	}
}
