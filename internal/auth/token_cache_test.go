// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package auth

import (
	"testing"
	"time"
)

// fakeClock steps time manually for deterministic expiry tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)}
}

func TestTokenCache(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	cache := NewTokenCache(5 * time.Minute)
	cache.now = clock.now

	if _, ok := cache.Get(); ok {
		t.Fatal("empty cache returned a token")
	}

	cache.Set("tok", "Bearer", time.Hour)

	token, ok := cache.Get()
	if !ok || token != "tok" {
		t.Fatalf("Get() = %q, %v; want tok, true", token, ok)
	}

	// 54 minutes in: still outside the 5-minute buffer
	clock.advance(54 * time.Minute)
	if !cache.IsValid() {
		t.Error("token invalid before the safety buffer")
	}

	// 56 minutes in: inside the buffer, must refresh
	clock.advance(2 * time.Minute)
	if cache.IsValid() {
		t.Error("token valid inside the safety buffer")
	}
	if _, ok := cache.Get(); ok {
		t.Error("Get() returned a token inside the safety buffer")
	}
}

func TestTokenCache_Clear(t *testing.T) {
	t.Parallel()

	cache := NewTokenCache(5 * time.Minute)
	cache.Set("tok", "Bearer", time.Hour)
	cache.Clear()

	if cache.IsValid() {
		t.Error("cache valid after Clear()")
	}
	if _, ok := cache.Get(); ok {
		t.Error("Get() returned a token after Clear()")
	}
}

func TestRetryPolicy_CooldownAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	policy := NewRetryPolicy(3, 5*time.Minute, 30*time.Minute)
	policy.now = clock.now

	for i := 0; i < 2; i++ {
		policy.RecordFailure()
		if !policy.CanAttempt() {
			t.Fatalf("blocked after %d failures, want block only at 3", i+1)
		}
	}

	policy.RecordFailure()
	if policy.CanAttempt() {
		t.Fatal("attempt allowed right after third failure")
	}
	if !policy.InCooldown() {
		t.Fatal("InCooldown() = false during cooldown")
	}

	// Cooldown expires
	clock.advance(5*time.Minute + time.Second)
	if !policy.CanAttempt() {
		t.Error("attempt blocked after cooldown expired")
	}
	if policy.InCooldown() {
		t.Error("InCooldown() = true after cooldown expired")
	}
}

func TestRetryPolicy_FailureHistoryExpires(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	policy := NewRetryPolicy(3, 5*time.Minute, 30*time.Minute)
	policy.now = clock.now

	policy.RecordFailure()
	policy.RecordFailure()
	if policy.Failures() != 2 {
		t.Fatalf("Failures() = %d, want 2", policy.Failures())
	}

	// Old failures decay; the next failure starts a fresh count instead of
	// tripping the cooldown.
	clock.advance(31 * time.Minute)
	if policy.Failures() != 0 {
		t.Fatalf("Failures() = %d after reset window, want 0", policy.Failures())
	}

	policy.RecordFailure()
	if !policy.CanAttempt() {
		t.Error("blocked after a single fresh failure")
	}
}

func TestRetryPolicy_Reset(t *testing.T) {
	t.Parallel()

	policy := NewRetryPolicy(3, 5*time.Minute, 30*time.Minute)
	policy.RecordFailure()
	policy.RecordFailure()
	policy.Reset()

	if policy.Failures() != 0 {
		t.Errorf("Failures() = %d after Reset(), want 0", policy.Failures())
	}
	if !policy.CanAttempt() {
		t.Error("blocked after Reset()")
	}
}
