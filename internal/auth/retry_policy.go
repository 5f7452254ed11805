// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package auth

import (
	"sync"
	"time"
)

// RetryPolicy tracks consecutive authentication failures and enforces a
// cooldown once the attempt budget is exhausted. Failure history expires on
// its own after ResetAfter, so an old burst of failures does not block a
// fresh attempt hours later.
type RetryPolicy struct {
	mu          sync.Mutex
	maxAttempts int
	cooldown    time.Duration
	resetAfter  time.Duration

	failures    int
	lastFailure time.Time
	blockedTill time.Time
	now         func() time.Time
}

// NewRetryPolicy creates a policy allowing maxAttempts consecutive failures
// before entering cooldown.
func NewRetryPolicy(maxAttempts int, cooldown, resetAfter time.Duration) *RetryPolicy {
	return &RetryPolicy{
		maxAttempts: maxAttempts,
		cooldown:    cooldown,
		resetAfter:  resetAfter,
		now:         time.Now,
	}
}

// CanAttempt reports whether an exchange may be attempted now. Expired
// failure history is discarded lazily on the way in.
func (p *RetryPolicy) CanAttempt() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maybeExpire()
	return p.now().After(p.blockedTill) || p.now().Equal(p.blockedTill)
}

// InCooldown reports whether the policy is currently blocking attempts.
func (p *RetryPolicy) InCooldown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maybeExpire()
	return p.now().Before(p.blockedTill)
}

// RecordFailure registers a failed exchange. The cooldown starts once
// maxAttempts consecutive failures have accumulated.
func (p *RetryPolicy) RecordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maybeExpire()

	p.failures++
	p.lastFailure = p.now()
	if p.failures >= p.maxAttempts {
		p.blockedTill = p.now().Add(p.cooldown)
		p.failures = 0
	}
}

// Reset clears all failure state after a successful exchange.
func (p *RetryPolicy) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = 0
	p.lastFailure = time.Time{}
	p.blockedTill = time.Time{}
}

// maybeExpire drops failure history older than resetAfter. Must be called
// with the lock held.
func (p *RetryPolicy) maybeExpire() {
	if p.failures > 0 && !p.lastFailure.IsZero() && p.now().Sub(p.lastFailure) > p.resetAfter {
		p.failures = 0
		p.lastFailure = time.Time{}
	}
}

// Failures returns the current consecutive failure count, for status
// reporting.
func (p *RetryPolicy) Failures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maybeExpire()
	return p.failures
}
