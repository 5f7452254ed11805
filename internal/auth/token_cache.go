// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

// Package auth manages the ONS token lifecycle: caching with early expiry,
// the failure/cooldown policy, and the single-flight session manager that
// hands out tokens to the rest of the service.
package auth

import (
	"sync"
	"time"
)

// TokenCache holds the current bearer token and its expiry. A safety buffer
// is subtracted from the expiry so a token is refreshed before it can expire
// mid-request.
type TokenCache struct {
	mu        sync.RWMutex
	token     string
	tokenType string
	expiresAt time.Time
	buffer    time.Duration
	now       func() time.Time
}

// NewTokenCache creates a cache with the given safety buffer.
func NewTokenCache(buffer time.Duration) *TokenCache {
	return &TokenCache{
		buffer: buffer,
		now:    time.Now,
	}
}

// Set stores a token with its time-to-live.
func (c *TokenCache) Set(token, tokenType string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.tokenType = tokenType
	c.expiresAt = c.now().Add(ttl)
}

// Get returns the cached token, or "" and false when the cache is empty or
// the token is inside the safety buffer.
func (c *TokenCache) Get() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid() {
		return "", false
	}
	return c.token, true
}

// IsValid reports whether a usable token is cached.
func (c *TokenCache) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.valid()
}

// valid must be called with the lock held.
func (c *TokenCache) valid() bool {
	if c.token == "" {
		return false
	}
	return c.now().Before(c.expiresAt.Add(-c.buffer))
}

// Clear drops the cached token. Called when the upstream rejects it before
// its computed expiry.
func (c *TokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.tokenType = ""
	c.expiresAt = time.Time{}
}

// ExpiresAt returns the raw expiry time, for status reporting.
func (c *TokenCache) ExpiresAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiresAt
}
