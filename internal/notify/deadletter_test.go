// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/danielramos222/gridwatch/internal/models"
)

func newTestDeadLetter(t *testing.T, ttl time.Duration) *DeadLetterStore {
	t.Helper()
	s, err := NewDeadLetterStore("", ttl)
	if err != nil {
		t.Fatalf("NewDeadLetterStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDeadLetterAddAndList(t *testing.T) {
	t.Parallel()

	s := newTestDeadLetter(t, time.Hour)

	ch := change("INT001", models.ChangeNew)
	if err := s.Add(ch, 3, errors.New("smtp: 550 rejected")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(entries))
	}

	got := entries[0]
	if got.ID == "" {
		t.Error("entry ID is empty")
	}
	if got.Change.NumeroONS != "INT001" {
		t.Errorf("Change.NumeroONS = %s, want INT001", got.Change.NumeroONS)
	}
	if got.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", got.Attempts)
	}
	if got.LastError != "smtp: 550 rejected" {
		t.Errorf("LastError = %q, want smtp error text", got.LastError)
	}
	if got.FailedAt.IsZero() {
		t.Error("FailedAt is zero")
	}
}

func TestDeadLetterListNewestFirst(t *testing.T) {
	t.Parallel()

	s := newTestDeadLetter(t, time.Hour)

	for _, id := range []string{"INT001", "INT002", "INT003"} {
		if err := s.Add(change(id, models.ChangeRemoved), 3, errors.New("boom")); err != nil {
			t.Fatalf("Add(%s) error = %v", id, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List() returned %d entries, want 3", len(entries))
	}
	if entries[0].Change.NumeroONS != "INT003" {
		t.Errorf("first entry = %s, want INT003 (newest first)", entries[0].Change.NumeroONS)
	}
}

func TestDeadLetterEmptyList(t *testing.T) {
	t.Parallel()

	s := newTestDeadLetter(t, time.Hour)

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("List() returned %d entries, want 0", len(entries))
	}
}
