// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package notify

import (
	"fmt"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/danielramos222/gridwatch/internal/logging"
	"github.com/danielramos222/gridwatch/internal/metrics"
	"github.com/danielramos222/gridwatch/internal/models"
)

// DeadLetterEntry is a notification that exhausted its delivery retries.
type DeadLetterEntry struct {
	ID        string              `json:"id"`
	Change    models.ChangeRecord `json:"change"`
	Attempts  int                 `json:"attempts"`
	LastError string              `json:"last_error"`
	FailedAt  time.Time           `json:"failed_at"`
}

// DeadLetterStore persists failed notifications in Badger with a TTL, so an
// operator can inspect recent failures without the store growing forever.
type DeadLetterStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewDeadLetterStore opens (or creates) the store at path. An empty path
// opens an in-memory store.
func NewDeadLetterStore(path string, ttl time.Duration) (*DeadLetterStore, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	} else {
		opts = badger.DefaultOptions(path).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open dead-letter store: %w", err)
	}
	return &DeadLetterStore{db: db, ttl: ttl}, nil
}

// Add stores a failed notification. Entries expire after the store TTL.
func (s *DeadLetterStore) Add(change models.ChangeRecord, attempts int, lastErr error) error {
	entry := DeadLetterEntry{
		ID:       uuid.NewString(),
		Change:   change,
		Attempts: attempts,
		FailedAt: time.Now(),
	}
	if lastErr != nil {
		entry.LastError = lastErr.Error()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal dead-letter entry: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte("dl:"+entry.ID), data).WithTTL(s.ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("store dead-letter entry: %w", err)
	}

	metrics.NotificationsDeadLettered.Inc()
	logging.Warn().
		Str("numero_ons", change.NumeroONS).
		Str("kind", string(change.Kind)).
		Int("attempts", attempts).
		Msg("Notification moved to dead-letter store")
	return nil
}

// List returns all non-expired entries, newest first.
func (s *DeadLetterStore) List() ([]DeadLetterEntry, error) {
	var entries []DeadLetterEntry

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("dl:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var entry DeadLetterEntry
				if err := json.Unmarshal(val, &entry); err != nil {
					return err
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list dead-letter entries: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].FailedAt.After(entries[j].FailedAt)
	})
	return entries, nil
}

// Close shuts down the underlying Badger store.
func (s *DeadLetterStore) Close() error {
	return s.db.Close()
}
