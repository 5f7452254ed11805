// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package database

import (
	"context"
	"time"

	"github.com/danielramos222/gridwatch/internal/logging"
	"github.com/danielramos222/gridwatch/internal/ons"
)

// SeedMockData loads the demonstration interventions into an empty store.
// Existing data is never overwritten; seeding is for fresh development
// environments only.
func (db *DB) SeedMockData(ctx context.Context) error {
	existing, err := db.ListInterventions(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logging.Debug().Int("count", len(existing)).Msg("Store not empty, skipping mock data seed")
		return nil
	}

	mock := ons.MockInterventions(time.Now())
	if err := db.UpsertInterventions(ctx, mock); err != nil {
		return err
	}

	logging.Info().Int("count", len(mock)).Msg("Seeded mock intervention data")
	return nil
}
