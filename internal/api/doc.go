// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

// Package api provides the HTTP surface of GridWatch using the Chi router.
//
// All endpoints respond with the models.APIResponse envelope. Read endpoints
// serve from the DuckDB snapshot, never from the upstream API; a manual sync
// can be triggered via POST /api/v1/monitor/sync.
package api
