// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

// Package database persists intervention snapshots in DuckDB. The store is
// the source of the last-known state across restarts: the change tracker is
// seeded from it on startup so a restart does not re-announce every known
// intervention as new.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/danielramos222/gridwatch/internal/config"
	"github.com/danielramos222/gridwatch/internal/logging"
)

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New creates a new database connection and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	// Ensure parent directory exists for the database file
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	// Disable auto-install/auto-load to prevent hangs in restricted network
	// environments
	connStr := cfg.Path + "?access_mode=read_write&autoinstall_known_extensions=false&autoload_known_extensions=false"

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}

	// DuckDB is an embedded single-writer engine; a small pool is enough
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	if err := db.initSchema(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Msg("Database initialized")
	return db, nil
}

// NewInMemory opens an in-memory database, used by tests and ephemeral runs.
func NewInMemory() (*DB, error) {
	conn, err := sql.Open("duckdb", ":memory:?autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	db := &DB{conn: conn, cfg: &config.DatabaseConfig{Path: ":memory:"}}
	if err := db.initSchema(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close shuts down the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying SQL database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close database connection")
	}
}
