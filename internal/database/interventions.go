// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielramos222/gridwatch/internal/metrics"
	"github.com/danielramos222/gridwatch/internal/models"
)

// ErrNotFound is returned when a lookup matches no intervention.
var ErrNotFound = errors.New("database: intervention not found")

// UpsertInterventions writes a batch, replacing rows that share numero_ons.
// Runs in one transaction so a failed poll never leaves a half-written
// snapshot.
func (db *DB) UpsertInterventions(ctx context.Context, items []models.Intervention) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveDBQuery("upsert_interventions", start, err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO intervencoes
			(numero_ons, numero_agente, data_hora_inicio, data_hora_fim,
			 situacao, criticidade, descricao, responsavel, possui_recomendacao, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range items {
		iv := &items[i]
		if _, err = stmt.ExecContext(ctx,
			iv.NumeroONS, iv.NumeroAgente, iv.DataHoraInicio, iv.DataHoraFim,
			iv.Situacao, string(iv.Criticidade), iv.Descricao, iv.Responsavel,
			iv.PossuiRecomendacao,
		); err != nil {
			return fmt.Errorf("upsert intervention %s: %w", iv.NumeroONS, err)
		}
	}

	return tx.Commit()
}

// DeleteInterventions removes rows whose numero_ons is in ids. Called when
// the tracker reports removals so the persisted snapshot matches upstream.
func (db *DB) DeleteInterventions(ctx context.Context, ids []string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveDBQuery("delete_interventions", start, err) }()

	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err = db.conn.ExecContext(ctx,
		"DELETE FROM intervencoes WHERE numero_ons IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("delete interventions: %w", err)
	}
	return nil
}

const selectColumns = `numero_ons, numero_agente, data_hora_inicio, data_hora_fim,
	situacao, criticidade, descricao, responsavel, possui_recomendacao`

// ListInterventions returns all persisted interventions ordered by start time.
func (db *DB) ListInterventions(ctx context.Context) (items []models.Intervention, err error) {
	start := time.Now()
	defer func() { metrics.ObserveDBQuery("list_interventions", start, err) }()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM intervencoes ORDER BY data_hora_inicio, numero_ons")
	if err != nil {
		return nil, fmt.Errorf("list interventions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		iv, scanErr := scanIntervention(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		items = append(items, iv)
	}
	return items, rows.Err()
}

// GetIntervention returns a single intervention by its ONS number.
func (db *DB) GetIntervention(ctx context.Context, numeroONS string) (iv models.Intervention, err error) {
	start := time.Now()
	defer func() { metrics.ObserveDBQuery("get_intervention", start, err) }()

	row := db.conn.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM intervencoes WHERE numero_ons = ?", numeroONS)
	iv, err = scanIntervention(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Intervention{}, ErrNotFound
	}
	return iv, err
}

// LastUpdate returns the most recent snapshot write time, or zero when the
// store is empty.
func (db *DB) LastUpdate(ctx context.Context) (t time.Time, err error) {
	start := time.Now()
	defer func() { metrics.ObserveDBQuery("last_update", start, err) }()

	var last sql.NullTime
	err = db.conn.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM intervencoes").Scan(&last)
	if err != nil {
		return time.Time{}, fmt.Errorf("query last update: %w", err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return last.Time, nil
}

// RecordChanges appends detected changes to the history table.
func (db *DB) RecordChanges(ctx context.Context, changes []models.ChangeRecord) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveDBQuery("record_changes", start, err) }()

	if len(changes) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mudancas (id, numero_ons, kind, details)
		VALUES (nextval('mudancas_id_seq'), ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare change insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, ch := range changes {
		if _, err = stmt.ExecContext(ctx, ch.NumeroONS, string(ch.Kind), strings.Join(ch.Details, "\n")); err != nil {
			return fmt.Errorf("record change for %s: %w", ch.NumeroONS, err)
		}
	}

	return tx.Commit()
}

// ListChanges returns the most recent change records, newest first.
func (db *DB) ListChanges(ctx context.Context, limit int) (changes []models.ChangeRecord, err error) {
	start := time.Now()
	defer func() { metrics.ObserveDBQuery("list_changes", start, err) }()

	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.QueryContext(ctx,
		"SELECT numero_ons, kind, details FROM mudancas ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list changes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var ch models.ChangeRecord
		var kind, details string
		if err = rows.Scan(&ch.NumeroONS, &kind, &details); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		ch.Kind = models.ChangeKind(kind)
		if details != "" {
			ch.Details = strings.Split(details, "\n")
		}
		changes = append(changes, ch)
	}
	return changes, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanIntervention(s scanner) (models.Intervention, error) {
	var iv models.Intervention
	var criticidade string
	err := s.Scan(
		&iv.NumeroONS, &iv.NumeroAgente, &iv.DataHoraInicio, &iv.DataHoraFim,
		&iv.Situacao, &criticidade, &iv.Descricao, &iv.Responsavel,
		&iv.PossuiRecomendacao,
	)
	if err != nil {
		return models.Intervention{}, err
	}
	iv.Criticidade = models.Criticality(criticidade)
	return iv, nil
}
