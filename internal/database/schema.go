// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package database

import "fmt"

// schemaStatements creates the tables on first open. DuckDB executes DDL
// idempotently via IF NOT EXISTS, so the same statements run on every start.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS intervencoes (
		numero_ons          VARCHAR PRIMARY KEY,
		numero_agente       VARCHAR,
		data_hora_inicio    VARCHAR,
		data_hora_fim       VARCHAR,
		situacao            VARCHAR,
		criticidade         VARCHAR,
		descricao           VARCHAR,
		responsavel         VARCHAR,
		possui_recomendacao BOOLEAN,
		updated_at          TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS mudancas (
		id           BIGINT,
		numero_ons   VARCHAR,
		kind         VARCHAR,
		details      VARCHAR,
		detected_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE SEQUENCE IF NOT EXISTS mudancas_id_seq`,
}

func (db *DB) initSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}
