// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danielramos222/gridwatch/internal/metrics"
	"github.com/danielramos222/gridwatch/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleIntervention(id string) models.Intervention {
	return models.Intervention{
		NumeroONS:          id,
		NumeroAgente:       "CMG",
		DataHoraInicio:     "2026-08-31T08:00:00",
		DataHoraFim:        "2026-08-31T12:00:00",
		Situacao:           "Aprovada",
		Criticidade:        models.CriticalityHigh,
		Descricao:          "Manutenção em linha de transmissão",
		Responsavel:        "CEMIG GT",
		PossuiRecomendacao: true,
	}
}

func TestUpsertAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	want := sampleIntervention("INT100")
	if err := db.UpsertInterventions(ctx, []models.Intervention{want}); err != nil {
		t.Fatalf("UpsertInterventions() error = %v", err)
	}

	got, err := db.GetIntervention(ctx, "INT100")
	if err != nil {
		t.Fatalf("GetIntervention() error = %v", err)
	}
	if got != want {
		t.Errorf("GetIntervention() = %+v, want %+v", got, want)
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	iv := sampleIntervention("INT100")
	if err := db.UpsertInterventions(ctx, []models.Intervention{iv}); err != nil {
		t.Fatalf("UpsertInterventions() error = %v", err)
	}

	iv.Situacao = "Cancelada"
	iv.Criticidade = models.CriticalityLow
	if err := db.UpsertInterventions(ctx, []models.Intervention{iv}); err != nil {
		t.Fatalf("UpsertInterventions() second write error = %v", err)
	}

	all, err := db.ListInterventions(ctx)
	if err != nil {
		t.Fatalf("ListInterventions() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("ListInterventions() returned %d rows, want 1", len(all))
	}
	if all[0].Situacao != "Cancelada" || all[0].Criticidade != models.CriticalityLow {
		t.Errorf("row not replaced: %+v", all[0])
	}
}

func TestGetIntervention_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetIntervention(context.Background(), "MISSING")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetIntervention() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteInterventions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.UpsertInterventions(ctx, []models.Intervention{
		sampleIntervention("INT100"),
		sampleIntervention("INT101"),
		sampleIntervention("INT102"),
	})
	if err != nil {
		t.Fatalf("UpsertInterventions() error = %v", err)
	}

	if err := db.DeleteInterventions(ctx, []string{"INT100", "INT102"}); err != nil {
		t.Fatalf("DeleteInterventions() error = %v", err)
	}

	all, err := db.ListInterventions(ctx)
	if err != nil {
		t.Fatalf("ListInterventions() error = %v", err)
	}
	if len(all) != 1 || all[0].NumeroONS != "INT101" {
		t.Errorf("ListInterventions() = %+v, want only INT101", all)
	}
}

func TestLastUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	last, err := db.LastUpdate(ctx)
	if err != nil {
		t.Fatalf("LastUpdate() error = %v", err)
	}
	if !last.IsZero() {
		t.Errorf("LastUpdate() = %v on empty store, want zero", last)
	}

	if err := db.UpsertInterventions(ctx, []models.Intervention{sampleIntervention("INT100")}); err != nil {
		t.Fatalf("UpsertInterventions() error = %v", err)
	}

	last, err = db.LastUpdate(ctx)
	if err != nil {
		t.Fatalf("LastUpdate() error = %v", err)
	}
	if last.IsZero() {
		t.Error("LastUpdate() = zero after write")
	}
}

func TestRecordAndListChanges(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	changes := []models.ChangeRecord{
		{NumeroONS: "INT100", Kind: models.ChangeNew, Details: []string{"Nova intervenção registrada"}},
		{NumeroONS: "INT101", Kind: models.ChangeModified, Details: []string{
			"Situação alterada: Em Análise → Aprovada",
			"Recomendação adicionada",
		}},
	}
	if err := db.RecordChanges(ctx, changes); err != nil {
		t.Fatalf("RecordChanges() error = %v", err)
	}

	got, err := db.ListChanges(ctx, 10)
	if err != nil {
		t.Fatalf("ListChanges() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListChanges() returned %d rows, want 2", len(got))
	}
	// Newest first
	if got[0].NumeroONS != "INT101" || got[0].Kind != models.ChangeModified {
		t.Errorf("ListChanges()[0] = %+v, want INT101 alterado", got[0])
	}
	if len(got[0].Details) != 2 {
		t.Errorf("detail lines = %d, want 2", len(got[0].Details))
	}
}

func TestSeedMockData(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.SeedMockData(ctx); err != nil {
		t.Fatalf("SeedMockData() error = %v", err)
	}

	all, err := db.ListInterventions(ctx)
	if err != nil {
		t.Fatalf("ListInterventions() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("seeded %d rows, want 3", len(all))
	}

	// Seeding again must not duplicate
	if err := db.SeedMockData(ctx); err != nil {
		t.Fatalf("second SeedMockData() error = %v", err)
	}
	all, _ = db.ListInterventions(ctx)
	if len(all) != 3 {
		t.Errorf("after reseed store has %d rows, want 3", len(all))
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestQueriesRecordMetrics(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	before := testutil.CollectAndCount(metrics.DBQueryDuration)
	if _, err := db.ListInterventions(ctx); err != nil {
		t.Fatalf("ListInterventions() error = %v", err)
	}
	after := testutil.CollectAndCount(metrics.DBQueryDuration)
	if after < before || after == 0 {
		t.Errorf("query duration series = %d after ListInterventions, want at least 1", after)
	}
}
