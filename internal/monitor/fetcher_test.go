// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package monitor

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/danielramos222/gridwatch/internal/config"
	onsmodels "github.com/danielramos222/gridwatch/internal/models/ons"
	"github.com/danielramos222/gridwatch/internal/ons"
)

// fakeClient serves scripted responses per call.
type fakeClient struct {
	calls     atomic.Int32
	responses []fakeResponse
}

type fakeResponse struct {
	items []onsmodels.Intervencao
	err   error
}

func (f *fakeClient) FetchInterventions(_ context.Context, _ string, _ ons.Filter) ([]onsmodels.Intervencao, error) {
	n := int(f.calls.Add(1)) - 1
	if n >= len(f.responses) {
		n = len(f.responses) - 1
	}
	r := f.responses[n]
	return r.items, r.err
}

type fakeSession struct {
	tokens      atomic.Int32
	invalidated atomic.Int32
	fallback    bool
}

func (f *fakeSession) Token(context.Context) (string, error) {
	f.tokens.Add(1)
	return "tok", nil
}
func (f *fakeSession) Invalidate()      { f.invalidated.Add(1) }
func (f *fakeSession) InFallback() bool { return f.fallback }

func fetcherConfig(fallback bool) *config.ONSConfig {
	return &config.ONSConfig{
		FetchRetryAttempts:     1,
		FetchRetryInitialDelay: time.Millisecond,
		FetchRetryMaxDelay:     5 * time.Millisecond,
		Agents:                 []string{"CMG"},
		LookbackDays:           89,
		LookaheadDays:          89,
		FallbackEnabled:        fallback,
	}
}

func TestFetch_Success(t *testing.T) {
	t.Parallel()

	client := &fakeClient{responses: []fakeResponse{
		{items: []onsmodels.Intervencao{{NumeroONS: "INT500", ElevadoRiscoDesligamento: "S"}}},
	}}
	f := NewFetcher(client, &fakeSession{}, fetcherConfig(true))

	set, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if set.Fallback {
		t.Error("Fallback = true on successful upstream fetch")
	}
	if len(set.Interventions) != 1 || set.Interventions[0].NumeroONS != "INT500" {
		t.Fatalf("Interventions = %+v", set.Interventions)
	}
	if set.Interventions[0].Criticidade != "Alta" {
		t.Errorf("Criticidade = %v, want Alta (transform applied)", set.Interventions[0].Criticidade)
	}
}

func TestFetch_RefreshesTokenOnAuthError(t *testing.T) {
	t.Parallel()

	client := &fakeClient{responses: []fakeResponse{
		{err: &ons.APIError{StatusCode: http.StatusUnauthorized}},
		{items: []onsmodels.Intervencao{{NumeroONS: "INT500"}}},
	}}
	session := &fakeSession{}
	f := NewFetcher(client, session, fetcherConfig(false))

	set, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if session.invalidated.Load() != 1 {
		t.Errorf("Invalidate called %d times, want 1", session.invalidated.Load())
	}
	if client.calls.Load() != 2 {
		t.Errorf("upstream called %d times, want 2 (reject + retry)", client.calls.Load())
	}
	if len(set.Interventions) != 1 {
		t.Fatalf("Interventions = %+v", set.Interventions)
	}
}

func TestFetch_TransientRetryThenSuccess(t *testing.T) {
	t.Parallel()

	client := &fakeClient{responses: []fakeResponse{
		{err: &ons.APIError{StatusCode: http.StatusServiceUnavailable}},
		{items: []onsmodels.Intervencao{{NumeroONS: "INT500"}}},
	}}
	f := NewFetcher(client, &fakeSession{}, fetcherConfig(false))

	set, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if client.calls.Load() != 2 {
		t.Errorf("upstream called %d times, want 2", client.calls.Load())
	}
	if set.Fallback {
		t.Error("Fallback = true after successful retry")
	}
}

func TestFetch_FallbackOnExhaustion(t *testing.T) {
	t.Parallel()

	client := &fakeClient{responses: []fakeResponse{
		{err: ons.ErrEmptyResponse},
	}}
	f := NewFetcher(client, &fakeSession{}, fetcherConfig(true))

	set, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v, want fallback set", err)
	}
	if !set.Fallback {
		t.Fatal("Fallback = false, want true after upstream exhaustion")
	}
	if len(set.Interventions) != 3 {
		t.Errorf("fallback set has %d interventions, want 3", len(set.Interventions))
	}
}

func TestFetch_ErrorWithoutFallback(t *testing.T) {
	t.Parallel()

	client := &fakeClient{responses: []fakeResponse{
		{err: errors.New("boom")},
	}}
	f := NewFetcher(client, &fakeSession{}, fetcherConfig(false))

	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatal("Fetch() succeeded, want error when fallback is disabled")
	}
}

func TestRetryPolicy_DelaysGrowAndCap(t *testing.T) {
	t.Parallel()

	cfg := fetcherConfig(false)
	cfg.FetchRetryInitialDelay = 100 * time.Millisecond
	cfg.FetchRetryMaxDelay = 500 * time.Millisecond
	f := NewFetcher(&fakeClient{responses: []fakeResponse{{}}}, &fakeSession{}, cfg)

	policy := f.retryPolicy()
	// Zero the jitter so the base delay sequence is observable
	policy.RandomizationFactor = 0

	var prev time.Duration
	for i := 0; i < 10; i++ {
		d := policy.NextBackOff()
		if d == backoff.Stop {
			t.Fatalf("NextBackOff() = Stop on attempt %d", i)
		}
		if d < prev {
			t.Errorf("delay %d = %v, shorter than previous %v", i, d, prev)
		}
		if d > cfg.FetchRetryMaxDelay {
			t.Errorf("delay %d = %v, exceeds cap %v", i, d, cfg.FetchRetryMaxDelay)
		}
		prev = d
	}
	if prev != cfg.FetchRetryMaxDelay {
		t.Errorf("delays plateaued at %v, want cap %v", prev, cfg.FetchRetryMaxDelay)
	}
}
