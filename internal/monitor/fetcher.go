// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package monitor

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/danielramos222/gridwatch/internal/config"
	"github.com/danielramos222/gridwatch/internal/logging"
	"github.com/danielramos222/gridwatch/internal/metrics"
	"github.com/danielramos222/gridwatch/internal/models"
	onsmodels "github.com/danielramos222/gridwatch/internal/models/ons"
	"github.com/danielramos222/gridwatch/internal/ons"
)

// InterventionClient fetches raw interventions from the upstream. Satisfied
// by ons.CircuitBreakerClient.
type InterventionClient interface {
	FetchInterventions(ctx context.Context, token string, f ons.Filter) ([]onsmodels.Intervencao, error)
}

// TokenSource hands out bearer tokens. Satisfied by auth.SessionManager.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
	InFallback() bool
}

// Fetcher combines token acquisition, the upstream query, retry on transient
// failures, and the fallback data set into one operation.
type Fetcher struct {
	client  InterventionClient
	session TokenSource
	cfg     *config.ONSConfig
	now     func() time.Time
}

// NewFetcher creates a fetcher using the configured agents and date window.
func NewFetcher(client InterventionClient, session TokenSource, cfg *config.ONSConfig) *Fetcher {
	return &Fetcher{
		client:  client,
		session: session,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Fetch retrieves the current intervention set. Transient upstream failures
// are retried with jittered exponential backoff; a rejected token is
// invalidated and re-acquired once. When everything fails and fallback is
// enabled, the mock data set is returned with Fallback set so downstream
// consumers can tell it apart from real data.
func (f *Fetcher) Fetch(ctx context.Context) (models.InterventionSet, error) {
	start := f.now()

	items, err := f.fetchUpstream(ctx)
	if err == nil {
		metrics.FetchDuration.WithLabelValues("upstream").Observe(time.Since(start).Seconds())
		if !f.session.InFallback() {
			metrics.AuthFallbackActive.Set(0)
		}
		return models.InterventionSet{
			Interventions: ons.ToInterventions(items),
			Fallback:      f.session.InFallback(),
			FetchedAt:     f.now(),
		}, nil
	}

	metrics.FetchErrors.WithLabelValues(classifyError(err)).Inc()

	if !f.cfg.FallbackEnabled {
		return models.InterventionSet{}, err
	}

	logging.Warn().Err(err).Msg("Upstream fetch failed, serving fallback data")
	metrics.FetchDuration.WithLabelValues("fallback").Observe(time.Since(start).Seconds())
	metrics.AuthFallbackActive.Set(1)

	return models.InterventionSet{
		Interventions: ons.MockInterventions(f.now()),
		Fallback:      true,
		FetchedAt:     f.now(),
	}, nil
}

// fetchUpstream performs the query with retries. Auth rejections trigger one
// token refresh; transient errors go through the backoff policy.
func (f *Fetcher) fetchUpstream(ctx context.Context) ([]onsmodels.Intervencao, error) {
	filter := f.filter()

	attempt := func() ([]onsmodels.Intervencao, error) {
		token, err := f.session.Token(ctx)
		if err != nil {
			return nil, err
		}

		items, err := f.client.FetchInterventions(ctx, token, filter)
		if ons.IsAuthError(err) {
			// Token rejected before its computed expiry: refresh once
			logging.Info().Msg("Token rejected by upstream, refreshing")
			f.session.Invalidate()
			token, err = f.session.Token(ctx)
			if err != nil {
				return nil, err
			}
			items, err = f.client.FetchInterventions(ctx, token, filter)
		}
		return items, err
	}

	retries := backoff.WithMaxRetries(f.retryPolicy(), uint64(f.cfg.FetchRetryAttempts))

	var items []onsmodels.Intervencao
	err := backoff.Retry(func() error {
		var attemptErr error
		items, attemptErr = attempt()
		if attemptErr == nil {
			return nil
		}
		if !ons.IsTransient(attemptErr) {
			return backoff.Permanent(attemptErr)
		}
		logging.Debug().Err(attemptErr).Msg("Transient fetch failure, will retry")
		return attemptErr
	}, backoff.WithContext(retries, ctx))
	if err != nil {
		return nil, err
	}
	return items, nil
}

// retryPolicy builds the exponential backoff for upstream fetches: delays
// start at FetchRetryInitialDelay and grow up to FetchRetryMaxDelay.
func (f *Fetcher) retryPolicy() *backoff.ExponentialBackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = f.cfg.FetchRetryInitialDelay
	policy.MaxInterval = f.cfg.FetchRetryMaxDelay
	return policy
}

// filter builds the query filter from config: default agents and the
// configured window around today.
func (f *Fetcher) filter() ons.Filter {
	start, end := ons.DefaultWindow(f.now(), f.cfg.LookbackDays, f.cfg.LookaheadDays)
	return ons.Filter{
		Agents: f.cfg.Agents,
		Start:  start,
		End:    end,
	}
}

func classifyError(err error) string {
	switch {
	case ons.IsAuthError(err):
		return "auth"
	case ons.IsTransient(err):
		return "transient"
	default:
		return "data"
	}
}
