// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

// Package ons implements the client for the ONS Integra API: credential
// exchange, intervention queries, response validation, and the fallback data
// used when the upstream is unreachable.
package ons

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/danielramos222/gridwatch/internal/config"
	"github.com/danielramos222/gridwatch/internal/logging"
	onsmodels "github.com/danielramos222/gridwatch/internal/models/ons"
)

const (
	authPath          = "/autenticar"
	interventionsPath = "/sgi/intervencoes"

	// maxRateLimitRetries limits how many 429 responses a single logical
	// request will wait out before giving up.
	maxRateLimitRetries = 3

	dateLayout = "2006-01-02"
)

// Filter narrows an intervention query. Zero-value fields are omitted from
// the request.
type Filter struct {
	Agents []string
	Start  time.Time
	End    time.Time
}

// Client is a low-level HTTP client for the ONS Integra API. It knows nothing
// about tokens beyond attaching the one it is given; session lifecycle lives
// in the auth package.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an ONS API client from configuration.
func NewClient(cfg *config.ONSConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Authenticate exchanges credentials for a bearer token. The response must
// carry access_token, token_type, and expires_in; anything less is treated as
// a failed exchange. expires_in arrives as a string of seconds.
func (c *Client) Authenticate(ctx context.Context, usuario, senha string) (*onsmodels.AuthResponse, error) {
	payload, err := json.Marshal(onsmodels.AuthRequest{Usuario: usuario, Senha: senha})
	if err != nil {
		return nil, fmt.Errorf("marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+authPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.doRequestWithRateLimit(req)
	if err != nil {
		return nil, err
	}

	var resp onsmodels.AuthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	if err := ValidateAuthResponse(&resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// FetchInterventions retrieves interventions matching the filter using the
// given bearer token. A 200 with an empty body is an upstream failure
// (ErrEmptyResponse), never an empty result set.
func (c *Client) FetchInterventions(ctx context.Context, token string, f Filter) ([]onsmodels.Intervencao, error) {
	if err := ValidateDateWindow(f.Start, f.End); err != nil {
		return nil, err
	}

	u, err := url.Parse(c.baseURL + interventionsPath)
	if err != nil {
		return nil, fmt.Errorf("parse interventions URL: %w", err)
	}

	q := u.Query()
	if !f.Start.IsZero() {
		q.Set("filtro.dataInicio", f.Start.Format(dateLayout))
	}
	if !f.End.IsZero() {
		q.Set("filtro.dataFim", f.End.Format(dateLayout))
	}
	for _, agent := range f.Agents {
		q.Add("filtro.agentesSolicitantes", agent)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create interventions request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	body, err := c.doRequestWithRateLimit(req)
	if err != nil {
		return nil, err
	}

	// The upstream answers either a bare JSON array or a wrapped response
	// with an indErro flag, depending on endpoint version.
	var list []onsmodels.Intervencao
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var wrapped onsmodels.IntervencoesResponse
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode interventions response: %w", err)
	}
	if wrapped.IndErro {
		return nil, fmt.Errorf("ons: upstream reported error: %s", wrapped.MensagemErro)
	}

	return wrapped.Intervencoes, nil
}

// Ping probes the upstream without authenticating. Used by the readiness
// endpoint to report upstream connectivity.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping upstream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Any HTTP answer means the upstream is reachable; auth failures and
	// method rejections still count as "up".
	return nil
}

// doRequestWithRateLimit executes a request, honoring 429 responses with
// exponential backoff. Retry-After takes precedence over the computed delay.
func (c *Client) doRequestWithRateLimit(req *http.Request) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRateLimitRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<uint(attempt-1)) * time.Second
			if retryAfter := lastRetryAfter(lastErr); retryAfter > 0 {
				delay = retryAfter
			}

			logging.Debug().
				Int("attempt", attempt).
				Dur("delay", delay).
				Str("url", req.URL.Path).
				Msg("Rate limited by upstream, backing off")

			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(delay):
			}
		}

		// Rewind the body for retried POST requests
		if attempt > 0 && req.GetBody != nil {
			rc, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, fmt.Errorf("rewind request body: %w", bodyErr)
			}
			req.Body = rc
		}

		body, err := c.doRequest(req)
		if err == nil {
			return body, nil
		}

		var apiErr *APIError
		if !isRateLimited(err, &apiErr) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// doRequest executes a single request and returns the response body.
func (c *Client) doRequest(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
		if resp.StatusCode == http.StatusTooManyRequests {
			if seconds, parseErr := strconv.Atoi(resp.Header.Get("Retry-After")); parseErr == nil && seconds > 0 {
				apiErr.retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return nil, apiErr
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyResponse
	}

	return body, nil
}

func isRateLimited(err error, apiErr **APIError) bool {
	var e *APIError
	if !asAPIError(err, &e) {
		return false
	}
	*apiErr = e
	return e.StatusCode == http.StatusTooManyRequests
}

func lastRetryAfter(err error) time.Duration {
	var e *APIError
	if asAPIError(err, &e) {
		return e.retryAfter
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
