// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Runner is the Start/Stop lifecycle shared by the monitor loop and the
// notification queue. Start must not block; Stop must wait for the worker
// to finish.
type Runner interface {
	Start(ctx context.Context)
	Stop()
}

// RunnerService adapts a Runner to suture.Service.
type RunnerService struct {
	runner Runner
	name   string
}

// NewRunnerService wraps a Runner under the given service name.
func NewRunnerService(runner Runner, name string) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// Serve starts the runner and blocks until the context is canceled, then
// stops it.
func (s *RunnerService) Serve(ctx context.Context) error {
	s.runner.Start(ctx)
	<-ctx.Done()
	s.runner.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer; suture uses it in log messages.
func (s *RunnerService) String() string {
	return s.name
}

// HTTPServer matches *http.Server's lifecycle methods.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs an HTTP server under supervision, translating the
// blocking ListenAndServe pattern into a context-aware Serve.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPServerService wraps an HTTP server. shutdownTimeout caps graceful
// shutdown; values <= 0 fall back to 10s.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service. http.ErrServerClosed is the expected
// result of a graceful shutdown and is not treated as a failure.
func (s *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// The serve context is already canceled; shutdown needs its own.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer.
func (s *HTTPServerService) String() string {
	return "http-server"
}
