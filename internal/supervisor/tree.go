// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

// Package supervisor provides Suture-based process supervision for GridWatch.
//
// The tree has two layers: pipeline (poll loop and notification queue) and
// api (HTTP server). A crash in the pipeline restarts only the pipeline; the
// API keeps serving the last persisted snapshot.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay, in seconds.
	FailureDecay float64

	// FailureBackoff is how long to wait once the threshold is exceeded.
	FailureBackoff time.Duration

	// ShutdownTimeout caps graceful shutdown of each service.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's documented defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree is the supervisor hierarchy for GridWatch.
type Tree struct {
	root     *suture.Supervisor
	pipeline *suture.Supervisor
	api      *suture.Supervisor
	config   TreeConfig
}

// NewTree builds the supervisor tree. The slog logger feeds suture events
// through sutureslog; use logging.NewSlogLogger to keep them in zerolog.
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5.0
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30.0
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	// sutureslog's hook constructor has a pointer receiver.
	handler := &sutureslog.Handler{Logger: logger}
	eventHook := handler.MustHook()

	rootSpec := suture.Spec{
		EventHook:        eventHook,
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("gridwatch", rootSpec)
	pipeline := suture.New("pipeline-layer", childSpec)
	api := suture.New("api-layer", childSpec)

	root.Add(pipeline)
	root.Add(api)

	return &Tree{
		root:     root,
		pipeline: pipeline,
		api:      api,
		config:   config,
	}
}

// AddPipelineService supervises a service in the pipeline layer (monitor
// loop, notification queue).
func (t *Tree) AddPipelineService(svc suture.Service) suture.ServiceToken {
	return t.pipeline.Add(svc)
}

// AddAPIService supervises a service in the API layer.
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve runs the tree and blocks until the context is canceled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine. The returned channel yields
// the terminal error (or nil) when the tree stops.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown timeout.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
