// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

// GridWatch polls the ONS (Operador Nacional do Sistema Elétrico) SGI API
// for grid intervention records, detects changes between polls, and delivers
// rate-limited email notifications to operators.
//
// # Configuration
//
// Configuration is layered: built-in defaults, then an optional YAML file
// (CONFIG_PATH or the standard search paths), then environment variables.
// A .env file in the working directory is loaded into the environment first.
//
// Minimal production setup:
//
//	export ONS_USUARIO=your-ons-user
//	export ONS_SENHA=your-ons-password
//	export NOTIFY_RECIPIENTS=ops@example.com
//	export SMTP_HOST=smtp.example.com
//	export SMTP_FROM=gridwatch@example.com
//	./gridwatch
//
// Development without ONS credentials (fallback mode serves mock data):
//
//	export SEED_MOCK_DATA=true
//	./gridwatch
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests, the monitor loop finishes its cycle, and the
// notification queue stops after the current delivery.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielramos222/gridwatch/internal/api"
	"github.com/danielramos222/gridwatch/internal/auth"
	"github.com/danielramos222/gridwatch/internal/config"
	"github.com/danielramos222/gridwatch/internal/database"
	"github.com/danielramos222/gridwatch/internal/logging"
	"github.com/danielramos222/gridwatch/internal/monitor"
	"github.com/danielramos222/gridwatch/internal/notify"
	"github.com/danielramos222/gridwatch/internal/ons"
	"github.com/danielramos222/gridwatch/internal/supervisor"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real environments set variables directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.Warn().Err(err).Msg("Failed to load .env file")
	}

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("base_url", cfg.ONS.BaseURL).
		Str("db_path", cfg.Database.Path).
		Bool("monitor_enabled", cfg.Monitor.Enabled).
		Bool("notify_enabled", cfg.Notify.Enabled).
		Msg("Starting GridWatch")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if cfg.Database.SeedMockData {
		if err := db.SeedMockData(context.Background()); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed mock data")
		}
	}

	// Upstream client behind a circuit breaker; token session in front of it.
	client := ons.NewCircuitBreakerClient(&cfg.ONS)
	session := auth.NewSessionManager(client, &cfg.ONS)

	if err := client.Ping(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("ONS API not reachable at startup (will retry)")
	}

	// Notification pipeline: email channel, dead-letter store, delivery queue.
	var queue *notify.Queue
	var deadLetter *notify.DeadLetterStore
	if cfg.Notify.Enabled {
		deadLetter, err = notify.NewDeadLetterStore(cfg.Notify.DeadLetterPath, cfg.Notify.DeadLetterTTL)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open dead-letter store")
		}
		defer func() {
			if err := deadLetter.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing dead-letter store")
			}
		}()
		queue = notify.NewQueue(notify.NewEmailChannel(&cfg.Notify), deadLetter, &cfg.Notify)
	} else {
		logging.Info().Msg("Notifications disabled")
	}

	// Change tracking seeds from the persisted snapshot so a restart does
	// not re-announce every known intervention.
	tracker := monitor.NewTracker()
	if known, err := db.ListInterventions(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Failed to load persisted snapshot")
	} else if len(known) > 0 {
		tracker.Seed(known)
		logging.Info().Int("count", len(known)).Msg("Seeded change tracker from database")
	}

	fetcher := monitor.NewFetcher(client, session, &cfg.ONS)

	var notifier monitor.Notifier
	if queue != nil {
		notifier = queue
	}
	mon := monitor.New(fetcher, tracker, db, notifier, &cfg.Monitor)

	handler := api.NewHandler(db, mon, session, client, deadLetterOrNil(deadLetter), version)
	router := api.NewRouter(handler, &cfg.Server)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if cfg.Monitor.Enabled {
		tree.AddPipelineService(supervisor.NewRunnerService(mon, "monitor-loop"))
	}
	if queue != nil {
		tree.AddPipelineService(supervisor.NewRunnerService(queue, "notification-queue"))
	}
	tree.AddAPIService(supervisor.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain the error channel so the tree has fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error during shutdown")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", fmt.Sprintf("%v", svc.Service)).Msg("Service did not stop in time")
	}

	logging.Info().Msg("GridWatch stopped")
}

// deadLetterOrNil avoids handing the API a typed-nil interface value.
func deadLetterOrNil(s *notify.DeadLetterStore) api.DeadLetterLister {
	if s == nil {
		return nil
	}
	return s
}
