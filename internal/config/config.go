// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

// Package config loads and validates GridWatch configuration.
//
// Configuration is layered via Koanf v2 (highest priority wins):
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables
package config

import "time"

// Config is the root configuration object. It is loaded once at startup and
// treated as immutable afterwards.
type Config struct {
	ONS      ONSConfig      `koanf:"ons"`
	Monitor  MonitorConfig  `koanf:"monitor"`
	Notify   NotifyConfig   `koanf:"notify"`
	Database DatabaseConfig `koanf:"database"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ONSConfig configures the upstream ONS Integra API client and the
// authentication session manager.
type ONSConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`
	Usuario string `koanf:"usuario"`
	Senha   string `koanf:"senha"`

	// Timeout bounds every data request; AuthTimeout bounds the credential
	// exchange separately.
	Timeout     time.Duration `koanf:"timeout"`
	AuthTimeout time.Duration `koanf:"auth_timeout"`

	// TokenBuffer is subtracted from the token expiry when deciding whether
	// a cached token is still usable.
	TokenBuffer time.Duration `koanf:"token_buffer"`

	// Authentication retry/cooldown policy.
	MaxAuthAttempts int           `koanf:"max_auth_attempts" validate:"min=1"`
	AuthCooldown    time.Duration `koanf:"auth_cooldown"`
	AuthResetAfter  time.Duration `koanf:"auth_reset_after"`

	// Fetch retry policy for transient upstream failures.
	FetchRetryAttempts     int           `koanf:"fetch_retry_attempts" validate:"min=0"`
	FetchRetryInitialDelay time.Duration `koanf:"fetch_retry_initial_delay"`
	FetchRetryMaxDelay     time.Duration `koanf:"fetch_retry_max_delay"`

	// Agents is the default list of requesting-agent codes for the
	// intervention filter.
	Agents []string `koanf:"agents"`

	// Date window applied when no explicit filter is given.
	LookbackDays  int `koanf:"lookback_days" validate:"min=0"`
	LookaheadDays int `koanf:"lookahead_days" validate:"min=0"`

	// FallbackEnabled switches on mock tokens and mock intervention data
	// when the upstream is unreachable or authentication is exhausted.
	FallbackEnabled bool `koanf:"fallback_enabled"`
}

// MonitorConfig configures the polling scheduler.
type MonitorConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`

	// Working-hours window (local time). Checks outside [StartHour, EndHour)
	// are skipped.
	StartHour int `koanf:"start_hour" validate:"min=0,max=23"`
	EndHour   int `koanf:"end_hour" validate:"min=1,max=24"`
}

// NotifyConfig configures the notification queue and the email channel.
type NotifyConfig struct {
	Enabled    bool     `koanf:"enabled"`
	Recipients []string `koanf:"recipients" validate:"dive,email"`

	// MinSendInterval is the minimum spacing between two delivery starts.
	MinSendInterval time.Duration `koanf:"min_send_interval"`

	// Per-item retry policy.
	MaxRetries int           `koanf:"max_retries" validate:"min=0"`
	RetryDelay time.Duration `koanf:"retry_delay"`

	// Dead-letter store for notifications that exhausted their retries.
	DeadLetterPath string        `koanf:"dead_letter_path"`
	DeadLetterTTL  time.Duration `koanf:"dead_letter_ttl"`

	SMTP SMTPConfig `koanf:"smtp"`
}

// SMTPConfig configures the outbound email transport.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port" validate:"min=0,max=65535"`
	From     string `koanf:"from"`
	FromName string `koanf:"from_name"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	UseTLS   bool   `koanf:"use_tls"`
}

// DatabaseConfig configures the DuckDB intervention store.
type DatabaseConfig struct {
	Path         string `koanf:"path"`
	SeedMockData bool   `koanf:"seed_mock_data"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultAgents lists the CEMIG requesting-agent codes monitored by default.
var defaultAgents = []string{
	"CMG", // CEMIG
	"CD1", // CEMIG D
	"792", // CEMIG GT
	"CG1", // CEMIG GT
	"GIT", // CEMIG GT
	"DMO", // CEMIG D
	"SGG", // CEMIG GT
	"TMG", // CEMIG TRANSMISSÃO
	"ESI", // CEMIG
	"SIE", // CEMIG
}

// defaultConfig returns a Config struct with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		ONS: ONSConfig{
			BaseURL:                "https://integra.ons.org.br/api",
			Timeout:                30 * time.Second,
			AuthTimeout:            30 * time.Second,
			TokenBuffer:            5 * time.Minute,
			MaxAuthAttempts:        3,
			AuthCooldown:           5 * time.Minute,
			AuthResetAfter:         30 * time.Minute,
			FetchRetryAttempts:     3,
			FetchRetryInitialDelay: time.Second,
			FetchRetryMaxDelay:     5 * time.Second,
			Agents:                 defaultAgents,
			LookbackDays:           89,
			LookaheadDays:          89,
			FallbackEnabled:        true,
		},
		Monitor: MonitorConfig{
			Enabled:   true,
			Interval:  5 * time.Minute,
			StartHour: 8,
			EndHour:   18,
		},
		Notify: NotifyConfig{
			Enabled:         false, // Opt-in: requires SMTP settings
			Recipients:      []string{},
			MinSendInterval: 2 * time.Second,
			MaxRetries:      2,
			RetryDelay:      2 * time.Second,
			DeadLetterPath:  "/data/deadletter",
			DeadLetterTTL:   24 * time.Hour,
			SMTP: SMTPConfig{
				Port:     587,
				FromName: "GridWatch",
				UseTLS:   true,
			},
		},
		Database: DatabaseConfig{
			Path:         "/data/gridwatch.duckdb",
			SeedMockData: false,
		},
		Server: ServerConfig{
			Port:            3857,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
