// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/gridwatch/config.yaml",
	"/etc/gridwatch/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence is ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// ONS_BASE_URL -> ons.base_url
	// MONITOR_INTERVAL -> monitor.interval
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"ons.agents",
	"notify.recipients",
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known
// slice fields. This is necessary because env vars come in as strings, but the
// config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - ONS_USUARIO -> ons.usuario
//   - MONITOR_INTERVAL -> monitor.interval
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// ONS upstream mappings
		"ons_base_url":          "ons.base_url",
		"ons_usuario":           "ons.usuario",
		"ons_senha":             "ons.senha",
		"ons_timeout":           "ons.timeout",
		"ons_auth_timeout":      "ons.auth_timeout",
		"ons_token_buffer":      "ons.token_buffer",
		"ons_max_auth_attempts": "ons.max_auth_attempts",
		"ons_auth_cooldown":     "ons.auth_cooldown",
		"ons_auth_reset_after":  "ons.auth_reset_after",
		"ons_fetch_retries":     "ons.fetch_retry_attempts",
		"ons_agents":            "ons.agents",
		"ons_lookback_days":     "ons.lookback_days",
		"ons_lookahead_days":    "ons.lookahead_days",
		"ons_fallback_enabled":  "ons.fallback_enabled",

		// Monitor mappings
		"monitor_enabled":    "monitor.enabled",
		"monitor_interval":   "monitor.interval",
		"monitor_start_hour": "monitor.start_hour",
		"monitor_end_hour":   "monitor.end_hour",

		// Notification mappings
		"notify_enabled":           "notify.enabled",
		"notify_recipients":        "notify.recipients",
		"notify_min_send_interval": "notify.min_send_interval",
		"notify_max_retries":       "notify.max_retries",
		"notify_retry_delay":       "notify.retry_delay",
		"dead_letter_path":         "notify.dead_letter_path",
		"dead_letter_ttl":          "notify.dead_letter_ttl",

		// SMTP mappings
		"smtp_host":      "notify.smtp.host",
		"smtp_port":      "notify.smtp.port",
		"smtp_from":      "notify.smtp.from",
		"smtp_from_name": "notify.smtp.from_name",
		"smtp_username":  "notify.smtp.username",
		"smtp_password":  "notify.smtp.password",
		"smtp_use_tls":   "notify.smtp.use_tls",

		// Database mappings
		"duckdb_path":    "database.path",
		"seed_mock_data": "database.seed_mock_data",

		// Server mappings
		"http_port":           "server.port",
		"http_host":           "server.host",
		"http_timeout":        "server.timeout",
		"cors_origins":        "server.cors_origins",
		"rate_limit_requests": "server.rate_limit_reqs",
		"rate_limit_window":   "server.rate_limit_window",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}
