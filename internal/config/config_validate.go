// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that required configuration is present and valid.
// Struct-tag validation runs first, then cross-field checks that tags
// cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			v := verrs[0]
			return fmt.Errorf("invalid value for %s (rule %s)", v.Namespace(), v.Tag())
		}
		return err
	}

	if err := c.validateONS(); err != nil {
		return err
	}

	if err := c.validateMonitor(); err != nil {
		return err
	}

	return c.validateNotify()
}

// validateONS validates upstream client settings
func (c *Config) validateONS() error {
	if c.Monitor.Enabled && !c.ONS.FallbackEnabled {
		if c.ONS.Usuario == "" {
			return fmt.Errorf("ONS_USUARIO is required when monitoring is enabled and fallback is disabled")
		}
		if c.ONS.Senha == "" {
			return fmt.Errorf("ONS_SENHA is required when monitoring is enabled and fallback is disabled")
		}
	}

	// Upstream rejects windows wider than 180 days
	if c.ONS.LookbackDays+c.ONS.LookaheadDays > 180 {
		return fmt.Errorf("ONS_LOOKBACK_DAYS + ONS_LOOKAHEAD_DAYS must not exceed 180 days")
	}

	return nil
}

// validateMonitor validates scheduler settings
func (c *Config) validateMonitor() error {
	if !c.Monitor.Enabled {
		return nil
	}

	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("MONITOR_INTERVAL must be positive")
	}
	if c.Monitor.StartHour >= c.Monitor.EndHour {
		return fmt.Errorf("MONITOR_START_HOUR (%d) must be before MONITOR_END_HOUR (%d)",
			c.Monitor.StartHour, c.Monitor.EndHour)
	}

	return nil
}

// validateNotify validates notification settings (only if enabled)
func (c *Config) validateNotify() error {
	if !c.Notify.Enabled {
		return nil
	}

	if c.Notify.SMTP.Host == "" {
		return fmt.Errorf("SMTP_HOST is required when NOTIFY_ENABLED=true")
	}
	if c.Notify.SMTP.From == "" {
		return fmt.Errorf("SMTP_FROM is required when NOTIFY_ENABLED=true")
	}
	if len(c.Notify.Recipients) == 0 {
		return fmt.Errorf("NOTIFY_RECIPIENTS is required when NOTIFY_ENABLED=true")
	}
	if c.Notify.MinSendInterval <= 0 {
		return fmt.Errorf("NOTIFY_MIN_SEND_INTERVAL must be positive")
	}

	return nil
}
