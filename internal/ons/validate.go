// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package ons

import (
	"fmt"
	"strconv"
	"time"

	onsmodels "github.com/danielramos222/gridwatch/internal/models/ons"
)

// maxDateWindowDays is the widest filter window the upstream accepts.
const maxDateWindowDays = 180

// ValidateAuthResponse checks that an authentication response carries the
// three required fields. expires_in must parse as a positive integer number
// of seconds.
func ValidateAuthResponse(resp *onsmodels.AuthResponse) error {
	if resp.AccessToken == "" {
		return fmt.Errorf("%w: missing access_token", ErrInvalidAuthResponse)
	}
	if resp.TokenType == "" {
		return fmt.Errorf("%w: missing token_type", ErrInvalidAuthResponse)
	}
	if resp.ExpiresIn == "" {
		return fmt.Errorf("%w: missing expires_in", ErrInvalidAuthResponse)
	}
	if _, err := ParseExpiresIn(resp.ExpiresIn); err != nil {
		return err
	}
	return nil
}

// ParseExpiresIn converts the upstream's string expires_in to a duration.
func ParseExpiresIn(s string) (time.Duration, error) {
	seconds, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: expires_in %q is not a number", ErrInvalidAuthResponse, s)
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("%w: expires_in %q is not positive", ErrInvalidAuthResponse, s)
	}
	return time.Duration(seconds) * time.Second, nil
}

// ValidateDateWindow rejects filter windows wider than the upstream allows.
// Zero times (no filter) are accepted.
func ValidateDateWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return nil
	}
	if end.Before(start) {
		return fmt.Errorf("%w: data final anterior à inicial", ErrInvalidDateWindow)
	}
	if end.Sub(start) > maxDateWindowDays*24*time.Hour {
		return fmt.Errorf("%w: janela superior a %d dias", ErrInvalidDateWindow, maxDateWindowDays)
	}
	return nil
}

// DefaultWindow returns the standard query window around now: lookback days
// into the past through lookahead days into the future.
func DefaultWindow(now time.Time, lookbackDays, lookaheadDays int) (time.Time, time.Time) {
	start := now.AddDate(0, 0, -lookbackDays)
	end := now.AddDate(0, 0, lookaheadDays)
	return start, end
}
