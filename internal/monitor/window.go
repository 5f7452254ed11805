// GridWatch - ONS Grid Intervention Monitoring and Notification
// Copyright 2026 Daniel Ramos (danielramos222)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danielramos222/gridwatch

package monitor

import "time"

// Window is the daily working-hours interval during which scheduled checks
// run. Hours are local time; the window covers [Start, End).
type Window struct {
	Start int
	End   int
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	h := t.Hour()
	return h >= w.Start && h < w.End
}

// NextOpen returns the next instant at or after t when the window is open.
// Inside the window it returns t unchanged.
func (w Window) NextOpen(t time.Time) time.Time {
	if w.Contains(t) {
		return t
	}
	open := time.Date(t.Year(), t.Month(), t.Day(), w.Start, 0, 0, 0, t.Location())
	if !t.Before(open) {
		open = open.AddDate(0, 0, 1)
	}
	return open
}
