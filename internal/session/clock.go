// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package session

import "time"

// Clock reports wall-clock time.
type Clock interface {
	Now() time.Time
}

// Scheduler runs fn once after d. The returned cancel function prevents a
// pending run; calling it after the run or more than once is harmless.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) (cancel func())
}

// SystemClock is the real clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// TimerScheduler schedules on time.AfterFunc.
type TimerScheduler struct{}

// Schedule implements Scheduler.
func (TimerScheduler) Schedule(d time.Duration, fn func()) func() {
	if d < 0 {
		d = 0
	}
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
