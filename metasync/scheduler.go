// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package metasync

import "time"

// Scheduler runs a function once after a delay. The returned cancel
// function stops a pending run; cancelling after the function ran is a
// no-op. Implementations must deliver fn on the same event thread that
// calls the Controller, and cancel must be safe to call from that thread.
//
// A timer that already fired can still deliver fn after cancel was called
// (the delivery may be queued). The controller tolerates such stray
// deliveries by re-validating its state at the start of every tick.
type Scheduler interface {
	ScheduleAfter(d time.Duration, fn func()) (cancel func())
}

// TimerScheduler schedules on plain Go timers. It delivers fn on the
// timer goroutine, so it is only suitable when the caller serializes all
// controller access itself (single-goroutine programs and tests).
type TimerScheduler struct{}

func (TimerScheduler) ScheduleAfter(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
