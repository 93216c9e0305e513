/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package timer tracks cancellable timers owned by a single event loop.
//
// A Handle is created, stopped and fired on the owning goroutine only. The
// underlying clock callback never runs client code directly; it asks the owner
// to call Fire, which drops the expiry if the handle was stopped or replaced in
// the meantime.
package timer

import (
	"time"

	"github.com/Seednode/partybox-client/clock"
)

// Scheduler schedules callbacks that run on the owning goroutine.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fire func()) *Handle
}

// Handle is a pending timer. The zero value is pending with no clock timer
// attached.
type Handle struct {
	timer clock.Timer
	spent bool
}

// Bind attaches the clock timer backing h, so Stop can release it early.
func (h *Handle) Bind(t clock.Timer) {
	h.timer = t
}

// Stop cancels h. It is safe to call on a nil, fired or stopped handle.
func (h *Handle) Stop() {
	if h == nil || h.spent {
		return
	}

	h.spent = true

	if h.timer != nil {
		h.timer.Stop()
	}
}

// Active reports whether h has neither fired nor been stopped.
func (h *Handle) Active() bool {
	return h != nil && !h.spent
}

// Fire runs f if h is still active and marks h spent. It reports whether f ran.
func Fire(h *Handle, f func()) bool {
	if !h.Active() {
		return false
	}

	h.spent = true
	f()

	return true
}
