/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package clock

import "time"

//go:generate mockgen -package=mocks -destination=mocks/mock_clock.go github.com/Seednode/partybox-client/clock Clock,Timer

// Clock is the source of wall time and delayed callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc callback.
type Timer interface {
	Stop() bool
}

// DefaultClock implements Clock using the system clock.
type DefaultClock struct{}

// Now returns the current time.
func (DefaultClock) Now() time.Time {
	return time.Now()
}

// AfterFunc calls f in its own goroutine after d has elapsed.
func (DefaultClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
