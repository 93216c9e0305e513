/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package loop runs the client's single event loop.
//
// Every state mutation in the client happens inside Run's dispatch, one event
// at a time, in arrival order. Other goroutines only Post.
package loop

import (
	"context"
	"sync"
	"time"

	"github.com/Seednode/partybox-client/clock"
	"github.com/Seednode/partybox-client/timer"
)

const defaultInboxSize = 256

// Event is anything posted to the loop. Dispatch switches on its concrete type.
type Event any

type timerFired struct {
	h    *timer.Handle
	fire func()
}

type Loop struct {
	inbox    chan Event
	clock    clock.Clock
	done     chan struct{}
	stopOnce sync.Once
}

func New(c clock.Clock, size int) *Loop {
	if c == nil {
		c = clock.DefaultClock{}
	}
	if size <= 0 {
		size = defaultInboxSize
	}

	return &Loop{
		inbox: make(chan Event, size),
		clock: c,
		done:  make(chan struct{}),
	}
}

// Post enqueues ev. It must not be called from inside dispatch with a full
// inbox. It returns false once the loop has stopped.
func (l *Loop) Post(ev Event) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case <-l.done:
		return false
	case l.inbox <- ev:
		return true
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// After schedules fire to run on the loop goroutine after d. Call it only from
// the loop goroutine.
func (l *Loop) After(d time.Duration, fire func()) *timer.Handle {
	h := &timer.Handle{}
	h.Bind(l.clock.AfterFunc(d, func() {
		l.Post(timerFired{h: h, fire: fire})
	}))

	return h
}

// Run processes events until ctx is cancelled.
func (l *Loop) Run(ctx context.Context, dispatch func(Event)) {
	defer l.stopOnce.Do(func() { close(l.done) })

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-l.inbox:
			switch ev := ev.(type) {
			case timerFired:
				timer.Fire(ev.h, ev.fire)
			default:
				dispatch(ev)
			}
		}
	}
}
