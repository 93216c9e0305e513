/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package timer

import (
	"sort"
	"time"
)

type manualEntry struct {
	at   time.Time
	seq  uint64
	h    *Handle
	fire func()
}

// Manual is a Scheduler driven by virtual time, for tests.
type Manual struct {
	now     time.Time
	seq     uint64
	pending []manualEntry
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	return m.now
}

func (m *Manual) After(d time.Duration, fire func()) *Handle {
	h := &Handle{}

	m.seq++
	m.pending = append(m.pending, manualEntry{
		at:   m.now.Add(d),
		seq:  m.seq,
		h:    h,
		fire: fire,
	})

	return h
}

// Advance moves virtual time forward by d, firing every handle that comes due
// in deadline order. Handles scheduled by a callback fire too if their deadline
// falls inside the window.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)

	for {
		e, ok := m.popDue(target)
		if !ok {
			break
		}

		m.now = e.at
		Fire(e.h, e.fire)
	}

	m.now = target
}

// Pending returns the number of handles still waiting to fire.
func (m *Manual) Pending() int {
	n := 0
	for _, e := range m.pending {
		if e.h.Active() {
			n++
		}
	}

	return n
}

func (m *Manual) popDue(target time.Time) (manualEntry, bool) {
	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].at.Equal(m.pending[j].at) {
			return m.pending[i].seq < m.pending[j].seq
		}
		return m.pending[i].at.Before(m.pending[j].at)
	})

	for len(m.pending) > 0 {
		e := m.pending[0]
		if e.at.After(target) {
			return manualEntry{}, false
		}

		m.pending = m.pending[1:]

		if e.h.Active() {
			return e, true
		}
	}

	return manualEntry{}, false
}
