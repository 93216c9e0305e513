/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"math"

	"github.com/Seednode/partybox-client/timer"
)

// countdown is display only. It never changes the phase.
type countdown struct {
	handle    *timer.Handle
	remaining int
	running   bool
	ended     bool
}

func (c *countdown) stop() {
	c.handle.Stop()
	*c = countdown{}
}

func (c *countdown) armed() bool {
	return c.running || c.ended
}

func (m *Machine) startCountdown() {
	m.countdown.stop()
	m.countdown.running = true

	m.tick()
}

func (m *Machine) tick() {
	m.countdown.handle = nil

	left := m.roomEnd.Sub(m.cfg.Scheduler.Now())

	secs := int(math.Ceil(left.Seconds()))
	if secs <= 0 {
		m.countdown.remaining = 0
		m.countdown.running = false
		m.countdown.ended = true

		m.log.Debugf("SESSION: Round ended in room %s", m.roomCode)

		return
	}

	m.countdown.remaining = secs
	m.countdown.handle = m.cfg.Scheduler.After(m.cfg.Tick, m.tick)
}
