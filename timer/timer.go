// SPDX-License-Identifier: Unlicense OR MIT

/*
Package timer provides cancellable delayed callbacks.

A Scheduler arms a callback to run after a delay and returns a
Handle that stops it. Gestures use a Scheduler for time based
transitions, such as the settle window of a tap. Manual is a
virtual clock for tests and offline replays; System runs on the
wall clock.
*/
package timer

import (
	"time"

	"golang.org/x/exp/slices"
)

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	// AfterFunc arms f to run once d has elapsed.
	AfterFunc(d time.Duration, f func()) Handle
}

// Handle controls a pending callback.
type Handle interface {
	// Stop prevents the callback from running. It reports
	// whether the call stopped the callback; false means the
	// callback already ran or was stopped before.
	Stop() bool
}

// System schedules callbacks on the wall clock with time.AfterFunc.
// Callbacks run on their own goroutine.
type System struct{}

// Manual is a virtual clock. Callbacks only run from Advance, on
// the calling goroutine. The zero value is a clock at time zero.
type Manual struct {
	now     time.Duration
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	m     *Manual
	when  time.Duration
	seq   uint64
	f     func()
	armed bool
}

func (System) AfterFunc(d time.Duration, f func()) Handle {
	return time.AfterFunc(d, f)
}

// Now returns the virtual time elapsed since the zero clock.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Pending returns the number of armed callbacks.
func (m *Manual) Pending() int {
	return len(m.pending)
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Handle {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{m: m, when: m.now + d, seq: m.seq, f: f, armed: true}
	// Keep pending sorted by deadline, then by arming order.
	i := len(m.pending)
	for i > 0 && m.pending[i-1].when > t.when {
		i--
	}
	m.pending = slices.Insert(m.pending, i, t)
	return t
}

// Advance moves the clock forward by d and runs every callback
// that falls due, in deadline order. Callbacks armed by a callback
// run in the same Advance if they are due.
func (m *Manual) Advance(d time.Duration) {
	end := m.now + d
	for len(m.pending) > 0 && m.pending[0].when <= end {
		t := m.pending[0]
		m.pending = slices.Delete(m.pending, 0, 1)
		t.armed = false
		if t.when > m.now {
			m.now = t.when
		}
		t.f()
	}
	m.now = end
}

func (t *manualTimer) Stop() bool {
	if !t.armed {
		return false
	}
	t.armed = false
	if i := slices.Index(t.m.pending, t); i >= 0 {
		t.m.pending = slices.Delete(t.m.pending, i, i+1)
	}
	return true
}
