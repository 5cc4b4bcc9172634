// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"touchio.org/timer"
)

// ErrStopped is returned by Run for a loop that already ran or
// is running.
var ErrStopped = errors.New("app: loop stopped")

// Loop runs functions one at a time on a single goroutine. Pointer
// events and timer callbacks posted to the same Loop never run
// concurrently, so recognizers need no locking.
//
// Loop implements timer.Scheduler. Its callbacks run on the loop
// goroutine, and AfterFunc and Handle.Stop must be called from it.
type Loop struct {
	funcs   chan func()
	stop    chan struct{}
	stopped chan struct{}
	started atomic.Bool
}

type loopTimer struct {
	l       *Loop
	t       *time.Timer
	stopped bool
	fired   bool
}

// NewLoop returns a Loop with room for queue pending functions
// before Post blocks.
func NewLoop(queue int) *Loop {
	if queue < 1 {
		queue = 1
	}
	return &Loop{
		funcs:   make(chan func(), queue),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Post schedules f to run on the loop. It blocks while the queue is
// full and reports false if the loop is stopped.
func (l *Loop) Post(f func()) bool {
	select {
	case <-l.stop:
		return false
	default:
	}
	select {
	case l.funcs <- f:
		return true
	case <-l.stop:
		return false
	}
}

// Run executes posted functions until ctx is done. Functions still
// queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrStopped
	}
	defer close(l.stopped)
	defer close(l.stop)
	for {
		select {
		case f := <-l.funcs:
			f()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.stopped
}

// AfterFunc arms f to run on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, f func()) timer.Handle {
	lt := &loopTimer{l: l}
	lt.t = time.AfterFunc(d, func() {
		l.Post(func() {
			// The wall clock timer may fire after Stop; the flag,
			// only touched on the loop, decides.
			if lt.stopped {
				return
			}
			lt.fired = true
			f()
		})
	})
	return lt
}

func (t *loopTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.t.Stop()
	return true
}
