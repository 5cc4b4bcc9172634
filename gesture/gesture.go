// SPDX-License-Identifier: Unlicense OR MIT

/*
Package gesture implements common touch gestures.

Gestures accept low level pointer Events for a single target
and detect higher level actions such as taps. Detected
gestures are delivered in order to the handlers registered
with Listen.

Recognizers are safe for concurrent use: Update and the timer
callbacks of the recognizer are serialized, and handlers are
called one at a time, outside the recognizer lock, in the order
the events were reported. An event reported while another
goroutine is delivering is handed to that goroutine, so Update
may return before its events reached the handlers.
*/
package gesture

import (
	"fmt"
	"sync"
	"time"

	"touchio.org/f32"
	"touchio.org/io/event"
	"touchio.org/io/pointer"
	"touchio.org/timer"
)

// SingleTap detects single taps in the form of TapEvents.
//
// A tap begins with a Press, which is reported immediately as
// TypeTapStart. Moving further than Slop from the press, or a
// second contact joining, cancels the tap. After the Release the
// tap settles for Delay; a new Press within that window cancels
// it without starting another tap, otherwise TypeTap is reported.
// A Press while a tap is in progress cancels it and starts over.
type SingleTap struct {
	// Slop is the distance a contact may travel from its press
	// before the tap is cancelled. Zero means DefaultSlop.
	Slop float32
	// Delay is the settle window after a release. Zero means
	// DefaultDelay.
	Delay time.Duration
	// Timers schedules the end of the settle window. A nil
	// Timers means timer.System.
	Timers timer.Scheduler

	out     outbox
	state   TapState
	session uint32
	origin  f32.Point
	source  pointer.Source
	pending timer.Handle
}

// DoubleTap detects two taps in quick succession at
// the same place.
type DoubleTap struct {
	// Slop bounds the distance between the contacts of both taps
	// and their movement. Zero means DefaultSlop.
	Slop float32
	// Delay is the time allowed between the first release and
	// the second press. Zero means DefaultDelay.
	Delay time.Duration
	// Timers schedules the expiry of the second tap window.
	// A nil Timers means timer.System.
	Timers timer.Scheduler

	out     outbox
	state   TapState
	taps    int
	session uint32
	origin  f32.Point
	source  pointer.Source
	pending timer.Handle
}

// outbox guards the state of a recognizer and delivers its
// events in order.
type outbox struct {
	mu        sync.Mutex
	listeners event.Listeners
	queue     []TapEvent
	draining  bool
}

// TapEvent represent a tap gesture transition.
type TapEvent struct {
	Type TapType
	// Session identifies the tap the event belongs to. Sessions
	// are numbered from 1 for every recognizer.
	Session  uint32
	Position f32.Point
	Source   pointer.Source
	// Time is the timestamp of the pointer event that caused
	// the transition. For TypeTap it is the release time
	// plus the settle window.
	Time time.Duration
}

type TapType uint8

type TapState uint8

const (
	// DefaultSlop is the default movement threshold.
	DefaultSlop = 10
	// DefaultDelay is the default settle window.
	DefaultDelay = 250 * time.Millisecond
)

const (
	// TypeTapStart is reported when a single tap begins.
	TypeTapStart TapType = iota
	// TypeTap is reported when a single tap settled.
	TypeTap
	// TypeTapCancel is reported when a single tap is abandoned.
	TypeTapCancel
	// TypeDoubleTapStart is reported for the first press of a
	// double tap.
	TypeDoubleTapStart
	// TypeDoubleTap is reported when the second tap completes.
	TypeDoubleTap
	// TypeDoubleTapCancel is reported when a double tap is
	// abandoned.
	TypeDoubleTapCancel
)

const (
	// StateIdle is the resting state, no tap is tracked.
	StateIdle TapState = iota
	// StateActive is reported while a contact is down.
	StateActive
	// StateSettling is reported between a release and the end
	// of the settle window.
	StateSettling
)

// Listen registers h to receive TapEvents.
func (s *SingleTap) Listen(h event.Handler) {
	s.out.listen(h)
}

// State reports the tap state.
func (s *SingleTap) State() TapState {
	s.out.mu.Lock()
	defer s.out.mu.Unlock()
	return s.state
}

// Reset drops the current tap, if any, without reporting it.
func (s *SingleTap) Reset() {
	s.out.mu.Lock()
	defer s.out.mu.Unlock()
	stop(&s.pending)
	s.state = StateIdle
}

// Update processes a pointer event.
func (s *SingleTap) Update(e pointer.Event) {
	s.out.mu.Lock()
	s.update(e)
	s.out.flush()
}

func (s *SingleTap) update(e pointer.Event) {
	switch e.Kind {
	case pointer.Press:
		if !pressable(e) {
			break
		}
		switch s.state {
		case StateSettling:
			s.cancel(e)
		case StateActive:
			s.cancel(e)
			if !e.MultiContact() {
				s.start(e)
			}
		default:
			s.start(e)
		}
	case pointer.Move:
		if s.state != StateActive {
			break
		}
		if e.MultiContact() || exceeds(s.origin, e.Location(), s.Slop) {
			s.cancel(e)
		}
	case pointer.Release:
		if s.state != StateActive {
			break
		}
		pos := e.Location()
		if e.MultiContact() || exceeds(s.origin, pos, s.Slop) {
			s.cancel(e)
			break
		}
		s.state = StateSettling
		id, d := s.session, delayOf(s.Delay)
		at := e.Time + d
		s.pending = schedulerOf(s.Timers).AfterFunc(d, func() {
			s.out.mu.Lock()
			s.settle(id, pos, at)
			s.out.flush()
		})
	case pointer.Cancel:
		if s.state != StateIdle {
			s.cancel(e)
		}
	}
}

func (s *SingleTap) start(e pointer.Event) {
	s.session++
	s.state = StateActive
	s.origin = e.Location()
	s.source = e.Source
	s.emit(TapEvent{Type: TypeTapStart, Session: s.session, Position: s.origin, Source: e.Source, Time: e.Time})
}

func (s *SingleTap) cancel(e pointer.Event) {
	stop(&s.pending)
	s.state = StateIdle
	s.emit(TapEvent{Type: TypeTapCancel, Session: s.session, Position: e.Location(), Source: s.source, Time: e.Time})
}

// settle completes the tap of session id. Callbacks of
// stopped or superseded sessions are ignored.
func (s *SingleTap) settle(id uint32, pos f32.Point, t time.Duration) {
	if s.state != StateSettling || s.session != id {
		return
	}
	s.pending = nil
	s.state = StateIdle
	s.emit(TapEvent{Type: TypeTap, Session: id, Position: pos, Source: s.source, Time: t})
}

func (s *SingleTap) emit(e TapEvent) {
	s.out.queue = append(s.out.queue, e)
}

// Listen registers h to receive TapEvents.
func (d *DoubleTap) Listen(h event.Handler) {
	d.out.listen(h)
}

// State reports the tap state. StateSettling is reported
// while waiting for the second press.
func (d *DoubleTap) State() TapState {
	d.out.mu.Lock()
	defer d.out.mu.Unlock()
	return d.state
}

// Reset drops the current double tap, if any, without
// reporting it.
func (d *DoubleTap) Reset() {
	d.out.mu.Lock()
	defer d.out.mu.Unlock()
	stop(&d.pending)
	d.state = StateIdle
	d.taps = 0
}

// Update processes a pointer event.
func (d *DoubleTap) Update(e pointer.Event) {
	d.out.mu.Lock()
	d.update(e)
	d.out.flush()
}

func (d *DoubleTap) update(e pointer.Event) {
	switch e.Kind {
	case pointer.Press:
		if !pressable(e) {
			break
		}
		switch d.state {
		case StateSettling:
			stop(&d.pending)
			if !exceeds(d.origin, e.Location(), d.Slop) {
				d.state = StateActive
				break
			}
			d.cancel(e)
			d.start(e)
		case StateActive:
			d.cancel(e)
			if !e.MultiContact() {
				d.start(e)
			}
		default:
			d.start(e)
		}
	case pointer.Move:
		if d.state != StateActive {
			break
		}
		if e.MultiContact() || exceeds(d.origin, e.Location(), d.Slop) {
			d.cancel(e)
		}
	case pointer.Release:
		if d.state != StateActive {
			break
		}
		pos := e.Location()
		if e.MultiContact() || exceeds(d.origin, pos, d.Slop) {
			d.cancel(e)
			break
		}
		if d.taps == 1 {
			d.state = StateIdle
			d.taps = 0
			d.emit(TapEvent{Type: TypeDoubleTap, Session: d.session, Position: pos, Source: d.source, Time: e.Time})
			break
		}
		d.taps = 1
		d.state = StateSettling
		id, delay := d.session, delayOf(d.Delay)
		expired := pointer.Event{Kind: pointer.Cancel, Position: pos, Time: e.Time + delay}
		d.pending = schedulerOf(d.Timers).AfterFunc(delay, func() {
			d.out.mu.Lock()
			if d.state == StateSettling && d.session == id {
				d.pending = nil
				d.cancel(expired)
			}
			d.out.flush()
		})
	case pointer.Cancel:
		if d.state != StateIdle {
			d.cancel(e)
		}
	}
}

func (d *DoubleTap) start(e pointer.Event) {
	d.session++
	d.state = StateActive
	d.taps = 0
	d.origin = e.Location()
	d.source = e.Source
	d.emit(TapEvent{Type: TypeDoubleTapStart, Session: d.session, Position: d.origin, Source: e.Source, Time: e.Time})
}

func (d *DoubleTap) cancel(e pointer.Event) {
	stop(&d.pending)
	d.state = StateIdle
	d.taps = 0
	d.emit(TapEvent{Type: TypeDoubleTapCancel, Session: d.session, Position: e.Location(), Source: d.source, Time: e.Time})
}

func (d *DoubleTap) emit(e TapEvent) {
	d.out.queue = append(d.out.queue, e)
}

func (o *outbox) listen(h event.Handler) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners.Add(h)
}

// flush delivers the queued events and unlocks o.mu, which must
// be held. Only one goroutine delivers at a time; events queued
// meanwhile are delivered by it, after the ones it holds.
func (o *outbox) flush() {
	if o.draining {
		o.mu.Unlock()
		return
	}
	o.draining = true
	for len(o.queue) > 0 {
		evts := o.queue
		o.queue = nil
		ls := o.listeners
		o.mu.Unlock()
		for _, e := range evts {
			ls.Dispatch(e)
		}
		o.mu.Lock()
	}
	o.draining = false
	o.mu.Unlock()
}

// pressable filters out mouse presses of other than the
// primary button.
func pressable(e pointer.Event) bool {
	return e.Source != pointer.Mouse || e.Buttons&^pointer.ButtonPrimary == 0
}

// exceeds reports whether p lies further than slop from origin.
func exceeds(origin, p f32.Point, slop float32) bool {
	if slop <= 0 {
		slop = DefaultSlop
	}
	return origin.Dist(p) > slop
}

func delayOf(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultDelay
	}
	return d
}

func schedulerOf(s timer.Scheduler) timer.Scheduler {
	if s == nil {
		return timer.System{}
	}
	return s
}

func stop(h *timer.Handle) {
	if *h != nil {
		(*h).Stop()
		*h = nil
	}
}

func (TapEvent) ImplementsEvent() {}

func (t TapType) String() string {
	switch t {
	case TypeTapStart:
		return "singletapstart"
	case TypeTap:
		return "singletap"
	case TypeTapCancel:
		return "singletapcancel"
	case TypeDoubleTapStart:
		return "doubletapstart"
	case TypeDoubleTap:
		return "doubletap"
	case TypeDoubleTapCancel:
		return "doubletapcancel"
	default:
		panic("invalid TapType")
	}
}

func (t TapType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TapType) UnmarshalText(b []byte) error {
	for tt := TypeTapStart; tt <= TypeDoubleTapCancel; tt++ {
		if tt.String() == string(b) {
			*t = tt
			return nil
		}
	}
	return fmt.Errorf("gesture: unknown tap type %q", b)
}

func (s TapState) String() string {
	switch s {
	case StateIdle:
		return "StateIdle"
	case StateActive:
		return "StateActive"
	case StateSettling:
		return "StateSettling"
	default:
		panic("invalid TapState")
	}
}
