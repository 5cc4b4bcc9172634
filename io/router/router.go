// SPDX-License-Identifier: Unlicense OR MIT

/*
Package router implements Router, an event.Queue implementation
that routes pointer events to the gesture recognizers of their
target and collects the resulting gesture events.

A Router is not safe for concurrent use; pointer events and
timer callbacks must reach it from a single goroutine, such as
an app.Loop.
*/
package router

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/exp/slices"

	"touchio.org/io/event"
	"touchio.org/io/pointer"
)

// DefaultMaxTargets is the number of targets tracked when
// Router.MaxTargets is zero.
const DefaultMaxTargets = 256

// Router tracks the targets of a pointer event source and
// routes events to their recognizers.
type Router struct {
	// MaxTargets bounds the number of tracked targets. Adding a
	// target beyond the bound evicts and resets the least recently
	// used one. MaxTargets is read once, on first use.
	MaxTargets int

	targets   *lru.Cache[event.Tag, *target]
	listeners []Handler
}

// Recognizer consumes pointer events and reports gestures to
// its listeners.
type Recognizer interface {
	Update(e pointer.Event)
	Listen(h event.Handler)
	Reset()
}

// Handler observes the gesture events of every target.
type Handler func(tag event.Tag, e event.Event)

type target struct {
	recognizers []Recognizer
	events      []event.Event
	// removed is set once the target leaves the router; it
	// silences recognizers that still hold a listener.
	removed bool
}

func (r *Router) init() {
	if r.targets != nil {
		return
	}
	n := r.MaxTargets
	if n <= 0 {
		n = DefaultMaxTargets
	}
	c, err := lru.NewWithEvict[event.Tag, *target](n, func(_ event.Tag, t *target) {
		t.detach()
	})
	if err != nil {
		// Only reachable for non-positive sizes.
		panic(err)
	}
	r.targets = c
}

// Add attaches g to the target tag. Gesture events reported by g
// are collected for Events and passed to the Router listeners.
func (r *Router) Add(tag event.Tag, g Recognizer) {
	r.init()
	t, ok := r.targets.Get(tag)
	if !ok {
		t = new(target)
		r.targets.Add(tag, t)
	}
	if slices.Contains(t.recognizers, g) {
		return
	}
	t.recognizers = append(t.recognizers, g)
	g.Listen(func(e event.Event) {
		if t.removed {
			return
		}
		t.events = append(t.events, e)
		for _, h := range r.listeners {
			h(tag, e)
		}
	})
}

// Remove resets and forgets the recognizers of tag. Pending
// gesture events for tag are discarded.
func (r *Router) Remove(tag event.Tag) {
	r.init()
	r.targets.Remove(tag)
}

// Listen registers h to observe gesture events as they
// are reported.
func (r *Router) Listen(h Handler) {
	if h != nil {
		r.listeners = append(r.listeners, h)
	}
}

// Queue delivers events in order to the recognizers of tag. It
// reports whether tag is known.
func (r *Router) Queue(tag event.Tag, events ...pointer.Event) bool {
	r.init()
	t, ok := r.targets.Get(tag)
	if !ok {
		return false
	}
	for _, e := range events {
		for _, g := range t.recognizers {
			g.Update(e)
		}
	}
	return true
}

// Events returns and clears the gesture events reported for tag
// since the previous call.
func (r *Router) Events(tag event.Tag) []event.Event {
	r.init()
	t, ok := r.targets.Peek(tag)
	if !ok {
		return nil
	}
	evts := t.events
	t.events = nil
	return evts
}

// Targets returns the number of tracked targets.
func (r *Router) Targets() int {
	if r.targets == nil {
		return 0
	}
	return r.targets.Len()
}

func (t *target) detach() {
	t.removed = true
	t.events = nil
	for _, g := range t.recognizers {
		g.Reset()
	}
}
