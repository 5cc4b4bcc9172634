// SPDX-License-Identifier: Unlicense OR MIT

// Package event contains types for event handling.
package event

// Tag is the stable identifier for an event target.
// For a handler h, the tag is typically &h.
type Tag interface{}

// Event is the marker interface for events.
type Event interface {
	ImplementsEvent()
}

// Queue maps an event target to the events
// available to it.
type Queue interface {
	// Events returns the available events for a
	// Tag.
	Events(t Tag) []Event
}

// Handler receives events synchronously.
type Handler func(e Event)

// Listeners is an ordered list of Handlers. The zero value
// is an empty list ready to use.
type Listeners struct {
	handlers []Handler
}

// Add appends h to the list. Handlers added during a Dispatch
// receive events from the next Dispatch on.
func (l *Listeners) Add(h Handler) {
	if h == nil {
		return
	}
	l.handlers = append(l.handlers, h)
}

// Len returns the number of handlers.
func (l *Listeners) Len() int {
	return len(l.handlers)
}

// Dispatch calls every handler with e, in the order
// they were added.
func (l *Listeners) Dispatch(e Event) {
	hs := l.handlers
	for _, h := range hs {
		h(e)
	}
}
