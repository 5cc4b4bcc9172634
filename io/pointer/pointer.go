// SPDX-License-Identifier: Unlicense OR MIT

/*
Package pointer implements pointer and touch events.

An Event describes one step in the lifecycle of a contact: Press
(the start of a touch), Move, Release (the end of a touch) or
Cancel. Touch sources report every active contact in Touches and
the contacts affected by the event in Changed, mirroring the
touches and changedTouches lists of browser touch events.
*/
package pointer

import (
	"strings"
	"time"

	"touchio.org/f32"
)

// Event is a pointer event.
type Event struct {
	Kind   Kind
	Source Source
	// PointerID is the id for the pointer and can be used
	// to track a particular pointer from Press to
	// Release or Cancel.
	PointerID ID
	// Time is when the event was received. The
	// timestamp is relative to an undefined base.
	Time time.Duration
	// Buttons are the set of pressed mouse buttons for this event.
	Buttons Buttons
	// Primary reports whether the event stems from the
	// primary contact.
	Primary bool
	// Position is the coordinates of the event in the local
	// coordinate system of the receiving target.
	Position f32.Point
	// Touches lists the contacts active on the target. It is
	// empty for sources without multiple contacts.
	Touches []Contact
	// Changed lists the contacts that changed in this event.
	Changed []Contact
}

// Contact is a single contact point.
type Contact struct {
	ID       ID
	Position f32.Point
}

type ID uint16

// Kind of an Event.
type Kind uint

// Source of an Event.
type Source uint8

// Buttons is a set of mouse buttons
type Buttons uint8

const (
	// A Cancel event is generated when the current gesture is
	// interrupted by other handlers or the system.
	Cancel Kind = 1 << iota
	// Press of a pointer.
	Press
	// Release of a pointer.
	Release
	// Move of a pointer.
	Move
)

const (
	// Mouse generated event.
	Mouse Source = iota
	// Touch generated event.
	Touch
	// Pen generated event.
	Pen
)

const (
	// ButtonPrimary is the primary button, usually the left button for a
	// right-handed user.
	ButtonPrimary Buttons = 1 << iota
	// ButtonSecondary is the secondary button, usually the right button for a
	// right-handed user.
	ButtonSecondary
	// ButtonTertiary is the tertiary button, usually the middle button.
	ButtonTertiary
)

// Location returns the coordinates of the contact that changed,
// falling back to Position.
func (e Event) Location() f32.Point {
	if len(e.Changed) > 0 {
		return e.Changed[0].Position
	}
	return e.Position
}

// MultiContact reports whether the event comes from a secondary
// contact while more than one contact is active.
func (e Event) MultiContact() bool {
	return len(e.Touches) > 1 && !e.Primary
}

func (t Kind) String() string {
	if t == Cancel {
		return "Cancel"
	}
	var buf strings.Builder
	for tt := Kind(1); tt > 0 && tt <= Move; tt <<= 1 {
		if t&tt > 0 {
			if buf.Len() > 0 {
				buf.WriteByte('|')
			}
			buf.WriteString((t & tt).string())
		}
	}
	return buf.String()
}

func (t Kind) string() string {
	switch t {
	case Press:
		return "Press"
	case Release:
		return "Release"
	case Cancel:
		return "Cancel"
	case Move:
		return "Move"
	default:
		panic("unknown Kind")
	}
}

func (s Source) String() string {
	switch s {
	case Mouse:
		return "Mouse"
	case Touch:
		return "Touch"
	case Pen:
		return "Pen"
	default:
		panic("unknown source")
	}
}

// Contain reports whether the set b contains
// all of the buttons.
func (b Buttons) Contain(buttons Buttons) bool {
	return b&buttons == buttons
}

func (b Buttons) String() string {
	var strs []string
	if b.Contain(ButtonPrimary) {
		strs = append(strs, "ButtonPrimary")
	}
	if b.Contain(ButtonSecondary) {
		strs = append(strs, "ButtonSecondary")
	}
	if b.Contain(ButtonTertiary) {
		strs = append(strs, "ButtonTertiary")
	}
	return strings.Join(strs, "|")
}

func (Event) ImplementsEvent() {}
