// SPDX-License-Identifier: Unlicense OR MIT

package pointer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"touchio.org/f32"
)

// wireEvent is the JSON form of an Event. The clientX and clientY
// aliases accept payloads recorded from browser touch events.
type wireEvent struct {
	Kind    Kind          `json:"kind"`
	Source  Source        `json:"source"`
	ID      ID            `json:"id,omitempty"`
	TimeMS  float64       `json:"time_ms,omitempty"`
	Buttons Buttons       `json:"buttons,omitempty"`
	Primary *bool         `json:"primary,omitempty"`
	IsPrim  *bool         `json:"isPrimary,omitempty"`
	X       *float32      `json:"x,omitempty"`
	Y       *float32      `json:"y,omitempty"`
	ClientX *float32      `json:"clientX,omitempty"`
	ClientY *float32      `json:"clientY,omitempty"`
	Touches []wireContact `json:"touches,omitempty"`
	Changed []wireContact `json:"changedTouches,omitempty"`
}

type wireContact struct {
	ID      ID       `json:"id,omitempty"`
	X       *float32 `json:"x,omitempty"`
	Y       *float32 `json:"y,omitempty"`
	ClientX *float32 `json:"clientX,omitempty"`
	ClientY *float32 `json:"clientY,omitempty"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	primary := e.Primary
	x, y := e.Position.X, e.Position.Y
	w := wireEvent{
		Kind:    e.Kind,
		Source:  e.Source,
		ID:      e.PointerID,
		TimeMS:  float64(e.Time) / float64(time.Millisecond),
		Buttons: e.Buttons,
		Primary: &primary,
		X:       &x,
		Y:       &y,
		Touches: toWire(e.Touches),
		Changed: toWire(e.Changed),
	}
	return json.Marshal(w)
}

func (e *Event) UnmarshalJSON(b []byte) error {
	// Touch is the natural source for recorded scripts.
	w := wireEvent{Source: Touch}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Kind == 0 {
		return fmt.Errorf("pointer: event without kind")
	}
	*e = Event{
		Kind:      w.Kind,
		Source:    w.Source,
		PointerID: w.ID,
		Time:      time.Duration(w.TimeMS * float64(time.Millisecond)),
		Buttons:   w.Buttons,
		Position:  f32.Pt(coord(w.X, w.ClientX), coord(w.Y, w.ClientY)),
		Touches:   fromWire(w.Touches),
		Changed:   fromWire(w.Changed),
	}
	switch {
	case w.Primary != nil:
		e.Primary = *w.Primary
	case w.IsPrim != nil:
		e.Primary = *w.IsPrim
	default:
		e.Primary = len(e.Touches) <= 1
	}
	if w.X == nil && w.ClientX == nil && len(e.Changed) > 0 {
		e.Position = e.Changed[0].Position
	}
	return nil
}

func toWire(cs []Contact) []wireContact {
	if len(cs) == 0 {
		return nil
	}
	out := make([]wireContact, len(cs))
	for i, c := range cs {
		x, y := c.Position.X, c.Position.Y
		out[i] = wireContact{ID: c.ID, X: &x, Y: &y}
	}
	return out
}

func fromWire(ws []wireContact) []Contact {
	if len(ws) == 0 {
		return nil
	}
	out := make([]Contact, len(ws))
	for i, w := range ws {
		out[i] = Contact{
			ID:       w.ID,
			Position: f32.Pt(coord(w.X, w.ClientX), coord(w.Y, w.ClientY)),
		}
	}
	return out
}

func coord(v, alias *float32) float32 {
	switch {
	case v != nil:
		return *v
	case alias != nil:
		return *alias
	}
	return 0
}

// MarshalText encodes k by its lifecycle name.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case Press:
		return []byte("start"), nil
	case Move:
		return []byte("move"), nil
	case Release:
		return []byte("end"), nil
	case Cancel:
		return []byte("cancel"), nil
	}
	return nil, fmt.Errorf("pointer: cannot encode kind %d", uint(k))
}

// UnmarshalText accepts lifecycle names as well as the browser
// touch, pointer and mouse event names.
func (k *Kind) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "start", "press", "touchstart", "pointerdown", "mousedown":
		*k = Press
	case "move", "touchmove", "pointermove", "mousemove":
		*k = Move
	case "end", "release", "touchend", "pointerup", "mouseup":
		*k = Release
	case "cancel", "touchcancel", "pointercancel":
		*k = Cancel
	default:
		return fmt.Errorf("pointer: unknown event kind %q", b)
	}
	return nil
}

func (s Source) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

func (s *Source) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "mouse":
		*s = Mouse
	case "touch":
		*s = Touch
	case "pen":
		*s = Pen
	default:
		return fmt.Errorf("pointer: unknown source %q", b)
	}
	return nil
}
