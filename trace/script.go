// SPDX-License-Identifier: Unlicense OR MIT

/*
Package trace replays scripted touch interactions.

A Script is a list of steps: pointer events fired at named targets,
waits that advance a virtual clock, and expectations on the gesture
events a target reported since its previous expectation. Scripts are
JSON documents:

	{
		"name": "settled tap",
		"steps": [
			{"target": "board", "event": {"kind": "touchstart", "clientX": 0, "clientY": 0}},
			{"target": "board", "event": {"kind": "touchend", "clientX": 5, "clientY": 5}},
			{"wait": "260ms"},
			{"expect": {"target": "board", "sequence": ["singletapstart", "singletap"]}}
		]
	}
*/
package trace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"touchio.org/io/pointer"
)

// Script is a scripted interaction.
type Script struct {
	Name string `json:"name"`
	// Gestures lists the recognizers attached to every target,
	// "singletap" and "doubletap". Empty means singletap only.
	Gestures []string `json:"gestures,omitempty"`
	Steps    []Step   `json:"steps"`
}

// Step is one of an event, a wait or an expectation.
type Step struct {
	Target string         `json:"target,omitempty"`
	Event  *pointer.Event `json:"event,omitempty"`
	Wait   Duration       `json:"wait,omitempty"`
	Expect *Expect        `json:"expect,omitempty"`
}

// Expect is the sequence of gesture event names a target must have
// reported since its previous expectation.
type Expect struct {
	Target   string   `json:"target"`
	Sequence []string `json:"sequence"`
}

// Duration is a time.Duration encoded as a string such as "250ms".
// Plain numbers are read as milliseconds.
type Duration time.Duration

var knownGestures = map[string]bool{
	"singletap": true,
	"doubletap": true,
}

var knownEvents = map[string]bool{
	"singletapstart":  true,
	"singletap":       true,
	"singletapcancel": true,
	"doubletapstart":  true,
	"doubletap":       true,
	"doubletapcancel": true,
}

// ErrScript is wrapped by script validation errors.
var ErrScript = errors.New("trace: invalid script")

// Decode reads and validates a script.
func Decode(r io.Reader) (Script, error) {
	var s Script
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Script{}, fmt.Errorf("trace: decode: %w", err)
	}
	return s, s.Validate()
}

// ReadFile decodes the script at path.
func ReadFile(path string) (Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return Script{}, err
	}
	defer f.Close()
	s, err := Decode(f)
	if err != nil {
		return Script{}, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

// Validate checks that every step is well formed.
func (s Script) Validate() error {
	for _, g := range s.Gestures {
		if !knownGestures[g] {
			return fmt.Errorf("%w: unknown gesture %q", ErrScript, g)
		}
	}
	for i, st := range s.Steps {
		n := 0
		if st.Event != nil {
			n++
		}
		if st.Wait != 0 {
			n++
		}
		if st.Expect != nil {
			n++
		}
		if n != 1 {
			return fmt.Errorf("%w: step %d: want exactly one of event, wait or expect", ErrScript, i)
		}
		switch {
		case st.Event != nil && st.Target == "":
			return fmt.Errorf("%w: step %d: event without target", ErrScript, i)
		case st.Wait < 0:
			return fmt.Errorf("%w: step %d: negative wait", ErrScript, i)
		case st.Expect != nil:
			if st.Expect.Target == "" {
				return fmt.Errorf("%w: step %d: expect without target", ErrScript, i)
			}
			for _, name := range st.Expect.Sequence {
				if !knownEvents[name] {
					return fmt.Errorf("%w: step %d: unknown event %q", ErrScript, i, name)
				}
			}
		}
	}
	return nil
}

func (s Script) gestures() []string {
	if len(s.Gestures) == 0 {
		return []string{"singletap"}
	}
	return s.Gestures
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := time.ParseDuration(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var ms float64
	if err := json.Unmarshal(b, &ms); err != nil {
		return fmt.Errorf("trace: duration %s: %w", b, err)
	}
	*d = Duration(ms * float64(time.Millisecond))
	return nil
}
