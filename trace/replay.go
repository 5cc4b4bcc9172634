// SPDX-License-Identifier: Unlicense OR MIT

package trace

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"touchio.org/config"
	"touchio.org/f32"
	"touchio.org/gesture"
	"touchio.org/io/event"
	"touchio.org/io/pointer"
	"touchio.org/io/router"
	"touchio.org/timer"
)

// ErrMismatch is wrapped by Result.Err when an expectation failed.
var ErrMismatch = errors.New("trace: sequence mismatch")

// Result is the outcome of a replay.
type Result struct {
	Script string
	// Records lists every gesture event in the order reported.
	Records []Record
	// Paths lists the contact path of every press.
	Paths      []Path
	Mismatches []Mismatch
	// Elapsed is the virtual time at the end of the script.
	Elapsed time.Duration
}

// Record is a gesture event reported for a target.
type Record struct {
	Target string
	Event  gesture.TapEvent
}

// Path is the trail of a contact from press to release.
type Path struct {
	Target string
	// Start is the event that began the tap the path belongs to,
	// TypeTapStart or TypeDoubleTapStart. Session is zero for
	// presses that began no tap.
	Start   gesture.TapType
	Session uint32
	Points  []f32.Point
	Outcome Outcome
}

// Outcome classifies the fate of a single tap session.
type Outcome uint8

const (
	Pending Outcome = iota
	Completed
	Cancelled
)

// Mismatch is a failed expectation.
type Mismatch struct {
	Step   int
	Target string
	Want   []string
	Got    []string
}

// Replay runs s on a virtual clock, with a router target and one
// recognizer per gesture for every target named by the script.
func Replay(s Script, cfg config.GestureConfig) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	var (
		clock timer.Manual
		r     router.Router
		res   = Result{Script: s.Name}
		known = make(map[string]bool)
		open  = make(map[string]int)
	)
	r.MaxTargets = len(s.Steps) + 1
	r.Listen(func(tag event.Tag, e event.Event) {
		if te, ok := e.(gesture.TapEvent); ok {
			res.Records = append(res.Records, Record{Target: tag.(string), Event: te})
		}
	})
	attach := func(target string) {
		if known[target] {
			return
		}
		known[target] = true
		for _, g := range s.gestures() {
			switch g {
			case "singletap":
				r.Add(target, &gesture.SingleTap{Slop: cfg.Slop, Delay: cfg.Delay, Timers: &clock})
			case "doubletap":
				r.Add(target, &gesture.DoubleTap{Slop: cfg.Slop, Delay: cfg.Delay, Timers: &clock})
			}
		}
	}
	for i, st := range s.Steps {
		switch {
		case st.Event != nil:
			attach(st.Target)
			e := *st.Event
			e.Time = clock.Now()
			before := len(res.Records)
			r.Queue(st.Target, e)
			res.trackPath(st.Target, e, before, open)
		case st.Wait > 0:
			clock.Advance(time.Duration(st.Wait))
		case st.Expect != nil:
			attach(st.Expect.Target)
			got := names(r.Events(st.Expect.Target))
			if !slices.Equal(got, st.Expect.Sequence) {
				res.Mismatches = append(res.Mismatches, Mismatch{
					Step:   i,
					Target: st.Expect.Target,
					Want:   st.Expect.Sequence,
					Got:    got,
				})
			}
		}
	}
	res.Elapsed = clock.Now()
	res.classify()
	return res, nil
}

// trackPath extends the contact paths with e. Records from index
// before on were reported while handling e.
func (res *Result) trackPath(target string, e pointer.Event, before int, open map[string]int) {
	if e.Kind == pointer.Press {
		p := Path{Target: target, Points: []f32.Point{e.Location()}}
		for _, rec := range res.Records[before:] {
			if rec.Target != target {
				continue
			}
			switch rec.Event.Type {
			case gesture.TypeDoubleTapStart:
				p.Start, p.Session = rec.Event.Type, rec.Event.Session
			case gesture.TypeTapStart:
				if p.Session == 0 {
					p.Start, p.Session = rec.Event.Type, rec.Event.Session
				}
			}
		}
		if p.Session == 0 {
			// The second press of a double tap continues its session.
			if prev, ok := res.lastPath(target); ok && prev.Start == gesture.TypeDoubleTapStart && !res.ended(prev) {
				p.Start, p.Session = prev.Start, prev.Session
			}
		}
		res.Paths = append(res.Paths, p)
		open[target] = len(res.Paths)
		return
	}
	i, ok := open[target]
	if !ok {
		return
	}
	p := &res.Paths[i-1]
	p.Points = append(p.Points, e.Location())
	if e.Kind == pointer.Release || e.Kind == pointer.Cancel {
		delete(open, target)
	}
}

func (res *Result) lastPath(target string) (Path, bool) {
	for i := len(res.Paths) - 1; i >= 0; i-- {
		if res.Paths[i].Target == target {
			return res.Paths[i], true
		}
	}
	return Path{}, false
}

// ended reports whether the tap of p was reported complete or
// cancelled so far.
func (res *Result) ended(p Path) bool {
	return res.outcome(p) != Pending
}

func (res *Result) outcome(p Path) Outcome {
	if p.Session == 0 {
		return Pending
	}
	done, cancel := gesture.TypeTap, gesture.TypeTapCancel
	if p.Start == gesture.TypeDoubleTapStart {
		done, cancel = gesture.TypeDoubleTap, gesture.TypeDoubleTapCancel
	}
	for _, rec := range res.Records {
		if rec.Target != p.Target || rec.Event.Session != p.Session {
			continue
		}
		switch rec.Event.Type {
		case done:
			return Completed
		case cancel:
			return Cancelled
		}
	}
	return Pending
}

func (res *Result) classify() {
	for i := range res.Paths {
		res.Paths[i].Outcome = res.outcome(res.Paths[i])
	}
}

// Err returns nil if every expectation held, and an error wrapping
// ErrMismatch describing the failures otherwise.
func (res Result) Err() error {
	if len(res.Mismatches) == 0 {
		return nil
	}
	var b strings.Builder
	for _, m := range res.Mismatches {
		fmt.Fprintf(&b, "\n\tstep %d, target %q: want %v, got %v", m.Step, m.Target, m.Want, m.Got)
	}
	return fmt.Errorf("%w in %s:%s", ErrMismatch, res.Script, b.String())
}

func names(events []event.Event) []string {
	var ns []string
	for _, e := range events {
		if te, ok := e.(gesture.TapEvent); ok {
			ns = append(ns, te.Type.String())
		}
	}
	return ns
}

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "Pending"
	case Completed:
		return "Completed"
	case Cancelled:
		return "Cancelled"
	default:
		panic("invalid Outcome")
	}
}
