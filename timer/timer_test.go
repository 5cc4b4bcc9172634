// SPDX-License-Identifier: Unlicense OR MIT

package timer

import (
	"reflect"
	"testing"
	"time"
)

func TestManualOrder(t *testing.T) {
	var m Manual
	var got []string
	m.AfterFunc(30*time.Millisecond, func() { got = append(got, "c") })
	m.AfterFunc(10*time.Millisecond, func() { got = append(got, "a") })
	m.AfterFunc(10*time.Millisecond, func() { got = append(got, "b") })
	m.Advance(20 * time.Millisecond)
	if want := []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if m.Now() != 20*time.Millisecond {
		t.Errorf("got now %v", m.Now())
	}
	m.Advance(10 * time.Millisecond)
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if m.Pending() != 0 {
		t.Errorf("%d callbacks still pending", m.Pending())
	}
}

func TestManualStop(t *testing.T) {
	var m Manual
	fired := false
	h := m.AfterFunc(time.Second, func() { fired = true })
	if !h.Stop() {
		t.Error("Stop of an armed timer returned false")
	}
	if h.Stop() {
		t.Error("second Stop returned true")
	}
	m.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
	h = m.AfterFunc(0, func() {})
	m.Advance(0)
	if h.Stop() {
		t.Error("Stop after firing returned true")
	}
}

func TestManualNested(t *testing.T) {
	var m Manual
	var at []time.Duration
	m.AfterFunc(10*time.Millisecond, func() {
		at = append(at, m.Now())
		m.AfterFunc(5*time.Millisecond, func() {
			at = append(at, m.Now())
		})
	})
	m.Advance(100 * time.Millisecond)
	if want := []time.Duration{10 * time.Millisecond, 15 * time.Millisecond}; !reflect.DeepEqual(at, want) {
		t.Errorf("got %v, want %v", at, want)
	}
	if m.Now() != 100*time.Millisecond {
		t.Errorf("got now %v", m.Now())
	}
}

func TestSystem(t *testing.T) {
	done := make(chan struct{})
	System{}.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("System timer did not fire")
	}
	h := System{}.AfterFunc(time.Hour, func() {})
	if !h.Stop() {
		t.Error("Stop of a pending System timer returned false")
	}
}
