// SPDX-License-Identifier: Unlicense OR MIT

package trace

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"

	"touchio.org/config"
	"touchio.org/f32"
	"touchio.org/gesture"
)

func gestureConfig() config.GestureConfig {
	return config.Default().Gesture
}

func TestReplaySingleTapScript(t *testing.T) {
	s, err := ReadFile("testdata/singletap.json")
	require.NoError(t, err)
	assert.Equal(t, "single tap", s.Name)

	res, err := Replay(s, gestureConfig())
	require.NoError(t, err)
	require.NoError(t, res.Err())

	require.Len(t, res.Paths, 6)
	var outcomes []Outcome
	for _, p := range res.Paths {
		outcomes = append(outcomes, p.Outcome)
	}
	// The press that cancels a settling tap begins no tap of its own.
	assert.Equal(t, []Outcome{Cancelled, Cancelled, Completed, Cancelled, Pending, Completed}, outcomes)
	assert.Equal(t, uint32(0), res.Paths[4].Session)

	last := res.Records[len(res.Records)-1]
	assert.Equal(t, "touchboard", last.Target)
	assert.Equal(t, gesture.TypeTap, last.Event.Type)
	assert.Equal(t, uint32(5), last.Event.Session)
}

func TestReplayMismatch(t *testing.T) {
	s, err := Decode(strings.NewReader(`{
		"name": "early",
		"steps": [
			{"target": "a", "event": {"kind": "start"}},
			{"target": "a", "event": {"kind": "end"}},
			{"wait": "100ms"},
			{"expect": {"target": "a", "sequence": ["singletapstart", "singletap"]}},
			{"expect": {"target": "b", "sequence": []}}
		]
	}`))
	require.NoError(t, err)
	res, err := Replay(s, gestureConfig())
	require.NoError(t, err)
	require.Len(t, res.Mismatches, 1)
	m := res.Mismatches[0]
	assert.Equal(t, 3, m.Step)
	assert.Equal(t, []string{"singletapstart"}, m.Got)
	assert.True(t, errors.Is(res.Err(), ErrMismatch))
	assert.Equal(t, 100*time.Millisecond, res.Elapsed)
}

func TestReplayDoubleTap(t *testing.T) {
	s, err := Decode(strings.NewReader(`{
		"gestures": ["singletap", "doubletap"],
		"steps": [
			{"target": "a", "event": {"kind": "start", "x": 1, "y": 1}},
			{"target": "a", "event": {"kind": "end", "x": 1, "y": 1}},
			{"wait": 50},
			{"target": "a", "event": {"kind": "start", "x": 2, "y": 2}},
			{"target": "a", "event": {"kind": "end", "x": 2, "y": 2}},
			{"expect": {"target": "a", "sequence": [
				"singletapstart", "doubletapstart", "singletapcancel", "doubletap"
			]}}
		]
	}`))
	require.NoError(t, err)
	res, err := Replay(s, gestureConfig())
	require.NoError(t, err)
	assert.NoError(t, res.Err())
	require.Len(t, res.Paths, 2)
	for _, p := range res.Paths {
		assert.Equal(t, gesture.TypeDoubleTapStart, p.Start)
		assert.Equal(t, uint32(1), p.Session)
		assert.Equal(t, Completed, p.Outcome)
	}
}

func TestReplayDoubleTapOnly(t *testing.T) {
	s, err := Decode(strings.NewReader(`{
		"gestures": ["doubletap"],
		"steps": [
			{"target": "a", "event": {"kind": "start"}},
			{"target": "a", "event": {"kind": "end"}},
			{"wait": 50},
			{"target": "a", "event": {"kind": "start", "x": 1, "y": 1}},
			{"target": "a", "event": {"kind": "end", "x": 1, "y": 1}},
			{"target": "a", "event": {"kind": "start"}},
			{"target": "a", "event": {"kind": "move", "x": 40, "y": 0}},
			{"target": "a", "event": {"kind": "end", "x": 40, "y": 0}},
			{"target": "a", "event": {"kind": "start"}},
			{"target": "a", "event": {"kind": "end"}},
			{"expect": {"target": "a", "sequence": [
				"doubletapstart", "doubletap",
				"doubletapstart", "doubletapcancel",
				"doubletapstart"
			]}}
		]
	}`))
	require.NoError(t, err)
	res, err := Replay(s, gestureConfig())
	require.NoError(t, err)
	require.NoError(t, res.Err())

	var outcomes []Outcome
	for _, p := range res.Paths {
		outcomes = append(outcomes, p.Outcome)
	}
	assert.Equal(t, []Outcome{Completed, Completed, Cancelled, Pending}, outcomes)

	// The second press of the double tap is drawn as completed.
	img, err := Rasterize(res)
	require.NoError(t, err)
	var pts []f32.Point
	for _, p := range res.Paths {
		pts = append(pts, p.Points...)
	}
	end := fit(f32.Bounds(pts...))(f32.Pt(1, 1))
	assert.Equal(t, colornames.Green, img.RGBAAt(int(end.X), int(end.Y)))
}

func TestScriptValidation(t *testing.T) {
	for _, src := range []string{
		`{"steps": [{"event": {"kind": "start"}}]}`,
		`{"steps": [{"target": "a"}]}`,
		`{"steps": [{"target": "a", "event": {"kind": "start"}, "wait": "1s"}]}`,
		`{"steps": [{"wait": "-1s"}]}`,
		`{"steps": [{"expect": {"sequence": []}}]}`,
		`{"steps": [{"expect": {"target": "a", "sequence": ["tap"]}}]}`,
		`{"gestures": ["pinch"], "steps": []}`,
	} {
		_, err := Decode(strings.NewReader(src))
		assert.True(t, errors.Is(err, ErrScript), "%s: got %v", src, err)
	}
	_, err := Decode(strings.NewReader(`{"steps": [], "extra": 1}`))
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	s, err := ReadFile("testdata/singletap.json")
	require.NoError(t, err)
	res, err := Replay(s, gestureConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, res))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, renderSize, img.Bounds().Dx())

	// The origin of every path maps to the top left margin.
	r, g, b, _ := img.At(renderMargin, renderMargin).RGBA()
	wr, wg, wb, _ := colornames.White.RGBA()
	assert.False(t, r == wr && g == wg && b == wb, "expected a path at the origin")

	_, err = Rasterize(Result{})
	assert.Error(t, err)
}
