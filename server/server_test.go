// SPDX-License-Identifier: Unlicense OR MIT

package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"touchio.org/config"
	"touchio.org/gesture"
	tlog "touchio.org/internal/log"
)

type frame struct {
	Outbound
	Error string `json:"error"`
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Gesture.Delay = 30 * time.Millisecond
	return cfg
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestWebSocketSingleTap(t *testing.T) {
	ts := httptest.NewServer(New(testConfig(), tlog.Discard()).Handler())
	defer ts.Close()
	conn := dial(t, ts)

	send(t, conn, `{"target": "board", "event": {"kind": "touchstart", "clientX": 0, "clientY": 0}}`)
	send(t, conn, `{"target": "board", "event": {"kind": "touchmove", "clientX": 5, "clientY": 5}}`)
	send(t, conn, `{"target": "board", "event": {"kind": "touchend", "clientX": 5, "clientY": 5}}`)

	start := read(t, conn)
	assert.Equal(t, gesture.TypeTapStart, start.Type)
	assert.Equal(t, "board", start.Target)
	assert.Equal(t, uint32(1), start.Session)
	assert.NotEmpty(t, start.Conn)

	tap := read(t, conn)
	assert.Equal(t, gesture.TypeTap, tap.Type)
	assert.Equal(t, float32(5), tap.X)
	assert.Equal(t, start.Conn, tap.Conn)
}

func TestWebSocketTargets(t *testing.T) {
	ts := httptest.NewServer(New(testConfig(), tlog.Discard()).Handler())
	defer ts.Close()
	conn := dial(t, ts)

	send(t, conn, `{"target": "a", "event": {"kind": "start"}}`)
	send(t, conn, `{"target": "b", "event": {"kind": "start"}}`)
	send(t, conn, `{"target": "b", "event": {"kind": "move", "x": 100, "y": 100}}`)

	var got []string
	for i := 0; i < 3; i++ {
		f := read(t, conn)
		got = append(got, f.Target+":"+f.Type.String())
	}
	assert.Equal(t, []string{"a:singletapstart", "b:singletapstart", "b:singletapcancel"}, got)
}

func TestWebSocketEventTime(t *testing.T) {
	ts := httptest.NewServer(New(testConfig(), tlog.Discard()).Handler())
	defer ts.Close()
	conn := dial(t, ts)

	send(t, conn, `{"target": "a", "event": {"kind": "start", "time_ms": 999999}}`)
	send(t, conn, `{"target": "a", "event": {"kind": "end"}}`)

	start := read(t, conn)
	tap := read(t, conn)
	require.Equal(t, gesture.TypeTap, tap.Type)
	assert.Less(t, start.TimeMS, float64(999999))
	// The tap completes a settle window after the release.
	assert.GreaterOrEqual(t, tap.TimeMS-start.TimeMS, float64(30))
	assert.Less(t, tap.TimeMS, float64(60000))
}

func TestWebSocketErrors(t *testing.T) {
	ts := httptest.NewServer(New(testConfig(), tlog.Discard()).Handler())
	defer ts.Close()
	conn := dial(t, ts)

	for _, msg := range []string{
		`not json`,
		`{"event": {"kind": "start"}}`,
		`{"target": "a"}`,
		`{"target": "a", "event": {"kind": "hover"}}`,
	} {
		send(t, conn, msg)
		f := read(t, conn)
		assert.NotEmpty(t, f.Error, msg)
	}
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{1}))
	assert.Contains(t, read(t, conn).Error, "text")
}

func TestOrigin(t *testing.T) {
	ts := httptest.NewServer(New(testConfig(), tlog.Discard()).Handler())
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	cfg := testConfig()
	cfg.Server.AllowOrigin = true
	open := httptest.NewServer(New(cfg, tlog.Discard()).Handler())
	defer open.Close()
	url = "ws" + strings.TrimPrefix(open.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://example.com"}})
	require.NoError(t, err)
	conn.Close()
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(testConfig(), tlog.Discard()).Serve(ctx, ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestOutboundJSON(t *testing.T) {
	b, err := json.Marshal(Outbound{Conn: "c", Target: "t", Type: gesture.TypeTapCancel, Session: 2})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"type":"singletapcancel"`)
}
