// SPDX-License-Identifier: Unlicense OR MIT

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"touchio.org/app"
	"touchio.org/config"
	"touchio.org/gesture"
	"touchio.org/io/event"
	"touchio.org/io/pointer"
	"touchio.org/io/router"
)

// loopQueue is the number of pointer events a connection buffers
// ahead of its loop.
const loopQueue = 64

// Inbound is a pointer event for a target. The event time sent by
// the client, if any, is replaced by the time since the connection
// opened: settle windows run on the server clock, so gesture event
// times share its base.
type Inbound struct {
	Target string         `json:"target"`
	Event  *pointer.Event `json:"event"`
}

// Outbound is a recognized gesture event.
type Outbound struct {
	Conn    string          `json:"conn"`
	Target  string          `json:"target,omitempty"`
	Type    gesture.TapType `json:"type"`
	Session uint32          `json:"session,omitempty"`
	X       float32         `json:"x"`
	Y       float32         `json:"y"`
	TimeMS  float64         `json:"time_ms"`
}

// ErrorFrame reports a rejected inbound message.
type ErrorFrame struct {
	Conn  string `json:"conn"`
	Error string `json:"error"`
}

type wsConnection struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
	log     *logrus.Entry
	start   time.Time

	// Owned by the loop goroutine.
	loop   *app.Loop
	router router.Router
	cfg    config.Config
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ws := &wsConnection{
		id:    uuid.NewString(),
		conn:  conn,
		start: time.Now(),
		loop:  app.NewLoop(loopQueue),
		cfg:   s.cfg,
	}
	ws.log = s.log.WithFields(logrus.Fields{"conn": ws.id, "remote": r.RemoteAddr})
	ws.router.MaxTargets = s.cfg.Server.MaxTargets
	ws.router.Listen(ws.forward)

	ctx, cancel := context.WithCancel(r.Context())
	defer func() {
		cancel()
		<-ws.loop.Done()
	}()
	go ws.loop.Run(ctx)
	go func() {
		// Unblock ReadMessage on shutdown.
		<-ctx.Done()
		conn.Close()
	}()

	ws.log.Info("websocket connection opened")
	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			ws.log.WithError(err).Debug("websocket connection closed")
			break
		}
		if messageType != websocket.TextMessage {
			ws.sendError("only text messages accepted")
			continue
		}
		ws.handleMessage(message)
	}
}

func (ws *wsConnection) handleMessage(message []byte) {
	var in Inbound
	if err := json.Unmarshal(message, &in); err != nil {
		ws.sendError("parse error: " + err.Error())
		return
	}
	if err := in.validate(); err != nil {
		ws.sendError(err.Error())
		return
	}
	e := *in.Event
	e.Time = time.Since(ws.start)
	ws.log.WithFields(logrus.Fields{"target": in.Target, "kind": e.Kind}).Trace("pointer event")
	ws.loop.Post(func() {
		if !ws.router.Queue(in.Target, e) {
			tap := ws.cfg.SingleTap()
			tap.Timers = ws.loop
			ws.router.Add(in.Target, tap)
			ws.router.Queue(in.Target, e)
		}
	})
}

func (in Inbound) validate() error {
	switch {
	case in.Target == "":
		return errors.New("'target' is required")
	case in.Event == nil:
		return errors.New("'event' is required")
	}
	return nil
}

// forward sends a gesture event to the client. It runs on the loop.
func (ws *wsConnection) forward(tag event.Tag, e event.Event) {
	te, ok := e.(gesture.TapEvent)
	if !ok {
		return
	}
	// Drain the router queue; events are delivered as they happen.
	ws.router.Events(tag)
	out := Outbound{
		Conn:    ws.id,
		Target:  tag.(string),
		Type:    te.Type,
		Session: te.Session,
		X:       te.Position.X,
		Y:       te.Position.Y,
		TimeMS:  float64(te.Time) / float64(time.Millisecond),
	}
	ws.log.WithFields(logrus.Fields{"target": out.Target, "type": te.Type.String(), "session": te.Session}).Debug("gesture")
	if err := ws.sendJSON(out); err != nil {
		ws.log.WithError(err).Debug("write failed")
	}
}

func (ws *wsConnection) sendError(msg string) error {
	return ws.sendJSON(ErrorFrame{Conn: ws.id, Error: msg})
}

func (ws *wsConnection) sendJSON(v interface{}) error {
	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	return ws.conn.WriteJSON(v)
}
