// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pdiddy/signal-engine/pkg/types"
)

const (
	writeDeadline = 5 * time.Second
	pingInterval  = 30 * time.Second
	pongDeadline  = 60 * time.Second
)

// pressureUpdate is pushed to stream clients on connect and after every
// store change.
type pressureUpdate struct {
	LoopPressure      float64             `json:"loopPressure"`
	LoopPressureTrend types.PressureTrend `json:"loopPressureTrend"`
	SignalCount       int                 `json:"signalCount"`
	LastUpdated       *time.Time          `json:"lastUpdated,omitempty"`
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin admits requests without an Origin header, same-host
// origins, and the configured CORS origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(s.cfg.CORSOrigins, "*") || slices.Contains(s.cfg.CORSOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

func (s *Server) snapshot() pressureUpdate {
	st := s.engine.State(s.engine.Now())
	return pressureUpdate{
		LoopPressure:      st.LoopPressure,
		LoopPressureTrend: st.LoopPressureTrend,
		SignalCount:       len(st.Signals),
		LastUpdated:       st.LastUpdated,
	}
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := s.engine.Subscribe()
	defer s.engine.Unsubscribe(sub.ID)

	// Reads only keep the pong handler running and detect disconnects.
	done := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(pongDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongDeadline))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(v any) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := conn.WriteJSON(v); err != nil {
			slog.Debug("stream write failed", "error", err)
			return false
		}
		return true
	}

	if !send(s.snapshot()) {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case _, ok := <-sub.C:
			if !ok || !send(s.snapshot()) {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
