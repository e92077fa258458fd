// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/strapdown/internal/config"
	"github.com/relabs-tech/strapdown/internal/orientation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const (
	wsWriteWait  = 2 * time.Second
	wsSendBuffer = 8
)

// Hub keeps the latest attitude and fans updates out to websocket clients.
type Hub struct {
	mu   sync.RWMutex
	last orientation.Attitude
	have bool
	subs map[chan orientation.Attitude]struct{}
}

// NewHub returns a Hub with no clients and no attitude yet.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan orientation.Attitude]struct{})}
}

// Update stores a and offers it to every subscriber. Slow subscribers miss
// updates rather than block the MQTT callback.
func (h *Hub) Update(a orientation.Attitude) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = a
	h.have = true
	for ch := range h.subs {
		select {
		case ch <- a:
		default:
		}
	}
}

// Latest returns the last attitude and whether one has arrived yet.
func (h *Hub) Latest() (orientation.Attitude, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last, h.have
}

func (h *Hub) subscribe() (chan orientation.Attitude, func()) {
	ch := make(chan orientation.Attitude, wsSendBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

// Handler serves the JSON API, the attitude websocket and static files.
func (h *Hub) Handler(staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/orientation", h.handleOrientation)
	mux.HandleFunc("/api/attitude", h.handleAttitude)
	mux.HandleFunc("/ws/attitude", h.handleAttitudeWS)
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

func (h *Hub) handleOrientation(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Latest()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, a.Pose)
}

func (h *Hub) handleAttitude(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Latest()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, a)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// handleAttitudeWS sends the latest attitude, if any, then every update.
func (h *Hub) handleAttitudeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch, cancel := h.subscribe()
	defer cancel()

	// The client never sends anything useful; reading detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if a, ok := h.Latest(); ok {
		if err := writeWS(conn, a); err != nil {
			return
		}
	}

	for {
		select {
		case a := <-ch:
			if err := writeWS(conn, a); err != nil {
				log.Printf("web: websocket write error: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}

func writeWS(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(v)
}

// RunWeb serves the latest attitude received over MQTT.
func RunWeb() error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("web: config not initialized")
	}

	hub := NewHub()

	client, err := connectMQTT("web", cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribeJSON(client, "web", cfg.TopicAttitude, hub.Update); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: serving %s, listening on %s", cfg.WebStaticDir, addr)
	return http.ListenAndServe(addr, hub.Handler(cfg.WebStaticDir))
}
