package server

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"

	"github.com/ayusman/fingershot/internal/aim"
)

// Per-client limits of the event stream.
const (
	eventBuffer  = 16
	writeTimeout = 2 * time.Second
)

// HitEvent is sent to overlay clients on every hit. Screen is in
// normalized frame coordinates, the same space as landmarks.
type HitEvent struct {
	Type      string  `json:"type"`
	Point     Vec     `json:"point"`
	Screen    *Screen `json:"screen,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// Vec is a world-space point.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Screen is a normalized screen position, origin top-left.
type Screen struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EventHub broadcasts hit events to WebSocket clients. It implements
// effect.Emitter; a slow client loses events instead of stalling the game.
type EventHub struct {
	camera  *aim.Camera
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan HitEvent
}

// NewEventHub creates an EventHub projecting hits through camera.
func NewEventHub(camera *aim.Camera) *EventHub {
	return &EventHub{
		camera:  camera,
		clients: make(map[*websocket.Conn]chan HitEvent),
	}
}

// NotifyHit queues a hit event for every connected client.
func (h *EventHub) NotifyHit(point mgl64.Vec3) {
	ev := HitEvent{
		Type:      "hit",
		Point:     Vec{X: point.X(), Y: point.Y(), Z: point.Z()},
		Timestamp: time.Now().UnixMilli(),
	}
	if h.camera != nil {
		if nx, ny, ok := aim.Project(point, h.camera.Snapshot()); ok {
			ev.Screen = &Screen{X: (nx + 1) / 2, Y: (1 - ny) / 2}
		}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := make(chan HitEvent, eventBuffer)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// The read loop only notices disconnects.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case ev := <-ch:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
