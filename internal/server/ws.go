package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/fingershot/internal/detector"
	"github.com/ayusman/fingershot/internal/game"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Publisher accepts detected frames. game.Game implements it.
type Publisher interface {
	Publish(ev game.HandsDetected) error
}

// LandmarksHandler ingests hand landmarks from a browser running the
// detector. Each text message is one frame:
//
//	{"hands":[{"points":[{"x":..,"y":..,"z":..}, ...],"handedness":"Right","score":0.9}],"timestamp":ms}
//
// and is answered with an ack so clients can pace themselves.
type LandmarksHandler struct {
	publisher Publisher
}

// NewLandmarksHandler creates a LandmarksHandler publishing to p.
func NewLandmarksHandler(p Publisher) *LandmarksHandler {
	return &LandmarksHandler{publisher: p}
}

// ackMessage answers one landmark frame.
type ackMessage struct {
	Type     string `json:"type"`
	Accepted int    `json:"accepted"`
	Rejected int    `json:"rejected"`
	Dropped  bool   `json:"dropped,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		ack := h.ingest(data)
		if err := conn.WriteJSON(ack); err != nil {
			return
		}
	}
}

func (h *LandmarksHandler) ingest(data []byte) ackMessage {
	var payload detector.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return ackMessage{Type: "error", Error: "invalid landmark payload"}
	}

	hands, rejected := payload.ToHands()
	ack := ackMessage{Type: "ack", Accepted: len(hands), Rejected: rejected}

	at := time.Now()
	if payload.Timestamp > 0 {
		at = time.UnixMilli(payload.Timestamp)
	}

	err := h.publisher.Publish(game.HandsDetected{At: at, Hands: hands, Rejected: rejected})
	if errors.Is(err, game.ErrQueueFull) {
		ack.Dropped = true
	} else if err != nil {
		ack.Type = "error"
		ack.Error = err.Error()
	}
	return ack
}
