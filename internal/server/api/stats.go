package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/ayusman/fingershot/internal/game"
	"github.com/ayusman/fingershot/internal/store"
)

// maxRecentShots caps the recent query parameter.
const maxRecentShots = 100

// StatsHandler reports live counters and the recorded session statistics.
type StatsHandler struct {
	game  *game.Game
	store *store.Store
}

// NewStatsHandler creates a StatsHandler. s may be nil when no shot log
// is kept.
func NewStatsHandler(g *game.Game, s *store.Store) *StatsHandler {
	return &StatsHandler{game: g, store: s}
}

type statsResponse struct {
	Live    game.Stats    `json:"live"`
	Session *store.Stats  `json:"session,omitempty"`
	Recent  []*store.Shot `json:"recent,omitempty"`
}

// ServeHTTP handles GET /api/stats?recent=N.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	recent := 0
	if v := r.URL.Query().Get("recent"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "recent must be a non-negative integer")
			return
		}
		recent = min(n, maxRecentShots)
	}

	resp := statsResponse{Live: h.game.Stats()}

	sessionID := h.game.SessionID()
	if h.store != nil && sessionID != "" {
		st, err := h.store.Shots().Stats(r.Context(), sessionID)
		if err != nil {
			log.Printf("Failed to load session stats: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to load stats")
			return
		}
		resp.Session = st

		if recent > 0 {
			shots, err := h.store.Shots().ListBySession(r.Context(), sessionID, recent)
			if err != nil {
				log.Printf("Failed to load recent shots: %v", err)
				writeError(w, http.StatusInternalServerError, "failed to load shots")
				return
			}
			resp.Recent = shots
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
