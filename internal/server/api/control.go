package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/fingershot/internal/game"
)

// ControlHandler pauses and resumes shooting.
type ControlHandler struct {
	game *game.Game
}

// NewControlHandler creates a ControlHandler.
func NewControlHandler(g *game.Game) *ControlHandler {
	return &ControlHandler{game: g}
}

type controlState struct {
	Enabled *bool `json:"enabled"`
}

// ServeHTTP handles GET and PUT /api/game.
func (h *ControlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req controlState
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		h.game.SetEnabled(*req.Enabled)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	enabled := h.game.IsEnabled()
	writeJSON(w, http.StatusOK, controlState{Enabled: &enabled})
}
