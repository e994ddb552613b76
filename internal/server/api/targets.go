package api

import (
	"net/http"

	"github.com/ayusman/fingershot/internal/target"
)

// TargetLister returns the live targets. target.Registry implements it.
type TargetLister interface {
	Targets() []target.Target
}

// TargetsHandler serves the live target set.
type TargetsHandler struct {
	targets TargetLister
}

// NewTargetsHandler creates a TargetsHandler.
func NewTargetsHandler(targets TargetLister) *TargetsHandler {
	return &TargetsHandler{targets: targets}
}

type targetsResponse struct {
	Targets []target.Target `json:"targets"`
	Count   int             `json:"count"`
}

// ServeHTTP handles GET /api/targets.
func (h *TargetsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	targets := h.targets.Targets()
	writeJSON(w, http.StatusOK, targetsResponse{Targets: targets, Count: len(targets)})
}
