package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/fingershot/internal/aim"
)

// CameraHandler reads and resizes the game camera.
type CameraHandler struct {
	camera *aim.Camera
}

// NewCameraHandler creates a CameraHandler.
func NewCameraHandler(camera *aim.Camera) *CameraHandler {
	return &CameraHandler{camera: camera}
}

type resizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type cameraResponse struct {
	Position [3]float64 `json:"position"`
	Target   [3]float64 `json:"target"`
	Up       [3]float64 `json:"up"`
	Fov      float64    `json:"fov"`
	Aspect   float64    `json:"aspect"`
	Near     float64    `json:"near"`
	Far      float64    `json:"far"`
}

// ServeHTTP handles GET and PUT /api/camera.
func (h *CameraHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w)
	case http.MethodPut:
		h.resize(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *CameraHandler) get(w http.ResponseWriter) {
	c := h.camera.Snapshot()
	writeJSON(w, http.StatusOK, cameraResponse{
		Position: c.Position,
		Target:   c.Target,
		Up:       c.Up,
		Fov:      c.FovY,
		Aspect:   c.Aspect,
		Near:     c.Near,
		Far:      c.Far,
	})
}

// resize handles PUT /api/camera with the new viewport size.
func (h *CameraHandler) resize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.camera.Resize(req.Width, req.Height); err != nil {
		if errors.Is(err, aim.ErrDegenerateCamera) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to resize camera")
		return
	}

	h.get(w)
}
