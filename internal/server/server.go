// Package server provides the HTTP and WebSocket server of the game.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/fingershot/internal/game"
	"github.com/ayusman/fingershot/internal/server/api"
	"github.com/ayusman/fingershot/internal/store"
)

// Config holds the server configuration. Routes whose collaborators are
// nil are not registered.
type Config struct {
	StaticDir string
	Game      *game.Game
	Store     *store.Store
	Events    *EventHub
	Frames    FrameSource
}

// Server represents the HTTP server of the game.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if g := s.config.Game; g != nil {
		s.mux.Handle("/api/targets", api.NewTargetsHandler(g.Registry()))
		s.mux.Handle("/api/stats", api.NewStatsHandler(g, s.config.Store))
		s.mux.Handle("/api/camera", api.NewCameraHandler(g.Camera()))
		s.mux.Handle("/api/game", api.NewControlHandler(g))
		s.mux.Handle("/api/landmarks", NewLandmarksHandler(g))
	}

	if s.config.Events != nil {
		s.mux.Handle("/api/events", s.config.Events)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Game != nil {
		response["enabled"] = s.config.Game.IsEnabled()
		response["session"] = s.config.Game.SessionID()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// HTTPServer wraps the server in an http.Server listening on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
