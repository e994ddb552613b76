// Package main provides a hit hook plugin that plays a sound on every hit.
// It uses afplay on macOS and paplay elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// Request represents the input from the plugin executor.
type Request struct {
	Event     string          `json:"event"`
	Point     [3]float64      `json:"point"`
	Timestamp int64           `json:"timestamp"`
	Config    json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the plugin's manifest config.
type Config struct {
	Sound string `json:"sound"`
}

func main() {
	// Read request from stdin
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Event != "hit" {
		writeErrorResponse(fmt.Sprintf("unknown event: %s", req.Event))
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}
	if cfg.Sound == "" {
		writeErrorResponse("no sound configured")
		return
	}

	if err := play(cfg.Sound); err != nil {
		writeErrorResponse(fmt.Sprintf("play %s failed: %v", cfg.Sound, err))
		return
	}

	writeSuccessResponse()
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	resp := Response{
		Success: false,
		Error:   errMsg,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	resp := Response{
		Success: true,
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// play runs the platform audio player and waits for it to finish.
func play(path string) error {
	player := "paplay"
	if runtime.GOOS == "darwin" {
		player = "afplay"
	}
	output, err := exec.Command(player, path).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
