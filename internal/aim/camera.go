// Package aim turns fingertip positions into world-space rays through a
// perspective camera.
package aim

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrDegenerateCamera is returned when the camera cannot unproject points.
var ErrDegenerateCamera = errors.New("degenerate camera")

// Lens and pose defaults for the game camera: a 75 degree perspective
// camera five units back from the origin, looking down -Z.
const (
	DefaultFovY   = 75.0
	DefaultAspect = 16.0 / 9.0
	DefaultNear   = 0.1
	DefaultFar    = 1000.0
)

// CameraConfig describes a perspective camera.
type CameraConfig struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
	Up       mgl64.Vec3
	// FovY is the vertical field of view in degrees.
	FovY   float64
	Aspect float64
	Near   float64
	Far    float64
}

// DefaultCameraConfig returns the standard game camera.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Position: mgl64.Vec3{0, 0, 5},
		Target:   mgl64.Vec3{0, 0, 0},
		Up:       mgl64.Vec3{0, 1, 0},
		FovY:     DefaultFovY,
		Aspect:   DefaultAspect,
		Near:     DefaultNear,
		Far:      DefaultFar,
	}
}

// Validate checks that the configuration yields invertible matrices.
func (c CameraConfig) Validate() error {
	switch {
	case !finite(c.FovY) || c.FovY <= 0 || c.FovY >= 180:
		return fmt.Errorf("%w: field of view %v", ErrDegenerateCamera, c.FovY)
	case !finite(c.Aspect) || c.Aspect <= 0:
		return fmt.Errorf("%w: aspect %v", ErrDegenerateCamera, c.Aspect)
	case !finite(c.Near) || !finite(c.Far) || c.Near <= 0 || c.Far <= c.Near:
		return fmt.Errorf("%w: clip planes %v..%v", ErrDegenerateCamera, c.Near, c.Far)
	case !finiteVec(c.Position) || !finiteVec(c.Target) || !finiteVec(c.Up):
		return fmt.Errorf("%w: non-finite pose", ErrDegenerateCamera)
	}

	forward := c.Target.Sub(c.Position)
	if forward.Len() < 1e-12 {
		return fmt.Errorf("%w: position equals target", ErrDegenerateCamera)
	}
	if forward.Normalize().Cross(c.Up).Len() < 1e-9 {
		return fmt.Errorf("%w: up vector parallel to view direction", ErrDegenerateCamera)
	}
	return nil
}

// View returns the world-to-camera matrix.
func (c CameraConfig) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position, c.Target, c.Up)
}

// Projection returns the perspective projection matrix.
func (c CameraConfig) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), c.Aspect, c.Near, c.Far)
}

// Camera is the shared camera model. The pipeline reads snapshots of it;
// viewport resizes mutate it from outside.
type Camera struct {
	mu     sync.RWMutex
	config CameraConfig
}

// NewCamera creates a Camera from config.
func NewCamera(config CameraConfig) *Camera {
	return &Camera{config: config}
}

// Snapshot returns the current camera configuration.
func (c *Camera) Snapshot() CameraConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// Resize updates the aspect ratio for a viewport of width x height pixels.
func (c *Camera) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: viewport %dx%d", ErrDegenerateCamera, width, height)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Aspect = float64(width) / float64(height)
	return nil
}

// Update replaces the lens and pose, keeping the current aspect ratio.
func (c *Camera) Update(config CameraConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	config.Aspect = c.config.Aspect
	c.config = config
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteVec(v mgl64.Vec3) bool {
	return finite(v[0]) && finite(v[1]) && finite(v[2])
}
