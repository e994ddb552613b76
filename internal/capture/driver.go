package capture

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/fingershot/internal/detector"
	"github.com/ayusman/fingershot/internal/game"
)

// Frame rates. The driver idles until the motion gate sees movement.
const (
	DefaultIdleFPS   = 5
	DefaultActiveFPS = 30
)

// Publisher accepts detected frames. game.Game implements it.
type Publisher interface {
	Publish(ev game.HandsDetected) error
}

// DriverConfig tunes the capture loop.
type DriverConfig struct {
	IdleFPS   int
	ActiveFPS int
	// IdleTimeout is how long without motion before dropping to IdleFPS.
	IdleTimeout time.Duration
	// MotionThreshold is the changed-pixel percentage that counts as
	// motion. Zero or less disables gating: every frame is detected.
	MotionThreshold float64
}

// DefaultDriverConfig returns the standard capture settings.
func DefaultDriverConfig() DriverConfig {
	return DriverConfig{
		IdleFPS:         DefaultIdleFPS,
		ActiveFPS:       DefaultActiveFPS,
		IdleTimeout:     2 * time.Second,
		MotionThreshold: 1.0,
	}
}

// Driver reads frames from a camera, runs the hand detector and publishes
// the results. It also keeps the latest frame as JPEG for the preview
// stream.
type Driver struct {
	camera    Camera
	detector  detector.Detector
	publisher Publisher
	config    DriverConfig
	motion    *MotionGate

	active     atomic.Bool
	lastMotion time.Time

	mu      sync.RWMutex
	jpeg    []byte
	jpegSeq uint64
}

// NewDriver creates a Driver. It does not open the camera.
func NewDriver(camera Camera, det detector.Detector, pub Publisher, config DriverConfig) *Driver {
	d := &Driver{
		camera:    camera,
		detector:  det,
		publisher: pub,
		config:    config,
	}
	if config.MotionThreshold > 0 {
		d.motion = NewMotionGate(config.MotionThreshold)
	} else {
		d.active.Store(true)
	}
	return d
}

// Run opens the camera and loops until ctx is cancelled. The camera and
// the motion gate are released on return.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := d.camera.Close(); err != nil {
			log.Printf("Error closing camera: %v", err)
		}
		if d.motion != nil {
			d.motion.Close()
		}
	}()

	fps := d.fps()
	d.camera.SetFPS(fps)
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	log.Println("Capture started")
	for {
		select {
		case <-ctx.Done():
			log.Println("Capture stopped")
			return ctx.Err()
		case now := <-ticker.C:
			changed, err := d.Step(now)
			if err != nil {
				log.Printf("Capture: %v", err)
			}
			if changed {
				fps := d.fps()
				d.camera.SetFPS(fps)
				ticker.Reset(time.Second / time.Duration(fps))
			}
		}
	}
}

// Step processes one frame. It reports whether the driver switched
// between idle and active mode.
func (d *Driver) Step(now time.Time) (bool, error) {
	frame, err := d.camera.ReadFrame()
	if err != nil {
		return false, fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	d.storeJPEG(frame)

	changed := false
	if d.motion != nil {
		moved, _ := d.motion.Moved(frame)
		switch {
		case moved:
			d.lastMotion = now
			if d.active.CompareAndSwap(false, true) {
				changed = true
				log.Println("Switched to active mode")
			}
		case d.active.Load() && now.Sub(d.lastMotion) > d.config.IdleTimeout:
			d.active.Store(false)
			changed = true
			log.Println("Switched to idle mode")
		}
	}

	if !d.active.Load() {
		return changed, nil
	}

	hands, err := d.detector.Detect(frame)
	if err != nil {
		return changed, fmt.Errorf("detect hands: %w", err)
	}
	rejected := 0
	if rc, ok := d.detector.(detector.RejectCounter); ok {
		rejected = rc.Rejected()
	}
	if len(hands) == 0 && rejected == 0 {
		return changed, nil
	}

	// A full queue means the game is still busy; the frame is stale anyway.
	_ = d.publisher.Publish(game.HandsDetected{At: now, Hands: hands, Rejected: rejected})
	return changed, nil
}

// Active reports whether the driver is running the detector.
func (d *Driver) Active() bool {
	return d.active.Load()
}

// LatestJPEG returns the most recent frame as JPEG and its sequence
// number. The sequence is zero until the first frame arrives.
func (d *Driver) LatestJPEG() ([]byte, uint64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.jpeg, d.jpegSeq
}

func (d *Driver) storeJPEG(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return
	}
	defer buf.Close()

	data := append([]byte(nil), buf.GetBytes()...)

	d.mu.Lock()
	d.jpeg = data
	d.jpegSeq++
	d.mu.Unlock()
}

func (d *Driver) fps() int {
	if d.active.Load() {
		return max(d.config.ActiveFPS, 1)
	}
	return max(d.config.IdleFPS, 1)
}
