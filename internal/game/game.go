// Package game runs the per-frame shooting pipeline: classify each hand,
// resolve an aiming ray, shoot the target registry and report hits.
package game

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/fingershot/internal/aim"
	"github.com/ayusman/fingershot/internal/config"
	"github.com/ayusman/fingershot/internal/detector"
	"github.com/ayusman/fingershot/internal/effect"
	"github.com/ayusman/fingershot/internal/gesture"
	"github.com/ayusman/fingershot/internal/store"
	"github.com/ayusman/fingershot/internal/target"
)

// Pipeline constants.
const (
	// DefaultTargetCount is the live target population.
	DefaultTargetCount = 3
	// QueueSize is how many detected frames may wait for the pipeline.
	QueueSize = 4
	// TickInterval is how often target rotation advances.
	TickInterval = time.Second / 30
)

// ErrQueueFull is returned by Publish when the pipeline is still busy.
var ErrQueueFull = errors.New("frame queue full")

// HandsDetected is one frame's detector output.
type HandsDetected struct {
	Frame uint64
	At    time.Time
	Hands []detector.HandLandmarks
	// Rejected counts hands the source dropped as malformed before
	// publishing.
	Rejected int
}

// Recorder persists fired shots.
type Recorder interface {
	RecordShot(ctx context.Context, shot *store.Shot) error
}

// Config holds the collaborators of a Game. Nil fields get defaults.
type Config struct {
	Camera      *aim.Camera
	Classifier  gesture.Classifier
	Registry    *target.Registry
	Emitter     effect.Emitter
	Recorder    Recorder
	SessionID   string
	Policy      target.Policy
	TargetCount int
}

// Stats are in-memory counters since the game started.
type Stats struct {
	Frames   uint64 `json:"frames"`
	Hands    uint64 `json:"hands"`
	Rejected uint64 `json:"rejected"`
	Shots    uint64 `json:"shots"`
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
	Dropped  uint64 `json:"dropped"`
	Targets  int    `json:"targets"`
	Enabled  bool   `json:"enabled"`
}

// Game owns all state of one running game.
type Game struct {
	camera    *aim.Camera
	registry  *target.Registry
	emitter   effect.Emitter
	recorder  Recorder
	sessionID string

	// frameMu serializes frames and tuning swaps.
	frameMu sync.Mutex

	mu          sync.RWMutex
	classifier  gesture.Classifier
	policy      target.Policy
	targetCount int
	enabled     bool

	queue chan HandsDetected
	seq   atomic.Uint64

	frames, hands, rejected   atomic.Uint64
	shots, hits, misses, drop atomic.Uint64
}

// New creates a Game and fills the registry up to the target count.
// The game starts enabled.
func New(cfg Config) *Game {
	if cfg.Camera == nil {
		cfg.Camera = aim.NewCamera(aim.DefaultCameraConfig())
	}
	if cfg.Classifier == nil {
		cfg.Classifier = gesture.NewShootClassifier()
	}
	if cfg.Registry == nil {
		cfg.Registry = target.NewRegistry(target.DefaultConfig(), nil)
	}
	if cfg.Emitter == nil {
		cfg.Emitter = effect.Logger{}
	}
	if cfg.TargetCount < 0 {
		cfg.TargetCount = 0
	}

	g := &Game{
		camera:      cfg.Camera,
		registry:    cfg.Registry,
		emitter:     cfg.Emitter,
		recorder:    cfg.Recorder,
		sessionID:   cfg.SessionID,
		classifier:  cfg.Classifier,
		policy:      cfg.Policy,
		targetCount: cfg.TargetCount,
		enabled:     true,
		queue:       make(chan HandsDetected, QueueSize),
	}

	if n := cfg.TargetCount - g.registry.Len(); n > 0 {
		g.registry.Spawn(n)
	}

	return g
}

// Camera returns the shared camera model.
func (g *Game) Camera() *aim.Camera {
	return g.camera
}

// Registry returns the target registry.
func (g *Game) Registry() *target.Registry {
	return g.registry
}

// SessionID returns the session shots are recorded under.
func (g *Game) SessionID() string {
	return g.sessionID
}

// SetEnabled pauses or resumes shooting. Frames arriving while paused are
// counted and discarded.
func (g *Game) SetEnabled(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enabled = enabled
}

// IsEnabled returns whether shooting is enabled.
func (g *Game) IsEnabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.enabled
}

// ApplyTuning swaps classifier thresholds, spawn parameters, camera pose,
// respawn policy and target count between two frames. The camera keeps
// its current aspect ratio.
func (g *Game) ApplyTuning(t config.Tuning) {
	g.frameMu.Lock()
	defer g.frameMu.Unlock()

	g.mu.Lock()
	g.classifier = t.Classifier()
	g.policy = t.Policy()
	g.targetCount = t.Targets.Count
	g.mu.Unlock()

	g.registry.SetConfig(t.TargetConfig())
	g.camera.Update(t.CameraConfig(g.camera.Snapshot().Aspect))

	live := g.registry.Targets()
	switch {
	case len(live) < t.Targets.Count:
		g.registry.Spawn(t.Targets.Count - len(live))
	case len(live) > t.Targets.Count:
		for _, extra := range live[t.Targets.Count:] {
			if err := g.registry.Remove(extra.ID); err != nil {
				log.Printf("Error trimming targets: %v", err)
			}
		}
	}

	log.Printf("Applied tuning: %d targets, respawn %s", t.Targets.Count, t.Policy())
}

// Stats returns a snapshot of the in-memory counters.
func (g *Game) Stats() Stats {
	return Stats{
		Frames:   g.frames.Load(),
		Hands:    g.hands.Load(),
		Rejected: g.rejected.Load(),
		Shots:    g.shots.Load(),
		Hits:     g.hits.Load(),
		Misses:   g.misses.Load(),
		Dropped:  g.drop.Load(),
		Targets:  g.registry.Len(),
		Enabled:  g.IsEnabled(),
	}
}

// Publish queues a frame for the pipeline without blocking. Frames get
// sequence numbers in publish order; a zero timestamp is set to now. When
// the queue is full the frame is dropped and ErrQueueFull returned.
func (g *Game) Publish(ev HandsDetected) error {
	ev.Frame = g.seq.Add(1)
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	select {
	case g.queue <- ev:
		return nil
	default:
		g.drop.Add(1)
		return ErrQueueFull
	}
}

// Frames returns the queue Publish writes to.
func (g *Game) Frames() <-chan HandsDetected {
	return g.queue
}

// Tick advances target rotation by dt.
func (g *Game) Tick(dt time.Duration) {
	g.registry.Tick(dt.Seconds())
}

// Run consumes frames until events is closed or ctx is cancelled, and
// advances target rotation in between. Frame errors are logged.
func (g *Game) Run(ctx context.Context, events <-chan HandsDetected) error {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			g.Tick(now.Sub(last))
			last = now
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := g.HandleFrame(ctx, ev); err != nil {
				log.Printf("Error handling frame: %v", err)
			}
		}
	}
}
