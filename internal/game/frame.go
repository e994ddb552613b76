package game

import (
	"context"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/fingershot/internal/aim"
	"github.com/ayusman/fingershot/internal/detector"
	"github.com/ayusman/fingershot/internal/store"
	"github.com/ayusman/fingershot/internal/target"
)

// Shot is the outcome of one hand holding the shoot gesture.
type Shot struct {
	Hand int
	Ray  aim.Ray
	Hit  bool
	// Target, Point and Distance are set only on a hit.
	Target   target.Target
	Point    mgl64.Vec3
	Distance float64
	Spawned  []target.Target
}

// FrameResult summarizes one handled frame.
type FrameResult struct {
	Frame    uint64
	Shots    []Shot
	Rejected int
}

// Hits returns the number of shots that hit a target.
func (r FrameResult) Hits() int {
	n := 0
	for _, s := range r.Shots {
		if s.Hit {
			n++
		}
	}
	return n
}

// HandleFrame runs the pipeline for every hand in ev, in order. Malformed
// hands are skipped and counted. A camera that cannot unproject aborts
// the frame before any target changes.
func (g *Game) HandleFrame(ctx context.Context, ev HandsDetected) (FrameResult, error) {
	g.frameMu.Lock()
	defer g.frameMu.Unlock()

	result := FrameResult{Frame: ev.Frame}
	g.frames.Add(1)

	g.mu.RLock()
	enabled := g.enabled
	classifier := g.classifier
	policy := g.policy
	g.mu.RUnlock()

	if !enabled {
		return result, nil
	}

	if ev.Rejected > 0 {
		result.Rejected += ev.Rejected
		g.rejected.Add(uint64(ev.Rejected))
	}

	cam := g.camera.Snapshot()

	for i := range ev.Hands {
		hand := &ev.Hands[i]
		g.hands.Add(1)

		if err := hand.Validate(); err != nil {
			log.Printf("Skipping hand %d of frame %d: %v", i, ev.Frame, err)
			result.Rejected++
			g.rejected.Add(1)
			continue
		}

		if !classifier.Classify(hand) {
			continue
		}

		ray, err := aim.ResolveRay(hand.Points[detector.IndexTip], cam)
		if err != nil {
			return result, fmt.Errorf("frame %d hand %d: %w", ev.Frame, i, err)
		}

		shot := Shot{Hand: i, Ray: ray}
		g.shots.Add(1)

		hit, spawned, ok := g.registry.Shoot(ray, policy)
		if ok {
			shot.Hit = true
			shot.Target = hit.Target
			shot.Point = hit.Point
			shot.Distance = hit.Distance
			shot.Spawned = spawned
			g.hits.Add(1)
			g.emitter.NotifyHit(hit.Point)
		} else {
			g.misses.Add(1)
		}

		result.Shots = append(result.Shots, shot)
		g.record(ctx, ev, shot)
	}

	return result, nil
}

func (g *Game) record(ctx context.Context, ev HandsDetected, shot Shot) {
	if g.recorder == nil || g.sessionID == "" {
		return
	}

	rec := &store.Shot{
		SessionID: g.sessionID,
		Frame:     ev.Frame,
		Hand:      shot.Hand,
		Hit:       shot.Hit,
		TargetID:  shot.Target.ID,
		X:         shot.Point.X(),
		Y:         shot.Point.Y(),
		Z:         shot.Point.Z(),
		Distance:  shot.Distance,
		CreatedAt: ev.At,
	}
	if err := g.recorder.RecordShot(ctx, rec); err != nil {
		log.Printf("Error recording shot: %v", err)
	}
}
