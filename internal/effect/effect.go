// Package effect delivers hit notifications to presentation layers.
package effect

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"
)

// Emitter receives world-space hit points. Implementations must not block
// the caller; the frame pipeline ignores anything they do.
type Emitter interface {
	NotifyHit(point mgl64.Vec3)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(point mgl64.Vec3)

// NotifyHit calls f(point).
func (f EmitterFunc) NotifyHit(point mgl64.Vec3) {
	f(point)
}

// Multi fans a hit out to several emitters in order.
type Multi []Emitter

// NotifyHit forwards the hit to every non-nil emitter.
func (m Multi) NotifyHit(point mgl64.Vec3) {
	for _, e := range m {
		if e != nil {
			e.NotifyHit(point)
		}
	}
}

// Logger logs every hit.
type Logger struct{}

// NotifyHit logs the hit point.
func (Logger) NotifyHit(point mgl64.Vec3) {
	log.Printf("Target hit at (%.2f, %.2f, %.2f)", point.X(), point.Y(), point.Z())
}
