package plugin

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// HitHooks runs every plugin subscribed to EventHit whenever a target is
// hit. Plugins run in the background so the frame pipeline never waits.
type HitHooks struct {
	manager  *Manager
	executor *Executor
	wg       sync.WaitGroup
}

// NewHitHooks creates hit hooks backed by manager and executor.
func NewHitHooks(manager *Manager, executor *Executor) *HitHooks {
	return &HitHooks{manager: manager, executor: executor}
}

// NotifyHit starts the subscribed plugins and returns immediately.
func (h *HitHooks) NotifyHit(point mgl64.Vec3) {
	subscribers := h.manager.Subscribers(EventHit)
	if len(subscribers) == 0 {
		return
	}

	now := time.Now().UnixMilli()
	for _, p := range subscribers {
		req := &Request{
			Event:     EventHit,
			Point:     [3]float64(point),
			Timestamp: now,
		}

		h.wg.Add(1)
		go func(p *Plugin) {
			defer h.wg.Done()
			resp, err := h.executor.Execute(context.Background(), p, req)
			if err != nil {
				log.Printf("Hit hook %s: %v", p.Manifest.Name, err)
				return
			}
			if !resp.Success {
				log.Printf("Hit hook %s reported failure: %s", p.Manifest.Name, resp.Error)
			}
		}(p)
	}
}

// Wait blocks until every running hook has finished.
func (h *HitHooks) Wait() {
	h.wg.Wait()
}
