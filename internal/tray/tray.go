// Package tray provides a system tray interface for pausing the game and
// watching the score.
package tray

import (
	"fmt"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/ayusman/fingershot/internal/game"
)

// refreshInterval is how often the score line is updated.
const refreshInterval = time.Second

// Controller is the part of the game the tray drives. game.Game
// implements it.
type Controller interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
	Stats() game.Stats
}

// Tray represents the system tray application.
type Tray struct {
	game   Controller
	onOpen func()
	onQuit func()
	mu     sync.RWMutex
	stop   chan struct{}

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuScore  *systray.MenuItem
}

// New creates a new Tray controlling g.
func New(g Controller) *Tray {
	return &Tray{
		game: g,
		stop: make(chan struct{}),
	}
}

// OnOpen sets the callback function to be called when the open menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Fingershot")
	systray.SetTooltip("Fingershot")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.game.IsEnabled()), "Pause or resume shooting")
	systray.AddSeparator()

	t.menuScore = systray.AddMenuItem(scoreTitle(t.game.Stats()), "Hits this run")
	t.menuScore.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open in Browser...", "Open the game in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Fingershot")

	go t.refresh()

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	close(t.stop)
}

// refresh keeps the score line and the toggle in sync with the game,
// which can also be paused over HTTP.
func (t *Tray) refresh() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			stats := t.game.Stats()
			t.mu.RLock()
			t.menuScore.SetTitle(scoreTitle(stats))
			t.menuToggle.SetTitle(toggleTitle(stats.Enabled))
			t.mu.RUnlock()
		}
	}
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	enabled := !t.game.IsEnabled()
	t.game.SetEnabled(enabled)

	t.mu.RLock()
	t.menuToggle.SetTitle(toggleTitle(enabled))
	t.mu.RUnlock()
}

// handleOpen handles the open menu item click.
func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Shooting"
	}
	return "○ Paused"
}

func scoreTitle(s game.Stats) string {
	if s.Shots == 0 {
		return "Hits: 0"
	}
	return fmt.Sprintf("Hits: %d / %d (%.0f%%)", s.Hits, s.Shots, 100*float64(s.Hits)/float64(s.Shots))
}
