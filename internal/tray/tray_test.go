package tray

import (
	"testing"

	"github.com/ayusman/fingershot/internal/game"
)

func TestScoreTitle(t *testing.T) {
	tests := []struct {
		name  string
		stats game.Stats
		want  string
	}{
		{"no shots", game.Stats{}, "Hits: 0"},
		{"all hits", game.Stats{Shots: 4, Hits: 4}, "Hits: 4 / 4 (100%)"},
		{"some misses", game.Stats{Shots: 3, Hits: 1, Misses: 2}, "Hits: 1 / 3 (33%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scoreTitle(tt.stats); got != tt.want {
				t.Errorf("scoreTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToggleTitle(t *testing.T) {
	if toggleTitle(true) == toggleTitle(false) {
		t.Error("enabled and paused titles should differ")
	}
}

func TestHandleOpen(t *testing.T) {
	tr := New(game.New(game.Config{}))

	tr.handleOpen() // no callback set

	var opened bool
	tr.OnOpen(func() { opened = true })
	tr.handleOpen()
	if !opened {
		t.Error("open callback not called")
	}
}
