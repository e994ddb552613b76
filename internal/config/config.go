// Package config loads process settings from the environment and gameplay
// tuning from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process-level settings.
type Config struct {
	Addr        string        `env:"FINGERSHOT_ADDR" envDefault:":8080"`
	DataDir     string        `env:"FINGERSHOT_DATA_DIR"`
	WebDir      string        `env:"FINGERSHOT_WEB_DIR"`
	TuningFile  string        `env:"FINGERSHOT_TUNING_FILE"`
	PluginDir   string        `env:"FINGERSHOT_PLUGIN_DIR"`
	CameraID    int           `env:"FINGERSHOT_CAMERA_ID" envDefault:"0"`
	Capture     bool          `env:"FINGERSHOT_CAPTURE" envDefault:"false"`
	Tray        bool          `env:"FINGERSHOT_TRAY" envDefault:"false"`
	HookTimeout time.Duration `env:"FINGERSHOT_HOOK_TIMEOUT" envDefault:"5s"`
}

// Load parses Config from the environment and fills in directory defaults
// under ~/.fingershot.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".fingershot")
	}
	if cfg.PluginDir == "" {
		cfg.PluginDir = filepath.Join(cfg.DataDir, "plugins")
	}
	if cfg.HookTimeout <= 0 {
		return Config{}, fmt.Errorf("hook timeout must be positive, got %s", cfg.HookTimeout)
	}

	return cfg, nil
}

// DBPath returns the SQLite database location inside DataDir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "fingershot.db")
}
