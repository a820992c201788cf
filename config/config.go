// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the settings the game reads at startup. Command-line flags
// override the environment.
type Config struct {
	Scene    string `env:"PEDAL_SCENE" envDefault:"q01"`
	SavePath string `env:"PEDAL_SAVE_PATH" envDefault:"save.db"`
	SceneDir string `env:"PEDAL_SCENE_DIR" envDefault:"scenes"`
	TPS      int    `env:"PEDAL_TPS" envDefault:"60"`
	Debug    bool   `env:"PEDAL_DEBUG" envDefault:"false"`
	Watch    bool   `env:"PEDAL_WATCH" envDefault:"false"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.TPS <= 0 {
		return fmt.Errorf("config: tps must be positive, got %d", c.TPS)
	}
	if c.Scene == "" {
		return fmt.Errorf("config: scene is required")
	}
	return nil
}

// TickDuration is the game time one update represents.
func (c Config) TickDuration() time.Duration {
	if c.TPS <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.TPS)
}
