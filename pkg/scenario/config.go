package scenario

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config bounds and labels a scenario run.
type Config struct {
	// MaxAdvances caps the advances a script may make in total.
	MaxAdvances int `env:"KATARU_SCENARIO_MAX_ADVANCES" envDefault:"1000"`

	// Snapshot is the label snapshot() and restore() use when called
	// without one.
	Snapshot string `env:"KATARU_SCENARIO_SNAPSHOT" envDefault:"scenario"`

	// FailFast stops the script at the first failed expectation.
	FailFast bool `env:"KATARU_SCENARIO_FAIL_FAST" envDefault:"false"`
}

// ConfigFromEnv loads configuration from environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
