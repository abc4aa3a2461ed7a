// Pipeline tuning configuration with JSON load and validation
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"dashcam-lane-detection/internal/lanes"
	"dashcam-lane-detection/internal/rectify"
	"dashcam-lane-detection/internal/threshold"
)

// Config aggregates every stage's tuning parameters. The same JSON schema is
// used for startup configuration and for the tuning GUI's save/load.
type Config struct {
	Threshold   threshold.Config   `json:"threshold"`
	Perspective rectify.Config     `json:"perspective"`
	Tracker     lanes.TrackerConfig `json:"tracker"`
}

// DefaultConfig returns parameters for 1280x720 daylight highway footage.
func DefaultConfig() Config {
	return Config{
		Threshold:   threshold.DefaultConfig(),
		Perspective: rectify.DefaultConfig(),
		Tracker: lanes.TrackerConfig{
			Search: lanes.DefaultSearchConfig(),
			Scale:  lanes.DefaultScale(),
		},
	}
}

// Validate checks every stage's parameters. Configuration problems are fatal
// at load time; no frame is processed against an invalid config.
func (c Config) Validate() error {
	if err := c.Threshold.Validate(); err != nil {
		return fmt.Errorf("threshold config: %w", err)
	}
	if err := c.Perspective.Validate(); err != nil {
		return fmt.Errorf("perspective config: %w", err)
	}
	if err := c.Tracker.Validate(); err != nil {
		return fmt.Errorf("tracker config: %w", err)
	}
	return nil
}

// LoadConfig reads a JSON tuning file. Fields absent from the file keep their
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as indented JSON.
func (c Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
