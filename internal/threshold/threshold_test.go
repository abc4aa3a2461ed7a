package threshold

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"even sobel kernel", func(c *Config) { c.SobelKernel = 4 }, false},
		{"oversized sobel kernel", func(c *Config) { c.SobelKernel = 33 }, false},
		{"inverted gradient range", func(c *Config) { c.GradientMin, c.GradientMax = 100, 20 }, false},
		{"negative gradient min", func(c *Config) { c.GradientMin = -1 }, false},
		{"saturation max over 255", func(c *Config) { c.SaturationMax = 300 }, false},
		{"equal saturation bounds", func(c *Config) { c.SaturationMin, c.SaturationMax = 170, 170 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNewThresholderRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SobelKernel = 2
	_, err := NewThresholder(cfg)
	assert.Error(t, err)
}
