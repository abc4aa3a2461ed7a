package rectify

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
		{"zero width", func(c *Config) { c.Width = 0 }, false},
		{"duplicate src point", func(c *Config) { c.Src[1] = c.Src[0] }, false},
		{"duplicate dst point", func(c *Config) { c.Dst[3] = c.Dst[2] }, false},
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

func TestDefaultConfigIsSymmetricTrapezoid(t *testing.T) {
	cfg := DefaultConfig()
	// Destination points form an axis-aligned rectangle spanning the full
	// rectified height.
	assert.Equal(t, cfg.Dst[0].X, cfg.Dst[3].X)
	assert.Equal(t, cfg.Dst[1].X, cfg.Dst[2].X)
	assert.Equal(t, 0.0, cfg.Dst[0].Y)
	assert.Equal(t, float64(cfg.Height), cfg.Dst[2].Y)
}
