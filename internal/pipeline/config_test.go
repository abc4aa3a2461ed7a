package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashcam-lane-detection/internal/lanes"
)

func TestDefaultConfigValidates(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestValidatePropagatesStageErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threshold.SobelKernel = 2
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Perspective.Width = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Tracker.Search.NumWindows = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, lanes.ErrInvalidConfig)
}

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")
	cfg := DefaultConfig()
	cfg.Threshold.GradientMin = 30
	cfg.Tracker.Search.Margin = 80

	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"threshold": {"sobel_kernel": 5, "gradient_min": 20, "gradient_max": 100, "saturation_min": 170, "saturation_max": 255}}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Threshold.SobelKernel)
	assert.Equal(t, DefaultConfig().Tracker.Search, cfg.Tracker.Search)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tracker": {"search": {"num_windows": 0, "margin": 100, "min_pixels_to_recenter": 50}}}`), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, lanes.ErrInvalidConfig)
}
