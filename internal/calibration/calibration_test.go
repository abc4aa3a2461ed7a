package calibration

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validData() *CalibrationData {
	return &CalibrationData{
		CameraMatrix: [3][3]float64{
			{1150.0, 0, 640.0},
			{0, 1140.0, 360.0},
			{0, 0, 1},
		},
		DistCoeffs:  []float64{-0.24, -0.05, -0.001, 0.0003, 0.03},
		ImageWidth:  1280,
		ImageHeight: 720,
		ReprojError: 0.9,
	}
}

func TestCalibrationDataValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CalibrationData)
		ok     bool
	}{
		{"valid", func(*CalibrationData) {}, true},
		{"zero width", func(c *CalibrationData) { c.ImageWidth = 0 }, false},
		{"zero focal length", func(c *CalibrationData) { c.CameraMatrix[0][0] = 0 }, false},
		{"too few dist coeffs", func(c *CalibrationData) { c.DistCoeffs = []float64{1, 2} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validData()
			tt.mutate(c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera", "calibration.json")
	orig := validData()

	require.NoError(t, orig.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, orig, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	bad := validData()
	bad.DistCoeffs = nil
	// Save refuses invalid data too, so write through Validate-free JSON.
	require.Error(t, bad.Save(path))
}
