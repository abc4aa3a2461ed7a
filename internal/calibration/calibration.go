// Camera calibration data with JSON persistence
package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
)

// CalibrationData holds the camera intrinsic matrix and distortion
// coefficients for one camera. It is an explicit value passed into the
// pipeline entry point; nothing in this package keeps process-wide state.
type CalibrationData struct {
	CameraMatrix [3][3]float64 `json:"camera_matrix"`
	DistCoeffs   []float64     `json:"dist_coeffs"`
	ImageWidth   int           `json:"image_width"`
	ImageHeight  int           `json:"image_height"`
	// ReprojError is the RMS reprojection error reported by the calibration
	// run, in pixels. Informational only.
	ReprojError float64 `json:"reproj_error"`
}

// Validate checks that the data describes a plausible calibration.
func (c *CalibrationData) Validate() error {
	if c.ImageWidth <= 0 || c.ImageHeight <= 0 {
		return fmt.Errorf("calibration image size %dx%d is invalid", c.ImageWidth, c.ImageHeight)
	}
	if c.CameraMatrix[0][0] == 0 || c.CameraMatrix[1][1] == 0 {
		return fmt.Errorf("calibration camera matrix has zero focal length")
	}
	if len(c.DistCoeffs) < 4 {
		return fmt.Errorf("calibration needs at least 4 distortion coefficients, got %d", len(c.DistCoeffs))
	}
	return nil
}

// Save writes the calibration to a JSON file, creating parent directories as
// needed.
func (c *CalibrationData) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create calibration directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal calibration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write calibration file: %w", err)
	}
	return nil
}

// Load reads and validates a calibration JSON file.
func Load(path string) (*CalibrationData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration file: %w", err)
	}
	var c CalibrationData
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse calibration file %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("calibration file %s: %w", path, err)
	}
	return &c, nil
}

// cameraMatrixMat builds a 3x3 CV64F Mat from the stored matrix. The caller
// owns the returned Mat.
func (c *CalibrationData) cameraMatrixMat() gocv.Mat {
	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.SetDoubleAt(i, j, c.CameraMatrix[i][j])
		}
	}
	return m
}

// distCoeffsMat builds a 1xN CV64F Mat from the stored coefficients. The
// caller owns the returned Mat.
func (c *CalibrationData) distCoeffsMat() gocv.Mat {
	m := gocv.NewMatWithSize(1, len(c.DistCoeffs), gocv.MatTypeCV64F)
	for j, v := range c.DistCoeffs {
		m.SetDoubleAt(0, j, v)
	}
	return m
}
