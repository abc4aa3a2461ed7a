// Lens distortion removal using saved calibration data
package calibration

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Identity returns a pinhole calibration with zero distortion for the given
// frame size. Used when no calibration file is available; undistortion
// becomes a passthrough.
func Identity(width, height int) *CalibrationData {
	return &CalibrationData{
		CameraMatrix: [3][3]float64{
			{float64(width), 0, float64(width) / 2},
			{0, float64(width), float64(height) / 2},
			{0, 0, 1},
		},
		DistCoeffs:  []float64{0, 0, 0, 0, 0},
		ImageWidth:  width,
		ImageHeight: height,
	}
}

// Undistorter removes lens distortion from raw frames using a fixed
// calibration. It owns two Mats and must be Closed when the stream ends.
type Undistorter struct {
	cameraMatrix gocv.Mat
	distCoeffs   gocv.Mat
}

// NewUndistorter builds an Undistorter from validated calibration data.
func NewUndistorter(data *CalibrationData) (*Undistorter, error) {
	if data == nil {
		return nil, fmt.Errorf("calibration data is nil")
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return &Undistorter{
		cameraMatrix: data.cameraMatrixMat(),
		distCoeffs:   data.distCoeffsMat(),
	}, nil
}

// Apply returns an undistorted copy of src. The caller owns the returned Mat.
func (u *Undistorter) Apply(src gocv.Mat) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	dst := gocv.NewMat()
	gocv.Undistort(src, &dst, u.cameraMatrix, u.distCoeffs, u.cameraMatrix)
	if dst.Empty() {
		return gocv.NewMat(), fmt.Errorf("undistort produced an empty image")
	}
	return dst, nil
}

// Close releases the calibration Mats.
func (u *Undistorter) Close() {
	if !u.cameraMatrix.Empty() {
		u.cameraMatrix.Close()
	}
	if !u.distCoeffs.Empty() {
		u.distCoeffs.Close()
	}
}
