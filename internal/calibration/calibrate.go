// Chessboard-based camera calibration
package calibration

import (
	"fmt"
	"image"
	"log/slog"

	"gocv.io/x/gocv"
)

// minDetections is the minimum number of reference images in which the
// chessboard pattern must be found for a calibration run to be accepted.
const minDetections = 3

// Calibrate computes camera intrinsics from chessboard reference images.
// patternSize counts inner corners per row and column (9x6 for the standard
// printed board). Images where the pattern is not found are skipped with a
// warning; the run fails only when fewer than minDetections remain.
func Calibrate(imagePaths []string, patternSize image.Point, logger *slog.Logger) (*CalibrationData, error) {
	if len(imagePaths) == 0 {
		return nil, fmt.Errorf("no calibration images supplied")
	}
	if patternSize.X <= 1 || patternSize.Y <= 1 {
		return nil, fmt.Errorf("invalid chessboard pattern size %dx%d", patternSize.X, patternSize.Y)
	}

	objectPoints := gocv.NewPoints3fVector()
	defer objectPoints.Close()
	imagePoints := gocv.NewPoints2fVector()
	defer imagePoints.Close()

	// One canonical board: unit-square grid on the z=0 plane.
	board := make([]gocv.Point3f, 0, patternSize.X*patternSize.Y)
	for y := 0; y < patternSize.Y; y++ {
		for x := 0; x < patternSize.X; x++ {
			board = append(board, gocv.Point3f{X: float32(x), Y: float32(y), Z: 0})
		}
	}

	var imageSize image.Point
	detections := 0
	for _, path := range imagePaths {
		img := gocv.IMRead(path, gocv.IMReadGrayScale)
		if img.Empty() {
			logger.Warn("Skipping unreadable calibration image", "path", path)
			continue
		}

		corners := gocv.NewMat()
		found := gocv.FindChessboardCorners(img, patternSize, &corners, gocv.CalibCBAdaptiveThresh|gocv.CalibCBNormalizeImage)
		if !found {
			logger.Warn("Chessboard pattern not found", "path", path)
			corners.Close()
			img.Close()
			continue
		}

		imageSize = image.Pt(img.Cols(), img.Rows())

		boardVec := gocv.NewPoint3fVectorFromPoints(board)
		objectPoints.Append(boardVec)
		boardVec.Close()

		cornerVec := gocv.NewPoint2fVectorFromMat(corners)
		imagePoints.Append(cornerVec)
		cornerVec.Close()

		corners.Close()
		img.Close()
		detections++
		logger.Debug("Chessboard detected", "path", path)
	}

	if detections < minDetections {
		return nil, fmt.Errorf("chessboard found in only %d of %d images, need at least %d",
			detections, len(imagePaths), minDetections)
	}

	cameraMatrix := gocv.NewMat()
	defer cameraMatrix.Close()
	distCoeffs := gocv.NewMat()
	defer distCoeffs.Close()
	rvecs := gocv.NewMat()
	defer rvecs.Close()
	tvecs := gocv.NewMat()
	defer tvecs.Close()

	reprojErr := gocv.CalibrateCamera(objectPoints, imagePoints, imageSize,
		&cameraMatrix, &distCoeffs, &rvecs, &tvecs, gocv.CalibFlag(0))

	data := &CalibrationData{
		ImageWidth:  imageSize.X,
		ImageHeight: imageSize.Y,
		ReprojError: reprojErr,
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			data.CameraMatrix[i][j] = cameraMatrix.GetDoubleAt(i, j)
		}
	}
	n := distCoeffs.Cols() * distCoeffs.Rows()
	data.DistCoeffs = make([]float64, n)
	for i := 0; i < n; i++ {
		if distCoeffs.Rows() == 1 {
			data.DistCoeffs[i] = distCoeffs.GetDoubleAt(0, i)
		} else {
			data.DistCoeffs[i] = distCoeffs.GetDoubleAt(i, 0)
		}
	}

	logger.Info("Camera calibration complete",
		"images_used", detections,
		"reproj_error", reprojErr,
		"image_size", fmt.Sprintf("%dx%d", imageSize.X, imageSize.Y))

	return data, data.Validate()
}
