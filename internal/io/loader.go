// Frame loading and saving for stills and calibration images
package io

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

var supportedFormats = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tiff": true,
	".tif":  true,
	".bmp":  true,
}

// FrameLoader handles still-image file operations for the pipeline: test
// frames for the tuner, single-frame CLI runs, and annotated output.
type FrameLoader struct {
	logger *slog.Logger
}

func NewFrameLoader(logger *slog.Logger) *FrameLoader {
	return &FrameLoader{
		logger: logger,
	}
}

// LoadFrame reads a color frame from disk. The caller owns the returned Mat.
func (fl *FrameLoader) LoadFrame(path string) (gocv.Mat, error) {
	fl.logger.Debug("Loading frame", "path", path)

	if !fl.isSupportedImageFormat(path) {
		return gocv.NewMat(), fmt.Errorf("unsupported image format: %s", path)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		return gocv.NewMat(), fmt.Errorf("failed to load image: %s", path)
	}

	fl.logger.Info("Frame loaded",
		"path", path,
		"width", mat.Cols(),
		"height", mat.Rows(),
		"channels", mat.Channels())

	return mat, nil
}

// SaveFrame writes an annotated frame to disk.
func (fl *FrameLoader) SaveFrame(mat gocv.Mat, path string) error {
	fl.logger.Debug("Saving frame", "path", path)

	if mat.Empty() {
		return fmt.Errorf("cannot save empty image")
	}

	if !fl.isSupportedImageFormat(path) {
		return fmt.Errorf("unsupported image format: %s", path)
	}

	if ok := gocv.IMWrite(path, mat); !ok {
		return fmt.Errorf("failed to save image: %s", path)
	}

	fl.logger.Info("Frame saved",
		"path", path,
		"width", mat.Cols(),
		"height", mat.Rows())

	return nil
}

func (fl *FrameLoader) isSupportedImageFormat(path string) bool {
	return supportedFormats[strings.ToLower(filepath.Ext(path))]
}
