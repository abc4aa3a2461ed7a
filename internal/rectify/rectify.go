// Perspective rectification between camera view and bird's-eye view
package rectify

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"dashcam-lane-detection/internal/lanes"
)

// Point is a sub-pixel image coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Config defines the homography as four source points in camera view and the
// four destination points they map to in the rectified view. Per-camera
// configuration, not an algorithmic constant: a different mount or field of
// view needs different points.
type Config struct {
	Src    [4]Point `json:"src"`
	Dst    [4]Point `json:"dst"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
}

// DefaultConfig returns the trapezoid for a 1280x720 hood-mounted dashcam.
func DefaultConfig() Config {
	return Config{
		Src: [4]Point{
			{X: 580, Y: 460},
			{X: 700, Y: 460},
			{X: 1040, Y: 680},
			{X: 260, Y: 680},
		},
		Dst: [4]Point{
			{X: 260, Y: 0},
			{X: 1020, Y: 0},
			{X: 1020, Y: 720},
			{X: 260, Y: 720},
		},
		Width:  1280,
		Height: 720,
	}
}

// Validate rejects degenerate geometry before any frame is processed.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("rectified size %dx%d is invalid", c.Width, c.Height)
	}
	for _, quad := range [2][4]Point{c.Src, c.Dst} {
		for i := 0; i < 4; i++ {
			for j := i + 1; j < 4; j++ {
				if quad[i] == quad[j] {
					return fmt.Errorf("perspective quad has duplicate point (%g, %g)", quad[i].X, quad[i].Y)
				}
			}
		}
	}
	return nil
}

// Rectifier warps frames between camera view and the rectified overhead view
// using a fixed pair of homography Mats. It owns those Mats and must be
// Closed when the stream ends.
type Rectifier struct {
	cfg     Config
	forward gocv.Mat
	inverse gocv.Mat
}

// NewRectifier precomputes the forward and inverse homographies.
func NewRectifier(cfg Config) (*Rectifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	src := pointVector(cfg.Src)
	defer src.Close()
	dst := pointVector(cfg.Dst)
	defer dst.Close()

	forward := gocv.GetPerspectiveTransform2f(src, dst)
	inverse := gocv.GetPerspectiveTransform2f(dst, src)
	if forward.Empty() || inverse.Empty() {
		forward.Close()
		inverse.Close()
		return nil, fmt.Errorf("failed to compute perspective transform")
	}
	return &Rectifier{cfg: cfg, forward: forward, inverse: inverse}, nil
}

func pointVector(quad [4]Point) gocv.Point2fVector {
	pts := make([]gocv.Point2f, 4)
	for i, p := range quad {
		pts[i] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
	}
	return gocv.NewPoint2fVectorFromPoints(pts)
}

// Config returns the active geometry.
func (r *Rectifier) Config() Config { return r.cfg }

// Warp maps a camera-view image to the rectified overhead view. The caller
// owns the returned Mat.
func (r *Rectifier) Warp(src gocv.Mat) (gocv.Mat, error) {
	return r.warpWith(src, r.forward)
}

// Unwarp maps a rectified-view image back to camera view.
func (r *Rectifier) Unwarp(src gocv.Mat) (gocv.Mat, error) {
	return r.warpWith(src, r.inverse)
}

func (r *Rectifier) warpWith(src gocv.Mat, m gocv.Mat) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}
	dst := gocv.NewMat()
	gocv.WarpPerspective(src, &dst, m, image.Pt(r.cfg.Width, r.cfg.Height))
	if dst.Empty() {
		return gocv.NewMat(), fmt.Errorf("perspective warp produced an empty image")
	}
	return dst, nil
}

// Close releases the homography Mats.
func (r *Rectifier) Close() {
	if !r.forward.Empty() {
		r.forward.Close()
	}
	if !r.inverse.Empty() {
		r.inverse.Close()
	}
}

// MaskToLanes copies a single-channel 0/255 Mat into the search's pure-Go
// mask representation. The conversion lives here so the lane search itself
// stays free of OpenCV types.
func MaskToLanes(mask gocv.Mat) (*lanes.BinaryMask, error) {
	if mask.Empty() {
		return nil, fmt.Errorf("mask is empty")
	}
	if mask.Channels() != 1 {
		return nil, fmt.Errorf("mask must be single-channel, got %d channels", mask.Channels())
	}
	buf := mask.ToBytes()
	return lanes.NewBinaryMaskFromBytes(mask.Cols(), mask.Rows(), buf)
}

// MaskFromLanes renders a pure-Go mask into a single-channel Mat with on
// pixels at 255, for visualization. The caller owns the returned Mat.
func MaskFromLanes(mask *lanes.BinaryMask) (gocv.Mat, error) {
	if mask == nil {
		return gocv.NewMat(), fmt.Errorf("mask is nil")
	}
	src := mask.Bytes()
	buf := make([]uint8, len(src))
	for i, p := range src {
		if p != 0 {
			buf[i] = 255
		}
	}
	return gocv.NewMatFromBytes(mask.Height(), mask.Width(), gocv.MatTypeCV8U, buf)
}
