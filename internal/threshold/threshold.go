// Gradient and color thresholding for lane-marking pixel isolation
package threshold

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Config holds the thresholder parameters. Gradient bounds apply to the
// normalized absolute Sobel-x response; saturation bounds apply to the HLS
// S channel. Both are 0-255.
type Config struct {
	SobelKernel   int `json:"sobel_kernel"`
	GradientMin   int `json:"gradient_min"`
	GradientMax   int `json:"gradient_max"`
	SaturationMin int `json:"saturation_min"`
	SaturationMax int `json:"saturation_max"`
}

// DefaultConfig returns thresholds tuned for daylight highway footage.
func DefaultConfig() Config {
	return Config{
		SobelKernel:   3,
		GradientMin:   20,
		GradientMax:   100,
		SaturationMin: 170,
		SaturationMax: 255,
	}
}

// Validate rejects parameter combinations before any frame is processed.
func (c Config) Validate() error {
	if c.SobelKernel < 1 || c.SobelKernel > 31 || c.SobelKernel%2 == 0 {
		return fmt.Errorf("sobel_kernel must be odd and in [1, 31], got %d", c.SobelKernel)
	}
	if err := validateRange("gradient", c.GradientMin, c.GradientMax); err != nil {
		return err
	}
	return validateRange("saturation", c.SaturationMin, c.SaturationMax)
}

func validateRange(name string, lo, hi int) error {
	if lo < 0 || hi > 255 || lo >= hi {
		return fmt.Errorf("%s range [%d, %d] must satisfy 0 <= min < max <= 255", name, lo, hi)
	}
	return nil
}

// Thresholder combines a Sobel-x gradient mask with an HLS saturation mask
// into a single binary mask of likely lane-marking pixels.
type Thresholder struct {
	cfg Config
}

// NewThresholder validates the configuration and returns a Thresholder.
func NewThresholder(cfg Config) (*Thresholder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Thresholder{cfg: cfg}, nil
}

// Config returns the active parameters.
func (t *Thresholder) Config() Config { return t.cfg }

// Apply produces a single-channel 0/255 mask from a BGR frame. A pixel is on
// when either the gradient mask or the saturation mask selects it. The caller
// owns the returned Mat; the input is not modified.
func (t *Thresholder) Apply(bgr gocv.Mat) (gocv.Mat, error) {
	if bgr.Empty() {
		return gocv.NewMat(), fmt.Errorf("input image is empty")
	}

	gradMask, err := t.gradientMask(bgr)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer gradMask.Close()

	satMask, err := t.saturationMask(bgr)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer satMask.Close()

	combined := gocv.NewMat()
	gocv.BitwiseOr(gradMask, satMask, &combined)
	return combined, nil
}

// gradientMask thresholds the normalized absolute Sobel-x response of the
// grayscale frame. Sobel-x emphasizes near-vertical edges, which is what lane
// boundaries look like from a dashcam.
func (t *Thresholder) gradientMask(bgr gocv.Mat) (gocv.Mat, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)

	sobel := gocv.NewMat()
	defer sobel.Close()
	gocv.Sobel(gray, &sobel, gocv.MatTypeCV64F, 1, 0, t.cfg.SobelKernel, 1, 0, gocv.BorderDefault)

	absSobel := gocv.NewMat()
	defer absSobel.Close()
	gocv.ConvertScaleAbs(sobel, &absSobel, 1, 0)

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Normalize(absSobel, &scaled, 0, 255, gocv.NormMinMax)

	mask := gocv.NewMat()
	gocv.InRangeWithScalar(scaled,
		gocv.NewScalar(float64(t.cfg.GradientMin), 0, 0, 0),
		gocv.NewScalar(float64(t.cfg.GradientMax), 0, 0, 0),
		&mask)
	if mask.Empty() {
		return gocv.NewMat(), fmt.Errorf("gradient mask is empty")
	}
	return mask, nil
}

// saturationMask selects strongly saturated pixels in HLS space, which keeps
// yellow and white paint under varying light where grayscale contrast fails.
func (t *Thresholder) saturationMask(bgr gocv.Mat) (gocv.Mat, error) {
	hls := gocv.NewMat()
	defer hls.Close()
	gocv.CvtColor(bgr, &hls, gocv.ColorBGRToHLS)

	channels := gocv.Split(hls)
	defer func() {
		for i := range channels {
			channels[i].Close()
		}
	}()
	if len(channels) != 3 {
		return gocv.NewMat(), fmt.Errorf("expected 3 HLS channels, got %d", len(channels))
	}

	mask := gocv.NewMat()
	gocv.InRangeWithScalar(channels[2],
		gocv.NewScalar(float64(t.cfg.SaturationMin), 0, 0, 0),
		gocv.NewScalar(float64(t.cfg.SaturationMax), 0, 0, 0),
		&mask)
	if mask.Empty() {
		return gocv.NewMat(), fmt.Errorf("saturation mask is empty")
	}
	return mask, nil
}
