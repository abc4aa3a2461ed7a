// Per-stream lane tracker carrying the last good fit across frames
package lanes

import (
	"errors"
	"fmt"
)

// TrackerConfig tunes the cross-frame tracking behavior.
type TrackerConfig struct {
	Search SearchConfig `json:"search"`
	Scale  Scale        `json:"scale"`
	// MaxMisses is the number of consecutive frames a side may fall back to
	// the last good fit before the tracker re-seeds with a full histogram
	// search. Zero selects the default of 5.
	MaxMisses int `json:"max_misses"`
}

// Validate checks all tracking parameters before the first frame.
func (c TrackerConfig) Validate() error {
	if err := c.Search.Validate(); err != nil {
		return err
	}
	if err := c.Scale.Validate(); err != nil {
		return err
	}
	if c.MaxMisses < 0 {
		return fmt.Errorf("%w: max_misses must be non-negative, got %d", ErrInvalidConfig, c.MaxMisses)
	}
	return nil
}

// Detection is the per-frame output of a Tracker: the pixels and fits for
// both boundaries plus derived geometry. Detected is false when neither a
// fresh fit nor a carried-forward fit is available for a side.
type Detection struct {
	Left      FitResult
	Right     FitResult
	LeftPix   PixelSet
	RightPix  PixelSet
	Windows   []Window
	Geometry  LaneGeometry
	Detected  bool
	UsedPrior bool
}

// Tracker holds the last good pair of curve models for one video stream and
// uses it both as a search prior (windows centered on the previous fit) and
// as the fallback when a frame's fit is unavailable.
//
// A Tracker is owned by the single consumer of its stream and must not be
// shared between goroutines; the strictly sequential per-stream access
// pattern makes locking unnecessary.
type Tracker struct {
	cfg      TrackerConfig
	last     [2]CurveModel
	lastGeom LaneGeometry
	hasFit   bool
	misses   int
}

// NewTracker validates the configuration and returns a fresh tracker with no
// prior.
func NewTracker(cfg TrackerConfig) (*Tracker, error) {
	if cfg.MaxMisses == 0 {
		cfg.MaxMisses = 5
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tracker{cfg: cfg}, nil
}

// Reset drops the carried fit, forcing the next frame to run a full
// histogram-seeded search.
func (t *Tracker) Reset() {
	t.hasFit = false
	t.misses = 0
}

// Process runs search and fit for one frame's mask. Per-frame conditions
// (no pixels, unavailable fit) never surface as errors: the last good model
// substitutes when present, and Detected reports whether any usable pair
// exists. Only configuration-level problems (nil mask) return an error.
func (t *Tracker) Process(mask *BinaryMask) (Detection, error) {
	var (
		res SearchResult
		err error
	)
	usedPrior := t.hasFit && t.misses < t.cfg.MaxMisses
	if usedPrior {
		res, err = SearchAroundFit(mask, t.last[0], t.last[1], t.cfg.Search.Margin)
	} else {
		res, err = Search(mask, t.cfg.Search)
	}
	if err != nil {
		return Detection{}, err
	}

	det := Detection{
		LeftPix:   res.Left,
		RightPix:  res.Right,
		Windows:   res.Windows,
		UsedPrior: usedPrior,
	}

	leftFit, _ := FitPolynomial(res.Left)
	rightFit, _ := FitPolynomial(res.Right)

	missed := false
	if leftFit.Fitted {
		det.Left = leftFit
	} else if t.hasFit {
		det.Left = FitResult{Fitted: true, Model: t.last[0]}
		missed = true
	}
	if rightFit.Fitted {
		det.Right = rightFit
	} else if t.hasFit {
		det.Right = FitResult{Fitted: true, Model: t.last[1]}
		missed = true
	}

	det.Detected = det.Left.Fitted && det.Right.Fitted
	if !det.Detected {
		t.misses++
		return det, nil
	}

	if missed {
		t.misses++
		det.Geometry = t.lastGeom
		return det, nil
	}

	// Both sides fitted fresh: adopt as the new prior.
	t.last[0] = det.Left.Model
	t.last[1] = det.Right.Model
	t.hasFit = true
	t.misses = 0

	yEval := float64(mask.Height() - 1)
	det.Geometry = t.geometry(det, res, yEval, mask.Width())
	t.lastGeom = det.Geometry
	return det, nil
}

func (t *Tracker) geometry(det Detection, res SearchResult, yEval float64, width int) LaneGeometry {
	g := LaneGeometry{LeftRadiusM: MaxRadiusM, RightRadiusM: MaxRadiusM}
	if r, err := Curvature(res.Left, yEval, t.cfg.Scale); err == nil {
		g.LeftRadiusM = r
	}
	if r, err := Curvature(res.Right, yEval, t.cfg.Scale); err == nil {
		g.RightRadiusM = r
	}
	g.LateralOffsetM = LateralOffset(det.Left.Model, det.Right.Model, yEval, width, t.cfg.Scale)
	return g
}

// HasPrior reports whether the tracker currently carries a usable fit pair.
func (t *Tracker) HasPrior() bool { return t.hasFit }

// IsPerFrame reports whether err is one of the recoverable per-frame
// conditions rather than a configuration failure. Per-frame conditions are
// logged and skipped; they never abort stream processing.
func IsPerFrame(err error) bool {
	return errors.Is(err, ErrNoPixelsFound) || errors.Is(err, ErrFitUnavailable)
}
