// Sliding-window lane-pixel search over rectified binary masks
package lanes

import "fmt"

// SearchConfig holds the sliding-window search hyperparameters.
type SearchConfig struct {
	// NumWindows is the number of vertical bands the mask height is divided
	// into.
	NumWindows int `json:"num_windows"`
	// Margin is the half-width of each search window around the current
	// center estimate, in pixels.
	Margin int `json:"margin"`
	// MinPixelsToRecenter is the minimum pixel count inside a window required
	// to shift the window center to the mean x of its pixels for the next
	// band.
	MinPixelsToRecenter int `json:"min_pixels_to_recenter"`
}

// DefaultSearchConfig returns the standard search parameters for 1280x720
// dashcam footage.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		NumWindows:          9,
		Margin:              100,
		MinPixelsToRecenter: 50,
	}
}

// Validate rejects configurations that cannot drive a search. Checked once at
// configuration time, before any frame is processed.
func (c SearchConfig) Validate() error {
	if c.NumWindows <= 0 {
		return fmt.Errorf("%w: num_windows must be positive, got %d", ErrInvalidConfig, c.NumWindows)
	}
	if c.Margin <= 0 {
		return fmt.Errorf("%w: margin must be positive, got %d", ErrInvalidConfig, c.Margin)
	}
	if c.MinPixelsToRecenter <= 0 {
		return fmt.Errorf("%w: min_pixels_to_recenter must be positive, got %d", ErrInvalidConfig, c.MinPixelsToRecenter)
	}
	return nil
}

// PixelSet is an unordered collection of mask coordinates attributed to one
// lane boundary. An empty set is a valid result meaning "boundary not
// detected this frame".
type PixelSet struct {
	Xs []int
	Ys []int
}

// Len returns the number of pixels in the set.
func (p PixelSet) Len() int { return len(p.Xs) }

// MeanX returns the mean x coordinate, or 0 for an empty set.
func (p PixelSet) MeanX() float64 {
	if len(p.Xs) == 0 {
		return 0
	}
	sum := 0
	for _, x := range p.Xs {
		sum += x
	}
	return float64(sum) / float64(len(p.Xs))
}

func (p *PixelSet) add(x, y int) {
	p.Xs = append(p.Xs, x)
	p.Ys = append(p.Ys, y)
}

// Side identifies which lane boundary a window or pixel set belongs to.
type Side int

const (
	LeftSide Side = iota
	RightSide
)

func (s Side) String() string {
	if s == LeftSide {
		return "left"
	}
	return "right"
}

// Window records the extent of one search window, for visualization only.
type Window struct {
	Side                     Side
	XLow, YLow, XHigh, YHigh int
}

// SearchResult carries both boundary pixel sets and the windows visited.
// Windows are a debug by-product; correctness depends only on the pixel sets.
type SearchResult struct {
	Left    PixelSet
	Right   PixelSet
	Windows []Window
}

// Search locates the left and right lane-boundary pixels in a rectified
// binary mask using a histogram-seeded sliding-window scan.
//
// The initial base for each side is the first-index argmax of the lower-half
// column histogram, split at the horizontal midpoint. Bands run bottom-up;
// within a band each side independently collects the on pixels inside
// [center-margin, center+margin) and recenters on their mean x when at least
// MinPixelsToRecenter were found. The two sides never see each other's
// pixels.
//
// An entirely empty mask returns two empty pixel sets and no error; callers
// must treat empty sets as "no boundary detected", not as a failure.
func Search(mask *BinaryMask, cfg SearchConfig) (SearchResult, error) {
	if mask == nil {
		return SearchResult{}, fmt.Errorf("%w: nil mask", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return SearchResult{}, err
	}

	hist := mask.Histogram()
	mid := mask.Width() / 2
	leftCenter := argmax(hist[:mid])
	rightCenter := mid + argmax(hist[mid:])

	res := SearchResult{Windows: make([]Window, 0, 2*cfg.NumWindows)}
	windowHeight := mask.Height() / cfg.NumWindows

	for w := 0; w < cfg.NumWindows; w++ {
		yHigh := mask.Height() - w*windowHeight
		yLow := yHigh - windowHeight

		leftCenter = searchBand(mask, cfg, LeftSide, leftCenter, yLow, yHigh, &res)
		rightCenter = searchBand(mask, cfg, RightSide, rightCenter, yLow, yHigh, &res)
	}
	return res, nil
}

// searchBand collects the on pixels of one side's window in one band and
// returns the center to use for the next band up.
func searchBand(mask *BinaryMask, cfg SearchConfig, side Side, center, yLow, yHigh int, res *SearchResult) int {
	xLow := center - cfg.Margin
	xHigh := center + cfg.Margin
	res.Windows = append(res.Windows, Window{Side: side, XLow: xLow, YLow: yLow, XHigh: xHigh, YHigh: yHigh})

	set := &res.Left
	if side == RightSide {
		set = &res.Right
	}

	x0 := max(xLow, 0)
	x1 := min(xHigh, mask.Width())
	y0 := max(yLow, 0)
	y1 := min(yHigh, mask.Height())

	count := 0
	sumX := 0
	for y := y0; y < y1; y++ {
		row := mask.pix[y*mask.width : y*mask.width+mask.width]
		for x := x0; x < x1; x++ {
			if row[x] != 0 {
				set.add(x, y)
				count++
				sumX += x
			}
		}
	}

	if count >= cfg.MinPixelsToRecenter {
		return int(float64(sumX) / float64(count))
	}
	return center
}

// SearchAroundFit collects lane pixels within margin of a previous frame's
// fitted curves, skipping the histogram seeding entirely. Used when a tracker
// carries a recent fit as a search prior.
func SearchAroundFit(mask *BinaryMask, left, right CurveModel, margin int) (SearchResult, error) {
	if mask == nil {
		return SearchResult{}, fmt.Errorf("%w: nil mask", ErrInvalidConfig)
	}
	if margin <= 0 {
		return SearchResult{}, fmt.Errorf("%w: margin must be positive, got %d", ErrInvalidConfig, margin)
	}

	var res SearchResult
	for y := 0; y < mask.Height(); y++ {
		row := mask.pix[y*mask.width : y*mask.width+mask.width]
		fy := float64(y)
		lc := left.Eval(fy)
		rc := right.Eval(fy)
		for x, p := range row {
			if p == 0 {
				continue
			}
			fx := float64(x)
			if fx >= lc-float64(margin) && fx < lc+float64(margin) {
				res.Left.add(x, y)
			}
			if fx >= rc-float64(margin) && fx < rc+float64(margin) {
				res.Right.add(x, y)
			}
		}
	}
	return res, nil
}
