// Detection quality metrics for fitted lane pairs
package metrics

import (
	"fmt"

	"dashcam-lane-detection/internal/lanes"
)

// Context carries the frame geometry a metric needs alongside the detection.
type Context struct {
	Width  int
	Height int
	Scale  lanes.Scale
}

// Metric scores one aspect of a frame's lane detection.
type Metric interface {
	// Calculate computes the metric value for a detected frame.
	Calculate(det lanes.Detection, ctx Context) (float64, error)

	// GetName returns the metric name.
	GetName() string

	// GetDescription returns the metric description.
	GetDescription() string

	// IsHigherBetter returns true if higher values indicate better quality.
	IsHigherBetter() bool
}

// Evaluator manages and calculates multiple metrics.
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates an evaluator with all default metrics registered.
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}
	e.Register("lane_width_m", NewLaneWidth())
	e.Register("width_spread_m", NewWidthSpread())
	e.Register("pixel_balance", NewPixelBalance())
	return e
}

// Register adds a metric under the given key.
func (e *Evaluator) Register(key string, m Metric) {
	e.metrics[key] = m
}

// EvaluateAll computes every registered metric for a detected frame. Metrics
// that cannot be computed are skipped; an undetected frame yields an empty
// map.
func (e *Evaluator) EvaluateAll(det lanes.Detection, ctx Context) map[string]float64 {
	out := make(map[string]float64, len(e.metrics))
	if !det.Detected {
		return out
	}
	for key, m := range e.metrics {
		v, err := m.Calculate(det, ctx)
		if err != nil {
			continue
		}
		out[key] = v
	}
	return out
}

// LaneWidth measures the mean separation of the two fitted boundaries in
// meters. A plausible highway lane is near 3.7 m; large deviations flag a
// bad fit.
type LaneWidth struct{}

func NewLaneWidth() *LaneWidth { return &LaneWidth{} }

func (m *LaneWidth) Calculate(det lanes.Detection, ctx Context) (float64, error) {
	mean, _, err := widthStats(det, ctx)
	return mean, err
}

func (m *LaneWidth) GetName() string        { return "Lane Width" }
func (m *LaneWidth) GetDescription() string { return "Mean distance between fitted boundaries in meters" }
func (m *LaneWidth) IsHigherBetter() bool   { return false }

// WidthSpread measures how much the lane width varies over the frame height,
// in meters. Parallel boundaries keep it near zero; diverging fits blow it
// up.
type WidthSpread struct{}

func NewWidthSpread() *WidthSpread { return &WidthSpread{} }

func (m *WidthSpread) Calculate(det lanes.Detection, ctx Context) (float64, error) {
	_, spread, err := widthStats(det, ctx)
	return spread, err
}

func (m *WidthSpread) GetName() string { return "Width Spread" }
func (m *WidthSpread) GetDescription() string {
	return "Max minus min boundary separation over the frame height in meters"
}
func (m *WidthSpread) IsHigherBetter() bool { return false }

// PixelBalance is the ratio of the smaller side's pixel count to the larger
// side's. Near zero means one boundary carried the frame alone.
type PixelBalance struct{}

func NewPixelBalance() *PixelBalance { return &PixelBalance{} }

func (m *PixelBalance) Calculate(det lanes.Detection, _ Context) (float64, error) {
	l, r := det.LeftPix.Len(), det.RightPix.Len()
	if l == 0 && r == 0 {
		return 0, fmt.Errorf("no pixels on either side")
	}
	lo, hi := l, r
	if lo > hi {
		lo, hi = hi, lo
	}
	return float64(lo) / float64(hi), nil
}

func (m *PixelBalance) GetName() string        { return "Pixel Balance" }
func (m *PixelBalance) GetDescription() string { return "Smaller over larger boundary pixel count" }
func (m *PixelBalance) IsHigherBetter() bool   { return true }

func widthStats(det lanes.Detection, ctx Context) (mean, spread float64, err error) {
	if ctx.Height <= 0 {
		return 0, 0, fmt.Errorf("invalid frame height %d", ctx.Height)
	}
	if err := ctx.Scale.Validate(); err != nil {
		return 0, 0, err
	}

	minW := 0.0
	maxW := 0.0
	sum := 0.0
	for y := 0; y < ctx.Height; y++ {
		fy := float64(y)
		w := (det.Right.Model.Eval(fy) - det.Left.Model.Eval(fy)) * ctx.Scale.MetersPerPixelX
		sum += w
		if y == 0 || w < minW {
			minW = w
		}
		if y == 0 || w > maxW {
			maxW = w
		}
	}
	return sum / float64(ctx.Height), maxW - minW, nil
}
