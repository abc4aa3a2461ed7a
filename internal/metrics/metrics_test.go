package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashcam-lane-detection/internal/lanes"
)

func detected(left, right lanes.CurveModel) lanes.Detection {
	return lanes.Detection{
		Left:     lanes.FitResult{Fitted: true, Model: left},
		Right:    lanes.FitResult{Fitted: true, Model: right},
		Detected: true,
	}
}

func testContext() Context {
	return Context{Width: 1280, Height: 720, Scale: lanes.DefaultScale()}
}

func TestLaneWidthForParallelBoundaries(t *testing.T) {
	det := detected(lanes.CurveModel{C: 300}, lanes.CurveModel{C: 1000})
	ctx := testContext()

	w, err := NewLaneWidth().Calculate(det, ctx)
	require.NoError(t, err)
	assert.InDelta(t, 700*ctx.Scale.MetersPerPixelX, w, 1e-9)

	spread, err := NewWidthSpread().Calculate(det, ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, spread, 1e-9)
}

func TestWidthSpreadForDivergingBoundaries(t *testing.T) {
	// Right boundary drifts outward by one pixel per row.
	det := detected(lanes.CurveModel{C: 300}, lanes.CurveModel{B: 1, C: 1000})
	ctx := testContext()

	spread, err := NewWidthSpread().Calculate(det, ctx)
	require.NoError(t, err)
	assert.InDelta(t, 719*ctx.Scale.MetersPerPixelX, spread, 1e-9)
}

func TestPixelBalance(t *testing.T) {
	det := detected(lanes.CurveModel{C: 300}, lanes.CurveModel{C: 1000})
	det.LeftPix = lanes.PixelSet{Xs: make([]int, 100), Ys: make([]int, 100)}
	det.RightPix = lanes.PixelSet{Xs: make([]int, 50), Ys: make([]int, 50)}

	v, err := NewPixelBalance().Calculate(det, testContext())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-9)

	_, err = NewPixelBalance().Calculate(detected(lanes.CurveModel{}, lanes.CurveModel{}), testContext())
	assert.Error(t, err)
}

func TestEvaluateAllSkipsUndetectedFrames(t *testing.T) {
	e := NewEvaluator()
	out := e.EvaluateAll(lanes.Detection{}, testContext())
	assert.Empty(t, out)
}

func TestEvaluateAllComputesRegisteredMetrics(t *testing.T) {
	e := NewEvaluator()
	det := detected(lanes.CurveModel{C: 300}, lanes.CurveModel{C: 1000})
	det.LeftPix = lanes.PixelSet{Xs: []int{1}, Ys: []int{1}}
	det.RightPix = lanes.PixelSet{Xs: []int{2}, Ys: []int{2}}

	out := e.EvaluateAll(det, testContext())
	assert.Contains(t, out, "lane_width_m")
	assert.Contains(t, out, "width_spread_m")
	assert.Contains(t, out, "pixel_balance")
}
