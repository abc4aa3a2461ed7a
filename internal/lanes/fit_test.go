package lanes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadraticPixels(a, b, c float64, yMax int) PixelSet {
	var ps PixelSet
	for y := 0; y <= yMax; y++ {
		fy := float64(y)
		ps.add(int(math.Round(a*fy*fy+b*fy+c)), y)
	}
	return ps
}

func TestFitPolynomialExactQuadratic(t *testing.T) {
	// x = 2y^2 + 3y + 1 without noise must recover (2, 3, 1).
	ps := quadraticPixels(2, 3, 1, 19)

	fit, err := FitPolynomial(ps)
	require.NoError(t, err)
	require.True(t, fit.Fitted)
	assert.InDelta(t, 2.0, fit.Model.A, 1e-6)
	assert.InDelta(t, 3.0, fit.Model.B, 1e-6)
	assert.InDelta(t, 1.0, fit.Model.C, 1e-6)
}

func TestFitPolynomialEmptySet(t *testing.T) {
	fit, err := FitPolynomial(PixelSet{})
	assert.ErrorIs(t, err, ErrNoPixelsFound)
	assert.True(t, IsPerFrame(err))
	assert.False(t, fit.Fitted)
}

func TestFitPolynomialTooFewPoints(t *testing.T) {
	for _, n := range []int{1, 2} {
		var ps PixelSet
		for i := 0; i < n; i++ {
			ps.add(i, i)
		}
		fit, err := FitPolynomial(ps)
		assert.ErrorIs(t, err, ErrFitUnavailable, "n=%d", n)
		assert.False(t, fit.Fitted, "n=%d", n)
	}
}

func TestFitPolynomialDegeneratePoints(t *testing.T) {
	// All points on one row: the quadratic in y is undetermined.
	ps := PixelSet{Xs: []int{10, 20, 30, 40}, Ys: []int{5, 5, 5, 5}}

	fit, err := FitPolynomial(ps)
	assert.ErrorIs(t, err, ErrFitUnavailable)
	assert.False(t, fit.Fitted)
}

func TestCurveModelEval(t *testing.T) {
	m := CurveModel{A: 2, B: 3, C: 1}
	assert.InDelta(t, 1.0, m.Eval(0), 1e-12)
	assert.InDelta(t, 6.0, m.Eval(1), 1e-12)
	assert.InDelta(t, 231.0, m.Eval(10), 1e-12)
}

func TestCurvatureStraightLineIsBounded(t *testing.T) {
	// A perfectly vertical boundary at x=5 has infinite true curvature
	// radius; the bounded sentinel must come back without a division blowup.
	var ps PixelSet
	for y := 0; y < 30; y++ {
		ps.add(5, y)
	}

	r, err := Curvature(ps, 29, DefaultScale())
	require.NoError(t, err)
	assert.Equal(t, MaxRadiusM, r)
}

func TestCurvatureRefitsInMeterSpace(t *testing.T) {
	// For an anisotropic scale, naively rescaling pixel coefficients and
	// refitting give different radii; the contract requires the refit value.
	ps := quadraticPixels(1e-4, 0, 300, 719)
	scale := Scale{MetersPerPixelX: 3.7 / 700, MetersPerPixelY: 30.0 / 720}

	r, err := Curvature(ps, 719, scale)
	require.NoError(t, err)

	// Refit in meter space by hand and evaluate the analytic formula.
	xs := make([]float64, ps.Len())
	ys := make([]float64, ps.Len())
	for i := range ps.Xs {
		xs[i] = float64(ps.Xs[i]) * scale.MetersPerPixelX
		ys[i] = float64(ps.Ys[i]) * scale.MetersPerPixelY
	}
	fit, err := fitQuadratic(ys, xs)
	require.NoError(t, err)
	yM := 719 * scale.MetersPerPixelY
	d := 2*fit.Model.A*yM + fit.Model.B
	want := math.Pow(1+d*d, 1.5) / math.Abs(2*fit.Model.A)

	assert.InDelta(t, want, r, 1e-9*want)
	assert.Less(t, r, MaxRadiusM)
}

func TestCurvatureUnavailableForDegenerateSet(t *testing.T) {
	var ps PixelSet
	ps.add(1, 1)
	_, err := Curvature(ps, 719, DefaultScale())
	assert.ErrorIs(t, err, ErrFitUnavailable)
}

func TestCurvatureRejectsInvalidScale(t *testing.T) {
	ps := quadraticPixels(1, 0, 0, 10)
	_, err := Curvature(ps, 10, Scale{MetersPerPixelX: 0, MetersPerPixelY: 1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLateralOffset(t *testing.T) {
	scale := Scale{MetersPerPixelX: 3.7 / 700, MetersPerPixelY: 30.0 / 720}
	left := CurveModel{C: 300}
	right := CurveModel{C: 900}

	got := LateralOffset(left, right, 719, 1280, scale)
	want := ((300.0+900.0)/2 - 640.0) * scale.MetersPerPixelX
	assert.InDelta(t, want, got, 1e-9)
}

func TestEndToEndTwoStripeMask(t *testing.T) {
	// Synthetic 1280x720 mask with clean vertical stripes at x=300 and
	// x=900. The search must attribute every stripe pixel to its side and the
	// fits must come out effectively straight at the stripe columns.
	mask, err := NewBinaryMask(1280, 720)
	require.NoError(t, err)
	for y := 0; y < 720; y++ {
		mask.Set(300, y)
		mask.Set(900, y)
	}
	cfg := SearchConfig{NumWindows: 9, Margin: 100, MinPixelsToRecenter: 50}

	res, err := Search(mask, cfg)
	require.NoError(t, err)
	require.Equal(t, 720, res.Left.Len())
	require.Equal(t, 720, res.Right.Len())

	leftFit, err := FitPolynomial(res.Left)
	require.NoError(t, err)
	rightFit, err := FitPolynomial(res.Right)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, leftFit.Model.A, 1e-6)
	assert.InDelta(t, 0.0, leftFit.Model.B, 1e-6)
	assert.InDelta(t, 300.0, leftFit.Model.C, 1e-6)
	assert.InDelta(t, 0.0, rightFit.Model.A, 1e-6)
	assert.InDelta(t, 0.0, rightFit.Model.B, 1e-6)
	assert.InDelta(t, 900.0, rightFit.Model.C, 1e-6)

	scale := DefaultScale()
	offset := LateralOffset(leftFit.Model, rightFit.Model, 719, 1280, scale)
	assert.InDelta(t, ((300.0+900.0)/2-640.0)*scale.MetersPerPixelX, offset, 1e-6)
}
