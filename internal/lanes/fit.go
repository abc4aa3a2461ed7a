// Quadratic least-squares fitting and lane geometry
package lanes

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MaxRadiusM is the bounded sentinel returned for effectively straight
// boundaries, where the true curvature radius diverges.
const MaxRadiusM = 10000.0

// CurveModel is a quadratic boundary model x(y) = A*y^2 + B*y + C in the
// rectified view's coordinate frame. Immutable once created.
type CurveModel struct {
	A float64
	B float64
	C float64
}

// Eval returns the model's x at the given y.
func (c CurveModel) Eval(y float64) float64 {
	return c.A*y*y + c.B*y + c.C
}

// FitResult distinguishes a usable fit from an unavailable one. Callers must
// branch on Fitted instead of relying on a placeholder model.
type FitResult struct {
	Fitted bool
	Model  CurveModel
}

// Scale converts rectified-view pixels to real-world meters, separately per
// axis. The axes are anisotropic: a pixel covers a different distance along
// the road than across it.
type Scale struct {
	MetersPerPixelX float64 `json:"meters_per_pixel_x"`
	MetersPerPixelY float64 `json:"meters_per_pixel_y"`
}

// DefaultScale returns the conventional scale for a 1280x720 rectified view
// covering one US-highway lane (3.7 m across ~700 px, 30 m along 720 px).
func DefaultScale() Scale {
	return Scale{
		MetersPerPixelX: 3.7 / 700.0,
		MetersPerPixelY: 30.0 / 720.0,
	}
}

// Validate rejects non-positive scale factors.
func (s Scale) Validate() error {
	if s.MetersPerPixelX <= 0 || s.MetersPerPixelY <= 0 {
		return fmt.Errorf("%w: scale factors must be positive, got x=%g y=%g",
			ErrInvalidConfig, s.MetersPerPixelX, s.MetersPerPixelY)
	}
	return nil
}

// LaneGeometry is derived per frame from a pair of curve models: curvature
// radii in meters and the vehicle's lateral offset from lane center, with the
// sign convention of LateralOffset.
type LaneGeometry struct {
	LeftRadiusM    float64
	RightRadiusM   float64
	LateralOffsetM float64
}

// FitPolynomial fits x(y) = A*y^2 + B*y + C to a pixel set by ordinary least
// squares, with y as the independent variable. An empty set yields
// ErrNoPixelsFound; fewer than 3 points, or a degenerate set (for example all
// points on one row), yields ErrFitUnavailable. Both come back with Fitted
// set false and are recoverable per-frame conditions.
func FitPolynomial(ps PixelSet) (FitResult, error) {
	if ps.Len() == 0 {
		return FitResult{}, fmt.Errorf("%w: empty pixel set", ErrNoPixelsFound)
	}
	xs := make([]float64, ps.Len())
	ys := make([]float64, ps.Len())
	for i := range ps.Xs {
		xs[i] = float64(ps.Xs[i])
		ys[i] = float64(ps.Ys[i])
	}
	return fitQuadratic(ys, xs)
}

// fitQuadratic solves the Vandermonde least-squares system for
// obs = a*indep^2 + b*indep + c.
func fitQuadratic(indep, obs []float64) (FitResult, error) {
	n := len(indep)
	if n < 3 {
		return FitResult{}, fmt.Errorf("%w: %d points, need at least 3", ErrFitUnavailable, n)
	}

	v := mat.NewDense(n, 3, nil)
	b := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		y := indep[i]
		v.Set(i, 0, y*y)
		v.Set(i, 1, y)
		v.Set(i, 2, 1)
		b.SetVec(i, obs[i])
	}

	var coef mat.VecDense
	if err := coef.SolveVec(v, b); err != nil {
		// Rank-deficient system: the points do not determine a quadratic.
		return FitResult{}, fmt.Errorf("%w: %v", ErrFitUnavailable, err)
	}

	m := CurveModel{A: coef.AtVec(0), B: coef.AtVec(1), C: coef.AtVec(2)}
	if math.IsNaN(m.A) || math.IsNaN(m.B) || math.IsNaN(m.C) ||
		math.IsInf(m.A, 0) || math.IsInf(m.B, 0) || math.IsInf(m.C, 0) {
		return FitResult{}, fmt.Errorf("%w: non-finite coefficients", ErrFitUnavailable)
	}
	return FitResult{Fitted: true, Model: m}, nil
}

// Curvature returns the radius of curvature in meters for one boundary at the
// pixel row yEval (typically the bottom of the image, nearest the vehicle).
//
// The polynomial is refit against meter-scaled coordinates rather than
// rescaled algebraically: x = f(y) scaling is anisotropic between axes, so
// rescaling pixel-space coefficients would mix the scales. A near-zero
// quadratic term means a straight boundary; the bounded MaxRadiusM sentinel
// is returned instead of dividing by zero.
func Curvature(ps PixelSet, yEval float64, scale Scale) (float64, error) {
	if err := scale.Validate(); err != nil {
		return 0, err
	}
	xs := make([]float64, ps.Len())
	ys := make([]float64, ps.Len())
	for i := range ps.Xs {
		xs[i] = float64(ps.Xs[i]) * scale.MetersPerPixelX
		ys[i] = float64(ps.Ys[i]) * scale.MetersPerPixelY
	}
	fit, err := fitQuadratic(ys, xs)
	if err != nil {
		return 0, err
	}

	a, b := fit.Model.A, fit.Model.B
	if math.Abs(a) < 1e-12 {
		return MaxRadiusM, nil
	}
	yM := yEval * scale.MetersPerPixelY
	d := 2*a*yM + b
	r := math.Pow(1+d*d, 1.5) / math.Abs(2*a)
	if r > MaxRadiusM || math.IsInf(r, 0) || math.IsNaN(r) {
		return MaxRadiusM, nil
	}
	return r, nil
}

// LateralOffset returns the vehicle's displacement from lane center in
// meters at pixel row yEval. The vehicle center is taken to be the image
// horizontal midpoint; the sign follows (laneCenter - imageMid), so a
// negative value means the vehicle sits right of lane center.
func LateralOffset(left, right CurveModel, yEval float64, imageWidth int, scale Scale) float64 {
	laneCenter := (left.Eval(yEval) + right.Eval(yEval)) / 2
	imageMid := float64(imageWidth) / 2
	return (laneCenter - imageMid) * scale.MetersPerPixelX
}
