// Lane overlay rendering and frame annotation
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"dashcam-lane-detection/internal/lanes"
	"dashcam-lane-detection/internal/rectify"
)

var (
	laneFill    = color.RGBA{G: 255}
	leftStroke  = color.RGBA{R: 255}
	rightStroke = color.RGBA{B: 255}
	textColor   = color.RGBA{R: 255, G: 255, B: 255}
	windowColor = color.RGBA{G: 255}
)

// Renderer composites the detected lane region back onto camera-view frames.
type Renderer struct {
	rectifier *rectify.Rectifier
	alpha     float64
}

// NewRenderer builds a Renderer drawing through the given rectifier's inverse
// homography.
func NewRenderer(rectifier *rectify.Rectifier) *Renderer {
	return &Renderer{rectifier: rectifier, alpha: 0.3}
}

// Render fills the region between the fitted boundaries in bird's-eye space,
// unwarps it to camera view, and blends it onto frame. The frame is not
// modified; the caller owns the returned Mat. A detection without a usable
// fit pair returns a plain copy of the frame.
func (r *Renderer) Render(frame gocv.Mat, det lanes.Detection) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.NewMat(), fmt.Errorf("input frame is empty")
	}
	if !det.Detected {
		return frame.Clone(), nil
	}

	cfg := r.rectifier.Config()
	canvas := gocv.NewMatWithSize(cfg.Height, cfg.Width, gocv.MatTypeCV8UC3)
	defer canvas.Close()

	// Polygon: left boundary top to bottom, right boundary bottom to top.
	poly := make([]image.Point, 0, 2*cfg.Height)
	for y := 0; y < cfg.Height; y++ {
		poly = append(poly, image.Pt(int(det.Left.Model.Eval(float64(y))), y))
	}
	for y := cfg.Height - 1; y >= 0; y-- {
		poly = append(poly, image.Pt(int(det.Right.Model.Eval(float64(y))), y))
	}
	polyVec := gocv.NewPointsVectorFromPoints([][]image.Point{poly})
	defer polyVec.Close()
	gocv.FillPoly(&canvas, polyVec, laneFill)

	r.drawBoundary(&canvas, det.Left.Model, cfg.Height, leftStroke)
	r.drawBoundary(&canvas, det.Right.Model, cfg.Height, rightStroke)

	unwarped, err := r.rectifier.Unwarp(canvas)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to unwarp overlay: %w", err)
	}
	defer unwarped.Close()

	out := gocv.NewMat()
	gocv.AddWeighted(frame, 1.0, unwarped, r.alpha, 0, &out)
	if out.Empty() {
		return gocv.NewMat(), fmt.Errorf("overlay blend produced an empty image")
	}
	return out, nil
}

func (r *Renderer) drawBoundary(canvas *gocv.Mat, m lanes.CurveModel, height int, c color.RGBA) {
	pts := make([]image.Point, 0, height)
	for y := 0; y < height; y++ {
		pts = append(pts, image.Pt(int(m.Eval(float64(y))), y))
	}
	vec := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer vec.Close()
	gocv.Polylines(canvas, vec, false, c, 8)
}

// Annotate draws curvature radius and lateral offset text onto img in place.
func Annotate(img *gocv.Mat, geom lanes.LaneGeometry) {
	radius := (geom.LeftRadiusM + geom.RightRadiusM) / 2
	var radiusText string
	if radius >= lanes.MaxRadiusM {
		radiusText = "Radius: straight"
	} else {
		radiusText = fmt.Sprintf("Radius: %.0f m", radius)
	}
	// Negative offset means the vehicle sits right of lane center.
	side := "left"
	if geom.LateralOffsetM < 0 {
		side = "right"
	}
	offsetText := fmt.Sprintf("Offset: vehicle %.2f m %s of center", abs(geom.LateralOffsetM), side)

	gocv.PutText(img, radiusText, image.Pt(40, 60), gocv.FontHersheySimplex, 1.2, textColor, 2)
	gocv.PutText(img, offsetText, image.Pt(40, 110), gocv.FontHersheySimplex, 1.2, textColor, 2)
}

// DrawSearchDebug renders the rectified mask with search windows and
// attributed lane pixels, for the tuning GUI and debug output. The caller
// owns the returned Mat.
func DrawSearchDebug(mask *lanes.BinaryMask, det lanes.Detection) (gocv.Mat, error) {
	gray, err := rectify.MaskFromLanes(mask)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer gray.Close()

	dbg := gocv.NewMat()
	gocv.CvtColor(gray, &dbg, gocv.ColorGrayToBGR)

	paintPixels(&dbg, det.LeftPix, leftStroke)
	paintPixels(&dbg, det.RightPix, rightStroke)
	for _, w := range det.Windows {
		gocv.Rectangle(&dbg, image.Rect(w.XLow, w.YLow, w.XHigh, w.YHigh), windowColor, 2)
	}
	return dbg, nil
}

func paintPixels(img *gocv.Mat, ps lanes.PixelSet, c color.RGBA) {
	for i := range ps.Xs {
		x, y := ps.Xs[i], ps.Ys[i]
		img.SetUCharAt(y, x*3+0, c.B)
		img.SetUCharAt(y, x*3+1, c.G)
		img.SetUCharAt(y, x*3+2, c.R)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
