// Per-frame lane detection pipeline orchestration
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"dashcam-lane-detection/internal/calibration"
	"dashcam-lane-detection/internal/lanes"
	"dashcam-lane-detection/internal/metrics"
	"dashcam-lane-detection/internal/overlay"
	"dashcam-lane-detection/internal/rectify"
	"dashcam-lane-detection/internal/threshold"
)

// FrameStats records one frame's stage timings and detection outcome.
type FrameStats struct {
	Undistort time.Duration
	Threshold time.Duration
	Rectify   time.Duration
	Search    time.Duration
	Render    time.Duration
	Detected  bool
	UsedPrior bool
}

// StreamStats aggregates outcomes over a whole stream.
type StreamStats struct {
	FramesProcessed int
	FramesDetected  int
	FramesWithPrior int
}

// Result is the per-frame output: the annotated camera-view frame plus the
// detection that produced it. The caller owns Annotated and must Close it.
type Result struct {
	Annotated gocv.Mat
	Detection lanes.Detection
	Geometry  lanes.LaneGeometry
	Quality   map[string]float64
	Stats     FrameStats
}

// Pipeline runs undistort, threshold, rectify, search/fit, and overlay for
// one video stream. It carries the stream's lane tracker, so a Pipeline is
// owned by the stream's single consumer and must not be shared between
// goroutines. Separate streams get separate Pipelines; calibration and
// configuration inputs are read-only and may be shared freely.
type Pipeline struct {
	undistorter *calibration.Undistorter
	thresholder *threshold.Thresholder
	rectifier   *rectify.Rectifier
	renderer    *overlay.Renderer
	tracker     *lanes.Tracker
	evaluator   *metrics.Evaluator
	logger      *slog.Logger
	cfg         Config

	frameIndex int
	stats      StreamStats
}

// New validates the full configuration and assembles a pipeline for one
// stream.
func New(calib *calibration.CalibrationData, cfg Config, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	undistorter, err := calibration.NewUndistorter(calib)
	if err != nil {
		return nil, fmt.Errorf("failed to build undistorter: %w", err)
	}

	thresholder, err := threshold.NewThresholder(cfg.Threshold)
	if err != nil {
		undistorter.Close()
		return nil, err
	}

	rectifier, err := rectify.NewRectifier(cfg.Perspective)
	if err != nil {
		undistorter.Close()
		return nil, err
	}

	tracker, err := lanes.NewTracker(cfg.Tracker)
	if err != nil {
		undistorter.Close()
		rectifier.Close()
		return nil, err
	}

	return &Pipeline{
		undistorter: undistorter,
		thresholder: thresholder,
		rectifier:   rectifier,
		renderer:    overlay.NewRenderer(rectifier),
		tracker:     tracker,
		evaluator:   metrics.NewEvaluator(),
		logger:      logger,
		cfg:         cfg,
	}, nil
}

// ProcessFrame runs the full pipeline on one camera frame. Per-frame
// detection conditions (no pixels, unavailable fit) are absorbed by the
// tracker and reported through Result.Detection.Detected; an error means the
// frame itself could not be processed. Neither should abort the stream — the
// caller logs and moves to the next frame.
func (p *Pipeline) ProcessFrame(frame gocv.Mat) (Result, error) {
	if frame.Empty() {
		return Result{}, fmt.Errorf("frame %d is empty", p.frameIndex)
	}
	p.frameIndex++

	var stats FrameStats

	start := time.Now()
	undistorted, err := p.undistorter.Apply(frame)
	if err != nil {
		return Result{}, fmt.Errorf("undistort failed: %w", err)
	}
	defer undistorted.Close()
	stats.Undistort = time.Since(start)

	start = time.Now()
	binary, err := p.thresholder.Apply(undistorted)
	if err != nil {
		return Result{}, fmt.Errorf("threshold failed: %w", err)
	}
	defer binary.Close()
	stats.Threshold = time.Since(start)

	start = time.Now()
	rectified, err := p.rectifier.Warp(binary)
	if err != nil {
		return Result{}, fmt.Errorf("rectify failed: %w", err)
	}
	defer rectified.Close()

	mask, err := rectify.MaskToLanes(rectified)
	if err != nil {
		return Result{}, fmt.Errorf("mask conversion failed: %w", err)
	}
	stats.Rectify = time.Since(start)

	start = time.Now()
	det, err := p.tracker.Process(mask)
	if err != nil {
		return Result{}, fmt.Errorf("lane search failed: %w", err)
	}
	stats.Search = time.Since(start)
	stats.Detected = det.Detected
	stats.UsedPrior = det.UsedPrior

	start = time.Now()
	annotated, err := p.renderer.Render(undistorted, det)
	if err != nil {
		return Result{}, fmt.Errorf("overlay render failed: %w", err)
	}
	if det.Detected {
		overlay.Annotate(&annotated, det.Geometry)
	}
	stats.Render = time.Since(start)

	p.stats.FramesProcessed++
	if det.Detected {
		p.stats.FramesDetected++
	}
	if det.UsedPrior {
		p.stats.FramesWithPrior++
	}

	if !det.Detected {
		p.logger.Debug("No lane boundaries detected",
			"frame", p.frameIndex,
			"left_pixels", det.LeftPix.Len(),
			"right_pixels", det.RightPix.Len())
	}

	return Result{
		Annotated: annotated,
		Detection: det,
		Geometry:  det.Geometry,
		Quality:   p.quality(det),
		Stats:     stats,
	}, nil
}

// quality scores the frame's detection; empty for undetected frames.
func (p *Pipeline) quality(det lanes.Detection) map[string]float64 {
	return p.evaluator.EvaluateAll(det, metrics.Context{
		Width:  p.cfg.Perspective.Width,
		Height: p.cfg.Perspective.Height,
		Scale:  p.cfg.Tracker.Scale,
	})
}

// StageImages holds every intermediate image of one frame, for the tuning
// GUI and debug output. The caller owns all Mats and must Close them.
type StageImages struct {
	Undistorted gocv.Mat
	Binary      gocv.Mat
	Rectified   gocv.Mat
	SearchDebug gocv.Mat
	Annotated   gocv.Mat
}

// Close releases every stage Mat.
func (s *StageImages) Close() {
	for _, m := range []*gocv.Mat{&s.Undistorted, &s.Binary, &s.Rectified, &s.SearchDebug, &s.Annotated} {
		if !m.Empty() {
			m.Close()
		}
	}
}

// ProcessFrameStages runs the pipeline keeping every intermediate image.
// Used by the tuning GUI; the hot path goes through ProcessFrame.
func (p *Pipeline) ProcessFrameStages(frame gocv.Mat) (StageImages, Result, error) {
	if frame.Empty() {
		return StageImages{}, Result{}, fmt.Errorf("frame is empty")
	}

	var stages StageImages
	ok := false
	defer func() {
		if !ok {
			stages.Close()
		}
	}()

	var err error
	stages.Undistorted, err = p.undistorter.Apply(frame)
	if err != nil {
		return StageImages{}, Result{}, err
	}
	stages.Binary, err = p.thresholder.Apply(stages.Undistorted)
	if err != nil {
		return StageImages{}, Result{}, err
	}
	stages.Rectified, err = p.rectifier.Warp(stages.Binary)
	if err != nil {
		return StageImages{}, Result{}, err
	}

	mask, err := rectify.MaskToLanes(stages.Rectified)
	if err != nil {
		return StageImages{}, Result{}, err
	}
	det, err := p.tracker.Process(mask)
	if err != nil {
		return StageImages{}, Result{}, err
	}

	stages.SearchDebug, err = overlay.DrawSearchDebug(mask, det)
	if err != nil {
		return StageImages{}, Result{}, err
	}
	stages.Annotated, err = p.renderer.Render(stages.Undistorted, det)
	if err != nil {
		return StageImages{}, Result{}, err
	}
	if det.Detected {
		overlay.Annotate(&stages.Annotated, det.Geometry)
	}

	ok = true
	res := Result{Detection: det, Geometry: det.Geometry, Quality: p.quality(det)}
	res.Stats.Detected = det.Detected
	res.Stats.UsedPrior = det.UsedPrior
	return stages, res, nil
}

// ResetTracker drops the cross-frame prior. The tuning GUI calls this when
// parameters change so stale fits do not mask the new settings.
func (p *Pipeline) ResetTracker() { p.tracker.Reset() }

// Stats returns the aggregate stream statistics so far.
func (p *Pipeline) Stats() StreamStats { return p.stats }

// Close releases the pipeline's OpenCV resources.
func (p *Pipeline) Close() {
	p.undistorter.Close()
	p.rectifier.Close()
}
