// Video stream processing through the lane detection pipeline
package video

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	frameio "dashcam-lane-detection/internal/io"
	"dashcam-lane-detection/internal/pipeline"
)

// progressEvery is the frame interval between progress log lines.
const progressEvery = 100

// Processor drives frames from a video file through one pipeline instance.
// Frames are processed strictly sequentially: the pipeline's tracker depends
// on frame order within a stream.
type Processor struct {
	logger *slog.Logger
	loader *frameio.FrameLoader
}

// NewProcessor returns a video processor logging through the given logger.
func NewProcessor(logger *slog.Logger) *Processor {
	return &Processor{
		logger: logger,
		loader: frameio.NewFrameLoader(logger),
	}
}

// ProcessVideo decodes inputPath frame by frame, runs each frame through the
// pipeline, and writes annotated frames to outputPath (skipped when empty).
// Per-frame failures are logged and skipped; only I/O-level failures or
// context cancellation abort the run.
func (v *Processor) ProcessVideo(ctx context.Context, inputPath, outputPath string, p *pipeline.Pipeline) (pipeline.StreamStats, error) {
	capture, err := gocv.VideoCaptureFile(inputPath)
	if err != nil {
		return pipeline.StreamStats{}, fmt.Errorf("failed to open video %s: %w", inputPath, err)
	}
	defer capture.Close()

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 25
	}
	width := int(capture.Get(gocv.VideoCaptureFrameWidth))
	height := int(capture.Get(gocv.VideoCaptureFrameHeight))
	total := int(capture.Get(gocv.VideoCaptureFrameCount))

	v.logger.Info("Processing video",
		"input", inputPath,
		"output", outputPath,
		"fps", fps,
		"size", fmt.Sprintf("%dx%d", width, height),
		"frames", total)

	var writer *gocv.VideoWriter
	if outputPath != "" {
		writer, err = gocv.VideoWriterFile(outputPath, "mp4v", fps, width, height, true)
		if err != nil {
			return pipeline.StreamStats{}, fmt.Errorf("failed to open output video %s: %w", outputPath, err)
		}
		defer writer.Close()
	}

	frame := gocv.NewMat()
	defer frame.Close()

	started := time.Now()
	frameIndex := 0
	for {
		select {
		case <-ctx.Done():
			v.logger.Warn("Video processing cancelled", "frames_done", frameIndex)
			return p.Stats(), ctx.Err()
		default:
		}

		if ok := capture.Read(&frame); !ok {
			break
		}
		if frame.Empty() {
			continue
		}
		frameIndex++

		res, err := p.ProcessFrame(frame)
		if err != nil {
			// Per-frame conditions never abort the stream; try again on the
			// next frame.
			v.logger.Warn("Frame processing failed", "frame", frameIndex, "error", err)
			continue
		}

		if writer != nil {
			if err := writer.Write(res.Annotated); err != nil {
				res.Annotated.Close()
				return p.Stats(), fmt.Errorf("failed to write frame %d: %w", frameIndex, err)
			}
		}
		res.Annotated.Close()

		if frameIndex%progressEvery == 0 {
			v.logger.Info("Progress",
				"frame", frameIndex,
				"total", total,
				"detected", res.Detection.Detected,
				"elapsed", time.Since(started).Round(time.Second))
		}
	}

	stats := p.Stats()
	v.logger.Info("Video processing complete",
		"frames", stats.FramesProcessed,
		"detected", stats.FramesDetected,
		"with_prior", stats.FramesWithPrior,
		"elapsed", time.Since(started).Round(time.Second))
	return stats, nil
}

// ProcessImage runs a single still image through the pipeline and writes the
// annotated result.
func (v *Processor) ProcessImage(inputPath, outputPath string, p *pipeline.Pipeline) error {
	img, err := v.loader.LoadFrame(inputPath)
	if err != nil {
		return err
	}
	defer img.Close()

	res, err := p.ProcessFrame(img)
	if err != nil {
		return err
	}
	defer res.Annotated.Close()

	if err := v.loader.SaveFrame(res.Annotated, outputPath); err != nil {
		return err
	}
	v.logger.Info("Image processed",
		"input", inputPath,
		"output", outputPath,
		"detected", res.Detection.Detected)
	return nil
}
