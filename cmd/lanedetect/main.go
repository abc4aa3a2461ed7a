// lanedetect - headless lane detection for dashcam videos and stills

package main

import (
	"context"
	"flag"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"

	"dashcam-lane-detection/internal/calibration"
	"dashcam-lane-detection/internal/pipeline"
	"dashcam-lane-detection/internal/video"
)

func main() {
	var (
		inputPath  = flag.String("input", "", "Input video (or image with -frame)")
		outputPath = flag.String("output", "", "Annotated output path")
		configPath = flag.String("config", "", "Pipeline tuning JSON (defaults when omitted)")
		calibPath  = flag.String("calibration", "", "Camera calibration JSON")
		calibGlob  = flag.String("calibrate", "", "Glob of chessboard images; computes calibration, writes it to -output, and exits")
		patternW   = flag.Int("pattern-cols", 9, "Chessboard inner corners per row")
		patternH   = flag.Int("pattern-rows", 6, "Chessboard inner corners per column")
		frameMode  = flag.Bool("frame", false, "Treat -input as a single still image")
		debugMode  = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	logger := initLogger(*debugMode)
	slogger := initSlog(*debugMode)

	if *calibGlob != "" {
		runCalibration(*calibGlob, *outputPath, image.Pt(*patternW, *patternH), logger, slogger)
		return
	}

	if *inputPath == "" {
		logger.Fatal("Missing -input")
	}

	cfg := pipeline.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = pipeline.LoadConfig(*configPath)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load configuration")
		}
		logger.WithField("path", *configPath).Info("Configuration loaded")
	}

	calib := calibration.Identity(cfg.Perspective.Width, cfg.Perspective.Height)
	if *calibPath != "" {
		var err error
		calib, err = calibration.Load(*calibPath)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load calibration")
		}
	} else {
		logger.Warn("No calibration supplied, undistortion is a passthrough")
	}

	p, err := pipeline.New(calib, cfg, slogger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build pipeline")
	}
	defer p.Close()

	processor := video.NewProcessor(slogger)

	if *frameMode {
		out := *outputPath
		if out == "" {
			out = annotatedName(*inputPath)
		}
		if err := processor.ProcessImage(*inputPath, out, p); err != nil {
			logger.WithError(err).Fatal("Image processing failed")
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := processor.ProcessVideo(ctx, *inputPath, *outputPath, p)
	if err != nil {
		logger.WithError(err).Fatal("Video processing failed")
	}
	logger.WithFields(logrus.Fields{
		"frames":     stats.FramesProcessed,
		"detected":   stats.FramesDetected,
		"with_prior": stats.FramesWithPrior,
	}).Info("Done")
}

func runCalibration(glob, outputPath string, patternSize image.Point, logger *logrus.Logger, slogger *slog.Logger) {
	paths, err := filepath.Glob(glob)
	if err != nil {
		logger.WithError(err).Fatal("Bad calibration glob")
	}
	if outputPath == "" {
		logger.Fatal("Calibration needs -output for the resulting JSON")
	}

	data, err := calibration.Calibrate(paths, patternSize, slogger)
	if err != nil {
		logger.WithError(err).Fatal("Calibration failed")
	}
	if err := data.Save(outputPath); err != nil {
		logger.WithError(err).Fatal("Failed to save calibration")
	}
	logger.WithFields(logrus.Fields{
		"output":       outputPath,
		"reproj_error": data.ReprojError,
	}).Info("Calibration saved")
}

func annotatedName(input string) string {
	ext := filepath.Ext(input)
	return input[:len(input)-len(ext)] + "_annotated" + ext
}

func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

func initSlog(debugMode bool) *slog.Logger {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
