// Lane Detection Tuner - interactive parameter tuning GUI

package main

import (
	"flag"
	"log/slog"
	"os"

	"fyne.io/fyne/v2/app"
	"github.com/sirupsen/logrus"

	"dashcam-lane-detection/internal/calibration"
	"dashcam-lane-detection/internal/gui"
	"dashcam-lane-detection/internal/pipeline"
)

const (
	AppID      = "com.dashcam.lane-detection-tuner"
	AppVersion = "1.0.0"
)

func main() {
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	configPath := flag.String("config", "", "Pipeline tuning JSON to start from")
	calibPath := flag.String("calibration", "", "Camera calibration JSON (identity passthrough when omitted)")
	flag.Parse()

	logger := initLogger(*debugMode)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
	}).Info("Starting Lane Detection Tuner")

	cfg := pipeline.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = pipeline.LoadConfig(*configPath)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load configuration")
		}
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

	myApp := app.NewWithID(AppID)

	mainApp := gui.NewApplication(myApp, calib, cfg, initSlog(*debugMode))
	mainApp.ShowAndRun()

	logger.Info("Tuner shutting down")
	os.Exit(0)
}

// initLogger initializes the application logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}

// initSlog builds the structured logger handed to the internal packages.
func initSlog(debugMode bool) *slog.Logger {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
