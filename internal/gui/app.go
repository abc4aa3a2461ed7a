// Interactive tuning application for the lane detection pipeline
package gui

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"gocv.io/x/gocv"

	"dashcam-lane-detection/internal/calibration"
	frameio "dashcam-lane-detection/internal/io"
	"dashcam-lane-detection/internal/pipeline"
)

// stage names shown in the stage selector, in pipeline order.
var stageNames = []string{"Annotated", "Undistorted", "Binary", "Rectified", "Search"}

// Application is the tuning GUI: load a test frame, drag the threshold and
// search parameters, and watch any pipeline stage update live.
type Application struct {
	window fyne.Window
	logger *slog.Logger

	calib  *calibration.CalibrationData
	cfg    pipeline.Config
	loader *frameio.FrameLoader

	frame    gocv.Mat
	hasFrame bool
	stage    string

	display *canvas.Image
	status  *widget.Label
}

// NewApplication builds the tuning window. The calibration and starting
// configuration are explicit inputs; the GUI never touches global state.
func NewApplication(app fyne.App, calib *calibration.CalibrationData, cfg pipeline.Config, logger *slog.Logger) *Application {
	window := app.NewWindow("Lane Detection Tuner")
	window.Resize(fyne.NewSize(1400, 800))
	window.CenterOnScreen()

	a := &Application{
		window: window,
		logger: logger,
		calib:  calib,
		cfg:    cfg,
		loader: frameio.NewFrameLoader(logger),
		frame:  gocv.NewMat(),
		stage:  stageNames[0],
	}
	a.buildUI()
	return a
}

// ShowAndRun displays the window and blocks until it closes.
func (a *Application) ShowAndRun() {
	a.window.SetOnClosed(func() {
		if !a.frame.Empty() {
			a.frame.Close()
		}
	})
	a.window.ShowAndRun()
}

func (a *Application) buildUI() {
	a.display = canvas.NewImageFromImage(nil)
	a.display.FillMode = canvas.ImageFillContain
	a.status = widget.NewLabel("Open a test frame to begin")

	openBtn := widget.NewButton("Open Frame...", a.openFrame)
	saveBtn := widget.NewButton("Save Config...", a.saveConfig)
	stageSelect := widget.NewSelect(stageNames, func(name string) {
		a.stage = name
		a.refresh()
	})
	stageSelect.SetSelected(a.stage)

	toolbar := container.NewHBox(openBtn, saveBtn, widget.NewLabel("Stage:"), stageSelect)
	controls := container.NewVBox(
		widget.NewCard("Threshold", "", a.thresholdControls()),
		widget.NewCard("Search", "", a.searchControls()),
	)

	a.window.SetContent(container.NewBorder(
		toolbar,
		a.status,
		container.NewVScroll(controls),
		nil,
		a.display,
	))
}

func (a *Application) thresholdControls() fyne.CanvasObject {
	th := &a.cfg.Threshold
	return container.NewVBox(
		a.intSlider("Gradient min", 0, 254, &th.GradientMin),
		a.intSlider("Gradient max", 1, 255, &th.GradientMax),
		a.intSlider("Saturation min", 0, 254, &th.SaturationMin),
		a.intSlider("Saturation max", 1, 255, &th.SaturationMax),
	)
}

func (a *Application) searchControls() fyne.CanvasObject {
	s := &a.cfg.Tracker.Search
	return container.NewVBox(
		a.intSlider("Windows", 1, 20, &s.NumWindows),
		a.intSlider("Margin", 10, 300, &s.Margin),
		a.intSlider("Min recenter pixels", 1, 200, &s.MinPixelsToRecenter),
	)
}

// intSlider binds a labeled slider to one integer tuning parameter and
// reprocesses the frame on release.
func (a *Application) intSlider(label string, min, max float64, value *int) fyne.CanvasObject {
	text := widget.NewLabel(fmt.Sprintf("%s: %d", label, *value))
	slider := widget.NewSlider(min, max)
	slider.Step = 1
	slider.Value = float64(*value)
	slider.OnChanged = func(v float64) {
		*value = int(v)
		text.SetText(fmt.Sprintf("%s: %d", label, *value))
	}
	slider.OnChangeEnded = func(v float64) {
		*value = int(v)
		a.refresh()
	}
	return container.NewVBox(text, slider)
}

func (a *Application) openFrame() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		path := rc.URI().Path()
		rc.Close()

		img, err := a.loader.LoadFrame(path)
		if err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		if !a.frame.Empty() {
			a.frame.Close()
		}
		a.frame = img
		a.hasFrame = true
		a.refresh()
	}, a.window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".jpg", ".jpeg", ".png", ".bmp"}))
	fd.Show()
}

func (a *Application) saveConfig() {
	fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		path := wc.URI().Path()
		wc.Close()
		if err := a.cfg.Save(path); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.logger.Info("Configuration saved", "path", path)
	}, a.window)
	fd.Show()
}

// refresh rebuilds a fresh pipeline with the current parameters and rerenders
// the selected stage. A new pipeline per refresh keeps the tracker from
// carrying fits across parameter changes.
func (a *Application) refresh() {
	if !a.hasFrame {
		return
	}

	p, err := pipeline.New(a.calib, a.cfg, a.logger)
	if err != nil {
		a.status.SetText(fmt.Sprintf("Invalid configuration: %v", err))
		return
	}
	defer p.Close()

	stages, res, err := p.ProcessFrameStages(a.frame)
	if err != nil {
		a.status.SetText(fmt.Sprintf("Processing failed: %v", err))
		return
	}
	defer stages.Close()

	mat := a.stageMat(&stages)
	img, err := mat.ToImage()
	if err != nil {
		a.status.SetText(fmt.Sprintf("Failed to render stage: %v", err))
		return
	}
	a.display.Image = img
	a.display.Refresh()

	if res.Detection.Detected {
		a.status.SetText(fmt.Sprintf(
			"Detected | radius L %.0f m, R %.0f m | offset %.2f m | lane width %.2f m | left px %d, right px %d",
			res.Geometry.LeftRadiusM, res.Geometry.RightRadiusM, res.Geometry.LateralOffsetM,
			res.Quality["lane_width_m"],
			res.Detection.LeftPix.Len(), res.Detection.RightPix.Len()))
	} else {
		a.status.SetText("No lane boundaries detected with current parameters")
	}
}

func (a *Application) stageMat(stages *pipeline.StageImages) gocv.Mat {
	switch a.stage {
	case "Undistorted":
		return stages.Undistorted
	case "Binary":
		return stages.Binary
	case "Rectified":
		return stages.Rectified
	case "Search":
		return stages.SearchDebug
	default:
		return stages.Annotated
	}
}
