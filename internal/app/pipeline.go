package app

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/pappadam/internal/capture"
	"github.com/ayusman/pappadam/internal/logger"
	"github.com/ayusman/pappadam/internal/metrics"
	"github.com/ayusman/pappadam/internal/overlay"
)

// SetLive enters or leaves Live mode. Entering opens the camera; leaving
// stops the overlay driver, discards its state and closes the camera.
func (a *App) SetLive(live bool) error {
	if !live {
		a.loop.Stop()
		a.resetLive()
		if err := a.camera.Close(); err != nil {
			logger.WithError(err).Warn("error closing camera")
		}
		return nil
	}

	if err := a.Failure(); err != nil {
		return err
	}

	// A running driver must be gone before its state is reset.
	a.loop.Stop()
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("%w: %v", ErrLiveUnavailable, err)
	}

	a.resetLive()
	a.loop.Start(a.nextInput, a.publish)
	return nil
}

// sourceGone runs on the overlay driver when Live ends on its own. It
// leaves the app Idle the same way SetLive(false) does.
func (a *App) sourceGone() {
	a.resetLive()
	if err := a.camera.Close(); err != nil {
		logger.WithError(err).Warn("error closing camera")
	}
}

// IsLive reports whether Live mode is running.
func (a *App) IsLive() bool {
	return a.loop.Live()
}

// Session returns the current Live session ID.
func (a *App) Session() string {
	return a.loop.Session()
}

func (a *App) resetLive() {
	a.gate.Reset()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.latest = nil
	a.lastOverlay = nil
	a.lastFrame.Close()
	a.lastFrame = gocv.NewMat()
}

// nextInput is the overlay Source: it reads one camera frame and, when the
// frame changed enough, re-runs the analysis. Closed or exhausted cameras
// and primitive failures end Live mode.
func (a *App) nextInput() (overlay.Input, error) {
	frame, err := a.camera.ReadFrame()
	switch {
	case errors.Is(err, capture.ErrCameraNotOpen), errors.Is(err, capture.ErrEndOfStream):
		return overlay.Input{}, fmt.Errorf("%w: %v", overlay.ErrSourceGone, err)
	case err != nil:
		return overlay.Input{}, err
	}

	size := image.Pt(frame.Cols(), frame.Rows())
	latest, ok := a.Latest()

	if changed, _ := a.gate.Changed(*frame); changed || !ok {
		res, err := a.engine.Analyze(*frame, a.Calibration())
		if err != nil {
			frame.Close()
			return overlay.Input{}, fmt.Errorf("%w: %v", overlay.ErrSourceGone, err)
		}
		latest = res
	} else {
		// Same scene: keep the detections, follow calibration changes.
		latest.Stats = metrics.Compute(latest.Detections, a.Calibration(), size.X, size.Y)
	}

	a.mu.Lock()
	a.latest = &latest
	a.lastFrame.Close()
	a.lastFrame = *frame
	a.mu.Unlock()

	return overlay.Input{Size: size, Detections: latest.Detections}, nil
}

// publish is the overlay Sink.
func (a *App) publish(f overlay.Frame) {
	session := a.loop.Session()

	a.mu.Lock()
	a.lastOverlay = &f
	stats := metrics.Empty()
	if a.latest != nil {
		stats = a.latest.Stats
	}
	listeners := make([]func(LiveFrame), 0, len(a.listeners))
	for _, fn := range a.listeners {
		listeners = append(listeners, fn)
	}
	a.mu.Unlock()

	lf := LiveFrame{Session: session, Tick: f.Tick, Commands: f, Stats: stats}
	for _, fn := range listeners {
		fn(lf)
	}
}

// Preview returns the last Live frame with the overlay drawn on it. The
// caller owns the returned Mat.
func (a *App) Preview() (gocv.Mat, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.lastFrame.Empty() {
		return gocv.Mat{}, false
	}
	img := a.lastFrame.Clone()
	if a.lastOverlay != nil {
		overlay.Rasterize(*a.lastOverlay, &img)
	}
	return img, true
}
