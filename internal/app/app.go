// Package app wires capture, analysis and the live overlay into the
// pappadam application.
package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/pappadam/internal/analysis"
	"github.com/ayusman/pappadam/internal/capture"
	"github.com/ayusman/pappadam/internal/commentary"
	"github.com/ayusman/pappadam/internal/logger"
	"github.com/ayusman/pappadam/internal/metrics"
	"github.com/ayusman/pappadam/internal/overlay"
	"github.com/ayusman/pappadam/internal/store"
)

// Defaults used when neither the config nor the store supplies a value.
const (
	DefaultDiameterCm = 15.0
	DefaultLiveFPS    = 30
)

var (
	// ErrLiveUnavailable is returned when Live mode cannot open its camera.
	ErrLiveUnavailable = errors.New("live mode unavailable")
	// ErrInvalidCalibration is returned for a non-positive or non-finite
	// declared diameter.
	ErrInvalidCalibration = errors.New("diameter must be a positive number of centimetres")
	// ErrInvalidFPS is returned for a live rate outside 1..120.
	ErrInvalidFPS = errors.New("fps must be between 1 and 120")
)

// Config holds configuration options for the application.
type Config struct {
	Store      *store.Store
	Camera     capture.Camera
	CameraID   int
	DiameterCm float64
	LiveFPS    int
	// ChangePercent gates live re-analysis; see capture.ChangeGate.
	ChangePercent float64
	Seed          uint64
	Commentary    commentary.Provider
}

// Report is an analysis result with its commentary.
type Report struct {
	analysis.Result
	Commentary commentary.Report `json:"commentary"`
}

// LiveFrame is published once per rendered Live tick.
type LiveFrame struct {
	Session  string           `json:"session"`
	Tick     uint64           `json:"tick"`
	Commands overlay.Frame    `json:"commands"`
	Stats    metrics.Snapshot `json:"stats"`
}

// App is the pappadam application.
type App struct {
	config     Config
	engine     *analysis.Engine
	comparator *analysis.Comparator
	camera     capture.Camera
	gate       *capture.ChangeGate
	renderer   *overlay.Renderer
	loop       *overlay.Loop
	commentary commentary.Provider

	mu          sync.RWMutex
	calibration metrics.Calibration
	latest      *analysis.Result
	lastFrame   gocv.Mat
	lastOverlay *overlay.Frame
	listeners   map[int]func(LiveFrame)
	nextID      int
}

// New builds an App. It fails with vision.ErrPrimitivesUnavailable if the
// image primitives do not work.
func New(config Config) (*App, error) {
	engine, err := analysis.New()
	if err != nil {
		return nil, err
	}

	camera := config.Camera
	if camera == nil {
		camera = capture.NewCamera(config.CameraID)
	}
	provider := config.Commentary
	if provider == nil {
		provider = commentary.Seeded{}
	}
	gatePercent := config.ChangePercent
	if gatePercent == 0 {
		gatePercent = capture.DefaultChangePercent
	}

	renderer := overlay.NewRenderer(config.Seed)
	a := &App{
		config:     config,
		engine:     engine,
		comparator: analysis.NewComparator(engine),
		camera:     camera,
		gate:       capture.NewChangeGate(gatePercent),
		renderer:   renderer,
		loop:       overlay.NewLoop(renderer, DefaultLiveFPS),
		commentary: provider,
		lastFrame:  gocv.NewMat(),
		listeners:  make(map[int]func(LiveFrame)),
	}

	a.loop.OnSourceGone(a.sourceGone)

	if err := a.loadSettings(); err != nil {
		engine.Close()
		return nil, err
	}
	return a, nil
}

// loadSettings applies config values, then anything the store overrides.
func (a *App) loadSettings() error {
	diameter := a.config.DiameterCm
	if diameter <= 0 {
		diameter = DefaultDiameterCm
	}
	fps := a.config.LiveFPS
	if fps <= 0 {
		fps = DefaultLiveFPS
	}

	if a.config.Store != nil {
		var err error
		settings := a.config.Store.Settings()
		if diameter, err = settings.Float(store.KeyDiameterCm, diameter); err != nil {
			return fmt.Errorf("load calibration: %w", err)
		}
		if fps, err = settings.Int(store.KeyLiveFPS, fps); err != nil {
			return fmt.Errorf("load live fps: %w", err)
		}
	}

	a.calibration = metrics.Calibration{DiameterCm: diameter}
	a.loop.SetFPS(fps)
	a.camera.SetFPS(fps)
	return nil
}

// Calibration returns the current declared disc diameter.
func (a *App) Calibration() metrics.Calibration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.calibration
}

// SetCalibration changes and persists the declared disc diameter.
func (a *App) SetCalibration(diameterCm float64) error {
	if diameterCm <= 0 || math.IsNaN(diameterCm) || math.IsInf(diameterCm, 0) {
		return ErrInvalidCalibration
	}
	if a.config.Store != nil {
		if err := a.config.Store.Settings().PutFloat(store.KeyDiameterCm, diameterCm); err != nil {
			return fmt.Errorf("save calibration: %w", err)
		}
	}

	a.mu.Lock()
	a.calibration = metrics.Calibration{DiameterCm: diameterCm}
	a.mu.Unlock()

	logger.WithField("diameter_cm", diameterCm).Info("calibration updated")
	return nil
}

// LiveFPS returns the Live tick rate.
func (a *App) LiveFPS() int {
	return int(math.Round(float64(1e9) / float64(a.loop.Interval())))
}

// SetLiveFPS changes and persists the Live tick rate. A running Live
// session picks it up on its next start.
func (a *App) SetLiveFPS(fps int) error {
	if fps < 1 || fps > 120 {
		return ErrInvalidFPS
	}
	if a.config.Store != nil {
		if err := a.config.Store.Settings().PutInt(store.KeyLiveFPS, fps); err != nil {
			return fmt.Errorf("save live fps: %w", err)
		}
	}
	a.loop.SetFPS(fps)
	a.camera.SetFPS(fps)
	return nil
}

// Analyze decodes an uploaded image and runs one analysis pass. A positive
// diameterCm overrides the stored calibration for this pass only.
func (a *App) Analyze(data []byte, diameterCm float64) (Report, error) {
	frame, err := capture.Decode(data, capture.MaxUploadWidth)
	if err != nil {
		return Report{}, err
	}
	defer frame.Close()

	cal := a.Calibration()
	if diameterCm > 0 {
		cal = metrics.Calibration{DiameterCm: diameterCm}
	}
	return a.AnalyzeFrame(frame, cal)
}

// AnalyzeFrame runs one analysis pass on a decoded frame.
func (a *App) AnalyzeFrame(frame gocv.Mat, cal metrics.Calibration) (Report, error) {
	res, err := a.engine.Analyze(frame, cal)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Result:     res,
		Commentary: a.commentary.Describe(commentary.NewInput(res.Stats, res.Detections)),
	}, nil
}

// Compare decodes two uploaded images and ranks them.
func (a *App) Compare(ctx context.Context, left, right []byte) (analysis.Comparison, error) {
	l, err := capture.Decode(left, capture.MaxCompareWidth)
	if err != nil {
		return analysis.Comparison{}, fmt.Errorf("left image: %w", err)
	}
	defer l.Close()

	r, err := capture.Decode(right, capture.MaxCompareWidth)
	if err != nil {
		return analysis.Comparison{}, fmt.Errorf("right image: %w", err)
	}
	defer r.Close()

	return a.comparator.Compare(ctx, l, r)
}

// Latest returns the most recent Live analysis.
func (a *App) Latest() (analysis.Result, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.latest == nil {
		return analysis.Result{}, false
	}
	return *a.latest, true
}

// Failure returns the latched primitive failure, if any.
func (a *App) Failure() error {
	return a.engine.Failure()
}

// Subscribe registers fn for every Live frame and returns a function that
// removes it. fn runs on the Live driver goroutine and must not block.
func (a *App) Subscribe(fn func(LiveFrame)) (unsubscribe func()) {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

// Close stops Live mode and releases all resources.
func (a *App) Close() {
	a.SetLive(false)

	a.mu.Lock()
	a.lastFrame.Close()
	a.mu.Unlock()

	a.gate.Close()
	a.engine.Close()
}
