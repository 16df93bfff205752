// Package analysis runs the detection pipeline on single frames and compares
// pairs of frames.
package analysis

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/pappadam/internal/logger"
	"github.com/ayusman/pappadam/internal/metrics"
	"github.com/ayusman/pappadam/internal/vision"
)

// Result is the output of one analysis pass.
type Result struct {
	ID         string             `json:"id"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
	Detections []vision.Detection `json:"detections"`
	Stats      metrics.Snapshot   `json:"stats"`
	Elapsed    time.Duration      `json:"elapsed_ns"`
}

// Engine runs Preprocess -> Extract -> Compute. It holds no per-pass state,
// so Analyze may be called from several goroutines.
//
// A primitive failure (probe failure, an OpenCV error or panic while
// preprocessing) is latched:
// it is reported once and every later call returns the same error without
// touching OpenCV again.
type Engine struct {
	pre maskBuilder
	ext *vision.Extractor

	mu      sync.RWMutex
	failure error
}

// maskBuilder is the preprocessing stage. *vision.Preprocessor implements it.
type maskBuilder interface {
	PreprocessInto(frame gocv.Mat, buf *vision.Buffers) (*gocv.Mat, error)
	Close()
}

// probe is swapped in tests.
var probe = vision.Probe

// New checks the OpenCV primitives and returns a ready Engine.
func New() (*Engine, error) {
	if err := probe(); err != nil {
		logger.WithError(err).Error("image primitives failed their self-check")
		return nil, err
	}
	return &Engine{
		pre: vision.NewPreprocessor(),
		ext: vision.NewExtractor(),
	}, nil
}

// Failure returns the latched primitive failure, if any.
func (e *Engine) Failure() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.failure
}

func (e *Engine) latch(err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failure == nil {
		e.failure = err
		logger.WithError(err).Error("analysis halted until image primitives are restored")
	}
	return e.failure
}

// Detect runs preprocessing and extraction on frame. An empty frame yields
// no detections and no error; a failing primitive latches the engine.
func (e *Engine) Detect(frame gocv.Mat) (dets []vision.Detection, err error) {
	if failure := e.Failure(); failure != nil {
		return nil, failure
	}

	defer func() {
		if r := recover(); r != nil {
			dets = nil
			err = e.latch(fmt.Errorf("%w: %v", vision.ErrPrimitivesUnavailable, r))
		}
	}()

	if frame.Empty() {
		return nil, nil
	}

	buf := vision.AcquireBuffers()
	defer buf.Release()

	mask, perr := e.pre.PreprocessInto(frame, buf)
	if perr != nil {
		return nil, e.latch(perr)
	}

	return e.ext.Extract(*mask), nil
}

// Analyze runs the full pipeline and computes statistics for cal.
func (e *Engine) Analyze(frame gocv.Mat, cal metrics.Calibration) (Result, error) {
	start := time.Now()
	width, height := frame.Cols(), frame.Rows()

	dets, err := e.Detect(frame)
	if err != nil {
		return Result{}, err
	}
	if dets == nil {
		dets = []vision.Detection{}
	}

	res := Result{
		ID:         uuid.NewString(),
		Width:      width,
		Height:     height,
		Detections: dets,
		Stats:      metrics.Compute(dets, cal, width, height),
		Elapsed:    time.Since(start),
	}

	logger.WithFields(logrus.Fields{
		"pass":    res.ID,
		"width":   width,
		"height":  height,
		"count":   res.Stats.Count,
		"index":   res.Stats.Index,
		"rating":  res.Stats.Rating,
		"elapsed": res.Elapsed,
	}).Debug("analysis pass complete")

	return res, nil
}

// Close releases the engine's OpenCV resources.
func (e *Engine) Close() {
	e.pre.Close()
}
