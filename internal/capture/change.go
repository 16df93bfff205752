package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Change detection constants
const (
	// ChangeBlurSize is the Gaussian kernel applied before differencing.
	ChangeBlurSize = 21
	// ChangePixelDelta is the per-pixel gray difference counted as change.
	ChangePixelDelta = 25
	// DefaultChangePercent is the share of changed pixels that triggers
	// a new analysis pass.
	DefaultChangePercent = 0.5
)

// ChangeGate decides whether a live frame differs enough from the last
// analyzed frame to be worth analyzing again. The baseline only moves when
// a frame passes the gate, so slow drift still accumulates into a change.
type ChangeGate struct {
	mu        sync.Mutex
	threshold float64
	baseline  gocv.Mat
	size      image.Point
}

// NewChangeGate creates a gate that opens when more than thresholdPercent
// of the pixels changed. Non-positive thresholds open on every frame.
func NewChangeGate(thresholdPercent float64) *ChangeGate {
	return &ChangeGate{
		threshold: thresholdPercent,
		baseline:  gocv.NewMat(),
	}
}

// Changed reports whether frame should be analyzed and the percentage of
// pixels that differ from the baseline. The first frame, and any frame whose
// size differs from the baseline, always passes.
func (g *ChangeGate) Changed(frame gocv.Mat) (bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame.Empty() {
		return false, 0
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	g.smooth(frame, &blurred)

	size := image.Pt(frame.Cols(), frame.Rows())
	if g.baseline.Empty() || size != g.size {
		g.rebase(blurred, size)
		return true, 100
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.baseline, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, ChangePixelDelta, 255, gocv.ThresholdBinary)

	total := thresh.Rows() * thresh.Cols()
	percent := float64(gocv.CountNonZero(thresh)) / float64(total) * 100

	if percent <= g.threshold && g.threshold > 0 {
		return false, percent
	}
	g.rebase(blurred, size)
	return true, percent
}

func (g *ChangeGate) smooth(frame gocv.Mat, dst *gocv.Mat) {
	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}
	gocv.GaussianBlur(gray, dst, image.Pt(ChangeBlurSize, ChangeBlurSize), 0, 0, gocv.BorderDefault)
}

func (g *ChangeGate) rebase(blurred gocv.Mat, size image.Point) {
	blurred.CopyTo(&g.baseline)
	g.size = size
}

// Reset forgets the baseline so the next frame passes.
func (g *ChangeGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.baseline.Close()
	g.baseline = gocv.NewMat()
	g.size = image.Point{}
}

// Close releases the baseline.
func (g *ChangeGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.baseline.Close()
}
