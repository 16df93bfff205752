package vision

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// ErrPrimitivesUnavailable reports that the OpenCV primitives cannot run.
// Analysis cannot proceed without them.
var ErrPrimitivesUnavailable = errors.New("image primitives unavailable")

// probeSize is the edge length of the probe frame.
const probeSize = 32

// Probe runs the whole preprocess and extract sequence on a tiny synthetic
// frame with one bright disc. Any panic or empty intermediate is reported
// as ErrPrimitivesUnavailable.
func Probe() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPrimitivesUnavailable, r)
		}
	}()

	frame := gocv.NewMatWithSize(probeSize, probeSize, gocv.MatTypeCV8UC3)
	defer frame.Close()
	if frame.Empty() {
		return fmt.Errorf("%w: cannot allocate frame", ErrPrimitivesUnavailable)
	}
	frame.SetTo(gocv.NewScalar(255, 255, 255, 0))
	gocv.Circle(&frame, image.Pt(probeSize/2, probeSize/2), probeSize/4, color.RGBA{A: 255}, -1)

	p := NewPreprocessor()
	defer p.Close()

	mask, perr := p.Preprocess(frame)
	defer mask.Close()
	if perr != nil {
		return perr
	}

	// Only the primitives are under test here, not the limits.
	NewExtractor().Components(mask)
	return nil
}
