package vision

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Preprocessing constants
const (
	// BlurSize is the Gaussian kernel size (radius 2).
	BlurSize = 5
	// OpenSize is the structuring element size for morphological opening.
	OpenSize = 3
)

// ErrStepFailed is wrapped with ErrPrimitivesUnavailable when an OpenCV
// primitive produced no output.
var ErrStepFailed = errors.New("image primitive produced no output")

// Preprocessor converts a color frame into a binary mask where bubble
// interiors are foreground.
//
// Algorithm:
// 1. Convert frame to grayscale
// 2. Equalize the histogram to normalize contrast
// 3. Apply Gaussian blur (5x5)
// 4. Otsu threshold, inverted so bubbles become white
// 5. Morphological opening (3x3) to drop isolated noise pixels
type Preprocessor struct {
	kernel gocv.Mat
}

// NewPreprocessor creates a Preprocessor. Close must be called to release
// the structuring element.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{
		kernel: gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: OpenSize, Y: OpenSize}),
	}
}

// Preprocess returns a single-channel mask for frame. The caller owns the
// returned Mat. An empty frame yields an empty mask and no error.
func (p *Preprocessor) Preprocess(frame gocv.Mat) (gocv.Mat, error) {
	mask := gocv.NewMat()
	if frame.Empty() {
		return mask, nil
	}

	buf := AcquireBuffers()
	defer buf.Release()

	if err := p.run(frame, buf, &mask); err != nil {
		mask.Close()
		return gocv.NewMat(), err
	}
	return mask, nil
}

// PreprocessInto writes the mask into a Mat owned by buf, so a caller that
// also runs extraction can release everything with one Release.
func (p *Preprocessor) PreprocessInto(frame gocv.Mat, buf *Buffers) (*gocv.Mat, error) {
	mask := buf.Mat()
	if frame.Empty() {
		return mask, nil
	}
	if err := p.run(frame, buf, mask); err != nil {
		return mask, err
	}
	return mask, nil
}

func (p *Preprocessor) run(frame gocv.Mat, buf *Buffers, mask *gocv.Mat) error {
	gray := buf.Mat()
	var err error
	switch frame.Channels() {
	case 1:
		frame.CopyTo(gray)
	case 4:
		err = gocv.CvtColor(frame, gray, gocv.ColorBGRAToGray)
	default:
		err = gocv.CvtColor(frame, gray, gocv.ColorBGRToGray)
	}
	if err := check("grayscale", err, gray); err != nil {
		return err
	}

	equalized := buf.Mat()
	if err := check("equalize histogram", gocv.EqualizeHist(*gray, equalized), equalized); err != nil {
		return err
	}

	blurred := buf.Mat()
	err = gocv.GaussianBlur(*equalized, blurred, image.Point{X: BlurSize, Y: BlurSize}, 0, 0, gocv.BorderDefault)
	if err := check("gaussian blur", err, blurred); err != nil {
		return err
	}

	binary := buf.Mat()
	gocv.Threshold(*blurred, binary, 0, 255, gocv.ThresholdBinaryInv+gocv.ThresholdOtsu)
	if err := check("otsu threshold", nil, binary); err != nil {
		return err
	}

	return check("morphological open", gocv.MorphologyEx(*binary, mask, gocv.MorphOpen, p.kernel), mask)
}

// check reports a failed step as ErrPrimitivesUnavailable. Every step gets a
// non-empty input, so an empty output is a failure too.
func check(step string, err error, out *gocv.Mat) error {
	if err != nil {
		return fmt.Errorf("%s: %w: %v", step, ErrPrimitivesUnavailable, err)
	}
	if out.Empty() {
		return fmt.Errorf("%s: %w: %w", step, ErrPrimitivesUnavailable, ErrStepFailed)
	}
	return nil
}

// Close releases the structuring element.
func (p *Preprocessor) Close() {
	if !p.kernel.Empty() {
		p.kernel.Close()
		p.kernel = gocv.NewMat()
	}
}
