package vision

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/pappadam/internal/fixture"
)

func TestPreprocess_EmptyFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	p := NewPreprocessor()
	defer p.Close()

	empty := gocv.NewMat()
	defer empty.Close()

	mask, err := p.Preprocess(empty)
	if err != nil {
		t.Fatalf("Preprocess(empty) error = %v", err)
	}
	defer mask.Close()

	if !mask.Empty() {
		t.Error("mask of an empty frame should be empty")
	}
}

func TestPreprocess_MaskShape(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	p := NewPreprocessor()
	defer p.Close()

	frame := fixture.Frame(320, 240, []fixture.Bubble{{X: 160, Y: 120, Radius: 20}})
	defer frame.Close()

	mask, err := p.Preprocess(frame)
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	defer mask.Close()

	if mask.Channels() != 1 {
		t.Errorf("mask channels = %d, want 1", mask.Channels())
	}
	if mask.Rows() != 240 || mask.Cols() != 320 {
		t.Errorf("mask size = %dx%d, want 320x240", mask.Cols(), mask.Rows())
	}
	if gocv.CountNonZero(mask) == 0 {
		t.Error("mask should contain the bubble as foreground")
	}
	// The bubble is darker than the disc, so its center must be foreground.
	if v := mask.GetUCharAt(120, 160); v != 255 {
		t.Errorf("mask at bubble center = %d, want 255", v)
	}
}

func TestPreprocess_UnsupportedChannels(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	// Two channels fall through to the BGR conversion, which OpenCV rejects.
	frame := gocv.NewMatWithSize(40, 40, gocv.MatTypeCV8UC2)
	defer frame.Close()

	p := NewPreprocessor()
	defer p.Close()

	mask, err := p.Preprocess(frame)
	defer mask.Close()
	if !errors.Is(err, ErrPrimitivesUnavailable) {
		t.Fatalf("Preprocess() error = %v, want ErrPrimitivesUnavailable", err)
	}
	if !mask.Empty() {
		t.Error("failed Preprocess() should return an empty mask")
	}
}

func TestPreprocess_Deterministic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	p := NewPreprocessor()
	defer p.Close()

	frame := fixture.Frame(200, 200, fixture.Grid(200, 200, 3, 3, 9))
	defer frame.Close()

	a, err := p.Preprocess(frame)
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	defer a.Close()
	b, err := p.Preprocess(frame)
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	defer b.Close()

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a, b, &diff)
	if n := gocv.CountNonZero(diff); n != 0 {
		t.Errorf("two passes differ in %d pixels", n)
	}
}

func TestExtract_SyntheticFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	p := NewPreprocessor()
	defer p.Close()

	frame := fixture.Frame(400, 300, []fixture.Bubble{
		{X: 60, Y: 60, Radius: 8},
		{X: 200, Y: 80, Radius: 20},
		{X: 280, Y: 200, Radius: 35},
		{X: 100, Y: 250, Radius: 2},
	})
	defer frame.Close()

	mask, err := p.Preprocess(frame)
	if err != nil {
		t.Fatalf("Preprocess() error = %v", err)
	}
	defer mask.Close()

	dets := NewExtractor().Extract(mask)
	if len(dets) != 3 {
		t.Fatalf("Extract() returned %d detections, want 3: %+v", len(dets), dets)
	}

	counts := CountByClass(dets)
	if counts[SizeSmall] != 1 || counts[SizeMedium] != 1 || counts[SizeLarge] != 1 {
		t.Errorf("class counts = %v, want one of each", counts)
	}
	for _, d := range dets {
		if d.Radius <= 0 {
			t.Errorf("detection with non-positive radius: %+v", d)
		}
	}
}

func TestExtract_EmptyMask(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	empty := gocv.NewMat()
	defer empty.Close()

	if dets := NewExtractor().Extract(empty); len(dets) != 0 {
		t.Errorf("Extract(empty) = %v, want none", dets)
	}
}

func TestBuffers_Release(t *testing.T) {
	buf := AcquireBuffers()
	buf.Mat()
	buf.Mat()
	if buf.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", buf.Len())
	}
	buf.Release()

	next := AcquireBuffers()
	defer next.Release()
	if next.Len() != 0 {
		t.Errorf("pooled scope should start empty, got %d", next.Len())
	}
}

func TestProbe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	if err := Probe(); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
}
