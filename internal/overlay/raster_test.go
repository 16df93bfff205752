package overlay

import (
	"bytes"
	"image"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/pappadam/internal/fixture"
	"github.com/ayusman/pappadam/internal/vision"
)

func TestRasterize(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	img := fixture.Frame(200, 100, nil)
	defer img.Close()
	orig := img.Clone()
	defer orig.Close()

	r := NewRenderer(1)
	f, ok := r.Advance(500*time.Millisecond, image.Pt(200, 100), []vision.Detection{
		vision.NewDetection(60, 20, 10),
	})
	if !ok {
		t.Fatal("Advance should render")
	}

	Rasterize(f, &img)

	// Outline pixel on the right edge of the circle.
	px := img.GetVecbAt(20, 70)
	if px[0] != ColorSmall.B || px[1] != ColorSmall.G || px[2] != ColorSmall.R {
		t.Errorf("outline pixel = %v, want %s", px, ColorSmall.Hex())
	}

	// Band centered at y=50 tints that row; row 0 is well outside it.
	if bytes.Equal(img.GetVecbAt(50, 150), orig.GetVecbAt(50, 150)) {
		t.Error("scan band did not tint its center row")
	}
	if !bytes.Equal(img.GetVecbAt(95, 150), orig.GetVecbAt(95, 150)) {
		t.Error("pixel outside the band changed")
	}
}

func TestRasterize_EmptyMat(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	img := gocv.NewMat()
	defer img.Close()

	// Must not panic.
	Rasterize(Frame{Bubbles: []Circle{{Radius: 5}}}, &img)
	Rasterize(Frame{}, nil)
}

func TestRasterize_ParticleEdges(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	img := fixture.Frame(100, 100, nil)
	defer img.Close()

	// Rounds to (51, 51), so the fill reaches column and row 54.
	Rasterize(Frame{Particles: []Circle{{
		Center: vision.Point{X: 50.6, Y: 50.6},
		Radius: 3,
		Color:  ColorLarge,
		Alpha:  1,
		Fill:   true,
	}}}, &img)

	for _, at := range []image.Point{{54, 51}, {51, 54}, {48, 51}, {51, 48}} {
		px := img.GetVecbAt(at.Y, at.X)
		if px[0] != ColorLarge.B || px[1] != ColorLarge.G || px[2] != ColorLarge.R {
			t.Errorf("pixel %v = %v, want %s", at, px, ColorLarge.Hex())
		}
	}
}
