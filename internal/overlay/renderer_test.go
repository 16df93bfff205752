package overlay

import (
	"image"
	"math"
	"testing"
	"time"

	"github.com/ayusman/pappadam/internal/vision"
)

var canvas = image.Pt(640, 480)

func sampleDetections() []vision.Detection {
	return []vision.Detection{
		vision.NewDetection(100, 100, 8),
		vision.NewDetection(300, 200, 18),
		vision.NewDetection(500, 350, 30),
	}
}

// warmUp ticks until at least one particle exists.
func warmUp(t *testing.T, r *Renderer, dets []vision.Detection) {
	t.Helper()
	for i := 0; i < 2000; i++ {
		r.Advance(time.Duration(i)*time.Millisecond, canvas, dets)
		if len(r.State().Particles) > 0 {
			return
		}
	}
	t.Fatal("no particle spawned after 2000 ticks")
}

func TestRenderer_SkipsWithoutSize(t *testing.T) {
	r := NewRenderer(1)
	warmUp(t, r, sampleDetections())
	before := r.State()

	tests := []image.Point{{0, 0}, {640, 0}, {0, 480}, {-1, 10}}
	for _, size := range tests {
		if _, ok := r.Advance(time.Second, size, sampleDetections()); ok {
			t.Errorf("Advance(%v) should skip", size)
		}
	}

	after := r.State()
	if after.Ticks != before.Ticks || len(after.Particles) != len(before.Particles) {
		t.Errorf("skipped ticks changed state: before %+v after %+v", before, after)
	}
}

func TestRenderer_NoDetectionsNoSpawn(t *testing.T) {
	r := NewRenderer(7)
	for i := 0; i < 500; i++ {
		f, ok := r.Advance(time.Duration(i)*time.Millisecond, canvas, nil)
		if !ok {
			t.Fatal("Advance should render with a valid size")
		}
		if len(f.Particles) != 0 || len(f.Bubbles) != 0 {
			t.Fatalf("tick %d: unexpected commands %+v", i, f)
		}
	}
}

func TestRenderer_ParticleLifecycle(t *testing.T) {
	r := NewRenderer(42)
	dets := sampleDetections()
	warmUp(t, r, dets)

	p := r.State().Particles[0]
	if p.Alpha > InitialAlpha || p.Radius < 2*RadiusDecay || p.Radius > 6 {
		t.Errorf("fresh particle out of range: %+v", p)
	}
	if p.VY < 0.3 || p.VY > 0.9 {
		t.Errorf("VY = %v, want [0.3, 0.9]", p.VY)
	}

	// Without detections nothing new spawns, so every particle must rise,
	// fade and disappear within InitialAlpha/AlphaDecay ticks.
	prev := p
	for i := 0; i < 5; i++ {
		r.Advance(0, canvas, nil)
		cur := r.State().Particles[0]
		if cur.Y >= prev.Y || cur.Alpha >= prev.Alpha || cur.Radius >= prev.Radius {
			t.Fatalf("particle did not rise/fade/shrink: %+v -> %+v", prev, cur)
		}
		prev = cur
	}

	limit := int(math.Ceil(InitialAlpha/AlphaDecay)) + 1
	for i := 0; i < limit; i++ {
		r.Advance(0, canvas, nil)
	}
	if n := len(r.State().Particles); n != 0 {
		t.Errorf("%d particles survived past their lifetime", n)
	}
}

func TestRenderer_SpawnBound(t *testing.T) {
	r := NewRenderer(3)
	dets := sampleDetections()[:2]

	prev := 0
	for i := 0; i < 1000; i++ {
		r.Advance(0, canvas, dets)
		n := len(r.State().Particles)
		if n-prev > len(dets) {
			t.Fatalf("tick %d spawned %d particles, cap is %d", i, n-prev, len(dets))
		}
		prev = n
	}
}

func TestRenderer_ResizeClearsParticles(t *testing.T) {
	r := NewRenderer(5)
	warmUp(t, r, sampleDetections())

	f, ok := r.Advance(0, image.Pt(320, 240), nil)
	if !ok {
		t.Fatal("Advance should render after resize")
	}
	if len(f.Particles) != 0 {
		t.Errorf("resize kept %d particles", len(f.Particles))
	}
	if got := r.State().Size; got != image.Pt(320, 240) {
		t.Errorf("Size = %v, want 320x240", got)
	}
}

func TestRenderer_Reproducible(t *testing.T) {
	a, b := NewRenderer(99), NewRenderer(99)
	dets := sampleDetections()

	for i := 0; i < 300; i++ {
		now := time.Duration(i) * 33 * time.Millisecond
		fa, _ := a.Advance(now, canvas, dets)
		fb, _ := b.Advance(now, canvas, dets)
		if len(fa.Particles) != len(fb.Particles) {
			t.Fatalf("tick %d: particle counts differ %d != %d", i, len(fa.Particles), len(fb.Particles))
		}
		for j := range fa.Particles {
			if fa.Particles[j] != fb.Particles[j] {
				t.Fatalf("tick %d: particle %d differs", i, j)
			}
		}
	}
}

func TestRenderer_BubbleCommands(t *testing.T) {
	r := NewRenderer(1)
	f, _ := r.Advance(0, canvas, sampleDetections())

	want := []Color{ColorSmall, ColorMedium, ColorLarge}
	if len(f.Bubbles) != len(want) {
		t.Fatalf("got %d bubble commands, want %d", len(f.Bubbles), len(want))
	}
	for i, c := range f.Bubbles {
		if c.Color != want[i] {
			t.Errorf("bubble %d color = %s, want %s", i, c.Color.Hex(), want[i].Hex())
		}
		if c.Fill || c.LineWidth != OutlineWidth {
			t.Errorf("bubble %d should be stroked with width %d", i, OutlineWidth)
		}
	}
	if f.Scan.Width != float64(canvas.X) || f.Scan.Height != ScanBandHeight {
		t.Errorf("scan band = %+v", f.Scan)
	}
}

func TestScanPosition(t *testing.T) {
	tests := []struct {
		now  time.Duration
		want float64
	}{
		{0, 0},
		{250 * time.Millisecond, 0.25},
		{500 * time.Millisecond, 0.5},
		{time.Second, 1},
		{1500 * time.Millisecond, 0.5},
		{2 * time.Second, 0},
		{2250 * time.Millisecond, 0.25},
		{3750 * time.Millisecond, 0.25},
	}

	for _, tt := range tests {
		if got := ScanPosition(tt.now); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ScanPosition(%v) = %v, want %v", tt.now, got, tt.want)
		}
	}
}

func TestColor_Hex(t *testing.T) {
	tests := map[Color]string{
		ColorSmall:  "#22c55e",
		ColorMedium: "#eab308",
		ColorLarge:  "#ef4444",
	}
	for c, want := range tests {
		if got := c.Hex(); got != want {
			t.Errorf("Hex() = %s, want %s", got, want)
		}
		b, _ := c.MarshalText()
		if string(b) != want {
			t.Errorf("MarshalText() = %s, want %s", b, want)
		}
	}
}
