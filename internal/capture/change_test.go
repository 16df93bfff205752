package capture

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/pappadam/internal/fixture"
)

func TestChangeGate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewChangeGate(DefaultChangePercent)
	defer g.Close()

	calm := fixture.Frame(320, 240, fixture.Grid(320, 240, 2, 2, 10))
	defer calm.Close()
	busy := fixture.Frame(320, 240, fixture.Grid(320, 240, 3, 4, 14))
	defer busy.Close()
	small := fixture.Frame(160, 120, nil)
	defer small.Close()

	steps := []struct {
		name  string
		frame gocv.Mat
		want  bool
	}{
		{"first frame passes", calm, true},
		{"identical frame is held", calm, false},
		{"different frame passes", busy, true},
		{"baseline moved to the new frame", busy, false},
		{"resize passes", small, true},
	}

	for _, s := range steps {
		got, pct := g.Changed(s.frame)
		if got != s.want {
			t.Errorf("%s: Changed() = %v (%.2f%%), want %v", s.name, got, pct, s.want)
		}
	}

	g.Reset()
	if got, _ := g.Changed(small); !got {
		t.Error("first frame after Reset should pass")
	}
}

func TestChangeGate_EmptyFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	g := NewChangeGate(DefaultChangePercent)
	defer g.Close()

	empty := gocv.NewMat()
	defer empty.Close()

	if got, pct := g.Changed(empty); got || pct != 0 {
		t.Errorf("Changed(empty) = %v, %v; want false, 0", got, pct)
	}
}
