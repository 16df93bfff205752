package commentary

import (
	"slices"
	"strings"
	"testing"

	"github.com/ayusman/pappadam/internal/metrics"
	"github.com/ayusman/pappadam/internal/vision"
)

func TestOilEstimate(t *testing.T) {
	tests := []struct {
		name  string
		avgCm float64
		count int
		want  int
	}{
		{"no bubbles", 0, 0, 5},
		{"rounds", 0.5, 10, 5},
		{"grows with count", 1.0, 50, 9},
		{"large", 2.5, 100, 25},
		{"never below two", -100, 10, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OilEstimate(tt.avgCm, tt.count); got != tt.want {
				t.Errorf("OilEstimate(%v, %d) = %d, want %d", tt.avgCm, tt.count, got, tt.want)
			}
		})
	}
}

func TestMelody(t *testing.T) {
	tests := []struct {
		name      string
		diameters []float64
		want      []Note
	}{
		{"empty", nil, []Note{}},
		{"single", []float64{30}, []Note{"C4"}},
		{"range", []float64{10, 20, 30, 40, 50, 60}, []Note{"C4", "D4", "E4", "G4", "A4", "C5"}},
		{"narrow spread stays low", []float64{10, 10.5}, []Note{"C4", "E4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Melody(tt.diameters); !slices.Equal(got, tt.want) {
				t.Errorf("Melody(%v) = %v, want %v", tt.diameters, got, tt.want)
			}
		})
	}
}

func TestMelody_Truncates(t *testing.T) {
	diameters := make([]float64, 40)
	for i := range diameters {
		diameters[i] = float64(10 + i)
	}

	got := Melody(diameters)
	if len(got) != MelodyLength {
		t.Fatalf("len = %d, want %d", len(got), MelodyLength)
	}
	for _, n := range got {
		if !slices.Contains(Scale, n) {
			t.Errorf("note %q not in scale", n)
		}
	}
}

func TestPersonality_Deterministic(t *testing.T) {
	a := Personality(42, 18.5)
	b := Personality(42, 18.5)
	if a != b {
		t.Errorf("same input gave %q and %q", a, b)
	}
	if !strings.Contains(a, " with ") {
		t.Errorf("unexpected personality %q", a)
	}

	found := false
	for _, v := range vibes {
		if strings.HasPrefix(a, v) {
			found = true
		}
	}
	if !found {
		t.Errorf("personality %q does not start with a known vibe", a)
	}
}

func TestHoroscope(t *testing.T) {
	for count := 0; count < 50; count++ {
		h := Horoscope(count, float64(count)*0.1)
		if !slices.Contains(fortunes, h) {
			t.Fatalf("Horoscope(%d) = %q, not a known fortune", count, h)
		}
		if h != Horoscope(count, float64(count)*0.1) {
			t.Fatalf("Horoscope(%d) not deterministic", count)
		}
	}
}

func TestSineSource_Range(t *testing.T) {
	s := newSineSource(1234)
	for i := 0; i < 1000; i++ {
		if u := s.next(); u < 0 || u >= 1 {
			t.Fatalf("draw %d = %v, want [0, 1)", i, u)
		}
	}
}

func TestSeeded_Describe(t *testing.T) {
	dets := []vision.Detection{
		vision.NewDetection(10, 10, 5),
		vision.NewDetection(50, 50, 20),
	}
	snap := metrics.Compute(dets, metrics.Calibration{DiameterCm: 15}, 640, 480)

	var p Provider = Seeded{}
	r := p.Describe(NewInput(snap, dets))

	if r.Personality == "" || r.Horoscope == "" {
		t.Errorf("empty strings in %+v", r)
	}
	if r.OilMl < 2 {
		t.Errorf("OilMl = %d, want >= 2", r.OilMl)
	}
	if !slices.Equal(r.Melody, []Note{"C4", "C5"}) {
		t.Errorf("Melody = %v, want [C4 C5]", r.Melody)
	}
}
