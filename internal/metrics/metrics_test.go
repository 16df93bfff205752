package metrics

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/ayusman/pappadam/internal/vision"
)

const epsilon = 1e-9

func detectionsWithDiameters(diameters ...float64) []vision.Detection {
	dets := make([]vision.Detection, len(diameters))
	for i, d := range diameters {
		dets[i] = vision.NewDetection(float64(i*10), float64(i*10), d/2)
	}
	return dets
}

func TestCompute_Empty(t *testing.T) {
	got := Compute(nil, Calibration{DiameterCm: 15}, 640, 480)

	want := Snapshot{Rating: RatingFlat, PxPerCm: got.PxPerCm}
	if got != want {
		t.Errorf("Compute(nil) = %+v, want %+v", got, want)
	}
	if got.Count != 0 || got.AvgDiameterPx != 0 || got.AvgDiameterCm != 0 || got.DensityPerCm2 != 0 || got.Index != 0 {
		t.Errorf("empty snapshot has non-zero aggregates: %+v", got)
	}
}

func TestCompute_ZeroDetectionsScenario(t *testing.T) {
	got := Compute(nil, Calibration{DiameterCm: 15}, 1000, 800)

	if math.Abs(got.PxPerCm-640.0/15.0) > epsilon {
		t.Errorf("PxPerCm = %v, want %v", got.PxPerCm, 640.0/15.0)
	}
	if got.AvgDiameterCm != 0 || got.DensityPerCm2 != 0 {
		t.Errorf("expected zero avg/density, got %+v", got)
	}
	if got.Rating != RatingFlat {
		t.Errorf("Rating = %s, want Flat", got.Rating)
	}
}

func TestCompute_Values(t *testing.T) {
	dets := detectionsWithDiameters(10, 20, 30)
	cal := Calibration{DiameterCm: 10}

	got := Compute(dets, cal, 500, 500)

	pxPerCm := 0.8 * 500 / 10
	area := math.Pi * 25
	density := 3 / area

	if got.Count != 3 {
		t.Errorf("Count = %d, want 3", got.Count)
	}
	if math.Abs(got.AvgDiameterPx-20) > epsilon {
		t.Errorf("AvgDiameterPx = %v, want 20", got.AvgDiameterPx)
	}
	if math.Abs(got.AvgDiameterCm-20/pxPerCm) > epsilon {
		t.Errorf("AvgDiameterCm = %v, want %v", got.AvgDiameterCm, 20/pxPerCm)
	}
	if math.Abs(got.DensityPerCm2-density) > epsilon {
		t.Errorf("DensityPerCm2 = %v, want %v", got.DensityPerCm2, density)
	}
	if math.Abs(got.Index-density*IndexScale) > epsilon {
		t.Errorf("Index = %v, want %v", got.Index, density*IndexScale)
	}
	if math.Abs(got.DiameterStdDevPx-math.Sqrt(200.0/3)) > 1e-6 {
		t.Errorf("DiameterStdDevPx = %v, want %v", got.DiameterStdDevPx, math.Sqrt(200.0/3))
	}
}

func TestRatingFor(t *testing.T) {
	tests := []struct {
		index float64
		want  Rating
	}{
		{0, RatingFlat},
		{1.2, RatingFlat},
		{1.2000001, RatingAverage},
		{2.5, RatingAverage},
		{2.5000001, RatingExcellent},
		{40, RatingExcellent},
	}

	for _, tt := range tests {
		if got := RatingFor(tt.index); got != tt.want {
			t.Errorf("RatingFor(%v) = %s, want %s", tt.index, got, tt.want)
		}
	}
}

func TestCompute_RatingMonotonicInDensity(t *testing.T) {
	cal := Calibration{DiameterCm: 5}
	prev := RatingFlat
	for n := 0; n <= 200; n++ {
		dets := make([]vision.Detection, n)
		for i := range dets {
			dets[i] = vision.NewDetection(0, 0, 5)
		}
		got := Compute(dets, cal, 640, 480).Rating
		if got.Rank() < prev.Rank() {
			t.Fatalf("rating dropped from %s to %s at count %d", prev, got, n)
		}
		prev = got
	}
	if prev != RatingExcellent {
		t.Errorf("expected to reach Excellent, ended at %s", prev)
	}
}

func TestCompute_CalibrationScale(t *testing.T) {
	dets := detectionsWithDiameters(12, 18, 24, 30)

	base := Compute(dets, Calibration{DiameterCm: 12}, 800, 600)
	doubled := Compute(dets, Calibration{DiameterCm: 24}, 800, 600)

	// Pixel scale halves, so physical sizes double.
	if math.Abs(doubled.AvgDiameterCm-2*base.AvgDiameterCm) > 1e-9 {
		t.Errorf("AvgDiameterCm %v -> %v, want doubling", base.AvgDiameterCm, doubled.AvgDiameterCm)
	}
	// Area grows with the square of the diameter.
	if math.Abs(doubled.DensityPerCm2-base.DensityPerCm2/4) > 1e-12 {
		t.Errorf("DensityPerCm2 %v -> %v, want quartering", base.DensityPerCm2, doubled.DensityPerCm2)
	}
	if doubled.AvgDiameterPx != base.AvgDiameterPx {
		t.Error("pixel average must not depend on calibration")
	}
}

func TestCompute_OrderIndependent(t *testing.T) {
	dets := detectionsWithDiameters(7, 11, 19, 23, 41, 52, 66, 8)
	cal := Calibration{DiameterCm: 14}
	want := Compute(dets, cal, 1280, 720)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 20; i++ {
		shuffled := append([]vision.Detection(nil), dets...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := Compute(shuffled, cal, 1280, 720)
		if got.Count != want.Count || got.Rating != want.Rating ||
			math.Abs(got.AvgDiameterPx-want.AvgDiameterPx) > epsilon ||
			math.Abs(got.DiameterStdDevPx-want.DiameterStdDevPx) > epsilon {
			t.Fatalf("shuffled snapshot %+v differs from %+v", got, want)
		}
	}
}

func TestCompute_DegenerateInputsStayFinite(t *testing.T) {
	dets := detectionsWithDiameters(10, 20)

	tests := []struct {
		name   string
		cal    Calibration
		width  int
		height int
	}{
		{"zero diameter", Calibration{DiameterCm: 0}, 640, 480},
		{"negative diameter", Calibration{DiameterCm: -5}, 640, 480},
		{"tiny diameter", Calibration{DiameterCm: 1e-12}, 640, 480},
		{"zero frame", Calibration{DiameterCm: 15}, 0, 0},
		{"negative frame", Calibration{DiameterCm: 15}, -10, 480},
		{"nan diameter", Calibration{DiameterCm: math.NaN()}, 640, 480},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Compute(dets, tt.cal, tt.width, tt.height)
			for name, v := range map[string]float64{
				"AvgDiameterCm": s.AvgDiameterCm,
				"DensityPerCm2": s.DensityPerCm2,
				"Index":         s.Index,
				"PxPerCm":       s.PxPerCm,
			} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Errorf("%s is not finite: %v", name, v)
				}
			}
		})
	}
}

func TestCalibration_PxPerCm(t *testing.T) {
	c := Calibration{DiameterCm: 0.5}
	// Diameter is floored at 1.
	if got := c.PxPerCm(100, 200); math.Abs(got-80) > epsilon {
		t.Errorf("PxPerCm = %v, want 80", got)
	}
}
