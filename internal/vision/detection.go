// Package vision turns raw frames into bubble detections using GoCV (OpenCV).
package vision

import "math"

// Size class breakpoints in pixels. They are tuned for frames around
// 640x480 and are not normalized by resolution or calibration.
const (
	SmallMaxDiameter  = 25.0
	MediumMaxDiameter = 50.0
)

// SizeClass buckets a bubble by its diameter.
type SizeClass string

const (
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
)

// Rank orders size classes from small to large.
func (c SizeClass) Rank() int {
	switch c {
	case SizeSmall:
		return 0
	case SizeMedium:
		return 1
	default:
		return 2
	}
}

// Classify maps a pixel diameter to its size class. Values exactly on a
// breakpoint fall into the larger class.
func Classify(diameter float64) SizeClass {
	if diameter < SmallMaxDiameter {
		return SizeSmall
	}
	if diameter < MediumMaxDiameter {
		return SizeMedium
	}
	return SizeLarge
}

// Point is a sub-pixel position in frame coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Detection is one accepted bubble reduced to its minimal enclosing circle.
// Detections are never mutated after creation and a slice of them carries no
// meaningful order.
type Detection struct {
	Center Point     `json:"center"`
	Radius float64   `json:"radius"`
	Class  SizeClass `json:"size_class"`
}

// NewDetection builds a Detection, deriving the size class from the radius.
func NewDetection(x, y, radius float64) Detection {
	return Detection{
		Center: Point{X: x, Y: y},
		Radius: radius,
		Class:  Classify(2 * radius),
	}
}

// Diameter returns 2 * Radius.
func (d Detection) Diameter() float64 {
	return 2 * d.Radius
}

// Diameters collects the diameters of dets.
func Diameters(dets []Detection) []float64 {
	out := make([]float64, len(dets))
	for i, d := range dets {
		out[i] = d.Diameter()
	}
	return out
}

// CountByClass tallies detections per size class.
func CountByClass(dets []Detection) map[SizeClass]int {
	counts := map[SizeClass]int{SizeSmall: 0, SizeMedium: 0, SizeLarge: 0}
	for _, d := range dets {
		counts[d.Class]++
	}
	return counts
}

func validRadius(r float64) bool {
	return r > 0 && !math.IsNaN(r) && !math.IsInf(r, 0)
}
