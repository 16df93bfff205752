package vision

import (
	"gocv.io/x/gocv"
)

// Extraction limits
const (
	// MinArea is the noise floor for a contour area in px².
	MinArea = 50.0
	// MinRadius drops sub-pixel artifacts.
	MinRadius = 3.0
)

// Component is one external contour before filtering.
type Component struct {
	Area   float64
	Center Point
	Radius float64
}

// Extractor reduces mask blobs to classified circles.
type Extractor struct {
	MinArea   float64
	MinRadius float64
}

// NewExtractor returns an Extractor with the default limits.
func NewExtractor() *Extractor {
	return &Extractor{
		MinArea:   MinArea,
		MinRadius: MinRadius,
	}
}

// Extract finds external foreground contours in mask and returns the ones
// that pass the area and radius limits. Border-touching blobs are kept.
func (e *Extractor) Extract(mask gocv.Mat) []Detection {
	if mask.Empty() {
		return nil
	}
	return e.Accept(e.Components(mask))
}

// Components lists every external contour with its area and minimal
// enclosing circle.
func (e *Extractor) Components(mask gocv.Mat) []Component {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	components := make([]Component, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		x, y, r := gocv.MinEnclosingCircle(contour)
		components = append(components, Component{
			Area:   area,
			Center: Point{X: float64(x), Y: float64(y)},
			Radius: float64(r),
		})
	}
	return components
}

// Accept filters components and classifies the survivors. A component is
// kept when Area >= MinArea and Radius >= MinRadius.
func (e *Extractor) Accept(components []Component) []Detection {
	detections := make([]Detection, 0, len(components))
	for _, c := range components {
		if c.Area < e.MinArea {
			continue
		}
		if c.Radius < e.MinRadius || !validRadius(c.Radius) {
			continue
		}
		detections = append(detections, NewDetection(c.Center.X, c.Center.Y, c.Radius))
	}
	return detections
}
