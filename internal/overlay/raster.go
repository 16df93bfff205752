package overlay

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

func (c Color) rgba() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// bgr returns the color as an OpenCV scalar.
func (c Color) bgr() gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0)
}

// Rasterize draws f onto img, a 3-channel BGR Mat, in command order.
func Rasterize(f Frame, img *gocv.Mat) {
	if img == nil || img.Empty() {
		return
	}

	for _, p := range f.Particles {
		blendCircle(img, p)
	}

	for _, b := range f.Bubbles {
		gocv.Circle(img, toPoint(b.Center.X, b.Center.Y), roundRadius(b.Radius), b.Color.rgba(), b.LineWidth)
	}

	drawBand(img, f.Scan)
}

// blendCircle draws a filled translucent circle, blending only the
// circle's bounding box.
func blendCircle(img *gocv.Mat, c Circle) {
	r := roundRadius(c.Radius)
	p := toPoint(c.Center.X, c.Center.Y)
	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	box := image.Rect(p.X-r, p.Y-r, p.X+r+1, p.Y+r+1).Intersect(bounds)
	if box.Empty() {
		return
	}

	roi := img.Region(box)
	defer roi.Close()

	layer := roi.Clone()
	defer layer.Close()

	gocv.Circle(&layer, p.Sub(box.Min), r, c.Color.rgba(), -1)

	alpha := clamp01(c.Alpha)
	gocv.AddWeighted(layer, alpha, roi, 1-alpha, 0, &roi)
}

// drawBand paints the scan band row by row with a linear fade from the
// center out to both edges.
func drawBand(img *gocv.Mat, b Band) {
	if b.Height <= 0 || b.PeakAlpha <= 0 {
		return
	}

	half := b.Height / 2
	top := int(math.Floor(b.Y - half))
	bottom := int(math.Ceil(b.Y + half))
	width := img.Cols()

	for y := max(0, top); y < min(img.Rows(), bottom); y++ {
		alpha := b.PeakAlpha * (1 - math.Abs(float64(y)+0.5-b.Y)/half)
		if alpha <= 0 {
			continue
		}

		row := img.Region(image.Rect(0, y, width, y+1))
		tint := gocv.NewMatWithSizeFromScalar(b.Color.bgr(), 1, width, img.Type())
		gocv.AddWeighted(tint, clamp01(alpha), row, 1-clamp01(alpha), 0, &row)
		tint.Close()
		row.Close()
	}
}

func toPoint(x, y float64) image.Point {
	return image.Pt(int(math.Round(x)), int(math.Round(y)))
}

func roundRadius(r float64) int {
	return max(1, int(math.Round(r)))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
