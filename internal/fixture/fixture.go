// Package fixture builds synthetic frames for tests.
package fixture

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Background and bubble intensities. Bubbles are darker than the disc so the
// inverted Otsu threshold marks them as foreground.
var (
	Background = color.RGBA{R: 210, G: 200, B: 170, A: 255}
	Blister    = color.RGBA{R: 40, G: 35, B: 30, A: 255}
)

// Bubble describes one synthetic blister.
type Bubble struct {
	X, Y   int
	Radius int
}

// Frame draws bubbles as filled dark circles on a light background.
// The caller owns the returned Mat.
func Frame(width, height int, bubbles []Bubble) gocv.Mat {
	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	mat.SetTo(gocv.NewScalar(float64(Background.B), float64(Background.G), float64(Background.R), 0))
	for _, b := range bubbles {
		gocv.Circle(&mat, image.Pt(b.X, b.Y), b.Radius, Blister, -1)
	}
	return mat
}

// Grid lays out rows x cols bubbles of the same radius, spaced evenly.
func Grid(width, height, rows, cols, radius int) []Bubble {
	bubbles := make([]Bubble, 0, rows*cols)
	dx := width / (cols + 1)
	dy := height / (rows + 1)
	for r := 1; r <= rows; r++ {
		for c := 1; c <= cols; c++ {
			bubbles = append(bubbles, Bubble{X: c * dx, Y: r * dy, Radius: radius})
		}
	}
	return bubbles
}

// Image returns the same scene as Frame as a Go image, for decode paths.
func Image(width, height int, bubbles []Bubble) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, Background)
		}
	}
	for _, b := range bubbles {
		r2 := b.Radius * b.Radius
		for y := b.Y - b.Radius; y <= b.Y+b.Radius; y++ {
			for x := b.X - b.Radius; x <= b.X+b.Radius; x++ {
				dx, dy := x-b.X, y-b.Y
				if dx*dx+dy*dy <= r2 && image.Pt(x, y).In(img.Rect) {
					img.SetRGBA(x, y, Blister)
				}
			}
		}
	}
	return img
}
