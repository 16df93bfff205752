// Package overlay produces the animated visual layer drawn over a frame:
// detection outlines, rising vapour particles and a sweeping scan band.
package overlay

import (
	"fmt"

	"github.com/ayusman/pappadam/internal/vision"
)

// Color is an opaque RGB color. It marshals as a "#rrggbb" string.
type Color struct {
	R, G, B uint8
}

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// Palette
var (
	ColorSmall  = Color{R: 0x22, G: 0xc5, B: 0x5e}
	ColorMedium = Color{R: 0xea, G: 0xb3, B: 0x08}
	ColorLarge  = Color{R: 0xef, G: 0x44, B: 0x44}
	ColorVapour = Color{R: 0xf2, G: 0xc1, B: 0x26}
	ColorScan   = Color{R: 0xff, G: 0xd7, B: 0x64}
)

// ClassColor returns the outline color for a size class.
func ClassColor(c vision.SizeClass) Color {
	switch c {
	case vision.SizeSmall:
		return ColorSmall
	case vision.SizeMedium:
		return ColorMedium
	default:
		return ColorLarge
	}
}

// Circle is a filled or stroked circle command.
type Circle struct {
	Center    vision.Point `json:"center"`
	Radius    float64      `json:"radius"`
	Color     Color        `json:"color"`
	Alpha     float64      `json:"alpha"`
	Fill      bool         `json:"fill"`
	LineWidth int          `json:"line_width,omitempty"`
}

// Band is a full-width horizontal strip centered on Y whose opacity fades
// from PeakAlpha at the center to zero at both edges.
type Band struct {
	Y         float64 `json:"y"`
	Height    float64 `json:"height"`
	Width     float64 `json:"width"`
	Color     Color   `json:"color"`
	PeakAlpha float64 `json:"peak_alpha"`
}

// Frame is the ordered set of draw commands for one tick: particles first,
// then detections, then the scan band.
type Frame struct {
	Tick      uint64   `json:"tick"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	Particles []Circle `json:"particles"`
	Bubbles   []Circle `json:"bubbles"`
	Scan      Band     `json:"scan"`
}
