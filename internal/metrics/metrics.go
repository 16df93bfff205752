// Package metrics converts detections and a declared physical diameter into
// per-frame aggregate statistics.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/pappadam/internal/vision"
)

// Calibration constants
const (
	// DiscFrameFraction is the share of the shorter frame side assumed to be
	// covered by the disc.
	DiscFrameFraction = 0.8
	// IndexScale stretches density into a display-friendly range.
	IndexScale = 10.0
)

// Rating thresholds on the index. Comparisons are strict.
const (
	ExcellentAbove = 2.5
	AverageAbove   = 1.2
)

// Rating is the derived quality band.
type Rating string

const (
	RatingFlat      Rating = "Flat"
	RatingAverage   Rating = "Average"
	RatingExcellent Rating = "Excellent"
)

// Rank orders ratings Flat < Average < Excellent.
func (r Rating) Rank() int {
	switch r {
	case RatingExcellent:
		return 2
	case RatingAverage:
		return 1
	default:
		return 0
	}
}

// RatingFor maps an index value to its band.
func RatingFor(index float64) Rating {
	if index > ExcellentAbove {
		return RatingExcellent
	}
	if index > AverageAbove {
		return RatingAverage
	}
	return RatingFlat
}

// Calibration is the user-declared physical size of the disc.
type Calibration struct {
	DiameterCm float64 `json:"diameter_cm"`
}

// PxPerCm estimates the pixel scale for a frame of the given size.
func (c Calibration) PxPerCm(width, height int) float64 {
	shorter := math.Max(0, float64(min(width, height)))
	return DiscFrameFraction * shorter / math.Max(1, c.DiameterCm)
}

// AreaCm2 is the disc area implied by the declared diameter.
func (c Calibration) AreaCm2() float64 {
	r := c.DiameterCm / 2
	return math.Pi * r * r
}

// Snapshot is the full statistics for one analysis pass.
type Snapshot struct {
	Count            int     `json:"count"`
	AvgDiameterPx    float64 `json:"avg_diameter_px"`
	AvgDiameterCm    float64 `json:"avg_diameter_cm"`
	DensityPerCm2    float64 `json:"density_per_cm2"`
	Index            float64 `json:"index"`
	Rating           Rating  `json:"rating"`
	PxPerCm          float64 `json:"px_per_cm"`
	DiameterStdDevPx float64 `json:"diameter_stddev_px"`
}

// Empty returns the snapshot of a pass with no detections.
func Empty() Snapshot {
	return Snapshot{Rating: RatingFlat}
}

// Compute derives a Snapshot. It is total: every denominator is floored at
// 1, so degenerate calibrations or frame sizes still give finite values.
// The result does not depend on the order of dets.
func Compute(dets []vision.Detection, cal Calibration, width, height int) Snapshot {
	count := len(dets)
	pxPerCm := finite(cal.PxPerCm(width, height))

	var avgPx, stdPx float64
	if count > 0 {
		diameters := vision.Diameters(dets)
		avgPx = finite(stat.Mean(diameters, nil))
		if count > 1 {
			stdPx = finite(stat.PopStdDev(diameters, nil))
		}
	}

	density := finite(float64(count) / math.Max(1, cal.AreaCm2()))
	index := density * IndexScale

	return Snapshot{
		Count:            count,
		AvgDiameterPx:    avgPx,
		AvgDiameterCm:    finite(avgPx / math.Max(1, pxPerCm)),
		DensityPerCm2:    density,
		Index:            index,
		Rating:           RatingFor(index),
		PxPerCm:          pxPerCm,
		DiameterStdDevPx: stdPx,
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
