// Package commentary produces light-hearted text and trivia from analysis
// statistics. Everything here is derived from aggregate numbers only and is
// deterministic for equal inputs.
package commentary

import (
	"fmt"
	"math"

	"github.com/ayusman/pappadam/internal/metrics"
	"github.com/ayusman/pappadam/internal/vision"
)

// MelodyLength is the maximum number of notes in a melody.
const MelodyLength = 24

// Scale is the C major pentatonic scale used by Melody.
var Scale = []Note{"C4", "D4", "E4", "G4", "A4", "C5"}

// Note is a scientific pitch name such as "C4".
type Note string

// Input is the subset of analysis output a Provider may look at.
type Input struct {
	Count         int       `json:"count"`
	AvgDiameterPx float64   `json:"avg_diameter_px"`
	AvgDiameterCm float64   `json:"avg_diameter_cm"`
	DensityPerCm2 float64   `json:"density_per_cm2"`
	Diameters     []float64 `json:"diameters"`
}

// NewInput collects a Provider's input from a snapshot and its detections.
func NewInput(s metrics.Snapshot, dets []vision.Detection) Input {
	return Input{
		Count:         s.Count,
		AvgDiameterPx: s.AvgDiameterPx,
		AvgDiameterCm: s.AvgDiameterCm,
		DensityPerCm2: s.DensityPerCm2,
		Diameters:     vision.Diameters(dets),
	}
}

// Report is the commentary attached to an analysis result.
type Report struct {
	Personality string `json:"personality"`
	Horoscope   string `json:"horoscope"`
	OilMl       int    `json:"oil_ml"`
	Melody      []Note `json:"melody"`
}

// Provider turns statistics into a Report.
type Provider interface {
	Describe(in Input) Report
}

// Seeded is the default Provider. Its strings are picked by a generator
// seeded from the statistics, so the same numbers always read the same.
type Seeded struct{}

// Describe implements Provider.
func (Seeded) Describe(in Input) Report {
	return Report{
		Personality: Personality(in.Count, in.AvgDiameterPx),
		Horoscope:   Horoscope(in.Count, in.DensityPerCm2),
		OilMl:       OilEstimate(in.AvgDiameterCm, in.Count),
		Melody:      Melody(in.Diameters),
	}
}

var (
	vibes = []string{
		"Chaotic Crispy", "Zen Cruncher", "Party Popper", "Wise Wafer", "Bubbly Bard",
		"Mellow Muncher", "Rogue Ripple", "Glorious Guffaw", "Serene Snack", "Thunder Crunch",
	}
	traits = []string{
		"rebellious bubbles", "a meditative crisp", "audacious sizzles", "symmetry wizardry",
		"wholesome puffery", "quirky pop-patterns", "grandiose curvatures", "dangling dimples",
	}
	fortunes = []string{
		"Today your snacks uplift spirits. Share one and gain a fan!",
		"Avoid windy places; your crunch may echo rumors.",
		"A golden bubble reveals luck. Dip with confidence.",
		"Your path is crispy and clear; trust the sizzle.",
		"Beware of sogginess; stay close to warm company.",
		"A new chutney arrives with delightful surprises.",
	}
)

// Personality describes the disc's character.
func Personality(count int, avgDiameterPx float64) string {
	rnd := newSineSource(float64(count)*100 + avgDiameterPx)
	v := pick(vibes, rnd.next())
	t := pick(traits, rnd.next())
	return fmt.Sprintf("%s with %s", v, t)
}

// Horoscope returns a fortune for the disc.
func Horoscope(count int, density float64) string {
	rnd := newSineSource(math.Round(float64(count)*37 + density*13))
	return pick(fortunes, rnd.next())
}

// OilEstimate is a playful frying oil figure in millilitres, never below 2.
func OilEstimate(avgDiameterCm float64, count int) int {
	ml := math.Round(avgDiameterCm*float64(count)*0.08 + 5)
	if math.IsNaN(ml) || ml < 2 {
		return 2
	}
	return int(ml)
}

// Melody maps up to MelodyLength diameters onto Scale, smallest bubble to
// lowest note. An empty input gives an empty melody.
func Melody(diameters []float64) []Note {
	if len(diameters) == 0 {
		return []Note{}
	}

	lo, hi := diameters[0], diameters[0]
	for _, d := range diameters[1:] {
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	span := math.Max(1, hi-lo)

	n := min(len(diameters), MelodyLength)
	notes := make([]Note, n)
	for i, d := range diameters[:n] {
		t := (d - lo) / span
		idx := int(math.Floor(t * float64(len(Scale)-1)))
		notes[i] = Scale[max(0, min(idx, len(Scale)-1))]
	}
	return notes
}

func pick(list []string, u float64) string {
	i := int(math.Floor(u * float64(len(list))))
	return list[max(0, min(i, len(list)-1))]
}

// sineSource is a tiny deterministic generator: each draw is the
// fractional part of sin(x)*10000.
type sineSource struct {
	x float64
}

func newSineSource(seed float64) *sineSource {
	return &sineSource{x: math.Sin(seed) * 10000}
}

func (s *sineSource) next() float64 {
	s.x = math.Sin(s.x) * 10000
	return s.x - math.Floor(s.x)
}
