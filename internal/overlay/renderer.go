package overlay

import (
	"image"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ayusman/pappadam/internal/vision"
)

// Animation constants
const (
	// MaxSpawnPerTick caps new particles per tick.
	MaxSpawnPerTick = 3
	// SpawnProbability is the chance for each spawn slot to emit a particle.
	SpawnProbability = 0.05
	// InitialAlpha is the opacity of a fresh particle.
	InitialAlpha = 0.5
	// AlphaDecay is subtracted from a particle's opacity every tick.
	AlphaDecay = 0.005
	// RadiusDecay multiplies a particle's radius every tick.
	RadiusDecay = 0.997
	// MinParticleRadius removes particles that have shrunk too far.
	MinParticleRadius = 0.5
	// ScanPeriod is the time for the scan band to go down and back up.
	ScanPeriod = 2 * time.Second
	// ScanBandHeight is the band thickness in pixels.
	ScanBandHeight = 20.0
	// ScanPeakAlpha is the opacity at the band center.
	ScanPeakAlpha = 0.6
	// OutlineWidth is the stroke width of detection circles.
	OutlineWidth = 2
)

// Particle is one rising vapour puff.
type Particle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Alpha  float64 `json:"alpha"`
	VY     float64 `json:"vy"`
}

// State is everything the renderer carries between ticks.
type State struct {
	Particles []Particle
	Size      image.Point
	Ticks     uint64
}

// Renderer advances the overlay one tick at a time. It never schedules
// itself; a driver such as Loop calls Advance once per display frame.
type Renderer struct {
	mu    sync.Mutex
	state State
	rng   *rand.Rand
}

// NewRenderer creates a Renderer whose randomness is derived from seed.
func NewRenderer(seed uint64) *Renderer {
	return &Renderer{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Advance runs one tick at time now for a canvas of the given size and
// returns the draw commands. If size is not positive the tick is skipped
// and the state is left untouched.
func (r *Renderer) Advance(now time.Duration, size image.Point, dets []vision.Detection) (Frame, bool) {
	if size.X <= 0 || size.Y <= 0 {
		return Frame{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if size != r.state.Size {
		r.state.Particles = r.state.Particles[:0]
		r.state.Size = size
	}
	r.state.Ticks++

	r.spawn(dets)
	r.step()

	return Frame{
		Tick:      r.state.Ticks,
		Width:     size.X,
		Height:    size.Y,
		Particles: r.particleCommands(),
		Bubbles:   bubbleCommands(dets),
		Scan:      scanBand(now, size),
	}, true
}

func (r *Renderer) spawn(dets []vision.Detection) {
	slots := min(MaxSpawnPerTick, len(dets))
	for i := 0; i < slots; i++ {
		if r.rng.Float64() >= SpawnProbability {
			continue
		}
		d := dets[r.rng.IntN(len(dets))]
		r.state.Particles = append(r.state.Particles, Particle{
			X:      d.Center.X + (r.rng.Float64()-0.5)*d.Radius,
			Y:      d.Center.Y,
			Radius: 2 + r.rng.Float64()*4,
			Alpha:  InitialAlpha,
			VY:     0.3 + r.rng.Float64()*0.6,
		})
	}
}

// step moves, fades and shrinks every particle, dropping the spent ones.
func (r *Renderer) step() {
	alive := r.state.Particles[:0]
	for _, p := range r.state.Particles {
		p.Y -= p.VY
		p.Alpha -= AlphaDecay
		p.Radius *= RadiusDecay
		if p.Alpha <= 0 || p.Radius < MinParticleRadius {
			continue
		}
		alive = append(alive, p)
	}
	r.state.Particles = alive
}

func (r *Renderer) particleCommands() []Circle {
	out := make([]Circle, len(r.state.Particles))
	for i, p := range r.state.Particles {
		out[i] = Circle{
			Center: vision.Point{X: p.X, Y: p.Y},
			Radius: p.Radius,
			Color:  ColorVapour,
			Alpha:  p.Alpha,
			Fill:   true,
		}
	}
	return out
}

func bubbleCommands(dets []vision.Detection) []Circle {
	out := make([]Circle, len(dets))
	for i, d := range dets {
		out[i] = Circle{
			Center:    d.Center,
			Radius:    d.Radius,
			Color:     ClassColor(d.Class),
			Alpha:     1,
			LineWidth: OutlineWidth,
		}
	}
	return out
}

// ScanPosition returns the band center as a fraction of the frame height.
// It ping-pongs 0 -> 1 -> 0 over one ScanPeriod.
func ScanPosition(now time.Duration) float64 {
	half := ScanPeriod.Seconds() / 2
	t := math.Mod(now.Seconds(), ScanPeriod.Seconds()) / half
	if t < 0 {
		t += 2
	}
	if t < 1 {
		return t
	}
	return 2 - t
}

func scanBand(now time.Duration, size image.Point) Band {
	return Band{
		Y:         ScanPosition(now) * float64(size.Y),
		Height:    ScanBandHeight,
		Width:     float64(size.X),
		Color:     ColorScan,
		PeakAlpha: ScanPeakAlpha,
	}
}

// Reset clears all particles and the remembered canvas size.
func (r *Renderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = State{}
}

// State returns a copy of the current state.
func (r *Renderer) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.state
	s.Particles = append([]Particle(nil), r.state.Particles...)
	return s
}
