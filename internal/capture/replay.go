package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// Replay is a Camera that plays back a fixed list of frames. It is used in
// tests and for running Live mode against a still image.
type Replay struct {
	mu      sync.Mutex
	frames  []*gocv.Mat
	index   int
	loop    bool
	fps     int
	running bool
}

// NewReplay creates a Replay over frames. The frames stay owned by the
// caller; every read returns a clone.
func NewReplay(frames []*gocv.Mat, loop bool) *Replay {
	return &Replay{
		frames: frames,
		loop:   loop,
		fps:    DefaultFPS,
	}
}

func (c *Replay) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	return nil
}

func (c *Replay) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

// ReadFrame returns ErrEndOfStream once a non-looping replay is exhausted.
func (c *Replay) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}
	if c.index >= len(c.frames) {
		if !c.loop || len(c.frames) == 0 {
			return nil, ErrEndOfStream
		}
		c.index = 0
	}

	frame := c.frames[c.index].Clone()
	c.index++
	return &frame, nil
}

func (c *Replay) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *Replay) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *Replay) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
