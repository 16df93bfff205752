package overlay

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/pappadam/internal/logger"
	"github.com/ayusman/pappadam/internal/vision"
)

// ErrSourceGone is returned by a Source when its frames are no longer
// available. The loop leaves Live mode when it sees it.
var ErrSourceGone = errors.New("overlay source gone")

// Input is what a Source supplies for one tick.
type Input struct {
	Size       image.Point
	Detections []vision.Detection
}

// Source provides the canvas size and detections for the next tick.
type Source func() (Input, error)

// Sink receives every rendered frame.
type Sink func(Frame)

// Ticker abstracts time.Ticker.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Loop drives a Renderer while Live. It is the only scheduler of overlay
// ticks; while Idle nothing ticks and no particle state is kept.
type Loop struct {
	renderer  *Renderer
	interval  time.Duration
	newTicker func(time.Duration) Ticker

	// ctl serializes Start and Stop. mu guards the fields below and is
	// never held while waiting on the driver, so a Sink may query the loop.
	ctl     sync.Mutex
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	session string
	onGone  func()
}

// NewLoop creates an idle Loop ticking fps times per second.
func NewLoop(r *Renderer, fps int) *Loop {
	if fps <= 0 {
		fps = 30
	}
	return &Loop{
		renderer:  r,
		interval:  time.Second / time.Duration(fps),
		newTicker: NewTimeTicker,
	}
}

// SetTicker replaces the ticker factory. It must be called while Idle.
func (l *Loop) SetTicker(fn func(time.Duration) Ticker) {
	l.ctl.Lock()
	defer l.ctl.Unlock()
	l.newTicker = fn
}

// SetFPS changes the tick rate for the next Start. Non-positive values
// are ignored.
func (l *Loop) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	l.ctl.Lock()
	defer l.ctl.Unlock()
	l.interval = time.Second / time.Duration(fps)
}

// OnSourceGone sets fn to run on the driver goroutine when a run ends
// because its Source returned ErrSourceGone. It runs before Live reports
// false, so once Live is false fn has finished. fn must not call Start or
// Stop.
func (l *Loop) OnSourceGone(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onGone = fn
}

// Interval returns the tick period.
func (l *Loop) Interval() time.Duration {
	l.ctl.Lock()
	defer l.ctl.Unlock()
	return l.interval
}

// Start enters Live mode and returns the new session ID. A run already in
// progress is stopped first.
func (l *Loop) Start(src Source, sink Sink) string {
	l.ctl.Lock()
	defer l.ctl.Unlock()

	l.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	ticker := l.newTicker(l.interval)
	session := uuid.NewString()

	l.mu.Lock()
	l.cancel = cancel
	l.done = done
	l.session = session
	l.mu.Unlock()

	go l.run(ctx, ticker, src, sink, done, session)

	logger.WithComponent("overlay").WithField("session", session).Info("live overlay started")
	return session
}

// Stop leaves Live mode. It waits for the driver goroutine to exit and
// discards all particle state. Stopping an idle loop is a no-op.
func (l *Loop) Stop() {
	l.ctl.Lock()
	defer l.ctl.Unlock()
	l.stopLocked()
}

// stopLocked requires l.ctl.
func (l *Loop) stopLocked() {
	l.mu.Lock()
	cancel, done, session := l.cancel, l.done, l.session
	l.cancel, l.done, l.session = nil, nil, ""
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	l.renderer.Reset()

	logger.WithComponent("overlay").WithField("session", session).Info("live overlay stopped")
}

// Live reports whether the driver is running.
func (l *Loop) Live() bool {
	return l.Session() != ""
}

// Session returns the current session ID, or "" when idle.
func (l *Loop) Session() string {
	l.mu.Lock()
	done, session := l.done, l.session
	l.mu.Unlock()

	if done == nil {
		return ""
	}
	select {
	case <-done:
		return ""
	default:
		return session
	}
}

func (l *Loop) run(ctx context.Context, ticker Ticker, src Source, sink Sink, done chan struct{}, session string) {
	defer close(done)
	defer ticker.Stop()

	log := logger.WithComponent("overlay").WithField("session", session)
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C():
			// A tick may already be queued when Stop is called.
			if ctx.Err() != nil {
				return
			}

			in, err := src()
			if errors.Is(err, ErrSourceGone) {
				log.Warn("overlay source disappeared, leaving live mode")
				l.renderer.Reset()
				l.mu.Lock()
				onGone := l.onGone
				l.mu.Unlock()
				if onGone != nil {
					onGone()
				}
				return
			}
			if err != nil {
				log.WithError(err).Debug("skipping overlay tick")
				continue
			}

			frame, ok := l.renderer.Advance(now.Sub(start), in.Size, in.Detections)
			if !ok {
				continue
			}
			sink(frame)
		}
	}
}
