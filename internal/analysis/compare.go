package analysis

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/pappadam/internal/logger"
)

// CompareScale converts a bubble count into the comparison metric. It is
// unrelated to metrics.IndexScale.
const CompareScale = 100.0

// Winner is the outcome of a comparison.
type Winner string

const (
	WinnerLeft  Winner = "left"
	WinnerRight Winner = "right"
	WinnerTie   Winner = "tie"
)

// Mirror swaps left and right.
func (w Winner) Mirror() Winner {
	switch w {
	case WinnerLeft:
		return WinnerRight
	case WinnerRight:
		return WinnerLeft
	default:
		return WinnerTie
	}
}

// Message is a human readable verdict.
func (w Winner) Message() string {
	switch w {
	case WinnerLeft:
		return "Left image wins the bubble challenge!"
	case WinnerRight:
		return "Right image wins the bubble challenge!"
	default:
		return "It's a crunchy tie!"
	}
}

// Side is the comparison summary of one frame.
type Side struct {
	Count  int     `json:"count"`
	Metric float64 `json:"metric"`
}

// Comparison is the result of Compare.
type Comparison struct {
	Left   Side   `json:"left"`
	Right  Side   `json:"right"`
	Winner Winner `json:"winner"`
}

// Decide orders two metrics. Exactly equal metrics tie.
func Decide(left, right float64) Winner {
	switch {
	case left == right:
		return WinnerTie
	case left > right:
		return WinnerLeft
	default:
		return WinnerRight
	}
}

// Comparator ranks two frames by a calibration-free metric (count / 100).
type Comparator struct {
	engine *Engine
}

// NewComparator creates a Comparator backed by engine.
func NewComparator(engine *Engine) *Comparator {
	return &Comparator{engine: engine}
}

// Compare analyzes both frames concurrently and picks the winner. The two
// passes share nothing but the read-only engine.
func (c *Comparator) Compare(ctx context.Context, left, right gocv.Mat) (Comparison, error) {
	if err := ctx.Err(); err != nil {
		return Comparison{}, err
	}

	var (
		wg                  sync.WaitGroup
		leftSide, rightSide Side
		leftErr, rightErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		leftSide, leftErr = c.side(left)
	}()
	go func() {
		defer wg.Done()
		rightSide, rightErr = c.side(right)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Comparison{}, err
	}
	if leftErr != nil {
		return Comparison{}, leftErr
	}
	if rightErr != nil {
		return Comparison{}, rightErr
	}

	result := Comparison{
		Left:   leftSide,
		Right:  rightSide,
		Winner: Decide(leftSide.Metric, rightSide.Metric),
	}

	logger.WithFields(logrus.Fields{
		"left_count":  leftSide.Count,
		"right_count": rightSide.Count,
		"winner":      result.Winner,
	}).Info("comparison complete")

	return result, nil
}

func (c *Comparator) side(frame gocv.Mat) (Side, error) {
	dets, err := c.engine.Detect(frame)
	if err != nil {
		return Side{}, err
	}
	return Side{Count: len(dets), Metric: float64(len(dets)) / CompareScale}, nil
}
