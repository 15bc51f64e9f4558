package tracking

import "github.com/teslashibe/go-soccerbot/pkg/tracking/detection"

// Alignment is the per-frame judgment of whether ball and goal line up
type Alignment struct {
	SeparationPx int  // |ballCX - goalCX|, -1 when either is out of view
	Maybe        bool // This frame alone says lined up
	Stable       bool // Every frame in the window said lined up
}

// AlignmentEvaluator applies an all-true hysteresis to the per-frame
// lined-up check. One disagreeing frame drops Stable until the whole
// window agrees again.
type AlignmentEvaluator struct {
	thresholdPx int
	history     *Window
}

// NewAlignmentEvaluator creates an evaluator with a pixel threshold and a
// frame-count window. The two are independent tunables.
func NewAlignmentEvaluator(thresholdPx, window int) (*AlignmentEvaluator, error) {
	if thresholdPx <= 0 {
		return nil, &ConfigError{Field: "align_threshold_px", Message: "must be positive"}
	}
	history, err := NewWindow(window, 0)
	if err != nil {
		return nil, &ConfigError{Field: "align_window", Message: "must be positive"}
	}
	return &AlignmentEvaluator{thresholdPx: thresholdPx, history: history}, nil
}

// Update judges one frame and advances the hysteresis window
func (a *AlignmentEvaluator) Update(ball, goal detection.Detection) Alignment {
	result := Alignment{SeparationPx: -1}

	bb, ballOK := ball.Box()
	gb, goalOK := goal.Box()
	if ballOK && goalOK {
		result.SeparationPx = abs(bb.CenterX() - gb.CenterX())
		result.Maybe = result.SeparationPx < a.thresholdPx
	}

	if result.Maybe {
		a.history.Push(1)
	} else {
		a.history.Push(0)
	}
	result.Stable = a.history.Min() >= 1

	return result
}

// Reset clears the hysteresis history
func (a *AlignmentEvaluator) Reset() {
	a.history.Reset()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
