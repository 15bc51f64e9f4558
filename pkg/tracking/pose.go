package tracking

import (
	"time"

	"github.com/teslashibe/go-soccerbot/pkg/tracking/detection"
)

// Box is re-exported so consumers of Pose need not import detection
type Box = detection.Box

// ObjectEstimate is one object's smoothed state for a single frame
type ObjectEstimate struct {
	Box           *Box     `json:"box,omitempty"`  // Estimated box, nil when not in view
	SmoothedWidth int      `json:"smoothed_width"` // Window output in pixels
	Distance      *float64 `json:"distance"`       // nil when unknown
	InView        bool     `json:"in_view"`
	CenterX       int      `json:"center_x"` // -1 when not in view
}

// DistanceOr returns the distance, or fallback when unknown
func (o ObjectEstimate) DistanceOr(fallback float64) float64 {
	if o.Distance == nil {
		return fallback
	}
	return *o.Distance
}

// Pose is the pipeline output for one frame
type Pose struct {
	Seq         uint64    `json:"seq"`
	Timestamp   time.Time `json:"timestamp"`
	FrameWidth  int       `json:"frame_width"`
	FrameHeight int       `json:"frame_height"`

	Ball ObjectEstimate `json:"ball"`
	Goal ObjectEstimate `json:"goal"`

	BallGoalSeparationPx int  `json:"ball_goal_separation_px"`
	LinedUpMaybe         bool `json:"lined_up_maybe"`
	LinedUpStable        bool `json:"lined_up_stable"`
}

// Age returns how long ago the pose was produced
func (p Pose) Age(now time.Time) time.Duration {
	return now.Sub(p.Timestamp)
}

func notInView() ObjectEstimate {
	return ObjectEstimate{CenterX: -1}
}

func distancePtr(d float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &d
}
