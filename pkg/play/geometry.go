package play

import (
	"errors"
	"math"
)

// ErrUnknownDistance is returned when a distance needed for triangulation
// was never measured.
var ErrUnknownDistance = errors.New("play: distance unknown")

// Point is a position on the field plane, in the distance units of the
// calibration.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Field is the robot-centered layout at the end of a play.
// The robot sits at the origin facing the ball along +X; positive angles
// are counterclockwise.
type Field struct {
	Ball Point `json:"ball"`
	Goal Point `json:"goal"`

	BallDistance    float64 `json:"ball_distance"`
	GoalDistance    float64 `json:"goal_distance"`
	HeadingDeltaDeg float64 `json:"heading_delta_deg"` // Turn from ball to goal

	BallGoalSeparation float64 `json:"ball_goal_separation"`
	ApproachAngleDeg   float64 `json:"approach_angle_deg"` // At the ball, between robot and goal
	ViewAngleDeg       float64 `json:"view_angle_deg"`     // At the robot, between ball and goal
}

// Triangulate places ball and goal from two distances and the heading
// turned between them, using the law of cosines.
func Triangulate(ballDist, goalDist, headingDeltaDeg float64) (Field, error) {
	if !(ballDist > 0) || !(goalDist > 0) || math.IsInf(ballDist, 0) || math.IsInf(goalDist, 0) {
		return Field{}, ErrUnknownDistance
	}

	theta := headingDeltaDeg * math.Pi / 180
	f := Field{
		Ball:            Point{X: ballDist},
		Goal:            Point{X: goalDist * math.Cos(theta), Y: goalDist * math.Sin(theta)},
		BallDistance:    ballDist,
		GoalDistance:    goalDist,
		HeadingDeltaDeg: headingDeltaDeg,
	}

	sq := ballDist*ballDist + goalDist*goalDist - 2*ballDist*goalDist*math.Cos(theta)
	f.BallGoalSeparation = math.Sqrt(math.Max(sq, 0))

	// Angle at the ball between ball->robot and ball->goal
	if f.BallGoalSeparation > 0 {
		ux, uy := -ballDist, 0.0
		wx, wy := f.Goal.X-f.Ball.X, f.Goal.Y-f.Ball.Y
		cos := (ux*wx + uy*wy) / (ballDist * f.BallGoalSeparation)
		f.ApproachAngleDeg = math.Acos(clamp(cos, -1, 1)) * 180 / math.Pi
	}

	f.ViewAngleDeg = math.Abs(normalizeDeg(headingDeltaDeg))
	return f, nil
}

// normalizeDeg wraps an angle into (-180, 180]
func normalizeDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
