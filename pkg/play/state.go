// Package play drives the robot through the ball-then-goal search:
// find and center the ball, zero the heading, find and center the goal,
// read the heading again and triangulate.
package play

import "fmt"

// State is a step of the play sequence. States only ever advance.
type State int

const (
	WaitBallInView State = iota
	CenterOnBall
	MeasureHeading1
	WaitGoalInView
	CenterOnGoal
	MeasureHeading2
	Done
)

var stateNames = [...]string{
	WaitBallInView:  "wait_ball_in_view",
	CenterOnBall:    "center_on_ball",
	MeasureHeading1: "measure_heading_1",
	WaitGoalInView:  "wait_goal_in_view",
	CenterOnGoal:    "center_on_goal",
	MeasureHeading2: "measure_heading_2",
	Done:            "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Next returns the following state; Done is terminal.
func (s State) Next() State {
	if s >= Done {
		return Done
	}
	return s + 1
}

// Target returns the object a wait or center state is looking for.
func (s State) Target() (Target, bool) {
	switch s {
	case WaitBallInView, CenterOnBall:
		return Ball, true
	case WaitGoalInView, CenterOnGoal:
		return Goal, true
	}
	return 0, false
}

// Target selects the ball or the goal in a Pose
type Target int

const (
	Ball Target = iota
	Goal
)

func (t Target) String() string {
	if t == Goal {
		return "goal"
	}
	return "ball"
}
