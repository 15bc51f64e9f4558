package play

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-soccerbot/internal/log"
	"github.com/teslashibe/go-soccerbot/pkg/robot"
	"github.com/teslashibe/go-soccerbot/pkg/tracking"
)

// PoseSource yields the most recent Pose from the perception pipeline.
// ok is false when no pose has arrived yet.
type PoseSource interface {
	LatestPose() (tracking.Pose, bool)
}

// Robot is what the play sequence needs from the drive base
type Robot interface {
	robot.DriveController
	robot.HeadingReader
}

// TransitionError reports a state that could not complete.
// The machine stays in State; calling Step or Run again retries it.
type TransitionError struct {
	State State
	Err   error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("play: %s: %v", e.State, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// Machine runs the play sequence one poll at a time
type Machine struct {
	cfg    Config
	poses  PoseSource
	robot  Robot
	logger *slog.Logger
	runID  string
	now    func() time.Time

	mu    sync.Mutex
	state State

	// Last seen offset sign while centering, used to turn back if the
	// target slips out of view.
	lastOffset int

	ballDist     float64
	goalDist     float64
	headingDelta float64
	field        Field
	fieldErr     error

	// OnTransition, if set, is called after every state change
	OnTransition func(from, to State)
}

// New creates a play machine in WaitBallInView
func New(cfg Config, poses PoseSource, r Robot) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("play config: %w", err)
	}
	if poses == nil || r == nil {
		return nil, errors.New("play: pose source and robot are required")
	}

	runID := uuid.New().String()
	return &Machine{
		cfg:      cfg,
		poses:    poses,
		robot:    r,
		logger:   log.Component("play").With("run", runID),
		runID:    runID,
		now:      time.Now,
		state:    WaitBallInView,
		ballDist: tracking.Unknown,
		goalDist: tracking.Unknown,
	}, nil
}

// RunID identifies this play in logs and on the dashboard
func (m *Machine) RunID() string {
	return m.runID
}

// State returns the current state
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Field returns the triangulated layout once the machine is Done
func (m *Machine) Field() (Field, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Done {
		return Field{}, fmt.Errorf("play: not done (state %s)", m.state)
	}
	return m.field, m.fieldErr
}

// Run steps the machine every PollInterval until Done, an error, or ctx
// cancellation. On cancellation the robot is told to stop.
func (m *Machine) Run(ctx context.Context) (Field, error) {
	m.logger.Info("play started", "state", m.State())

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		state, err := m.Step(ctx)
		if err != nil {
			if ctx.Err() != nil {
				m.stop(context.Background())
			}
			return Field{}, err
		}
		if state == Done {
			return m.Field()
		}

		select {
		case <-ctx.Done():
			m.stop(context.Background())
			return Field{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Step runs one poll of the current state and returns the state after it
func (m *Machine) Step(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return m.State(), err
	}

	switch state := m.State(); state {
	case WaitBallInView, WaitGoalInView:
		return m.stepWait(ctx, state)
	case CenterOnBall, CenterOnGoal:
		return m.stepCenter(ctx, state)
	case MeasureHeading1, MeasureHeading2:
		return m.stepMeasure(ctx, state)
	default:
		return Done, nil
	}
}

// stepWait spins in place until the target shows up, keeps turning for
// SettleDelay so it is well inside the frame, then stops.
func (m *Machine) stepWait(ctx context.Context, state State) (State, error) {
	target, _ := state.Target()

	pose, ok := m.latest()
	if !ok || !InView(pose, target) {
		m.drive(ctx, 0, m.cfg.SearchRotation)
		return state, nil
	}

	m.logger.Debug("target in view", "target", target, "center_x", estimate(pose, target).CenterX)

	if m.cfg.SettleDelay > 0 {
		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-time.After(m.cfg.SettleDelay):
		}
	}
	m.stop(ctx)
	m.lastOffset = 0
	return m.advance(state), nil
}

func (m *Machine) stepCenter(ctx context.Context, state State) (State, error) {
	target, _ := state.Target()

	pose, ok := m.latest()
	offset, inView := 0, false
	if ok {
		offset, inView = CenterOffset(pose, target, m.cfg.CenterX(pose))
	}

	if !inView {
		// Lost it: turn slowly back the way it was last seen
		rotation := m.cfg.SearchRotation
		if m.lastOffset != 0 {
			rotation = m.cfg.Floor
			if m.lastOffset < 0 {
				rotation = -rotation
			}
		}
		m.drive(ctx, 0, rotation)
		return state, nil
	}

	m.lastOffset = offset
	rotation, centered := TurnRate(offset, m.cfg)
	if centered {
		m.stop(ctx)
		m.logger.Debug("centered", "target", target, "offset", offset)
		return m.advance(state), nil
	}

	m.drive(ctx, 0, rotation)
	return state, nil
}

// stepMeasure reads the heading. The first read zeroes the drive base's
// accumulated angle; the second returns the turn from ball to goal.
func (m *Machine) stepMeasure(ctx context.Context, state State) (State, error) {
	h, err := robot.HeadingWithRetry(ctx, m.robot, m.cfg.HeadingRetries, m.cfg.HeadingBackoff)
	if err != nil {
		m.logger.Warn("heading read failed", "state", state, "error", err)
		return state, &TransitionError{State: state, Err: err}
	}

	pose, ok := m.latest()

	if state == MeasureHeading1 {
		if ok {
			m.ballDist = pose.Ball.DistanceOr(tracking.Unknown)
		}
		m.logger.Info("ball measured", "distance", m.ballDist, "heading_reset", h.Degrees)
		return m.advance(state), nil
	}

	if ok {
		m.goalDist = pose.Goal.DistanceOr(tracking.Unknown)
	}
	m.headingDelta = float64(h.Degrees)
	m.logger.Info("goal measured", "distance", m.goalDist, "heading_delta", m.headingDelta)

	field, ferr := Triangulate(m.ballDist, m.goalDist, m.headingDelta)
	m.mu.Lock()
	m.field, m.fieldErr = field, ferr
	m.mu.Unlock()
	if ferr != nil {
		m.logger.Warn("triangulation failed", "ball_distance", m.ballDist, "goal_distance", m.goalDist, "error", ferr)
	} else {
		m.logger.Info("field triangulated",
			"separation", field.BallGoalSeparation,
			"approach_deg", field.ApproachAngleDeg,
			"view_deg", field.ViewAngleDeg)
	}
	return m.advance(state), nil
}

func (m *Machine) advance(from State) State {
	to := from.Next()

	m.mu.Lock()
	m.state = to
	m.mu.Unlock()

	m.logger.Info("state transition", "from", from, "to", to)
	if m.OnTransition != nil {
		m.OnTransition(from, to)
	}
	return to
}

// latest returns the current pose, treating stale poses as missing
func (m *Machine) latest() (tracking.Pose, bool) {
	pose, ok := m.poses.LatestPose()
	if !ok {
		return tracking.Pose{}, false
	}
	if m.cfg.MaxPoseAge > 0 && pose.Age(m.now()) > m.cfg.MaxPoseAge {
		return tracking.Pose{}, false
	}
	return pose, true
}

// drive sends a command; transport failures are logged and skipped
func (m *Machine) drive(ctx context.Context, velocity, rotation int) {
	if err := m.robot.Drive(ctx, velocity, rotation); err != nil {
		m.logger.Warn("drive command failed", "velocity", velocity, "rotation", rotation, "error", err)
	}
}

func (m *Machine) stop(ctx context.Context) {
	m.drive(ctx, 0, 0)
}
