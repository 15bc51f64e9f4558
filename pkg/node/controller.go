package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-soccerbot/internal/log"
	"github.com/teslashibe/go-soccerbot/pkg/discovery"
	"github.com/teslashibe/go-soccerbot/pkg/play"
	"github.com/teslashibe/go-soccerbot/pkg/posebus"
	"github.com/teslashibe/go-soccerbot/pkg/protocol"
	"github.com/teslashibe/go-soccerbot/pkg/robot"
)

// poseRunner is a pose subscription that feeds a posebus.Latest
type poseRunner interface {
	Run(ctx context.Context) error
}

// ControllerApp runs the play state machine against the latest pose and
// the drive node.
type ControllerApp struct {
	config ControllerConfig
	logger *slog.Logger

	driveURL string
	drive    *robot.HTTPController
	rate     *robot.RateController

	latest     *posebus.Latest
	subscriber poseRunner
	redisSub   *posebus.RedisSubscriber
	events     *posebus.RedisPublisher

	wg sync.WaitGroup
}

// NewControllerApp validates cfg and returns an uninitialized app
func NewControllerApp(cfg ControllerConfig) (*ControllerApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ControllerApp{
		config: cfg,
		logger: log.Component("controller"),
		latest: &posebus.Latest{},
	}, nil
}

// Init finds the drive node and connects the pose source
func (a *ControllerApp) Init(ctx context.Context) error {
	fmt.Println("🎯 Soccerbot controller")
	fmt.Println("=======================")

	a.driveURL = a.config.DriveURL
	if a.driveURL == "" {
		fmt.Print("🔍 Looking for a drive node on mDNS... ")
		url, err := discovery.Browse(ctx, a.config.BrowseTimeout)
		if err != nil {
			return fmt.Errorf("drive discovery: %w (set DRIVE_URL or -drive)", err)
		}
		a.driveURL = url
		fmt.Println("✅", url)
	}

	a.drive = robot.NewHTTPController(a.driveURL, a.config.DriveTimeout)
	fmt.Printf("🛞 Checking drive node %s... ", a.driveURL)
	if status, err := a.drive.Status(ctx); err != nil {
		// The machine tolerates drive errors; keep going and let it retry
		fmt.Printf("⚠️  %v\n", err)
	} else {
		fmt.Printf("✅ port %s, up %s\n", status.Port, status.Uptime)
	}
	a.rate = robot.NewRateController(a.drive, a.config.CommandRate, a.config.KeepAlive)

	switch a.config.PoseSource {
	case PoseSourceRedis:
		fmt.Printf("📮 Subscribing to poses on Redis %s... ", a.config.Redis.Addr)
		sub, err := posebus.NewRedisSubscriber(ctx, a.config.Redis, a.latest)
		if err != nil {
			return fmt.Errorf("pose source: %w", err)
		}
		a.redisSub = sub
		a.subscriber = sub
		fmt.Println("✅")

		// State and field events share the bus
		pub, err := posebus.NewRedisPublisher(ctx, a.config.Redis)
		if err != nil {
			a.logger.Warn("play events disabled", "error", err)
		} else {
			a.events = pub
		}
	case PoseSourceWS:
		fmt.Printf("📡 Reading poses from %s\n", a.config.CameraURL)
		a.subscriber = posebus.NewWSSubscriber(a.config.CameraURL, a.latest)
	}

	return nil
}

// Run plays until Done (or forever with Loop) or until ctx is cancelled
func (a *ControllerApp) Run(ctx context.Context) error {
	if a.rate == nil || a.subscriber == nil {
		return errors.New("controller not initialized")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		a.wg.Wait()
	}()

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.rate.Run(ctx)
	}()
	go func() {
		defer a.wg.Done()
		if err := a.subscriber.Run(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("pose source stopped", "error", err)
		}
	}()

	fmt.Println("\n⚽ Looking for the ball")
	fmt.Println("   (Ctrl+C to exit)")

	for {
		err := a.playOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		var te *play.TransitionError
		if errors.As(err, &te) && a.config.Loop {
			fmt.Printf("⚠️  %v, starting over\n", err)
			continue
		}
		if err != nil {
			return err
		}
		if !a.config.Loop {
			return nil
		}
	}
}

// playOnce runs a single play from WaitBallInView to Done
func (a *ControllerApp) playOnce(ctx context.Context) error {
	machine, err := play.New(a.config.Play, a.latest, a.rate)
	if err != nil {
		return err
	}
	machine.OnTransition = func(from, to play.State) {
		fmt.Printf("➡️  %s → %s\n", from, to)
		a.publish(ctx, func() (*protocol.Message, error) {
			return protocol.NewStateMessage(machine.RunID(), from.String(), to.String(), nil)
		})
	}

	field, err := machine.Run(ctx)
	var te *play.TransitionError
	switch {
	case errors.As(err, &te):
		a.publish(ctx, func() (*protocol.Message, error) {
			return protocol.NewStateMessage(machine.RunID(), te.State.String(), te.State.String(), te.Err)
		})
		return err
	case errors.Is(err, play.ErrUnknownDistance):
		fmt.Printf("⚠️  Play %s finished without a usable distance\n", machine.RunID())
		return nil
	case err != nil:
		return err
	}

	fmt.Printf("📐 Ball %.1f, goal %.1f, heading %.1f°, separation %.1f, approach %.1f°\n",
		field.BallDistance, field.GoalDistance, field.HeadingDeltaDeg,
		field.BallGoalSeparation, field.ApproachAngleDeg)

	a.publish(ctx, func() (*protocol.Message, error) {
		return protocol.NewFieldMessage(fieldData(machine.RunID(), field))
	})
	return nil
}

// fieldData converts a play result for the bus
func fieldData(runID string, f play.Field) protocol.FieldData {
	return protocol.FieldData{
		RunID:              runID,
		Ball:               protocol.FieldPoint{X: f.Ball.X, Y: f.Ball.Y},
		Goal:               protocol.FieldPoint{X: f.Goal.X, Y: f.Goal.Y},
		BallDistance:       f.BallDistance,
		GoalDistance:       f.GoalDistance,
		HeadingDeltaDeg:    f.HeadingDeltaDeg,
		BallGoalSeparation: f.BallGoalSeparation,
		ApproachAngleDeg:   f.ApproachAngleDeg,
		ViewAngleDeg:       f.ViewAngleDeg,
	}
}

// publish sends a play event on the bus when one is connected
func (a *ControllerApp) publish(ctx context.Context, build func() (*protocol.Message, error)) {
	if a.events == nil {
		return
	}
	msg, err := build()
	if err != nil {
		a.logger.Warn("build event", "error", err)
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := a.events.PublishMessage(pubCtx, msg); err != nil {
		a.logger.Warn("publish event", "type", msg.Type, "error", err)
	}
}

// Shutdown stops the wheels and closes connections
func (a *ControllerApp) Shutdown() {
	fmt.Println("\n👋 Goodbye!")

	if a.rate != nil {
		a.rate.Stop()
	}
	if a.drive != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		if err := a.drive.Drive(stopCtx, 0, 0); err != nil {
			a.logger.Warn("final stop failed", "error", err)
		}
		cancel()
	}
	if a.redisSub != nil {
		a.redisSub.Close()
	}
	if a.events != nil {
		a.events.Close()
	}

	updates, dropped := a.latest.Counts()
	a.logger.Info("pose source closed", "updates", updates, "dropped", dropped)
}
