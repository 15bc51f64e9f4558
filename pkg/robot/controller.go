package robot

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/go-soccerbot/internal/log"
	"github.com/teslashibe/go-soccerbot/pkg/drive"
)

// Command is a velocity/rotation pair
type Command struct {
	Velocity int
	Rotation int
}

// RateController sends drive commands at a fixed rate.
// Drive only records the latest target; each tick forwards it if it
// changed, or if KeepAlive has passed since the last send. Heading first
// flushes a pending target so the reading reflects it; Mode passes
// straight through.
type RateController struct {
	robot Controller

	mu     sync.RWMutex
	target Command

	rate      time.Duration // Control loop tick rate
	keepAlive time.Duration // Resend an unchanged command this often
	stop      chan struct{}
	stopOnce  sync.Once

	// sendMu serializes sends between the tick loop and Heading
	sendMu       sync.Mutex
	lastSent     Command
	lastSentTime time.Time
	sentOnce     bool

	// Diagnostics
	tickCount     uint64
	skippedTicks  uint64
	errorCount    uint64
	lastErrorTime time.Time
}

// NewRateController creates a rate-limited controller running at the given rate.
func NewRateController(robot Controller, rate, keepAlive time.Duration) *RateController {
	return &RateController{
		robot:     robot,
		rate:      rate,
		keepAlive: keepAlive,
		stop:      make(chan struct{}),
	}
}

// Drive sets the target command. It never blocks on the network.
func (c *RateController) Drive(ctx context.Context, velocity, rotation int) error {
	c.mu.Lock()
	c.target = Command{Velocity: velocity, Rotation: rotation}
	c.mu.Unlock()
	return nil
}

// Target returns the command the next tick will send.
func (c *RateController) Target() Command {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.target
}

// Heading sends the target if it has not gone out yet, then reads the
// heading from the underlying controller.
func (c *RateController) Heading(ctx context.Context) (drive.Heading, error) {
	c.sendMu.Lock()
	target := c.Target()
	if !c.sentOnce || target != c.lastSent {
		c.send(ctx, target)
	}
	c.sendMu.Unlock()

	return c.robot.Heading(ctx)
}

// Mode passes through to the underlying controller.
func (c *RateController) Mode(ctx context.Context, name string) error {
	return c.robot.Mode(ctx, name)
}

// Run starts the control loop. Blocks until Stop is called or ctx ends.
// A final stop command is sent on exit.
func (c *RateController) Run(ctx context.Context) {
	ticker := time.NewTicker(c.rate)
	defer ticker.Stop()

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if c.robot != nil {
			if err := c.robot.Drive(stopCtx, 0, 0); err != nil {
				log.Warn("final stop failed", "error", err)
			}
		}
	}()

	for {
		select {
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// tick executes one control cycle.
func (c *RateController) tick(ctx context.Context) {
	c.mu.RLock()
	target := c.target
	c.mu.RUnlock()

	if c.robot == nil {
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.tickCount++

	fresh := c.sentOnce && target == c.lastSent && time.Since(c.lastSentTime) < c.keepAlive
	if fresh {
		c.skippedTicks++
		c.heartbeat(target)
		return
	}

	c.send(ctx, target)
	c.heartbeat(target)
}

// send forwards target; callers hold sendMu
func (c *RateController) send(ctx context.Context, target Command) {
	if err := c.robot.Drive(ctx, target.Velocity, target.Rotation); err != nil {
		// Log errors, at most once per 5 seconds
		c.errorCount++
		if c.lastErrorTime.IsZero() || time.Since(c.lastErrorTime) > 5*time.Second {
			log.Warn("rate controller drive error", "error", err, "total_errors", c.errorCount)
			c.lastErrorTime = time.Now()
		}
		return
	}
	c.lastSent = target
	c.lastSentTime = time.Now()
	c.sentOnce = true
}

func (c *RateController) heartbeat(target Command) {
	if c.tickCount%100 == 0 {
		log.Debug("rate controller",
			"ticks", c.tickCount,
			"skipped", c.skippedTicks,
			"errors", c.errorCount,
			"velocity", target.Velocity,
			"rotation", target.Rotation)
	}
}

// Stop halts the control loop. Safe to call more than once.
func (c *RateController) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}
