package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-soccerbot/internal/log"
	"github.com/teslashibe/go-soccerbot/pkg/camera"
	"github.com/teslashibe/go-soccerbot/pkg/posebus"
	"github.com/teslashibe/go-soccerbot/pkg/tracking"
	"github.com/teslashibe/go-soccerbot/pkg/web"
)

// CameraApp captures frames, runs perception and publishes poses to the
// dashboard and the Redis pose bus.
type CameraApp struct {
	config CameraConfig
	logger *slog.Logger

	source    *camera.Source
	manager   *camera.Manager
	pipeline  *tracking.Pipeline
	webServer *web.Server
	redis     *posebus.RedisPublisher
}

// NewCameraApp validates cfg and returns an uninitialized app
func NewCameraApp(cfg CameraConfig) (*CameraApp, error) {
	if cfg.Preset != "" {
		if p := camera.GetPreset(cfg.Preset); p != nil {
			device := cfg.Camera.Device
			cfg.Camera = *p
			cfg.Camera.Device = device
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &CameraApp{config: cfg, logger: log.Component("camera-node")}, nil
}

// Init opens the camera and connects the publishers
func (a *CameraApp) Init(ctx context.Context) error {
	fmt.Println("⚽ Soccerbot camera node")
	fmt.Println("========================")

	fmt.Printf("📷 Opening camera %s... ", a.config.Camera.Device)
	source, err := camera.Open(a.config.Camera)
	if err != nil {
		return fmt.Errorf("camera: %w", err)
	}
	a.source = source
	fmt.Printf("✅ %dx%d@%d\n", a.config.Camera.Width, a.config.Camera.Height, a.config.Camera.FPS)

	a.manager = camera.NewManager(a.config.Camera)
	a.manager.OnConfigChange = a.source.Apply

	a.webServer = web.NewServer(a.config.DashboardPort, a.config.Tracking)
	a.webServer.Camera = a.manager

	publishers := web.Fanout{a.webServer}
	if a.config.RedisEnabled() {
		fmt.Printf("📮 Connecting to Redis %s... ", a.config.Redis.Addr)
		pub, err := posebus.NewRedisPublisher(ctx, a.config.Redis)
		if err != nil {
			// Dashboard and the ws pose source still work without Redis
			fmt.Printf("⚠️  %v\n", err)
		} else {
			a.redis = pub
			publishers = append(publishers, pub)
			fmt.Println("✅")
		}
	}

	fmt.Print("🔧 Initializing perception... ")
	pipeline, err := tracking.NewPipeline(a.config.Tracking, publishers)
	if err != nil {
		return fmt.Errorf("perception: %w", err)
	}
	a.pipeline = pipeline
	a.webServer.Stats = pipeline.Stats
	fmt.Println("✅")

	return nil
}

// Run streams frames through the pipeline until ctx is cancelled or the
// camera fails.
func (a *CameraApp) Run(ctx context.Context) error {
	if a.source == nil || a.pipeline == nil {
		return errors.New("camera node not initialized")
	}

	a.webServer.StartAsync()
	fmt.Println("\n👀 Watching for the ball and the goal")
	fmt.Println("   (Ctrl+C to exit)")

	err := a.source.Run(ctx, a.onFrame)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (a *CameraApp) onFrame(bgr gocv.Mat) error {
	if _, err := a.pipeline.OnFrame(bgr); err != nil && !errors.Is(err, tracking.ErrEmptyFrame) {
		return err
	}
	return nil
}

// Shutdown releases the camera and stops the publishers
func (a *CameraApp) Shutdown() {
	fmt.Println("\n👋 Goodbye!")

	if a.source != nil {
		frames, failures := a.source.Counts()
		a.logger.Info("camera closed", "frames", frames, "failures", failures)
		a.source.Close()
	}
	if a.webServer != nil {
		a.webServer.Shutdown()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}
