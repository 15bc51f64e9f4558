// Controller - runs the play: find the ball, center it, measure, find the
// goal, center it, measure, then report the triangulated field
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	logging "github.com/teslashibe/go-soccerbot/internal/log"
	"github.com/teslashibe/go-soccerbot/pkg/node"
)

func main() {
	cfg := parseFlags()
	logging.InitFromEnv(cfg.Debug)

	app, err := node.NewControllerApp(cfg)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Init(ctx); err != nil {
		log.Fatalf("❌ Initialization failed: %v", err)
	}
	defer app.Shutdown()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("❌ Runtime error: %v", err)
	}
}

// parseFlags reads the environment, then lets flags override it
func parseFlags() node.ControllerConfig {
	cfg := node.DefaultControllerConfig()
	cfg.LoadEnvConfig()

	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")
	flag.StringVar(&cfg.DriveURL, "drive", cfg.DriveURL, "Drive node URL; empty browses mDNS (DRIVE_URL)")
	flag.StringVar(&cfg.PoseSource, "poses", cfg.PoseSource, "Pose source: redis or ws (POSE_SOURCE)")
	flag.StringVar(&cfg.Redis.Addr, "redis", cfg.Redis.Addr, "Redis address (REDIS_ADDR)")
	flag.StringVar(&cfg.CameraURL, "camera", cfg.CameraURL, "Camera node pose websocket (CAMERA_URL)")
	flag.IntVar(&cfg.Play.FrameCenterX, "center", cfg.Play.FrameCenterX, "Frame center column in pixels (0 uses half the frame width)")
	flag.IntVar(&cfg.Play.Deadband, "deadband", cfg.Play.Deadband, "Centered when within this many pixels")
	flag.IntVar(&cfg.Play.SearchRotation, "search", cfg.Play.SearchRotation, "Rotation while searching")
	flag.DurationVar(&cfg.Play.MaxPoseAge, "max-pose-age", cfg.Play.MaxPoseAge, "Ignore poses older than this")
	flag.BoolVar(&cfg.Loop, "loop", false, "Start a new play after each one finishes")
	flag.Parse()

	return cfg
}
