// Camera node - captures frames, finds the ball and the goal, and
// publishes poses to the dashboard and the Redis pose bus
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strings"
	"syscall"

	logging "github.com/teslashibe/go-soccerbot/internal/log"
	"github.com/teslashibe/go-soccerbot/pkg/camera"
	"github.com/teslashibe/go-soccerbot/pkg/node"
)

func main() {
	cfg := parseFlags()
	logging.InitFromEnv(cfg.Debug)

	app, err := node.NewCameraApp(cfg)
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
func parseFlags() node.CameraConfig {
	cfg := node.DefaultCameraConfig()
	cfg.LoadEnvConfig()

	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")
	flag.StringVar(&cfg.Camera.Device, "device", cfg.Camera.Device, "Camera index, file or GStreamer pipeline (CAMERA_DEVICE)")
	flag.StringVar(&cfg.Preset, "preset", "", "Camera preset: "+strings.Join(camera.PresetNames(), ", "))
	flag.IntVar(&cfg.Camera.Width, "width", cfg.Camera.Width, "Capture width")
	flag.IntVar(&cfg.Camera.Height, "height", cfg.Camera.Height, "Capture height")
	flag.IntVar(&cfg.Camera.FPS, "fps", cfg.Camera.FPS, "Capture frame rate")
	flag.StringVar(&cfg.DashboardPort, "port", cfg.DashboardPort, "Dashboard port (DASHBOARD_PORT)")
	flag.StringVar(&cfg.Redis.Addr, "redis", cfg.Redis.Addr, "Redis address, or \"off\" (REDIS_ADDR)")
	flag.BoolVar(&cfg.Tracking.Annotate, "annotate", cfg.Tracking.Annotate, "Stream annotated frames to the dashboard")
	flag.Parse()

	return cfg
}
