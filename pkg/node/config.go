// Package node wires the soccerbot packages into the three processes:
// the camera node, the drive node and the controller.
package node

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teslashibe/go-soccerbot/internal/config"
	"github.com/teslashibe/go-soccerbot/pkg/camera"
	"github.com/teslashibe/go-soccerbot/pkg/drive"
	"github.com/teslashibe/go-soccerbot/pkg/play"
	"github.com/teslashibe/go-soccerbot/pkg/posebus"
	"github.com/teslashibe/go-soccerbot/pkg/tracking"
)

// RedisDisabled turns the Redis pose bus off when used as the address
const RedisDisabled = "off"

// Pose sources for the controller
const (
	PoseSourceRedis = "redis"
	PoseSourceWS    = "ws"
)

// CameraConfig holds everything the camera node needs.
// Flag parsing is done in cmd/camera-node; this struct is data only.
type CameraConfig struct {
	Debug bool

	Camera   camera.Config
	Preset   string // Optional camera preset applied over Camera
	Tracking tracking.Config

	DashboardPort string
	Redis         posebus.RedisOptions // Addr "off" disables the bus
}

// DefaultCameraConfig returns defaults for the camera node
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Camera:        camera.DefaultConfig(),
		Tracking:      tracking.DefaultConfig(),
		DashboardPort: config.DefaultDashboardPort,
		Redis: posebus.RedisOptions{
			Addr:   config.DefaultRedisAddr,
			Prefix: config.DefaultRedisPrefix,
		},
	}
}

// LoadEnvConfig applies environment values. Call it before flag parsing
// so flags win.
func (c *CameraConfig) LoadEnvConfig() {
	c.Camera.Device = config.String("CAMERA_DEVICE", c.Camera.Device)
	c.Camera.Width = config.Int("CAMERA_WIDTH", c.Camera.Width)
	c.Camera.Height = config.Int("CAMERA_HEIGHT", c.Camera.Height)
	c.Camera.FPS = config.Int("CAMERA_FPS", c.Camera.FPS)
	c.DashboardPort = config.String("DASHBOARD_PORT", c.DashboardPort)
	c.Redis.Addr = config.String("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Prefix = config.String("REDIS_PREFIX", c.Redis.Prefix)
}

// Validate checks the camera node configuration
func (c *CameraConfig) Validate() error {
	var errs []error
	if c.Preset != "" && camera.GetPreset(c.Preset) == nil {
		errs = append(errs, fmt.Errorf("unknown camera preset %q (have %s)", c.Preset, strings.Join(camera.PresetNames(), ", ")))
	}
	if problems := c.Camera.Validate(); len(problems) > 0 {
		errs = append(errs, fmt.Errorf("camera: %s", strings.Join(problems, "; ")))
	}
	if err := c.Tracking.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tracking: %w", err))
	}
	if c.DashboardPort == "" {
		errs = append(errs, errors.New("dashboard port is required"))
	}
	return errors.Join(errs...)
}

// RedisEnabled reports whether poses also go to Redis
func (c *CameraConfig) RedisEnabled() bool {
	return c.Redis.Addr != "" && c.Redis.Addr != RedisDisabled
}

// DriveConfig holds everything the drive node needs
type DriveConfig struct {
	Debug bool

	SerialPort string
	Port       drive.PortOptions
	ListenAddr string

	// Advertise on mDNS so the controller can find us
	Advertise bool
	Instance  string
}

// DefaultDriveConfig returns defaults for the drive node
func DefaultDriveConfig() DriveConfig {
	return DriveConfig{
		SerialPort: config.DefaultSerialPort,
		ListenAddr: config.DefaultDriveAddr,
		Advertise:  true,
	}
}

// LoadEnvConfig applies environment values
func (c *DriveConfig) LoadEnvConfig() {
	c.SerialPort = config.String("SERIAL_PORT", c.SerialPort)
	c.ListenAddr = config.String("DRIVE_ADDR", c.ListenAddr)
	c.Port.BaudRate = config.Int("SERIAL_BAUD", c.Port.BaudRate)
}

// Validate checks the drive node configuration
func (c *DriveConfig) Validate() error {
	var errs []error
	if c.SerialPort == "" {
		errs = append(errs, errors.New("serial port is required"))
	}
	if _, err := c.Port.Normalize(); err != nil {
		errs = append(errs, fmt.Errorf("serial: %w", err))
	}
	if _, err := listenPort(c.ListenAddr); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ControllerConfig holds everything the controller needs
type ControllerConfig struct {
	Debug bool

	Play play.Config

	// DriveURL is the drive node base URL; empty means browse mDNS
	DriveURL      string
	DriveTimeout  time.Duration
	BrowseTimeout time.Duration

	// Drive commands are coalesced and sent at CommandRate, with an
	// unchanged command repeated every KeepAlive
	CommandRate time.Duration
	KeepAlive   time.Duration

	PoseSource string // "redis" or "ws"
	Redis      posebus.RedisOptions
	CameraURL  string // ws://host:port/ws/pose when PoseSource is "ws"

	// Loop restarts the play after Done instead of exiting
	Loop bool
}

// DefaultControllerConfig returns defaults for the controller
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Play:          play.DefaultConfig(),
		DriveTimeout:  2 * time.Second,
		BrowseTimeout: 5 * time.Second,
		CommandRate:   50 * time.Millisecond,
		KeepAlive:     500 * time.Millisecond,
		PoseSource:    config.DefaultPoseSource,
		Redis: posebus.RedisOptions{
			Addr:   config.DefaultRedisAddr,
			Prefix: config.DefaultRedisPrefix,
		},
		CameraURL: "ws://localhost:" + config.DefaultDashboardPort + "/ws/pose",
	}
}

// LoadEnvConfig applies environment values
func (c *ControllerConfig) LoadEnvConfig() {
	c.DriveURL = config.String("DRIVE_URL", c.DriveURL)
	c.PoseSource = config.String("POSE_SOURCE", c.PoseSource)
	c.Redis.Addr = config.String("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Prefix = config.String("REDIS_PREFIX", c.Redis.Prefix)
	c.CameraURL = config.String("CAMERA_URL", c.CameraURL)
	c.Play.MaxPoseAge = config.Duration("MAX_POSE_AGE", c.Play.MaxPoseAge)
}

// Validate checks the controller configuration
func (c *ControllerConfig) Validate() error {
	var errs []error
	if err := c.Play.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("play: %w", err))
	}
	switch c.PoseSource {
	case PoseSourceRedis:
		if c.Redis.Addr == "" || c.Redis.Addr == RedisDisabled {
			errs = append(errs, errors.New("pose source redis needs a redis address"))
		}
	case PoseSourceWS:
		if c.CameraURL == "" {
			errs = append(errs, errors.New("pose source ws needs a camera URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("pose source must be %q or %q, got %q", PoseSourceRedis, PoseSourceWS, c.PoseSource))
	}
	if c.DriveTimeout <= 0 {
		errs = append(errs, errors.New("drive timeout must be positive"))
	}
	if c.CommandRate <= 0 {
		errs = append(errs, errors.New("command rate must be positive"))
	}
	return errors.Join(errs...)
}
