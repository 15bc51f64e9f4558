package tracking

import (
	"fmt"

	"github.com/teslashibe/go-soccerbot/pkg/tracking/detection"
)

// ConfigError reports an invalid tunable at construction time
type ConfigError = detection.ConfigError

// Config holds all tunable parameters for the perception pipeline
type Config struct {
	// Frame geometry
	FrameWidth  int `json:"frame_width"`
	FrameHeight int `json:"frame_height"`

	// Detectors
	Ball detection.ColorConfig `json:"ball"`
	Goal detection.GoalConfig  `json:"goal"`

	// Smoothing
	BallWindow int `json:"ball_window"` // Frames averaged for ball width
	GoalWindow int `json:"goal_window"` // Frames of goal edge extrema

	// Alignment
	AlignThresholdPx int `json:"align_threshold_px"` // Max |ballX - goalX| to count as lined up
	AlignWindow      int `json:"align_window"`       // Consecutive frames required for stable

	// Distance calibration (pixel width -> distance)
	BallCalibration PowerLaw `json:"ball_calibration"`
	GoalCalibration PowerLaw `json:"goal_calibration"`

	// Overlay
	Annotate    bool `json:"annotate"`     // Draw boxes/labels onto published frames
	JPEGQuality int  `json:"jpeg_quality"` // 1-100
}

// DefaultConfig returns the field-tested configuration
func DefaultConfig() Config {
	return Config{
		FrameWidth:  640,
		FrameHeight: 480,

		// Orange ball under gym lighting
		Ball: detection.ColorConfig{
			Color:       detection.HSV{H: 179, S: 184, V: 143},
			Tolerance:   detection.HSV{H: 50, S: 70, V: 70},
			CloseKernel: 80,
			OpenKernel:  30,
		},

		// Yellow goal
		Goal: detection.GoalConfig{
			Color:     detection.HSV{H: 30, S: 200, V: 200},
			Tolerance: detection.HSV{H: 15, S: 80, V: 80},
			MinPixels: 2000,
		},

		BallWindow: 10,
		GoalWindow: 5,

		AlignThresholdPx: 30,
		AlignWindow:      5,

		BallCalibration: BallCalibration,
		GoalCalibration: GoalCalibration,

		Annotate:    true,
		JPEGQuality: 80,
	}
}

// FastConfig trades stability for responsiveness with shorter windows
func FastConfig() Config {
	cfg := DefaultConfig()
	cfg.BallWindow = 4
	cfg.GoalWindow = 2
	cfg.AlignWindow = 3
	return cfg
}

// Validate returns the first invalid tunable as a *ConfigError
func (c Config) Validate() error {
	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		return &ConfigError{Field: "frame", Message: fmt.Sprintf("invalid size %dx%d", c.FrameWidth, c.FrameHeight)}
	}
	if err := c.Ball.Validate(); err != nil {
		return fmt.Errorf("ball: %w", err)
	}
	if err := c.Goal.Validate(); err != nil {
		return fmt.Errorf("goal: %w", err)
	}
	if c.BallWindow <= 0 {
		return &ConfigError{Field: "ball_window", Message: "must be positive"}
	}
	if c.GoalWindow <= 0 {
		return &ConfigError{Field: "goal_window", Message: "must be positive"}
	}
	if c.AlignThresholdPx <= 0 {
		return &ConfigError{Field: "align_threshold_px", Message: "must be positive"}
	}
	if c.AlignWindow <= 0 {
		return &ConfigError{Field: "align_window", Message: "must be positive"}
	}
	if err := c.BallCalibration.Validate(); err != nil {
		return fmt.Errorf("ball_calibration: %w", err)
	}
	if err := c.GoalCalibration.Validate(); err != nil {
		return fmt.Errorf("goal_calibration: %w", err)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return &ConfigError{Field: "jpeg_quality", Message: "must be 1-100"}
	}
	return nil
}

// FrameCenterX returns the horizontal center of the frame in pixels
func (c Config) FrameCenterX() int {
	return c.FrameWidth / 2
}
