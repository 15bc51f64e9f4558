package play

import (
	"errors"
	"time"

	"github.com/teslashibe/go-soccerbot/pkg/tracking"
)

// Config holds the tunables for the play sequence
type Config struct {
	// Centering
	FrameCenterX int     `json:"frame_center_x"` // Pixel column the robot aims at; 0 follows the pose's frame width
	Deadband     int     `json:"deadband"`       // |offset| below this counts as centered
	Gain         float64 `json:"gain"`           // Pixels of offset per unit of rotation
	Floor        int     `json:"floor"`          // Minimum rotation while centering

	// Searching
	SearchRotation int           `json:"search_rotation"` // Rotation while waiting for an object
	SettleDelay    time.Duration `json:"settle_delay"`    // Keep turning this long after first sighting

	// Loop
	PollInterval time.Duration `json:"poll_interval"`
	MaxPoseAge   time.Duration `json:"max_pose_age"` // Older poses count as no pose; 0 disables

	// Heading reads
	HeadingRetries int           `json:"heading_retries"`
	HeadingBackoff time.Duration `json:"heading_backoff"`
}

// fallbackCenterX is used when neither the config nor the pose gives a
// frame width
const fallbackCenterX = 320

// DefaultConfig returns the field-tested configuration for a 640px frame
func DefaultConfig() Config {
	return Config{
		Deadband: 20,
		Gain:     320.0 / 50.0, // Full half-frame offset -> rotation 50
		Floor:    25,

		SearchRotation: 50,
		SettleDelay:    500 * time.Millisecond,

		PollInterval: 100 * time.Millisecond,
		MaxPoseAge:   time.Second,

		HeadingRetries: 3,
		HeadingBackoff: 200 * time.Millisecond,
	}
}

// Validate checks the config for values that would stall or spin the loop
func (c Config) Validate() error {
	var errs []error
	if c.FrameCenterX < 0 {
		errs = append(errs, errors.New("frame_center_x must not be negative"))
	}
	if c.Deadband <= 0 {
		errs = append(errs, errors.New("deadband must be positive"))
	}
	if c.Gain <= 0 {
		errs = append(errs, errors.New("gain must be positive"))
	}
	if c.Floor < 0 {
		errs = append(errs, errors.New("floor must not be negative"))
	}
	if c.SearchRotation == 0 {
		errs = append(errs, errors.New("search_rotation must not be zero"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll_interval must be positive"))
	}
	if c.HeadingRetries < 1 {
		errs = append(errs, errors.New("heading_retries must be at least 1"))
	}
	return errors.Join(errs...)
}

// CenterX returns the pixel column to center on for pose
func (c Config) CenterX(pose tracking.Pose) int {
	switch {
	case c.FrameCenterX > 0:
		return c.FrameCenterX
	case pose.FrameWidth > 0:
		return pose.FrameWidth / 2
	default:
		return fallbackCenterX
	}
}
