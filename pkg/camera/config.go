// Package camera captures frames for the perception pipeline.
// Capture settings follow the same Config/Validate pattern as pkg/tracking.
package camera

// Config holds the capture parameters.
// These can be changed at runtime through the Manager.
type Config struct {
	// Device is a capture index ("0"), a video file, or a GStreamer/RTSP URI
	Device string `json:"device"`

	// === Resolution ===
	Width  int `json:"width"`  // Frame width in pixels
	Height int `json:"height"` // Frame height in pixels
	FPS    int `json:"fps"`    // Target frame rate

	// === Exposure ===
	// Exposure is passed straight to the driver; 0 leaves auto exposure on.
	// V4L2 backends expect a value in 100µs units, others are driver-specific.
	Exposure float64 `json:"exposure"`

	// Brightness is passed to the driver when non-zero
	Brightness float64 `json:"brightness"`

	// === Reliability ===
	// BufferSize is the driver frame queue; 1 keeps latency lowest
	BufferSize int `json:"buffer_size"`

	// MaxFailures is how many consecutive empty reads end a capture run
	MaxFailures int `json:"max_failures"`
}

// Limits for the USB cameras the robot ships with
const (
	MinWidth  = 160
	MaxWidth  = 1920
	MinHeight = 120
	MaxHeight = 1080
	MaxFPS    = 120
)

// DefaultConfig returns the capture settings the perception defaults are
// tuned for: 640x480, so the frame center is column 320.
func DefaultConfig() Config {
	return Config{
		Device:      "0",
		Width:       640,
		Height:      480,
		FPS:         30,
		BufferSize:  1,
		MaxFailures: 30, // One second of failed reads at 30 fps
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device == "" {
		errors = append(errors, "device must not be empty")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errors = append(errors, "width must be between 160 and 1920")
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errors = append(errors, "height must be between 120 and 1080")
	}
	if c.FPS < 1 || c.FPS > MaxFPS {
		errors = append(errors, "fps must be between 1 and 120")
	}
	if c.Exposure < 0 {
		errors = append(errors, "exposure must be 0 (auto) or positive")
	}
	if c.BufferSize < 0 {
		errors = append(errors, "buffer_size must not be negative")
	}
	if c.MaxFailures < 1 {
		errors = append(errors, "max_failures must be at least 1")
	}

	return errors
}
