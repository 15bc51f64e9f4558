package tracking

import (
	"errors"
	"testing"
)

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.FrameCenterX() != 320 {
		t.Errorf("Expected FrameCenterX=320, got %d", cfg.FrameCenterX())
	}
	if cfg.BallWindow != 10 {
		t.Errorf("Expected BallWindow=10, got %d", cfg.BallWindow)
	}

	// Field-tuned kernels: large close to merge the ball, smaller open
	if cfg.Ball.CloseKernel != 80 || cfg.Ball.OpenKernel != 30 {
		t.Errorf("Expected kernels 80/30, got %d/%d", cfg.Ball.CloseKernel, cfg.Ball.OpenKernel)
	}
	if cfg.BallCalibration != BallCalibration || cfg.GoalCalibration != GoalCalibration {
		t.Error("Expected default calibrations")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should validate: %v", err)
	}
}

func TestFastConfig_ShorterWindows(t *testing.T) {
	def := DefaultConfig()
	fast := FastConfig()

	if fast.BallWindow >= def.BallWindow {
		t.Errorf("FastConfig BallWindow=%d should be < %d", fast.BallWindow, def.BallWindow)
	}
	if fast.AlignWindow >= def.AlignWindow {
		t.Errorf("FastConfig AlignWindow=%d should be < %d", fast.AlignWindow, def.AlignWindow)
	}
	if err := fast.Validate(); err != nil {
		t.Errorf("FastConfig should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"zero frame width", func(c *Config) { c.FrameWidth = 0 }, "frame"},
		{"zero ball window", func(c *Config) { c.BallWindow = 0 }, "ball_window"},
		{"negative goal window", func(c *Config) { c.GoalWindow = -1 }, "goal_window"},
		{"zero align threshold", func(c *Config) { c.AlignThresholdPx = 0 }, "align_threshold_px"},
		{"zero align window", func(c *Config) { c.AlignWindow = 0 }, "align_window"},
		{"zero close kernel", func(c *Config) { c.Ball.CloseKernel = 0 }, "close_kernel"},
		{"zero open kernel", func(c *Config) { c.Ball.OpenKernel = 0 }, "open_kernel"},
		{"zero min pixels", func(c *Config) { c.Goal.MinPixels = 0 }, "min_pixels"},
		{"negative tolerance", func(c *Config) { c.Goal.Tolerance.S = -1 }, "tolerance"},
		{"zero calibration exponent", func(c *Config) { c.BallCalibration.K = 0 }, "k"},
		{"jpeg quality too high", func(c *Config) { c.JPEGQuality = 101 }, "jpeg_quality"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}

			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ConfigError, got %T: %v", err, err)
			}
			if ce.Field != tc.field {
				t.Errorf("Field: got %q, want %q", ce.Field, tc.field)
			}
		})
	}
}
