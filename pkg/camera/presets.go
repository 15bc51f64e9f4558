package camera

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetLow     = "low"
	PresetHD      = "hd"
	PresetFast    = "fast"
	PresetIndoor  = "indoor"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetLow:     LowConfig(),
		PresetHD:      HDConfig(),
		PresetFast:    FastConfig(),
		PresetIndoor:  IndoorConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetLow,
		PresetHD,
		PresetFast,
		PresetIndoor,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// LowConfig returns 320x240 for slow boards.
// Smoothing windows and kernels are tuned for 640 wide, so detection
// thresholds should be scaled down with it.
func LowConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	return cfg
}

// HDConfig returns 720p. The distance calibration assumes 640 wide frames.
func HDConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}

// FastConfig returns 640x480 at 60 fps for quicker centering
func FastConfig() Config {
	cfg := DefaultConfig()
	cfg.FPS = 60
	cfg.MaxFailures = 60
	return cfg
}

// IndoorConfig returns default resolution with a longer fixed exposure
// so hue stays stable under flickering lights.
func IndoorConfig() Config {
	cfg := DefaultConfig()
	cfg.Exposure = 156 // ~1/64s on V4L2
	cfg.Brightness = 140
	return cfg
}
