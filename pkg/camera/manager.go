package camera

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
)

// Manager owns the runtime camera settings exposed on the dashboard.
type Manager struct {
	mu     sync.RWMutex
	config Config

	// OnConfigChange receives every accepted config; Source.Apply fits
	OnConfigChange func(cfg Config) error
}

// NewManager creates a camera manager starting from cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{
		config: cfg,
	}
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates cfg, stores it and hands it to OnConfigChange.
func (m *Manager) SetConfig(cfg Config) error {
	if problems := cfg.Validate(); len(problems) > 0 {
		return fmt.Errorf("invalid camera config: %s", strings.Join(problems, "; "))
	}

	m.mu.Lock()
	m.config = cfg
	callback := m.OnConfigChange
	m.mu.Unlock()

	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}

	return nil
}

// ApplyPreset switches to a named preset, keeping the current device.
func (m *Manager) ApplyPreset(name string) error {
	preset := GetPreset(name)
	if preset == nil {
		return fmt.Errorf("unknown preset: %s", name)
	}
	preset.Device = m.GetConfig().Device
	return m.SetConfig(*preset)
}

// setters apply one JSON field of a partial update
var setters = map[string]func(cfg *Config, v interface{}) bool{
	"width":        intSetter(func(c *Config, n int) { c.Width = n }),
	"height":       intSetter(func(c *Config, n int) { c.Height = n }),
	"fps":          intSetter(func(c *Config, n int) { c.FPS = n }),
	"buffer_size":  intSetter(func(c *Config, n int) { c.BufferSize = n }),
	"max_failures": intSetter(func(c *Config, n int) { c.MaxFailures = n }),
	"exposure":     floatSetter(func(c *Config, f float64) { c.Exposure = f }),
	"brightness":   floatSetter(func(c *Config, f float64) { c.Brightness = f }),
}

// UpdateConfig applies a partial update keyed by JSON field name, e.g.
// {"fps": 15}. A "preset" key is applied before the other fields. The
// device cannot be changed at runtime, and nothing changes unless the
// whole update is valid.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	cfg := m.GetConfig()

	if raw, ok := params["preset"]; ok {
		name, _ := raw.(string)
		preset := GetPreset(name)
		if preset == nil {
			return fmt.Errorf("unknown preset: %v", raw)
		}
		preset.Device = cfg.Device
		cfg = *preset
	}

	for key, value := range params {
		if key == "preset" {
			continue
		}
		set, ok := setters[key]
		if !ok {
			return fmt.Errorf("unknown camera setting: %s", key)
		}
		if !set(&cfg, value) {
			return fmt.Errorf("camera setting %s: unsupported value %v", key, value)
		}
	}

	return m.SetConfig(cfg)
}

func intSetter(apply func(*Config, int)) func(*Config, interface{}) bool {
	return func(c *Config, v interface{}) bool {
		n, ok := toInt(v)
		if ok {
			apply(c, n)
		}
		return ok
	}
}

func floatSetter(apply func(*Config, float64)) func(*Config, interface{}) bool {
	return func(c *Config, v interface{}) bool {
		f, ok := toFloat(v)
		if ok {
			apply(c, f)
		}
		return ok
	}
}

// toInt accepts whole JSON numbers only
func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		return int(i), err == nil
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	}
	return 0, false
}
