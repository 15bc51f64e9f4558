package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-soccerbot/internal/log"
)

// ErrCaptureFailed is returned when the device keeps returning empty frames
var ErrCaptureFailed = errors.New("camera: capture failed")

// Capture is the part of *gocv.VideoCapture a Source drives
type Capture interface {
	Read(m *gocv.Mat) bool
	Set(prop gocv.VideoCaptureProperties, param float64)
	Close() error
}

// Source reads frames from a capture device and hands them to a callback
// one at a time.
type Source struct {
	capture Capture
	logger  *slog.Logger

	mu      sync.Mutex
	cfg     Config
	pending *Config

	frames   uint64
	failures uint64
}

// Open opens cfg.Device with gocv and applies the capture settings
func Open(cfg Config) (*Source, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera config: %v", errs)
	}

	// gocv treats numeric strings as device indices and anything else as a
	// file or pipeline
	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("camera: open %q: %w", cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("camera: device %q not opened", cfg.Device)
	}

	return NewSource(vc, cfg), nil
}

// NewSource wraps an already opened capture
func NewSource(capture Capture, cfg Config) *Source {
	s := &Source{
		capture: capture,
		cfg:     cfg,
		logger:  log.Component("camera"),
	}
	s.apply(cfg)
	return s
}

// Config returns the settings in effect
func (s *Source) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Apply schedules new settings; they take effect before the next read.
// Suitable as a Manager.OnConfigChange callback.
func (s *Source) Apply(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("camera config: %v", errs)
	}
	s.mu.Lock()
	s.pending = &cfg
	s.mu.Unlock()
	return nil
}

// apply pushes settings to the device
func (s *Source) apply(cfg Config) {
	s.capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	s.capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	s.capture.Set(gocv.VideoCaptureFPS, float64(cfg.FPS))
	if cfg.BufferSize > 0 {
		s.capture.Set(gocv.VideoCaptureBufferSize, float64(cfg.BufferSize))
	}
	if cfg.Exposure > 0 {
		s.capture.Set(gocv.VideoCaptureExposure, cfg.Exposure)
	}
	if cfg.Brightness != 0 {
		s.capture.Set(gocv.VideoCaptureBrightness, cfg.Brightness)
	}
	s.logger.Info("capture configured", "width", cfg.Width, "height", cfg.Height, "fps", cfg.FPS)
}

// Run reads frames until ctx is cancelled, onFrame fails, or MaxFailures
// consecutive reads come back empty. Frames are delivered strictly in
// sequence; the Mat is reused and only valid during the callback.
func (s *Source) Run(ctx context.Context, onFrame func(gocv.Mat) error) error {
	mat := gocv.NewMat()
	defer mat.Close()

	consecutive := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.mu.Lock()
		if s.pending != nil {
			s.cfg = *s.pending
			s.pending = nil
			s.apply(s.cfg)
		}
		maxFailures := s.cfg.MaxFailures
		s.mu.Unlock()

		if ok := s.capture.Read(&mat); !ok || mat.Empty() {
			consecutive++
			s.mu.Lock()
			s.failures++
			s.mu.Unlock()

			if consecutive >= maxFailures {
				return fmt.Errorf("%w: %d empty reads in a row", ErrCaptureFailed, consecutive)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}

		if consecutive > 0 {
			s.logger.Debug("capture recovered", "after", consecutive)
			consecutive = 0
		}

		s.mu.Lock()
		s.frames++
		s.mu.Unlock()

		if err := onFrame(mat); err != nil {
			return err
		}
	}
}

// Counts returns frames delivered and failed reads so far
func (s *Source) Counts() (frames, failures uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames, s.failures
}

// Close releases the device
func (s *Source) Close() error {
	return s.capture.Close()
}
