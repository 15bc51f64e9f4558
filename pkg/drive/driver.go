package drive

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-soccerbot/internal/log"
)

// ErrClosed is returned after Close
var ErrClosed = errors.New("drive: driver closed")

// Stats counts traffic on the serial link
type Stats struct {
	Commands     uint64 `json:"commands"`
	HeadingReads uint64 `json:"heading_reads"`
	Failures     uint64 `json:"failures"`
}

// Driver exclusively owns the serial port. Every write and read happens
// under one mutex so a heading query never interleaves with a drive write.
type Driver struct {
	mu     sync.Mutex
	port   Port
	logger *slog.Logger
	closed bool
	stats  Stats
}

// NewDriver takes ownership of port
func NewDriver(port Port) *Driver {
	return &Driver{
		port:   port,
		logger: log.Component("drive"),
	}
}

// Start puts the controller in safe mode (start, then safe)
func (d *Driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, name := range []string{"start", "safe"} {
		cmd, _ := EncodeMode(name)
		if err := d.writeLocked(cmd); err != nil {
			return fmt.Errorf("start (%s): %w", name, err)
		}
	}
	d.logger.Info("controller started", "mode", "safe")
	return nil
}

// Drive sends a velocity/rotation command. Wheel speeds are clamped.
func (d *Driver) Drive(velocity, rotation int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.writeLocked(EncodeDrive(velocity, rotation)); err != nil {
		return fmt.Errorf("drive: %w", err)
	}
	d.logger.Debug("drive", "velocity", velocity, "rotation", rotation)
	return nil
}

// Mode sends a named command such as "beep" or "dock"
func (d *Driver) Mode(name string) error {
	cmd, err := EncodeMode(name)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.writeLocked(cmd); err != nil {
		return fmt.Errorf("mode %s: %w", name, err)
	}
	d.logger.Info("mode", "name", name)
	return nil
}

// Heading queries the angle sensor. The controller reports degrees turned
// since the previous query, so each read also zeroes the accumulator.
func (d *Driver) Heading() (Heading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// A reply that arrived after an earlier read timed out would shift
	// this one by a byte
	d.drainLocked()

	if err := d.writeLocked(EncodeHeadingRequest()); err != nil {
		return Heading{}, fmt.Errorf("heading request: %w", err)
	}

	buf, err := readFull(d.port, HeadingLen)
	if err != nil {
		d.stats.Failures++
		d.drainLocked()
		return Heading{}, fmt.Errorf("heading read: %w", err)
	}

	h, err := DecodeHeadingResponse(buf)
	if err != nil {
		d.stats.Failures++
		d.drainLocked()
		return Heading{}, err
	}
	d.stats.HeadingReads++
	d.logger.Debug("heading", "degrees", h.Degrees)
	return h, nil
}

// Close stops the wheels and releases the port. Safe to call twice.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}

	stopErr := d.writeLocked(EncodeDrive(0, 0))
	d.closed = true

	if err := d.port.Close(); err != nil {
		return fmt.Errorf("close port: %w", err)
	}
	if stopErr != nil {
		return fmt.Errorf("stop on close: %w", stopErr)
	}
	return nil
}

// Stats returns a snapshot of the link counters
func (d *Driver) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Driver) writeLocked(b []byte) error {
	if d.closed {
		return ErrClosed
	}
	if _, err := d.port.Write(b); err != nil {
		d.stats.Failures++
		return err
	}
	d.stats.Commands++
	return nil
}

func (d *Driver) drainLocked() {
	if d.closed {
		return
	}
	if err := d.port.ResetInputBuffer(); err != nil {
		d.logger.Warn("input flush failed", "error", err)
	}
}

// readFull reads exactly n bytes. A serial read that times out returns
// (0, nil), which io.ReadFull would spin on, so a zero-byte read ends the
// attempt and whatever arrived is handed to the decoder.
func readFull(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	for got < n {
		m, err := r.Read(buf[got:])
		got += m
		if err == io.EOF || (err == nil && m == 0) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return buf[:got], nil
}
