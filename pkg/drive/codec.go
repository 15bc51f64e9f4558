// Package drive speaks the motor controller's binary serial protocol and
// serves it to the rest of the robot over HTTP.
package drive

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

// Opcodes
const (
	OpStart       byte = 128
	OpSafe        byte = 131
	OpFull        byte = 132
	OpDrive       byte = 145
	OpSensorQuery byte = 142
	SensorAngle   byte = 20
)

const (
	// HeadingLen is the size of the angle sensor response
	HeadingLen = 2

	// MaxWheelSpeed bounds each wheel in mm/s
	MaxWheelSpeed = 500

	driveCommandLen = 5
)

var (
	// ErrUnknownMode is returned for a mode name not in the command table
	ErrUnknownMode = errors.New("drive: unknown mode")

	// ErrShortRead means fewer heading bytes arrived than the protocol requires
	ErrShortRead = errors.New("drive: short read")

	// ErrLongRead means more heading bytes arrived than the protocol requires
	ErrLongRead = errors.New("drive: long read")
)

// modes maps named controller commands to their raw bytes
var modes = map[string][]byte{
	"start":   {OpStart},
	"safe":    {OpSafe},
	"passive": {OpStart},
	"full":    {OpFull},
	"beep":    {140, 3, 1, 64, 16, 141, 3},
	"stop":    {173},
	"dock":    {143},
	"reset":   {7},
}

// DecodeError reports a malformed sensor response
type DecodeError struct {
	Want int
	Got  int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("drive: decode heading: want %d bytes, got %d: %v", e.Want, e.Got, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Heading is the angle turned since the previous read, counterclockwise positive
type Heading struct {
	Degrees int16 `json:"degrees"`
}

// WheelSpeeds converts a velocity/rotation pair into clamped wheel speeds
func WheelSpeeds(velocity, rotation int) (left, right int16) {
	return clampWheel(velocity + rotation), clampWheel(velocity - rotation)
}

func clampWheel(v int) int16 {
	if v > MaxWheelSpeed {
		return MaxWheelSpeed
	}
	if v < -MaxWheelSpeed {
		return -MaxWheelSpeed
	}
	return int16(v)
}

// EncodeDrive builds the 5-byte drive command: opcode, right, left as
// big-endian int16.
func EncodeDrive(velocity, rotation int) []byte {
	left, right := WheelSpeeds(velocity, rotation)

	buf := make([]byte, driveCommandLen)
	buf[0] = OpDrive
	binary.BigEndian.PutUint16(buf[1:3], uint16(right))
	binary.BigEndian.PutUint16(buf[3:5], uint16(left))
	return buf
}

// EncodeMode returns the raw bytes for a named command
func EncodeMode(name string) ([]byte, error) {
	cmd, ok := modes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
	out := make([]byte, len(cmd))
	copy(out, cmd)
	return out, nil
}

// Modes lists the known command names in sorted order
func Modes() []string {
	names := make([]string, 0, len(modes))
	for name := range modes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EncodeHeadingRequest returns the angle sensor query
func EncodeHeadingRequest() []byte {
	return []byte{OpSensorQuery, SensorAngle}
}

// DecodeHeadingResponse parses exactly two bytes as a big-endian int16.
// Any other length is a *DecodeError, since a partial read would otherwise
// look like a small valid angle.
func DecodeHeadingResponse(b []byte) (Heading, error) {
	switch {
	case len(b) < HeadingLen:
		return Heading{}, &DecodeError{Want: HeadingLen, Got: len(b), Err: ErrShortRead}
	case len(b) > HeadingLen:
		return Heading{}, &DecodeError{Want: HeadingLen, Got: len(b), Err: ErrLongRead}
	}
	return Heading{Degrees: int16(binary.BigEndian.Uint16(b))}, nil
}
