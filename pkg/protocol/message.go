// Package protocol defines the JSON envelope shared by the camera node,
// the controller and the dashboard (Redis pose bus and WebSockets).
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType identifies the payload carried in Data
type MessageType string

const (
	TypePose  MessageType = "pose"  // Camera node: per-frame perception output
	TypeState MessageType = "state" // Controller: play state transition
	TypeField MessageType = "field" // Controller: triangulated ball/goal geometry
)

// ErrWrongType is returned when decoding a payload of another type
var ErrWrongType = errors.New("protocol: wrong message type")

// Message is the envelope for every bus and WebSocket message
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage wraps data with a fresh ID and the current time
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	msg := &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("protocol: encode %s payload: %w", msgType, err)
		}
		msg.Data = raw
	}
	return msg, nil
}

// Bytes returns the JSON-encoded envelope
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// Time returns the message timestamp
func (m *Message) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// ParseMessage decodes an envelope. The payload is decoded lazily by the
// typed getters.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("protocol: parse: %w", err)
	}
	if msg.Type == "" {
		return nil, errors.New("protocol: parse: missing type")
	}
	return &msg, nil
}

// StateData reports a play state transition. From equals To when a
// transition failed and Error says why.
type StateData struct {
	RunID string `json:"run_id"`
	From  string `json:"from"`
	To    string `json:"to"`
	Error string `json:"error,omitempty"`
}

// FieldPoint is a position in the robot-centered frame: robot at the
// origin, ball on the +X axis
type FieldPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FieldData reports the triangulated geometry at the end of a play
type FieldData struct {
	RunID string     `json:"run_id"`
	Ball  FieldPoint `json:"ball"`
	Goal  FieldPoint `json:"goal"`

	BallDistance       float64 `json:"ball_distance"`
	GoalDistance       float64 `json:"goal_distance"`
	HeadingDeltaDeg    float64 `json:"heading_delta_deg"`
	BallGoalSeparation float64 `json:"ball_goal_separation"`
	ApproachAngleDeg   float64 `json:"approach_angle_deg"`
	ViewAngleDeg       float64 `json:"view_angle_deg"`
}
