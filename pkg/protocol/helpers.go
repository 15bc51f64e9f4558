package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/teslashibe/go-soccerbot/pkg/tracking"
)

// NewPoseMessage wraps a perception pose
func NewPoseMessage(pose tracking.Pose) (*Message, error) {
	return NewMessage(TypePose, pose)
}

// NewStateMessage reports a transition; err is set for a failed one
func NewStateMessage(runID, from, to string, err error) (*Message, error) {
	data := StateData{RunID: runID, From: from, To: to}
	if err != nil {
		data.Error = err.Error()
	}
	return NewMessage(TypeState, data)
}

// NewFieldMessage reports a triangulation result
func NewFieldMessage(field FieldData) (*Message, error) {
	return NewMessage(TypeField, field)
}

// GetPose decodes a pose message
func (m *Message) GetPose() (*tracking.Pose, error) {
	return decode[tracking.Pose](m, TypePose)
}

// GetStateData decodes a state message
func (m *Message) GetStateData() (*StateData, error) {
	return decode[StateData](m, TypeState)
}

// GetFieldData decodes a field message
func (m *Message) GetFieldData() (*FieldData, error) {
	return decode[FieldData](m, TypeField)
}

// decode checks the envelope type and unmarshals Data into a fresh T
func decode[T any](m *Message, want MessageType) (*T, error) {
	if m.Type != want {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongType, m.Type, want)
	}
	var v T
	if len(m.Data) == 0 {
		return nil, fmt.Errorf("protocol: %s message has no data", want)
	}
	if err := json.Unmarshal(m.Data, &v); err != nil {
		return nil, fmt.Errorf("protocol: decode %s: %w", want, err)
	}
	return &v, nil
}
