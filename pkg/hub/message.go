// Package hub fans websocket payloads out to dashboard viewers through a
// single goroutine that owns the client set.
package hub

import "github.com/gofiber/websocket/v2"

// Kind selects the websocket frame a Message is written as
type Kind uint8

const (
	Text   Kind = iota // Pose envelopes and other JSON
	Binary             // Annotated JPEG frames
)

func (k Kind) String() string {
	if k == Binary {
		return "binary"
	}
	return "text"
}

// Message is one broadcast payload. Data is shared by every client and
// must not be modified after Broadcast.
type Message struct {
	Kind Kind
	Data []byte
}

// TextMessage wraps pre-encoded JSON
func TextMessage(data []byte) Message {
	return Message{Kind: Text, Data: data}
}

// BinaryMessage wraps raw bytes
func BinaryMessage(data []byte) Message {
	return Message{Kind: Binary, Data: data}
}

// opcode maps the kind onto the websocket frame type
func (m Message) opcode() int {
	if m.Kind == Binary {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}
