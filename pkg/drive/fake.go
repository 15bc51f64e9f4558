package drive

import (
	"bytes"
	"sync"
)

// FakePort is an in-memory Port for tests and dry runs.
// Replies queued with Respond arrive when a heading request is written;
// bytes passed to Arrive land in the input buffer at once. Writes are
// captured.
type FakePort struct {
	mu sync.Mutex

	readBuf  bytes.Buffer
	writeBuf bytes.Buffer
	replies  [][]byte

	// Writes records each Write call separately
	Writes [][]byte

	// WriteError is returned by every Write while set
	WriteError error

	// AutoHeading, when set, answers heading requests once Respond
	// replies run out
	AutoHeading []byte

	// Flushes counts ResetInputBuffer calls
	Flushes int

	Closed bool
}

// NewFakePort returns an empty fake port
func NewFakePort() *FakePort {
	return &FakePort{}
}

// Respond queues the reply to the next unanswered heading request
func (p *FakePort) Respond(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, append([]byte(nil), b...))
}

// Arrive puts bytes straight into the input buffer, like a reply that
// shows up after the reader gave up on it
func (p *FakePort) Arrive(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readBuf.Write(b)
}

// Read returns queued bytes. An empty queue reads as (0, nil), like a
// serial read that timed out.
func (p *FakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readBuf.Len() == 0 {
		return 0, nil
	}
	return p.readBuf.Read(b)
}

func (p *FakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Closed {
		return 0, ErrClosed
	}
	if p.WriteError != nil {
		return 0, p.WriteError
	}

	cp := append([]byte(nil), b...)
	p.Writes = append(p.Writes, cp)
	p.writeBuf.Write(b)

	if bytes.Equal(b, EncodeHeadingRequest()) {
		switch {
		case len(p.replies) > 0:
			p.readBuf.Write(p.replies[0])
			p.replies = p.replies[1:]
		case p.AutoHeading != nil:
			p.readBuf.Write(p.AutoHeading)
		}
	}
	return len(b), nil
}

func (p *FakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

// ResetInputBuffer drops unread bytes
func (p *FakePort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readBuf.Reset()
	p.Flushes++
	return nil
}

// Written returns every byte written so far
func (p *FakePort) Written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.writeBuf.Bytes()...)
}

// CountWrites returns how many Write calls carried exactly b
func (p *FakePort) CountWrites(b []byte) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, w := range p.Writes {
		if bytes.Equal(w, b) {
			n++
		}
	}
	return n
}

// LastWrite returns the most recent Write payload
func (p *FakePort) LastWrite() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Writes) == 0 {
		return nil
	}
	return p.Writes[len(p.Writes)-1]
}
