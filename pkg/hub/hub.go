package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-soccerbot/internal/log"
)

// Option configures a Hub
type Option func(*Hub)

// WithRetainLast makes the hub replay the most recent message to every
// client as soon as it registers, so a new viewer sees the current pose
// without waiting for the next frame.
func WithRetainLast() Option {
	return func(h *Hub) { h.retain = true }
}

// WithBuffer sets the broadcast queue length
func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.broadcast = make(chan Message, n)
		}
	}
}

// Hub maintains the set of active clients and broadcasts messages to them.
// Only the Run goroutine touches the client map for writes.
type Hub struct {
	name   string
	logger *slog.Logger

	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // Closed when Run returns

	// Client count and last message for readers outside Run
	mu   sync.RWMutex
	last *Message

	retain  bool
	running atomic.Bool
	dropped atomic.Uint64
}

// New creates a new Hub
func New(name string, opts ...Option) *Hub {
	h := &Hub{
		name:       name,
		logger:     log.Component("hub").With("hub", name),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run is the hub's main loop; call it in a goroutine.
// When ctx ends every client's send channel is closed.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			last := h.last
			h.mu.Unlock()

			if h.retain && last != nil {
				select {
				case client.send <- *last:
				default:
				}
			}
			h.logger.Info("client connected", "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client disconnected", "clients", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			if h.retain {
				m := message
				h.last = &m
			}
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Too slow: drop the client rather than block the hub
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("dropped slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a message for all connected clients.
// When the queue is full the message is dropped and counted.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		if n := h.dropped.Add(1); n%100 == 1 {
			h.logger.Warn("broadcast queue full, dropping messages", "dropped", n)
		}
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(TextMessage(data))
	return nil
}

// BroadcastBinary broadcasts binary data (camera frames)
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(BinaryMessage(data))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many broadcasts were dropped on a full queue
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// IsRunning returns whether Run is active
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// Name returns the hub name
func (h *Hub) Name() string {
	return h.name
}
