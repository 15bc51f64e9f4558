package posebus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-soccerbot/internal/log"
	"github.com/teslashibe/go-soccerbot/pkg/protocol"
)

// WSSubscriber reads pose envelopes from the camera node's /ws/pose
// endpoint into a Latest, reconnecting whenever the connection drops.
type WSSubscriber struct {
	URL       string
	Reconnect time.Duration // Wait between connection attempts
	ReadIdle  time.Duration // Drop the connection after this long without a message

	latest *Latest
	dialer websocket.Dialer
	logger *slog.Logger
}

// NewWSSubscriber creates a subscriber for url, e.g. ws://camera:8080/ws/pose
func NewWSSubscriber(url string, latest *Latest) *WSSubscriber {
	return &WSSubscriber{
		URL:       url,
		Reconnect: time.Second,
		ReadIdle:  5 * time.Second,
		latest:    latest,
		dialer: websocket.Dialer{
			HandshakeTimeout: 5 * time.Second,
		},
		logger: log.Component("posebus"),
	}
}

// Run connects and reads until ctx is cancelled
func (s *WSSubscriber) Run(ctx context.Context) error {
	for {
		err := s.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("pose websocket disconnected", "url", s.URL, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.Reconnect):
		}
	}
}

// session runs one connection until it fails or ctx ends
func (s *WSSubscriber) session(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.URL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	s.logger.Info("pose websocket connected", "url", s.URL)

	// Unblock ReadMessage on cancel
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(s.ReadIdle))

		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			s.logger.Debug("bad message", "error", err)
			continue
		}
		if msg.Type != protocol.TypePose {
			continue
		}

		pose, err := msg.GetPose()
		if err != nil {
			s.logger.Debug("bad pose", "error", err)
			continue
		}
		s.latest.Store(*pose)
	}
}
