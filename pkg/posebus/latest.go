// Package posebus moves Pose updates from the camera node to the
// controller, over Redis pub/sub or the dashboard websocket.
package posebus

import (
	"fmt"
	"sync"
	"time"

	"github.com/teslashibe/go-soccerbot/pkg/protocol"
	"github.com/teslashibe/go-soccerbot/pkg/tracking"
)

// Latest holds the most recent Pose. Safe for concurrent use.
type Latest struct {
	mu      sync.RWMutex
	pose    tracking.Pose
	ok      bool
	updates uint64
	dropped uint64
}

// Store records p unless it is older than the pose already held.
// Returns false when p was dropped as out of order.
func (l *Latest) Store(p tracking.Pose) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ok && p.Timestamp.Before(l.pose.Timestamp) {
		l.dropped++
		return false
	}
	l.pose = p
	l.ok = true
	l.updates++
	return true
}

// LatestPose returns the held pose; ok is false before the first Store
func (l *Latest) LatestPose() (tracking.Pose, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pose, l.ok
}

// Stale reports whether there is no pose or it is older than maxAge
func (l *Latest) Stale(maxAge time.Duration, now time.Time) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return !l.ok || l.pose.Age(now) > maxAge
}

// Counts returns how many poses were stored and dropped
func (l *Latest) Counts() (updates, dropped uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.updates, l.dropped
}

// EncodePose wraps a pose in a protocol envelope
func EncodePose(p tracking.Pose) ([]byte, error) {
	msg, err := protocol.NewPoseMessage(p)
	if err != nil {
		return nil, err
	}
	return msg.Bytes()
}

// DecodePose unwraps a pose envelope. Other message types are an error.
func DecodePose(data []byte) (tracking.Pose, error) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		return tracking.Pose{}, fmt.Errorf("posebus: %w", err)
	}
	pose, err := msg.GetPose()
	if err != nil {
		return tracking.Pose{}, fmt.Errorf("posebus: %w", err)
	}
	return *pose, nil
}
