package robot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-soccerbot/internal/httpc"
	"github.com/teslashibe/go-soccerbot/pkg/drive"
)

func retryable() error {
	return &TransportError{Op: "heading", StatusCode: 502, Err: &httpc.StatusError{StatusCode: 502}}
}

func TestHeadingWithRetry_SucceedsAfterFailures(t *testing.T) {
	mock := &mockRobot{
		headingErr: []error{retryable(), retryable()},
		headings:   []drive.Heading{{Degrees: 7}},
	}

	h, err := HeadingWithRetry(context.Background(), mock, 3, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int16(7), h.Degrees)
}

func TestHeadingWithRetry_Exhausted(t *testing.T) {
	mock := &mockRobot{headingErr: []error{retryable(), retryable(), retryable()}}

	_, err := HeadingWithRetry(context.Background(), mock, 3, time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetriesExhausted)

	var te *TransportError
	assert.True(t, errors.As(err, &te))
}

func TestHeadingWithRetry_NonRetryableStopsEarly(t *testing.T) {
	bad := &TransportError{Op: "heading", StatusCode: 400, Err: errors.New("bad")}
	mock := &mockRobot{
		headingErr: []error{bad},
		headings:   []drive.Heading{{Degrees: 1}},
	}

	_, err := HeadingWithRetry(context.Background(), mock, 5, time.Millisecond)
	assert.ErrorIs(t, err, ErrRetriesExhausted)

	// The queued heading was never consumed
	assert.Len(t, mock.headings, 1)
}

func TestHeadingWithRetry_ContextCancelled(t *testing.T) {
	mock := &mockRobot{headingErr: []error{retryable(), retryable()}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := HeadingWithRetry(ctx, mock, 5, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalController(t *testing.T) {
	port := drive.NewFakePort()
	port.AutoHeading = []byte{0xFF, 0xF6}
	c := NewLocalController(drive.NewDriver(port))
	ctx := context.Background()

	require.NoError(t, c.Drive(ctx, 50, 0))
	assert.Equal(t, drive.EncodeDrive(50, 0), port.LastWrite())

	h, err := c.Heading(ctx)
	require.NoError(t, err)
	assert.Equal(t, int16(-10), h.Degrees)

	require.NoError(t, c.Mode(ctx, "safe"))
	assert.ErrorIs(t, c.Mode(ctx, "nope"), drive.ErrUnknownMode)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, c.Drive(cancelled, 1, 1), context.Canceled)
}
