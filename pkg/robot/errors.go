package robot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/teslashibe/go-soccerbot/internal/httpc"
)

// Sentinel errors for common conditions.
var (
	// ErrRetriesExhausted is returned when a bounded retry gives up.
	ErrRetriesExhausted = errors.New("robot: retries exhausted")

	// ErrNoDriveNode is returned when no drive node URL is known.
	ErrNoDriveNode = errors.New("robot: drive node address unknown")
)

// TransportError represents a failed call to the drive node.
type TransportError struct {
	// Op is the logical operation ("drive", "heading", "mode").
	Op string

	// StatusCode is the HTTP status, or 0 when no response arrived.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("robot %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("robot %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the call may succeed: timeouts,
// connection failures and 5xx responses are, 4xx responses are not.
func (e *TransportError) Retryable() bool {
	if e.StatusCode >= 500 {
		return true
	}
	if e.StatusCode != 0 {
		return false
	}
	if errors.Is(e.Err, context.Canceled) {
		return false
	}
	return true
}

// IsDecodeFailure reports whether the drive node could not parse the
// sensor response (HTTP 502 with code "decode").
func (e *TransportError) IsDecodeFailure() bool {
	var se *httpc.StatusError
	if !errors.As(e.Err, &se) || se.StatusCode != http.StatusBadGateway {
		return false
	}
	return containsCode(se.Body, "decode")
}

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func newTransportError(op string, err error) *TransportError {
	te := &TransportError{Op: op, Err: err}
	var se *httpc.StatusError
	if errors.As(err, &se) {
		te.StatusCode = se.StatusCode
	}
	return te
}
