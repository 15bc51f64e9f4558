package robot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-soccerbot/internal/log"
	"github.com/teslashibe/go-soccerbot/pkg/drive"
)

// HeadingWithRetry reads the heading up to attempts times, sleeping backoff
// between tries. Non-retryable transport errors stop immediately. The last
// error is returned wrapped with ErrRetriesExhausted.
func HeadingWithRetry(ctx context.Context, r HeadingReader, attempts int, backoff time.Duration) (drive.Heading, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		h, err := r.Heading(ctx)
		if err == nil {
			return h, nil
		}
		lastErr = err

		var te *TransportError
		if errors.As(err, &te) && !te.Retryable() {
			break
		}
		if ctx.Err() != nil {
			return drive.Heading{}, ctx.Err()
		}

		log.Debug("heading read failed", "attempt", i, "of", attempts, "error", err)

		if i < attempts {
			select {
			case <-ctx.Done():
				return drive.Heading{}, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return drive.Heading{}, fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
}
