package client

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// MaxRetries is the number of attempts after the first failure.
	MaxRetries = 2
	// RetryDelay is the fixed pause between attempts.
	RetryDelay = 2 * time.Second
)

// retryDelay is swapped out in tests.
var retryDelay = RetryDelay

// Retry runs op with the bounded ladder: one initial attempt plus up to
// MaxRetries more, pausing RetryDelay between them. Only failures the error
// itself marks retryable (transport errors, database-coded 5xx) are tried
// again; auth and validation failures surface immediately. notify, when
// non-nil, is called before each re-attempt with the attempt number.
func Retry(ctx context.Context, op func(ctx context.Context) error, notify func(attempt int, err error)) error {
	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			if notify != nil {
				notify(attempt, lastErr)
			}
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		apiErr, ok := AsAPIError(lastErr)
		if !ok || !apiErr.Retryable() {
			return lastErr
		}
		log.Debug().Err(lastErr).Int("attempt", attempt+1).Msg("retryable failure")
	}
	return lastErr
}
