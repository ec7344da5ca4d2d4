package retry

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrTooManyAttempts = errors.New("too many retry attempts")

type Callable func(attempt int) error

type recoverableError struct {
	error
	attempt int
}

// Recoverable marks err as worth another attempt. A plain error
// returned from the callable stops the retry loop immediately.
func Recoverable(err error, attempt int) error {
	if err == nil {
		return nil
	}
	return &recoverableError{error: err, attempt: attempt}
}

// Incremental retries cb with a linearly growing pause between attempts:
// step, 2*step and so on, up to maxAttempts.
func Incremental(ctx context.Context, step time.Duration, maxAttempts int, cb Callable) error {
	var pause time.Duration

	for attempt := 1; ; attempt++ {
		err := cb(attempt)
		if err == nil {
			return nil
		}

		var rErr *recoverableError
		if !errors.As(err, &rErr) {
			return errors.Wrapf(err, "attempt %d failed", attempt)
		}

		if attempt >= maxAttempts {
			return errors.Wrapf(ErrTooManyAttempts, "%d tried", attempt)
		}

		pause += step

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
}
