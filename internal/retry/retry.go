// Package retry provides a bounded retry utility for on-chain mutations.
package retry

import (
	"context"
	"errors"
)

// PermanentError wraps an error that should not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so that Do will not retry it.
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// Do calls fn up to maxAttempts times with no delay between attempts.
// Chain mutations block on confirmation already, so a failed attempt has
// waited long enough that an immediate resubmission is reasonable.
//
// It stops early if:
//   - fn returns nil (success)
//   - fn returns a *PermanentError (not retryable)
//   - ctx is cancelled
//
// notify, if non-nil, is called with the failed attempt number (1-based)
// and its error before the next attempt runs.
func Do(ctx context.Context, maxAttempts int, notify func(attempt int, err error), fn func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		var pe *PermanentError
		if errors.As(err, &pe) {
			return pe.Err
		}

		if attempt == maxAttempts {
			break
		}

		if notify != nil {
			notify(attempt, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return err
}
