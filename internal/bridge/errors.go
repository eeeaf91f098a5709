package bridge

import (
	"fmt"
	"time"
)

// RetriesExhaustedError reports that a mutating workflow failed on every
// bounded attempt. The last underlying cause is attached.
type RetriesExhaustedError struct {
	Workflow string
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("bridge: %s failed after %d attempts: %v", e.Workflow, e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Err }

// NotFoundError reports a required upstream entity that failed to resolve.
// Fatal, never retried: retrying does not change a nonexistent identifier.
type NotFoundError struct {
	Kind string // "asset", "service", "compute environment"
	ID   string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("bridge: %s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// TimeoutError reports an exhausted bounded wait, either for metadata cache
// visibility or for compute job completion.
type TimeoutError struct {
	Op     string
	Waited time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("bridge: timed out after %s waiting for %s", e.Waited, e.Op)
}

// AssertionError reports a violated workflow postcondition, such as a
// finished compute job with zero usable output artifacts.
type AssertionError struct {
	Msg string
}

func (e *AssertionError) Error() string {
	return "bridge: " + e.Msg
}
