package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrTimerAlreadyRunning is returned by StartTimer when the current
	// segment's last row is still open. Expected outcome of normal use,
	// not an infrastructure failure.
	ErrTimerAlreadyRunning = errors.New("timer already running")

	// ErrNoActiveTimer is returned by StopTimer when no segment exists or
	// the last row is already closed. Expected outcome of normal use.
	ErrNoActiveTimer = errors.New("no active timer")

	// ErrSegmentCreationFailed is returned when the store rejects creation
	// of a new period segment. Never auto-retried by the engine.
	ErrSegmentCreationFailed = errors.New("segment creation failed")

	// errNoOpenSegment signals that no period segment is current. Internal:
	// StartTimer answers it by provisioning, StopTimer by ErrNoActiveTimer.
	errNoOpenSegment = errors.New("no open segment")
)

// StoreError wraps a failure from the document store collaborator with the
// operation that produced it. The engine performs no retries; every store
// failure propagates to the caller as one of these.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
