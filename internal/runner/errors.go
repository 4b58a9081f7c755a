package runner

import (
	"errors"
	"fmt"
)

// ErrRunCancelled marks a user-initiated stop. It is surfaced distinctly
// from failures so callers can skip the error banner for it.
var ErrRunCancelled = errors.New("run cancelled")

// Precondition violations. These are caller errors: the run is never
// started and no state changes.
var (
	ErrEmptyInput = errors.New("run input is empty")
	ErrNoSteps    = errors.New("pipeline has no steps")
)

// RequestError reports a run rejected before any streaming began
// (non-2xx response on the initial request).
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("run request failed (status %d): %s", e.StatusCode, e.Message)
}

// TransportError reports a stream read failure after streaming began.
// Cancellation is never wrapped in one.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("stream transport failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsCancelled reports whether err represents a user-initiated stop rather
// than a failure.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrRunCancelled)
}
