package result

import (
	"errors"
	"fmt"
	"time"
)

// Standard errors.
var (
	// ErrAlreadyComplete is returned by a second attempt to complete a result.
	ErrAlreadyComplete = errors.New("result: already complete")

	// ErrTimeout is matched (via [errors.Is]) by every [*TimeoutError].
	ErrTimeout = errors.New("result: timed out")

	// ErrThreadState is returned by Poll when called from the execution
	// context that owns the result, since blocking it would deadlock dispatch.
	ErrThreadState = errors.New("result: cannot poll from the owning execution context")

	// ErrCancelled is matched (via [errors.Is]) by every [*CancelledError].
	ErrCancelled = errors.New("result: cancelled")

	// ErrNilError is returned by CompleteWithError(nil).
	ErrNilError = errors.New("result: completion error must not be nil")

	// ErrNoListener is the panic value of Then when both continuations are nil.
	ErrNoListener = errors.New("result: at least one listener must be non-nil")
)

// TimeoutError is returned by Poll when the result did not complete in time.
type TimeoutError struct {
	// Cause is the underlying context error, if any.
	Cause   error
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("result: timed out after %s", e.Timeout)
	}
	return ErrTimeout.Error()
}

// Is matches [ErrTimeout].
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// CancelledError is the error a result completes with after a successful
// [Result.Cancel].
type CancelledError struct {
	Cause error
}

// Error implements the error interface.
func (e *CancelledError) Error() string {
	if e.Cause != nil {
		return ErrCancelled.Error() + ": " + e.Cause.Error()
	}
	return ErrCancelled.Error()
}

// Is matches [ErrCancelled].
func (e *CancelledError) Is(target error) bool {
	return target == ErrCancelled
}

func (e *CancelledError) Unwrap() error {
	return e.Cause
}

// UncaughtError is the panic value raised when a result that failed inside a
// continuation completes with nobody listening for the failure.
type UncaughtError struct {
	Err error
}

// Error implements the error interface.
func (e *UncaughtError) Error() string {
	return fmt.Sprintf("result: uncaught error: %v", e.Err)
}

func (e *UncaughtError) Unwrap() error {
	return e.Err
}

// PanicError wraps the value of a panic raised by a continuation.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("result: continuation panicked: %v", e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
