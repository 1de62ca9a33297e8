package result

import (
	"context"
	"errors"
	"time"
)

// Poll blocks until the result is complete or timeout elapses, returning the
// value or the stored error. It fails with a [*TimeoutError] on deadline, and
// with [ErrThreadState] if called from the result's own executor, which would
// never get the chance to complete it. A non-positive timeout only checks.
func (r *Result[T]) Poll(timeout time.Duration) (T, error) {
	var zero T
	if inContext(r.exec) {
		return zero, ErrThreadState
	}
	if timeout <= 0 {
		select {
		case <-r.done:
			return r.get()
		default:
			return zero, &TimeoutError{Timeout: timeout}
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	v, err, ctxErr := r.wait(ctx)
	if ctxErr != nil {
		return zero, &TimeoutError{Cause: ctxErr, Timeout: timeout}
	}
	return v, err
}

// PollContext is like [Result.Poll], bounded by ctx. A context deadline is
// reported as a [*TimeoutError], any other context error is returned as is.
func (r *Result[T]) PollContext(ctx context.Context) (T, error) {
	var zero T
	if inContext(r.exec) {
		return zero, ErrThreadState
	}
	v, err, ctxErr := r.wait(ctx)
	if ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return zero, &TimeoutError{Cause: ctxErr}
		}
		return zero, ctxErr
	}
	return v, err
}

func (r *Result[T]) wait(ctx context.Context) (T, error, error) {
	select {
	case <-r.done:
		v, err := r.get()
		return v, err, nil
	case <-ctx.Done():
	}
	// completion wins ties
	select {
	case <-r.done:
		v, err := r.get()
		return v, err, nil
	default:
		var zero T
		return zero, nil, ctx.Err()
	}
}

func (r *Result[T]) get() (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.err
}
