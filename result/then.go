package result

import (
	"sync"
)

// Then registers continuations on r, returning a result that completes with
// the outcome of whichever continuation runs. The continuations run on r's
// executor, which also owns the returned result. See [ThenOn].
func Then[T, U any](r *Result[T], onValue func(T) (*Result[U], error), onError func(error) (*Result[U], error)) *Result[U] {
	return ThenOn(r, r.exec, onValue, onError)
}

// ThenOn is [Then] with an explicit executor for the continuations, which
// also owns the returned result.
//
// At least one continuation must be non-nil. A nil onError passes r's error
// through, uncaught flag included. A nil onValue passes r's value through if
// it is a U, otherwise the derived result completes with the zero U.
// A continuation that returns an error or panics completes the derived result
// with that error (a panic is wrapped in [*PanicError]), flagged as uncaught.
// A continuation that returns a nil result completes it with the zero U.
//
// r is the cancellation parent of the derived result, see [Result.Cancel].
func ThenOn[T, U any](r *Result[T], exec Executor, onValue func(T) (*Result[U], error), onError func(error) (*Result[U], error)) *Result[U] {
	if onValue == nil && onError == nil {
		panic(ErrNoListener)
	}
	if exec == nil {
		exec = Inline
	}

	child := New[U](exec)
	child.parent = r

	r.addListener(exec, func(o outcome[T]) {
		var zero U
		var (
			next *Result[U]
			err  error
		)

		switch {
		case o.err == nil && onValue == nil:
			u, _ := any(o.value).(U)
			child.tryComplete(outcome[U]{value: u})
			return
		case o.err != nil && onError == nil:
			child.tryComplete(outcome[U]{value: zero, err: o.err, uncaught: o.uncaught})
			return
		}

		func() {
			defer func() {
				if v := recover(); v != nil {
					err = &PanicError{Value: v}
				}
			}()
			if o.err == nil {
				next, err = onValue(o.value)
			} else {
				next, err = onError(o.err)
			}
		}()

		if err != nil {
			child.tryComplete(outcome[U]{err: err, uncaught: true})
			return
		}
		child.completeFrom(next)
	})

	return child
}

// completeFrom completes r with the eventual outcome of other, adopting its
// cancellation delegate. A nil other completes r with the zero value.
func (r *Result[T]) completeFrom(other *Result[T]) {
	if other == nil {
		r.tryComplete(outcome[T]{})
		return
	}
	if d := other.CancellationDelegate(); d != nil {
		r.SetCancellationDelegate(d)
	}
	other.addListener(Inline, r.tryComplete)
}

// Map is [Then] for a plain value transform.
func Map[T, U any](r *Result[T], fn func(T) (U, error)) *Result[U] {
	return Then(r, func(v T) (*Result[U], error) {
		u, err := fn(v)
		if err != nil {
			return nil, err
		}
		return FromValue(Inline, u), nil
	}, nil)
}

// Catch recovers from an error, completing the derived result with fn's
// return values. Values pass through unchanged.
func Catch[T any](r *Result[T], fn func(error) (T, error)) *Result[T] {
	return Then(r, nil, func(err error) (*Result[T], error) {
		v, err := fn(err)
		if err != nil {
			return nil, err
		}
		return FromValue(Inline, v), nil
	})
}

// Accept registers consumers for the value or the error. The returned result
// completes once the consumer has run, or with r's error if onError is nil.
func (r *Result[T]) Accept(onValue func(T), onError func(error)) *Result[struct{}] {
	var (
		valueFn func(T) (*Result[struct{}], error)
		errorFn func(error) (*Result[struct{}], error)
	)
	if onValue != nil {
		valueFn = func(v T) (*Result[struct{}], error) {
			onValue(v)
			return nil, nil
		}
	}
	if onError != nil {
		errorFn = func(err error) (*Result[struct{}], error) {
			onError(err)
			return nil, nil
		}
	}
	return Then(r, valueFn, errorFn)
}

// WithExecutor returns a result owned by exec that completes with the
// outcome of r, sharing its cancellation delegate.
func (r *Result[T]) WithExecutor(exec Executor) *Result[T] {
	out := New[T](exec)
	out.completeFrom(r)
	return out
}

// AllOf returns a result, owned by exec, that completes with the values of
// rs in input order once all of them are fulfilled, or with the first error
// observed, without waiting for the rest. An empty rs completes immediately
// with an empty slice, and a nil rs with a nil slice. A nil element counts as
// fulfilled with the zero value.
func AllOf[T any](exec Executor, rs []*Result[T]) *Result[[]T] {
	if rs == nil {
		return FromValue[[]T](exec, nil)
	}
	out := New[[]T](exec)
	if len(rs) == 0 {
		_ = out.Complete([]T{})
		return out
	}

	var (
		mu     sync.Mutex
		values = make([]T, len(rs))
		count  int
		failed bool
	)
	onResult := func(i int, o outcome[T]) {
		mu.Lock()
		if failed {
			mu.Unlock()
			return
		}
		if o.err != nil {
			failed = true
			mu.Unlock()
			out.tryComplete(outcome[[]T]{err: o.err})
			return
		}
		values[i] = o.value
		count++
		if count != len(values) {
			mu.Unlock()
			return
		}
		mu.Unlock()
		out.tryComplete(outcome[[]T]{value: values})
	}

	for i, r := range rs {
		i := i // per-iteration copy (go directive predates Go 1.22 loop semantics)
		if r == nil {
			onResult(i, outcome[T]{})
			continue
		}
		r.addListener(out.exec, func(o outcome[T]) { onResult(i, o) })
	}

	return out
}
