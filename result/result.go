// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package result implements a single-assignment future, [Result], with
// listener dispatch on explicit execution contexts, chaining, an ordered
// join, blocking polls and cooperative cancellation.
//
// A result is completed exactly once, with a value or an error. Listeners
// registered before completion are queued, grouped per [Executor] in order of
// first registration, and each group is submitted as a single task that runs
// its listeners in registration order. Listeners registered after completion
// are submitted straight away. Either way the listener runs on its executor,
// never inside Complete.
//
// Errors raised by continuations (returned, or panicked) are flagged as
// uncaught. If such an error reaches a result that has no listeners when it
// completes, the completing task panics with an [*UncaughtError], mirroring
// an unhandled promise rejection.
package result

import (
	"sync"
)

// State is the completion state of a [Result].
type State int

const (
	// Pending indicates the result is not yet complete.
	Pending State = iota
	// Fulfilled indicates the result completed with a value.
	Fulfilled
	// Rejected indicates the result completed with an error.
	Rejected
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Fulfilled:
		return "Fulfilled"
	case Rejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

type (
	// Result is a single-assignment future. The zero value is not usable,
	// see [New].
	Result[T any] struct {
		value     T
		err       error
		exec      Executor
		parent    canceller
		delegate  CancellationDelegate
		done      chan struct{}
		listeners []listener[T]
		mu        sync.Mutex
		state     State
		uncaught  bool
	}

	outcome[T any] struct {
		value    T
		err      error
		uncaught bool
	}

	listener[T any] struct {
		exec Executor
		fn   func(outcome[T])
	}

	canceller interface {
		Cancel() *Result[bool]
	}
)

// New returns a pending result owned by exec, which is the context that
// continuations registered via [Then] run on. A nil exec means [Inline].
func New[T any](exec Executor) *Result[T] {
	if exec == nil {
		exec = Inline
	}
	return &Result[T]{
		exec: exec,
		done: make(chan struct{}),
	}
}

// FromValue returns a result owned by exec, already completed with v.
func FromValue[T any](exec Executor, v T) *Result[T] {
	r := New[T](exec)
	_ = r.Complete(v)
	return r
}

// FromError returns a result owned by exec, already completed with err,
// which must not be nil.
func FromError[T any](exec Executor, err error) *Result[T] {
	r := New[T](exec)
	if e := r.CompleteWithError(err); e != nil {
		panic(e)
	}
	return r
}

// Complete completes the result with v. It returns [ErrAlreadyComplete] if
// the result was already complete, in which case the earlier outcome stands.
func (r *Result[T]) Complete(v T) error {
	return r.complete(outcome[T]{value: v})
}

// CompleteWithError completes the result with err. It returns
// [ErrAlreadyComplete] if the result was already complete, or [ErrNilError]
// if err is nil.
func (r *Result[T]) CompleteWithError(err error) error {
	if err == nil {
		return ErrNilError
	}
	return r.complete(outcome[T]{err: err})
}

// tryComplete is for internal chains, where losing a race (e.g. with Cancel)
// is expected.
func (r *Result[T]) tryComplete(o outcome[T]) {
	_ = r.complete(o)
}

func (r *Result[T]) complete(o outcome[T]) error {
	r.mu.Lock()
	if r.state != Pending {
		r.mu.Unlock()
		return ErrAlreadyComplete
	}
	r.value = o.value
	r.err = o.err
	if o.err != nil {
		r.state = Rejected
		r.uncaught = o.uncaught
	} else {
		r.state = Fulfilled
		o.uncaught = false
	}
	listeners := r.listeners
	r.listeners = nil
	close(r.done)
	r.mu.Unlock()

	if len(listeners) == 0 {
		if o.uncaught {
			panic(&UncaughtError{Err: o.err})
		}
		return nil
	}

	dispatch(listeners, o)
	return nil
}

func dispatch[T any](listeners []listener[T], o outcome[T]) {
	type group struct {
		exec Executor
		fns  []func(outcome[T])
	}
	var groups []*group
outer:
	for _, l := range listeners {
		for _, g := range groups {
			if g.exec == l.exec {
				g.fns = append(g.fns, l.fn)
				continue outer
			}
		}
		groups = append(groups, &group{exec: l.exec, fns: []func(outcome[T]){l.fn}})
	}
	for _, g := range groups {
		fns := g.fns
		submit(g.exec, func() {
			for _, fn := range fns {
				fn(o)
			}
		})
	}
}

func submit(exec Executor, task func()) {
	if err := exec.Submit(task); err != nil {
		task()
	}
}

// addListener registers fn to be run on exec once the result is complete.
func (r *Result[T]) addListener(exec Executor, fn func(outcome[T])) {
	if exec == nil {
		exec = Inline
	}
	r.mu.Lock()
	if r.state == Pending {
		r.listeners = append(r.listeners, listener[T]{exec: exec, fn: fn})
		r.mu.Unlock()
		return
	}
	o := r.outcomeLocked()
	r.mu.Unlock()
	submit(exec, func() { fn(o) })
}

func (r *Result[T]) outcomeLocked() outcome[T] {
	return outcome[T]{value: r.value, err: r.err, uncaught: r.uncaught}
}

// State returns the completion state.
func (r *Result[T]) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Done returns a channel that is closed once the result is complete.
func (r *Result[T]) Done() <-chan struct{} {
	return r.done
}

// Value returns the value the result completed with, or the zero value.
func (r *Result[T]) Value() T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// Err returns the error the result completed with, if any.
func (r *Result[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Executor returns the executor that owns the result.
func (r *Result[T]) Executor() Executor {
	return r.exec
}

// Equal reports whether a and b are the same result, or are both complete
// with equal values or equal errors. A pending result is only equal to itself.
func Equal[T comparable](a, b *Result[T]) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	a.mu.Lock()
	ao := a.outcomeLocked()
	as := a.state
	a.mu.Unlock()
	b.mu.Lock()
	bo := b.outcomeLocked()
	bs := b.state
	b.mu.Unlock()
	if as == Pending || bs == Pending || as != bs {
		return false
	}
	return ao.err == bo.err && ao.value == bo.value
}
