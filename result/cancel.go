package result

type (
	// CancellationDelegate performs the cancellation of a result, see
	// [Result.SetCancellationDelegate]. The returned result reports whether
	// the cancellation took effect, a nil result meaning it did not.
	CancellationDelegate interface {
		Cancel() *Result[bool]
	}

	// CancelFunc adapts a function to a [CancellationDelegate].
	CancelFunc func() *Result[bool]
)

// Cancel implements CancellationDelegate.
func (f CancelFunc) Cancel() *Result[bool] {
	return f()
}

// SetCancellationDelegate attaches the handler [Result.Cancel] delegates to.
func (r *Result[T]) SetCancellationDelegate(d CancellationDelegate) {
	r.mu.Lock()
	r.delegate = d
	r.mu.Unlock()
}

// CancellationDelegate returns the attached cancellation handler, if any.
func (r *Result[T]) CancellationDelegate() CancellationDelegate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delegate
}

// Cancel requests cancellation, which is cooperative. A complete result
// cannot be cancelled. Otherwise the request goes to the cancellation
// delegate or, lacking one, to the result this one was derived from (see
// [Then]), walking up the chain. If nothing in the chain can cancel, the
// outcome is false. A true outcome also completes r with a [*CancelledError],
// unless something else completed it first.
func (r *Result[T]) Cancel() *Result[bool] {
	r.mu.Lock()
	if r.state != Pending {
		r.mu.Unlock()
		return FromValue(r.exec, false)
	}
	delegate, parent := r.delegate, r.parent
	r.mu.Unlock()

	var upstream *Result[bool]
	switch {
	case delegate != nil:
		upstream = delegate.Cancel()
	case parent != nil:
		upstream = parent.Cancel()
	}
	if upstream == nil {
		return FromValue(r.exec, false)
	}

	return Map(upstream, func(cancelled bool) (bool, error) {
		if cancelled {
			r.tryComplete(outcome[T]{err: &CancelledError{}})
		}
		return cancelled, nil
	})
}
