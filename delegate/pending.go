package delegate

import (
	"sync"
)

// PendingQueue holds actions deferred until a consumer becomes available.
type PendingQueue struct {
	actions []func()
	mu      sync.Mutex
}

// Defer appends fn.
func (q *PendingQueue) Defer(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.actions = append(q.actions, fn)
	q.mu.Unlock()
}

// Drain runs and removes every action queued at the time of the call, in
// insertion order, returning how many ran. Actions deferred while draining
// are kept for the next call.
func (q *PendingQueue) Drain() int {
	q.mu.Lock()
	actions := q.actions
	q.actions = nil
	q.mu.Unlock()
	for _, fn := range actions {
		fn()
	}
	return len(actions)
}

// Len returns the number of queued actions.
func (q *PendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// Clear discards every queued action.
func (q *PendingQueue) Clear() {
	q.mu.Lock()
	q.actions = nil
	q.mu.Unlock()
}
