package eventloop

import (
	"sync"
	"sync/atomic"
)

// Queue is an executor that only runs tasks when drained, on the draining
// goroutine. It is safe for concurrent use, though Drain is normally called
// from a single goroutine.
type Queue struct {
	tasks   []func()
	drainer atomic.Uint64
	mu      sync.Mutex
	closed  bool
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Submit appends task. It fails with [ErrLoopTerminated] after Close.
func (q *Queue) Submit(task func()) error {
	if task == nil {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrLoopTerminated
	}
	q.tasks = append(q.tasks, task)
	return nil
}

// Drain runs the tasks that were queued when it was called, in FIFO order,
// and returns how many ran. Tasks queued while draining wait for the next
// call. A panicking task propagates to the caller, and the tasks behind it
// stay queued.
func (q *Queue) Drain() int {
	q.mu.Lock()
	tasks := q.tasks
	q.tasks = nil
	q.mu.Unlock()

	prev := q.drainer.Swap(getGoroutineID())
	var i int
	defer func() {
		q.drainer.Store(prev)
		if i < len(tasks) {
			// requeue whatever didn't run (only reachable via panic)
			rest := tasks[i+1:]
			q.mu.Lock()
			q.tasks = append(append([]func(){}, rest...), q.tasks...)
			q.mu.Unlock()
		}
	}()

	for ; i < len(tasks); i++ {
		tasks[i]()
	}
	return i
}

// Flush drains repeatedly until the queue is empty, returning the total
// number of tasks run.
func (q *Queue) Flush() (n int) {
	for q.Len() != 0 {
		n += q.Drain()
	}
	return n
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// InContext reports whether the caller is the goroutine currently draining
// the queue.
func (q *Queue) InContext() bool {
	id := q.drainer.Load()
	return id != 0 && id == getGoroutineID()
}

// Close discards queued tasks and rejects further submissions.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.tasks = nil
}
