// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventloop

import (
	"container/heap"
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/logiface"
)

// Standard errors.
var (
	// ErrLoopAlreadyRunning is returned when Run() is called on a loop that is already running.
	ErrLoopAlreadyRunning = errors.New("eventloop: loop is already running")

	// ErrLoopTerminated is returned when operations are attempted on a terminated loop.
	ErrLoopTerminated = errors.New("eventloop: loop has been terminated")

	// ErrReentrantRun is returned when Run() is called from within the loop itself.
	ErrReentrantRun = errors.New("eventloop: cannot call Run() from within the loop")

	// ErrTimerNotFound is returned by CancelTimer for unknown or already fired timers.
	ErrTimerNotFound = errors.New("eventloop: timer not found")
)

// TimerID identifies a timer scheduled with [Loop.ScheduleTimer].
type TimerID uint64

type timer struct {
	when  time.Time
	fn    func()
	id    TimerID
	index int
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].id < h[j].id
	}
	return h[i].when.Before(h[j].when)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Loop runs submitted tasks, one at a time and in submission order, on the
// goroutine that called [Loop.Run].
//
// Submit, ScheduleTimer, CancelTimer, Shutdown and Close are safe to call
// from any goroutine. Tasks that panic are recovered, logged at critical
// level, and passed to the handler configured by [WithPanicHandler].
type Loop struct {
	logger       *logiface.Logger[logiface.Event]
	panicHandler func(v any)

	wake chan struct{}
	done chan struct{}

	tasks    []func()
	timers   timerHeap
	timerMap map[TimerID]*timer

	loopGoroutineID atomic.Uint64
	state           loopState
	nextTimerID     TimerID

	mu sync.Mutex

	// aborted is set by Close, it stops Run without draining queued tasks
	aborted bool
}

// New creates a new loop, in [StateAwake].
func New(opts ...LoopOption) (*Loop, error) {
	cfg, err := resolveLoopOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Loop{
		logger:       cfg.logger,
		panicHandler: cfg.panicHandler,
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
		timerMap:     make(map[TimerID]*timer),
	}, nil
}

// Run processes tasks on the calling goroutine until the loop is shut down,
// closed, or ctx is done, in which case ctx.Err() is returned. Tasks still
// queued when Run returns are discarded.
func (l *Loop) Run(ctx context.Context) error {
	if l.isLoopThread() {
		return ErrReentrantRun
	}
	if !l.state.TryTransition(StateAwake, StateRunning) {
		if l.state.Load() == StateTerminated {
			return ErrLoopTerminated
		}
		return ErrLoopAlreadyRunning
	}

	l.loopGoroutineID.Store(getGoroutineID())

	defer func() {
		l.mu.Lock()
		l.state.Store(StateTerminated)
		l.tasks = nil
		l.timers = nil
		clear(l.timerMap)
		l.mu.Unlock()
		l.loopGoroutineID.Store(0)
		close(l.done)
	}()

	return l.run(ctx)
}

func (l *Loop) run(ctx context.Context) error {
	var (
		t      *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if t != nil {
			t.Stop()
		}
	}()

	for {
		l.runTimers(time.Now())
		l.runTasks()

		l.mu.Lock()
		pending := len(l.tasks)
		aborted := l.aborted
		var next time.Time
		if len(l.timers) != 0 {
			next = l.timers[0].when
		}
		l.mu.Unlock()

		if l.state.Load() == StateTerminating {
			if aborted || pending == 0 {
				return nil
			}
			continue
		}
		if pending != 0 {
			continue
		}

		timerC = nil
		if !next.IsZero() {
			d := time.Until(next)
			if t == nil {
				t = time.NewTimer(d)
			} else {
				t.Reset(d)
			}
			timerC = t.C
		}

		select {
		case <-ctx.Done():
			l.state.Store(StateTerminating)
			return ctx.Err()
		case <-l.wake:
		case <-timerC:
		}

		if t != nil && timerC != nil && !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
	}
}

func (l *Loop) runTasks() {
	l.mu.Lock()
	tasks := l.tasks
	l.tasks = nil
	l.mu.Unlock()
	for i, task := range tasks {
		tasks[i] = nil
		l.safeExecute(task)
	}
}

func (l *Loop) runTimers(now time.Time) {
	var due []*timer
	l.mu.Lock()
	for len(l.timers) != 0 && !l.timers[0].when.After(now) {
		t := heap.Pop(&l.timers).(*timer)
		delete(l.timerMap, t.id)
		due = append(due, t)
	}
	l.mu.Unlock()
	for _, t := range due {
		l.safeExecute(t.fn)
	}
}

// Submit queues task to run on the loop goroutine. Submissions are accepted
// until the loop is terminated (or closed), including while a graceful
// shutdown drains the queue.
func (l *Loop) Submit(task func()) error {
	if task == nil {
		return nil
	}
	l.mu.Lock()
	if l.state.Load() == StateTerminated || l.aborted {
		l.mu.Unlock()
		return ErrLoopTerminated
	}
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()
	l.signal()
	return nil
}

// ScheduleTimer runs fn on the loop goroutine once delay has elapsed.
func (l *Loop) ScheduleTimer(delay time.Duration, fn func()) (TimerID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.Load() == StateTerminated || l.aborted {
		return 0, ErrLoopTerminated
	}
	l.nextTimerID++
	t := &timer{
		when: time.Now().Add(delay),
		fn:   fn,
		id:   l.nextTimerID,
	}
	heap.Push(&l.timers, t)
	l.timerMap[t.id] = t
	l.signal()
	return t.id, nil
}

// CancelTimer stops a timer that has not yet fired.
func (l *Loop) CancelTimer(id TimerID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.timerMap[id]
	if !ok {
		return ErrTimerNotFound
	}
	delete(l.timerMap, id)
	heap.Remove(&l.timers, t.index)
	return nil
}

// Shutdown stops the loop after every queued task (including tasks queued
// by those tasks) has run. Pending timers are discarded. When called from the
// loop goroutine it only requests the shutdown, since waiting would deadlock.
func (l *Loop) Shutdown(ctx context.Context) error {
	for {
		switch l.state.Load() {
		case StateTerminated:
			return ErrLoopTerminated
		case StateAwake:
			if l.state.TryTransition(StateAwake, StateTerminated) {
				close(l.done)
				return nil
			}
			continue
		case StateRunning:
			if !l.state.TryTransition(StateRunning, StateTerminating) {
				continue
			}
		}
		break
	}

	l.signal()

	if l.isLoopThread() {
		return nil
	}

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close immediately terminates the loop without running queued tasks. A task
// that is already executing is allowed to finish.
func (l *Loop) Close() error {
	for {
		switch state := l.state.Load(); state {
		case StateTerminated:
			return ErrLoopTerminated
		case StateAwake:
			if l.state.TryTransition(StateAwake, StateTerminated) {
				close(l.done)
				return nil
			}
		default:
			l.mu.Lock()
			l.aborted = true
			l.mu.Unlock()
			l.state.TryTransition(StateRunning, StateTerminating)
			l.signal()
			return nil
		}
	}
}

// Done is closed once the loop has terminated.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// State returns the current state of the loop.
func (l *Loop) State() LoopState {
	return l.state.Load()
}

// InContext reports whether the caller is running on the loop goroutine.
func (l *Loop) InContext() bool {
	return l.isLoopThread()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// safeExecute executes a task with panic recovery.
func (l *Loop) safeExecute(fn func()) {
	if fn == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			l.logger.Crit().
				Any(`panic`, r).
				Log(`eventloop: task panicked`)
			if l.panicHandler != nil {
				l.panicHandler(r)
			}
		}
	}()

	fn()
}

// isLoopThread checks if we're on the loop goroutine.
func (l *Loop) isLoopThread() bool {
	loopID := l.loopGoroutineID.Load()
	if loopID == 0 {
		return false
	}
	return getGoroutineID() == loopID
}

func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
