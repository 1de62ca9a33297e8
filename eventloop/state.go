package eventloop

import (
	"sync/atomic"
)

// LoopState represents the current state of a [Loop].
//
//	StateAwake → StateRunning            [Run()]
//	StateAwake → StateTerminated         [Shutdown() / Close() before Run()]
//	StateRunning → StateTerminating      [Shutdown() / Close() / ctx done]
//	StateTerminating → StateTerminated   [Run() returns]
type LoopState uint32

const (
	// StateAwake indicates the loop has been created but not started.
	StateAwake LoopState = iota
	// StateRunning indicates the loop is processing tasks.
	StateRunning
	// StateTerminating indicates shutdown has been requested but not completed.
	StateTerminating
	// StateTerminated indicates the loop has stopped and will not run tasks.
	StateTerminated
)

// String returns a human-readable representation of the state.
func (s LoopState) String() string {
	switch s {
	case StateAwake:
		return "Awake"
	case StateRunning:
		return "Running"
	case StateTerminating:
		return "Terminating"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

type loopState struct {
	v atomic.Uint32
}

func (s *loopState) Load() LoopState {
	return LoopState(s.v.Load())
}

func (s *loopState) Store(state LoopState) {
	s.v.Store(uint32(state))
}

// TryTransition is a CAS from one state to another.
func (s *loopState) TryTransition(from, to LoopState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
