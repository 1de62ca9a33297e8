// Package delegate provides the fan-out and late-binding primitives that
// sit between an engine session and the listeners of a browsing session.
package delegate

import (
	"reflect"
	"sync"
)

// Multiplexer fans a single upstream callback out to an ordered set of
// listeners. Listeners are unique (by [Same], so D is usually a pointer or
// interface type) and are notified in insertion order.
//
// It is safe for concurrent use. Dispatch iterates over a snapshot, so
// listeners may add or remove listeners (themselves included) while being
// notified, without affecting the current pass.
type Multiplexer[D comparable] struct {
	replay    func(D)
	listeners []D
	mu        sync.RWMutex
}

// NewMultiplexer returns an empty multiplexer. If replay is non-nil, it is
// called with every newly added listener, so that the listener catches up
// with the current state before it observes any further event.
func NewMultiplexer[D comparable](replay func(D)) *Multiplexer[D] {
	return &Multiplexer[D]{replay: replay}
}

// Add appends d if it is not already present, then replays the current
// state to it. It returns false (and replays nothing) for duplicates.
func (m *Multiplexer[D]) Add(d D) bool {
	m.mu.Lock()
	for _, l := range m.listeners {
		if Same(l, d) {
			m.mu.Unlock()
			return false
		}
	}
	// copy on write, snapshots handed out by Dispatch stay valid
	listeners := make([]D, len(m.listeners), len(m.listeners)+1)
	copy(listeners, m.listeners)
	m.listeners = append(listeners, d)
	m.mu.Unlock()

	if m.replay != nil {
		m.replay(d)
	}
	return true
}

// Remove removes d, reporting whether it was present. Removing an absent
// listener is a no-op.
func (m *Multiplexer[D]) Remove(d D) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.listeners {
		if Same(l, d) {
			listeners := make([]D, 0, len(m.listeners)-1)
			listeners = append(listeners, m.listeners[:i]...)
			m.listeners = append(listeners, m.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// Same reports whether a and b are the same listener. Interface values whose
// dynamic type is not comparable (a struct holding a slice, say) are never the
// same as anything, so such listeners can be added repeatedly and can not be
// removed. Use pointers for listeners that must be removable.
func Same[D comparable](a, b D) bool {
	if t := reflect.TypeOf(a); t != nil && !t.Comparable() {
		return false
	}
	if t := reflect.TypeOf(b); t != nil && !t.Comparable() {
		return false
	}
	return a == b
}

// Dispatch calls fn for each listener, in insertion order.
func (m *Multiplexer[D]) Dispatch(fn func(D)) {
	for _, l := range m.Listeners() {
		fn(l)
	}
}

// Replay calls the replay function for every listener, e.g. after the
// underlying state was rebuilt wholesale.
func (m *Multiplexer[D]) Replay() {
	if m.replay == nil {
		return
	}
	m.Dispatch(m.replay)
}

// Listeners returns a snapshot of the listeners, which must not be modified.
func (m *Multiplexer[D]) Listeners() []D {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listeners
}

// Len returns the number of listeners.
func (m *Multiplexer[D]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listeners)
}

// Clear removes every listener.
func (m *Multiplexer[D]) Clear() {
	m.mu.Lock()
	m.listeners = nil
	m.mu.Unlock()
}
