package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"

	"github.com/joeycumines/go-browsersession/delegate"
	"github.com/joeycumines/go-browsersession/engine"
	"github.com/joeycumines/go-browsersession/result"
)

// ErrNoStore is returned by [Registry.Save] and [Registry.Restore] without
// [WithStore].
var ErrNoStore = errors.New(`session: no snapshot store`)

type (
	// SnapshotStore persists session snapshots, see [Registry.Save].
	SnapshotStore interface {
		Put(ctx context.Context, snapshot Snapshot) error
		Delete(ctx context.Context, id string) error
		List(ctx context.Context) ([]Snapshot, error)
	}

	// Registry creates and tracks sessions, and resolves the parent of a
	// session by ID. It holds the configuration shared by its sessions.
	//
	// The registry itself is safe for concurrent use, the sessions it
	// creates are not.
	Registry struct {
		config          Config
		logger          *logiface.Logger[logiface.Event]
		exec            result.Executor
		runtime         engine.Runtime
		factory         engine.Factory
		userAgents      *UserAgentTable
		now             func() time.Time
		store           SnapshotStore
		recreateLimiter *catrate.Limiter

		mu        sync.RWMutex
		sessions  []*Session
		listeners []ChangeListener
		region    string
	}
)

// NewRegistry returns an empty registry. [WithEngineFactory] is required.
func NewRegistry(opts ...Option) (*Registry, error) {
	cfg, err := resolveRegistryOptions(opts)
	if err != nil {
		return nil, err
	}
	limiter, err := newRecreateLimiter(cfg.config.RecreateRates)
	if err != nil {
		return nil, err
	}
	r := &Registry{
		config:          cfg.config,
		logger:          cfg.logger,
		exec:            cfg.exec,
		runtime:         cfg.runtime,
		factory:         cfg.factory,
		userAgents:      cfg.userAgents,
		now:             cfg.now,
		store:           cfg.store,
		recreateLimiter: limiter,
	}
	if err := r.userAgents.Err(); err != nil {
		r.logger.Warning().Err(err).Log(`user agent overrides unavailable`)
	}
	return r, nil
}

// Config returns the configuration shared by the sessions.
func (r *Registry) Config() Config { return r.config }

// Executor returns the execution context that owns the sessions.
func (r *Registry) Executor() result.Executor { return r.exec }

// AddSessionChangeListener registers l with every current and future
// session. It returns false if already registered.
func (r *Registry) AddSessionChangeListener(l ChangeListener) bool {
	r.mu.Lock()
	if slices.ContainsFunc(r.listeners, func(v ChangeListener) bool { return delegate.Same(v, l) }) {
		r.mu.Unlock()
		return false
	}
	r.listeners = append(r.listeners, l)
	sessions := slices.Clone(r.sessions)
	r.mu.Unlock()
	for _, s := range sessions {
		s.AddSessionChangeListener(l)
	}
	return true
}

func (r *Registry) add(state *State) *Session {
	s := newSession(r, state)
	r.mu.Lock()
	if s.state.Region == `` {
		s.state.Region = r.region
	}
	r.sessions = append(r.sessions, s)
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()
	for _, l := range listeners {
		s.AddSessionChangeListener(l)
	}
	return s
}

// CreateSession creates a session with a fresh engine session. With
// [OpenModeOpen] the session is opened and activated.
func (r *Registry) CreateSession(settings engine.Settings, mode OpenMode) (*Session, error) {
	s := r.add(NewState(settings))
	s.updateTrackingProtection()
	s.state.Engine = s.newEngine()
	s.changeListeners.Dispatch(func(l ChangeListener) { l.OnSessionAdded(s) })
	s.logger.Debug().Bool(`open`, mode == OpenModeOpen).Log(`created session`)
	if mode == OpenModeOpen {
		if err := s.Open(); err != nil {
			return s, err
		}
		if err := s.SetActive(true); err != nil {
			return s, err
		}
	}
	return s, nil
}

// CreateWebExtensionSession creates an open, inactive session for a web
// extension's background content.
func (r *Registry) CreateWebExtensionSession(settings engine.Settings) (*Session, error) {
	s, err := r.CreateSession(settings, OpenModeDoNotOpen)
	if err != nil {
		return nil, err
	}
	s.state.WebExtension = true
	if err := s.Open(); err != nil {
		return s, err
	}
	return s, nil
}

// CreateSuspendedSession creates a session from saved state. Its engine
// session is created on activation.
func (r *Registry) CreateSuspendedSession(state *State) *Session {
	if state.ID == `` {
		state.ID = newID()
	}
	state.Engine = nil
	state.Display = nil
	state.Active = false
	s := r.add(state)
	s.logger.Debug().Str(`uri`, state.URI).Log(`created suspended session`)
	return s
}

// Get returns the session with the given ID, or nil.
func (r *Registry) Get(id string) *Session {
	if id == `` {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.state.ID == id {
			return s
		}
	}
	return nil
}

// Sessions returns every session, oldest first.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.sessions)
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Remove shuts down the session with the given ID, reporting whether it
// existed.
func (r *Registry) Remove(id string) bool {
	s := r.Get(id)
	if s == nil {
		return false
	}
	s.Shutdown()
	return true
}

func (r *Registry) unregister(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := slices.Index(r.sessions, s); i >= 0 {
		r.sessions = slices.Delete(r.sessions, i, i+1)
	}
}

// Shutdown shuts down every session.
func (r *Registry) Shutdown() {
	for _, s := range r.Sessions() {
		s.Shutdown()
	}
}

// SetRegion sets the home page region of every session, and of sessions
// created later.
func (r *Registry) SetRegion(region string) {
	r.mu.Lock()
	r.region = normalizeRegion(region)
	r.mu.Unlock()
	for _, s := range r.Sessions() {
		if err := s.SetRegion(region); err != nil {
			s.logger.Err().Err(err).Log(`failed to reload home page for region`)
		}
	}
}

// Save writes a snapshot of every session to the store, and deletes stored
// snapshots of sessions that no longer exist.
func (r *Registry) Save(ctx context.Context) error {
	if r.store == nil {
		return ErrNoStore
	}
	sessions := r.Sessions()
	keep := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		snapshot := s.state.Snapshot()
		keep[snapshot.ID] = struct{}{}
		if err := r.store.Put(ctx, snapshot); err != nil {
			return fmt.Errorf(`session: save %s: %w`, snapshot.ID, err)
		}
	}
	stored, err := r.store.List(ctx)
	if err != nil {
		return fmt.Errorf(`session: save: %w`, err)
	}
	for _, snapshot := range stored {
		if _, ok := keep[snapshot.ID]; ok {
			continue
		}
		if err := r.store.Delete(ctx, snapshot.ID); err != nil {
			return fmt.Errorf(`session: delete %s: %w`, snapshot.ID, err)
		}
	}
	r.logger.Debug().Int(`sessions`, len(sessions)).Log(`saved sessions`)
	return nil
}

// Restore creates a suspended session for each stored snapshot that has no
// session yet, returning the sessions created.
func (r *Registry) Restore(ctx context.Context) ([]*Session, error) {
	if r.store == nil {
		return nil, ErrNoStore
	}
	stored, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf(`session: restore: %w`, err)
	}
	var restored []*Session
	for _, snapshot := range stored {
		if r.Get(snapshot.ID) != nil {
			continue
		}
		restored = append(restored, r.CreateSuspendedSession(FromSnapshot(snapshot)))
	}
	r.logger.Debug().Int(`sessions`, len(restored)).Log(`restored sessions`)
	return restored, nil
}
