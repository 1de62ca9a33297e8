package session

import (
	"github.com/joeycumines/go-browsersession/engine"
)

// Listener interfaces for session-level events, which have no engine
// delegate counterpart. Like the engine delegates, they are notified on the
// session's execution context, and caught up with the current state when
// added.
type (
	VideoAvailabilityListener interface {
		OnVideoAvailabilityChanged(media *Media, available bool)
	}

	WebXRStateListener interface {
		OnWebXRStateChanged(s engine.Session, state WebXRState)
	}

	PopUpStateListener interface {
		OnPopUpStateChanged(s engine.Session, state PopUpState)
	}

	DrmStateListener interface {
		OnDrmStateChanged(s engine.Session, state DrmState)
	}

	// ChangeListener observes the lifecycle of a session's engine resource,
	// and the stacking of child sessions.
	ChangeListener interface {
		OnSessionAdded(s *Session)
		OnSessionOpened(s *Session)
		OnSessionClosed(s *Session)
		// OnSessionRemoved reports that the engine resource of the session
		// with the given ID was released, or replaced under a new ID.
		OnSessionRemoved(id string)
		OnSessionStateChanged(s *Session, active bool)
		OnCurrentSessionChange(old, current engine.Session)
		// OnStackSession reports a child session, created for content that
		// asked for a new window.
		OnStackSession(child *Session)
		// OnUnstackSession asks for s to be closed, returning to parent.
		OnUnstackSession(s, parent *Session)
	}

	// UnimplementedChangeListener may be embedded to implement the
	// ChangeListener methods that are not needed.
	UnimplementedChangeListener struct{}
)

var _ ChangeListener = UnimplementedChangeListener{}

func (UnimplementedChangeListener) OnSessionAdded(*Session) {}

func (UnimplementedChangeListener) OnSessionOpened(*Session) {}

func (UnimplementedChangeListener) OnSessionClosed(*Session) {}

func (UnimplementedChangeListener) OnSessionRemoved(string) {}

func (UnimplementedChangeListener) OnSessionStateChanged(*Session, bool) {}

func (UnimplementedChangeListener) OnCurrentSessionChange(engine.Session, engine.Session) {}

func (UnimplementedChangeListener) OnStackSession(*Session) {}

func (UnimplementedChangeListener) OnUnstackSession(*Session, *Session) {}
