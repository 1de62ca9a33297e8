// Package session implements the browsing session layer: a [Session]
// controller per tab, owning an engine session that it opens, suspends,
// resumes and recreates, and fanning the engine's callbacks out to any number
// of listeners.
//
// A [Registry] creates every session and resolves parent/child relations
// between them. Sessions are not safe for concurrent use, every method and
// engine callback must run on the execution context of the registry, see
// [WithExecutor].
package session

import (
	"errors"
	"time"

	"github.com/joeycumines/logiface"

	"github.com/joeycumines/go-browsersession/delegate"
	"github.com/joeycumines/go-browsersession/engine"
	"github.com/joeycumines/go-browsersession/result"
)

var (
	// ErrActive is returned by Suspend for an active session.
	ErrActive = errors.New(`session: session is active`)

	// ErrKeepAlive is returned by Suspend during the keep-alive window that
	// follows the creation of a child session.
	ErrKeepAlive = errors.New(`session: session is kept alive`)

	// ErrSuspended is returned when acting on the page of a session that has
	// no engine session.
	ErrSuspended = errors.New(`session: session is suspended`)

	// ErrClosed is returned when acting on a session that was shut down.
	ErrClosed = errors.New(`session: session is closed`)
)

// OpenMode selects whether a new session opens its engine session straight
// away.
type OpenMode int

const (
	// OpenModeOpen opens and activates the session on creation.
	OpenModeOpen OpenMode = iota
	// OpenModeDoNotOpen leaves the session unopened, e.g. for an engine that
	// opens child sessions itself.
	OpenModeDoNotOpen
)

// Session is the controller of one browsing session (a tab). It is the only
// delegate of its engine session, and forwards each callback category to the
// listeners registered for it, after updating its [State].
//
// Listeners are caught up with the current state when added. Permission,
// prompt and history callbacks go to at most one delegate each, with
// defaults applied while none is set.
type Session struct {
	registry *Registry
	state    *State
	logger   *logiface.Logger[logiface.Event]

	// queue holds history calls that arrived before a history delegate.
	queue delegate.PendingQueue

	keepAlive            time.Time
	firstContentfulPaint bool
	recreating           bool
	closed               bool

	permissionDelegate engine.PermissionDelegate
	promptDelegate     engine.PromptDelegate
	historyDelegate    engine.HistoryDelegate

	navigationListeners      *delegate.Multiplexer[engine.NavigationDelegate]
	progressListeners        *delegate.Multiplexer[engine.ProgressDelegate]
	contentListeners         *delegate.Multiplexer[engine.ContentDelegate]
	textInputListeners       *delegate.Multiplexer[engine.TextInputDelegate]
	mediaListeners           *delegate.Multiplexer[engine.MediaDelegate]
	selectionListeners       *delegate.Multiplexer[engine.SelectionActionDelegate]
	contentBlockingListeners *delegate.Multiplexer[engine.ContentBlockingDelegate]
	videoListeners           *delegate.Multiplexer[VideoAvailabilityListener]
	webXRListeners           *delegate.Multiplexer[WebXRStateListener]
	popUpListeners           *delegate.Multiplexer[PopUpStateListener]
	drmListeners             *delegate.Multiplexer[DrmStateListener]
	changeListeners          *delegate.Multiplexer[ChangeListener]
}

func newSession(r *Registry, state *State) *Session {
	s := &Session{
		registry: r,
		state:    state,
	}
	s.logger = sessionLogger(r.logger, state.ID)
	s.navigationListeners = delegate.NewMultiplexer(s.dumpNavigation)
	s.progressListeners = delegate.NewMultiplexer(s.dumpProgress)
	s.contentListeners = delegate.NewMultiplexer(s.dumpContent)
	s.textInputListeners = delegate.NewMultiplexer[engine.TextInputDelegate](nil)
	s.mediaListeners = delegate.NewMultiplexer[engine.MediaDelegate](nil)
	s.selectionListeners = delegate.NewMultiplexer[engine.SelectionActionDelegate](nil)
	s.contentBlockingListeners = delegate.NewMultiplexer[engine.ContentBlockingDelegate](nil)
	s.videoListeners = delegate.NewMultiplexer(s.dumpVideo)
	s.webXRListeners = delegate.NewMultiplexer(s.dumpWebXR)
	s.popUpListeners = delegate.NewMultiplexer(s.dumpPopUp)
	s.drmListeners = delegate.NewMultiplexer(s.dumpDrm)
	s.changeListeners = delegate.NewMultiplexer[ChangeListener](nil)
	return s
}

func (s *Session) exec() result.Executor { return s.registry.exec }

func (s *Session) now() time.Time { return s.registry.now() }

func (s *Session) config() *Config { return &s.registry.config }

// ID returns the identity of the session, which changes when it is
// recreated.
func (s *Session) ID() string { return s.state.ID }

// ParentID returns the ID of the session that this one was opened from,
// or an empty string.
func (s *Session) ParentID() string { return s.state.ParentID }

// Engine returns the engine session, nil while suspended.
func (s *Session) Engine() engine.Session { return s.state.Engine }

// State returns the state of the session, which must not be modified.
func (s *Session) State() *State { return s.state }

// Lifecycle returns the current lifecycle state.
func (s *Session) Lifecycle() Lifecycle {
	switch {
	case s.closed:
		return LifecycleClosed
	case s.recreating:
		return LifecycleRecreating
	case s.state.Engine == nil:
		return LifecycleSuspended
	case !s.state.Engine.IsOpen():
		return LifecycleUnopened
	default:
		return LifecycleOpen
	}
}

// IsActive reports whether the session is the one being displayed.
func (s *Session) IsActive() bool { return s.state.Active }

// CurrentURI returns the URI of the current page.
func (s *Session) CurrentURI() string { return s.state.URI }

// CurrentTitle returns the title of the current page.
func (s *Session) CurrentTitle() string { return s.state.Title }

// IsLoading reports whether a page load is in progress.
func (s *Session) IsLoading() bool { return s.state.IsLoading }

// IsInputActive reports whether a text field has focus.
func (s *Session) IsInputActive() bool { return s.state.InputActive }

// IsInFullScreen reports whether content requested full screen.
func (s *Session) IsInFullScreen() bool { return s.state.FullScreen }

// IsPrivateMode reports whether the session browses privately.
func (s *Session) IsPrivateMode() bool { return s.state.Settings.UsePrivateMode }

// IsWebExtensionSession reports whether the session hosts a web extension page.
func (s *Session) IsWebExtensionSession() bool { return s.state.WebExtension }

// IsFirstContentfulPaint reports whether the current page has painted content.
func (s *Session) IsFirstContentfulPaint() bool { return s.firstContentfulPaint }

// WebXRState returns whether the page uses WebXR.
func (s *Session) WebXRState() WebXRState { return s.state.WebXR }

// PopUpState returns whether the page had a popup blocked or allowed.
func (s *Session) PopUpState() PopUpState { return s.state.PopUp }

// DrmState returns whether the page uses DRM protected media.
func (s *Session) DrmState() DrmState { return s.state.Drm }

// LastUse returns when the session was last marked as used.
func (s *Session) LastUse() time.Time { return s.state.LastUse }

// UpdateLastUse marks the session as used now.
func (s *Session) UpdateLastUse() { s.state.LastUse = s.now() }

// IsSecure reports whether the current page was loaded securely.
func (s *Session) IsSecure() bool {
	return s.state.Security != nil && s.state.Security.IsSecure
}

// IsVideoAvailable reports whether the page has any media element.
func (s *Session) IsVideoAvailable() bool { return len(s.state.Media) != 0 }

// FullScreenVideo returns the full screen media element, falling back to
// the most recently added one, or nil.
func (s *Session) FullScreenVideo() *Media {
	for _, m := range s.state.Media {
		if m.IsFullscreen() {
			return m
		}
	}
	if n := len(s.state.Media); n != 0 {
		return s.state.Media[n-1]
	}
	return nil
}

// ActiveVideo returns the full screen media element, falling back to the
// played element that most recently changed playback state, or nil.
func (s *Session) ActiveVideo() *Media {
	var active *Media
	for _, m := range s.state.Media {
		if m.IsFullscreen() {
			return m
		}
		if m.IsPlayed() && (active == nil || m.LastStateUpdate().After(active.LastStateUpdate())) {
			active = m
		}
	}
	return active
}

// Parent returns the session this one was opened from, if it still exists.
func (s *Session) Parent() *Session {
	if s.state.ParentID == `` {
		return nil
	}
	return s.registry.Get(s.state.ParentID)
}

// SetParentSession stacks the session on parent, which is notified to the
// session through its change listener.
func (s *Session) SetParentSession(parent *Session) {
	if old := s.Parent(); old != nil {
		old.changeListeners.Remove(s.parentListener())
	}
	if parent == nil {
		s.state.ParentID = ``
		return
	}
	s.state.ParentID = parent.ID()
	parent.AddSessionChangeListener(s.parentListener())
}

// AddNavigationListener registers l, reporting false if already present.
func (s *Session) AddNavigationListener(l engine.NavigationDelegate) bool {
	return s.navigationListeners.Add(l)
}

// RemoveNavigationListener unregisters l, reporting whether it was present.
func (s *Session) RemoveNavigationListener(l engine.NavigationDelegate) bool {
	return s.navigationListeners.Remove(l)
}

// AddProgressListener registers a progress listener, caught up with
// the current state, reporting false if already present.
func (s *Session) AddProgressListener(l engine.ProgressDelegate) bool {
	return s.progressListeners.Add(l)
}

// RemoveProgressListener unregisters l, reporting whether it was present.
func (s *Session) RemoveProgressListener(l engine.ProgressDelegate) bool {
	return s.progressListeners.Remove(l)
}

// AddContentListener registers a content listener, caught up with
// the current state, reporting false if already present.
func (s *Session) AddContentListener(l engine.ContentDelegate) bool {
	return s.contentListeners.Add(l)
}

// RemoveContentListener unregisters l, reporting whether it was present.
func (s *Session) RemoveContentListener(l engine.ContentDelegate) bool {
	return s.contentListeners.Remove(l)
}

// AddTextInputListener registers a text input listener, caught up with
// the current state, reporting false if already present.
func (s *Session) AddTextInputListener(l engine.TextInputDelegate) bool {
	return s.textInputListeners.Add(l)
}

// RemoveTextInputListener unregisters l, reporting whether it was present.
func (s *Session) RemoveTextInputListener(l engine.TextInputDelegate) bool {
	return s.textInputListeners.Remove(l)
}

// AddMediaListener registers a media listener, caught up with
// the current state, reporting false if already present.
func (s *Session) AddMediaListener(l engine.MediaDelegate) bool {
	return s.mediaListeners.Add(l)
}

// RemoveMediaListener unregisters l, reporting whether it was present.
func (s *Session) RemoveMediaListener(l engine.MediaDelegate) bool {
	return s.mediaListeners.Remove(l)
}

// AddSelectionActionListener registers a selection action listener, caught up with
// the current state, reporting false if already present.
func (s *Session) AddSelectionActionListener(l engine.SelectionActionDelegate) bool {
	return s.selectionListeners.Add(l)
}

// RemoveSelectionActionListener unregisters l, reporting whether it was present.
func (s *Session) RemoveSelectionActionListener(l engine.SelectionActionDelegate) bool {
	return s.selectionListeners.Remove(l)
}

// AddContentBlockingListener registers a content blocking listener, caught up with
// the current state, reporting false if already present.
func (s *Session) AddContentBlockingListener(l engine.ContentBlockingDelegate) bool {
	return s.contentBlockingListeners.Add(l)
}

// RemoveContentBlockingListener unregisters l, reporting whether it was present.
func (s *Session) RemoveContentBlockingListener(l engine.ContentBlockingDelegate) bool {
	return s.contentBlockingListeners.Remove(l)
}

// AddVideoAvailabilityListener registers a video availability listener, caught up with
// the current state, reporting false if already present.
func (s *Session) AddVideoAvailabilityListener(l VideoAvailabilityListener) bool {
	return s.videoListeners.Add(l)
}

// RemoveVideoAvailabilityListener unregisters l, reporting whether it was present.
func (s *Session) RemoveVideoAvailabilityListener(l VideoAvailabilityListener) bool {
	return s.videoListeners.Remove(l)
}

// AddWebXRStateListener registers a web x r state listener, caught up with
// the current state, reporting false if already present.
func (s *Session) AddWebXRStateListener(l WebXRStateListener) bool {
	return s.webXRListeners.Add(l)
}

// RemoveWebXRStateListener unregisters l, reporting whether it was present.
func (s *Session) RemoveWebXRStateListener(l WebXRStateListener) bool {
	return s.webXRListeners.Remove(l)
}

// AddPopUpStateListener registers a pop up state listener, caught up with
// the current state, reporting false if already present.
func (s *Session) AddPopUpStateListener(l PopUpStateListener) bool {
	return s.popUpListeners.Add(l)
}

// RemovePopUpStateListener unregisters l, reporting whether it was present.
func (s *Session) RemovePopUpStateListener(l PopUpStateListener) bool {
	return s.popUpListeners.Remove(l)
}

// AddDrmStateListener registers a drm state listener, caught up with
// the current state, reporting false if already present.
func (s *Session) AddDrmStateListener(l DrmStateListener) bool {
	return s.drmListeners.Add(l)
}

// RemoveDrmStateListener unregisters l, reporting whether it was present.
func (s *Session) RemoveDrmStateListener(l DrmStateListener) bool {
	return s.drmListeners.Remove(l)
}

// AddSessionChangeListener registers a session change listener, caught up with
// the current state, reporting false if already present.
func (s *Session) AddSessionChangeListener(l ChangeListener) bool {
	return s.changeListeners.Add(l)
}

// RemoveSessionChangeListener unregisters l, reporting whether it was present.
func (s *Session) RemoveSessionChangeListener(l ChangeListener) bool {
	return s.changeListeners.Remove(l)
}

// SetPermissionDelegate sets the receiver of permission requests, nil
// rejects them.
func (s *Session) SetPermissionDelegate(d engine.PermissionDelegate) {
	s.permissionDelegate = d
}

// SetPromptDelegate sets the receiver of prompts, nil dismisses them.
func (s *Session) SetPromptDelegate(d engine.PromptDelegate) {
	s.promptDelegate = d
}

// SetHistoryDelegate sets the receiver of history callbacks, replaying the
// calls that arrived while none was set.
func (s *Session) SetHistoryDelegate(d engine.HistoryDelegate) {
	s.historyDelegate = d
	if d != nil {
		s.queue.Drain()
	}
}

// PendingHistoryCalls returns the number of history calls waiting for a
// history delegate.
func (s *Session) PendingHistoryCalls() int { return s.queue.Len() }

func (s *Session) dumpAllState() {
	s.navigationListeners.Replay()
	s.progressListeners.Replay()
	s.contentListeners.Replay()
	s.videoListeners.Replay()
	s.webXRListeners.Replay()
	s.popUpListeners.Replay()
	s.drmListeners.Replay()
}

func (s *Session) dumpNavigation(l engine.NavigationDelegate) {
	es := s.state.Engine
	if es == nil {
		return
	}
	l.OnCanGoBack(es, s.CanGoBack())
	l.OnCanGoForward(es, s.state.CanGoForward)
	l.OnLocationChange(es, s.state.URI)
}

func (s *Session) dumpProgress(l engine.ProgressDelegate) {
	es := s.state.Engine
	if s.state.IsLoading {
		l.OnPageStart(es, s.state.URI)
	} else {
		l.OnPageStop(es, true)
	}
	if s.state.Security != nil {
		l.OnSecurityChange(es, *s.state.Security)
	}
}

func (s *Session) dumpContent(l engine.ContentDelegate) {
	l.OnTitleChange(s.state.Engine, s.state.Title)
}

func (s *Session) dumpVideo(l VideoAvailabilityListener) {
	for _, m := range s.state.Media {
		l.OnVideoAvailabilityChanged(m, true)
	}
}

func (s *Session) dumpWebXR(l WebXRStateListener) {
	l.OnWebXRStateChanged(s.state.Engine, s.state.WebXR)
}

func (s *Session) dumpPopUp(l PopUpStateListener) {
	l.OnPopUpStateChanged(s.state.Engine, s.state.PopUp)
}

func (s *Session) dumpDrm(l DrmStateListener) {
	l.OnDrmStateChanged(s.state.Engine, s.state.Drm)
}
