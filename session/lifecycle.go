package session

import (
	"fmt"
	"strings"

	"github.com/joeycumines/go-browsersession/engine"
)

// newEngine allocates an engine session for the current settings, with the
// session attached as its only delegate.
func (s *Session) newEngine() engine.Session {
	es := s.registry.factory.NewSession(s.state.Settings)
	s.attach(es)
	return es
}

func (s *Session) attach(es engine.Session) {
	es.SetNavigationDelegate(navigationHandler{s})
	es.SetProgressDelegate(progressHandler{s})
	es.SetContentDelegate(contentHandler{s})
	es.SetTextInputDelegate(textInputHandler{s})
	es.SetPermissionDelegate(permissionHandler{s})
	es.SetPromptDelegate(promptHandler{s})
	es.SetMediaDelegate(mediaHandler{s})
	es.SetHistoryDelegate(historyHandler{s})
	es.SetSelectionActionDelegate(selectionActionHandler{s})
	es.SetContentBlockingDelegate(contentBlockingHandler{s})
}

func detach(es engine.Session) {
	es.SetNavigationDelegate(nil)
	es.SetProgressDelegate(nil)
	es.SetContentDelegate(nil)
	es.SetTextInputDelegate(nil)
	es.SetPermissionDelegate(nil)
	es.SetPromptDelegate(nil)
	es.SetMediaDelegate(nil)
	es.SetHistoryDelegate(nil)
	es.SetSelectionActionDelegate(nil)
	es.SetContentBlockingDelegate(nil)
}

// Open opens the engine session, if it is not already open.
func (s *Session) Open() error {
	if s.closed {
		return ErrClosed
	}
	es := s.state.Engine
	if es == nil {
		return ErrSuspended
	}
	if !es.IsOpen() {
		if err := es.Open(s.registry.runtime); err != nil {
			return fmt.Errorf(`session: open: %w`, err)
		}
		s.logger.Debug().Log(`opened engine session`)
	}
	s.changeListeners.Dispatch(func(l ChangeListener) { l.OnSessionOpened(s) })
	return nil
}

// SetActive marks the session as the one being displayed, or not.
// Activating a suspended session restores it. Calls queued while the session
// was inactive are replayed on activation.
func (s *Session) SetActive(active bool) error {
	if s.closed {
		return ErrClosed
	}
	es := s.state.Engine
	if !active && es != nil && !s.state.Active {
		// already inactive, some engines fail to resume after a repeat
		return nil
	}
	wasActive := s.state.Active

	switch {
	case es != nil:
		if err := es.SetActive(active); err != nil {
			return fmt.Errorf(`session: set active: %w`, err)
		}
		s.state.Active = active
	case active:
		s.restore()
	default:
		s.logger.Err().Log(`deactivating a session without an engine session`)
		s.state.Active = false
	}

	if active && !wasActive {
		s.queue.Drain()
	}

	s.changeListeners.Dispatch(func(l ChangeListener) { l.OnSessionStateChanged(s, active) })
	return nil
}

// Suspend releases the engine session, keeping enough state to restore it
// on the next activation. It fails with [ErrActive] for the active session,
// and [ErrKeepAlive] within the keep-alive window.
func (s *Session) Suspend() error {
	return s.suspend(true)
}

func (s *Session) suspend(keepAlive bool) error {
	if s.closed {
		return ErrClosed
	}
	if s.state.Active {
		s.logger.Warning().Log(`refusing to suspend an active session`)
		return ErrActive
	}
	if s.state.Engine == nil {
		return nil
	}
	if keepAlive && s.now().Before(s.keepAlive) {
		s.logger.Warning().Time(`keep_alive`, s.keepAlive).Log(`refusing to suspend a kept alive session`)
		return ErrKeepAlive
	}

	s.logger.Debug().Log(`suspending session`)
	s.closeEngine()
	s.state.Engine = nil

	id := s.state.ID
	s.changeListeners.Dispatch(func(l ChangeListener) { l.OnSessionRemoved(id) })
	return nil
}

// shouldLoadDefaultPage reports whether a restored session has nothing
// worth restoring.
func (s *Session) shouldLoadDefaultPage() bool {
	uri := s.state.URI
	// data URIs can not be restored
	if s.state.SessionState != nil && (uri == `` || strings.HasPrefix(uri, `data:text`)) {
		return true
	}
	if uri != `` && uri != aboutBlank {
		return false
	}
	return s.state.SessionState.Len() == 0
}

func (s *Session) loadDefaultPage() error {
	if s.state.Settings.UsePrivateMode {
		return s.LoadPrivateBrowsingPage()
	}
	return s.LoadHomePage()
}

func (s *Session) updateTrackingProtection() {
	s.state.Settings.UseTrackingProtection = s.state.Settings.UsePrivateMode || s.config().TrackingProtection
	if es := s.state.Engine; es != nil {
		es.Settings().UseTrackingProtection = s.state.Settings.UseTrackingProtection
	}
}

// restore rebuilds the engine session of a suspended session, reloading its
// content.
func (s *Session) restore() {
	s.updateTrackingProtection()
	s.state.Engine = s.newEngine()

	s.changeListeners.Dispatch(func(l ChangeListener) { l.OnSessionAdded(s) })

	if err := s.Open(); err != nil {
		s.logger.Err().Err(err).Log(`failed to open restored session`)
	}

	var err error
	switch {
	case s.shouldLoadDefaultPage():
		err = s.loadDefaultPage()
	case s.state.SessionState != nil:
		err = s.state.Engine.RestoreState(s.state.SessionState)
		if err == nil && strings.Contains(s.state.URI, `.youtube.com`) {
			err = s.state.Engine.LoadURI(s.state.URI, engine.LoadFlagsReplaceHistory)
		}
	case s.state.URI != ``:
		err = s.state.Engine.LoadURI(s.state.URI, engine.LoadFlagsNone)
	default:
		err = s.loadDefaultPage()
	}
	if err != nil {
		s.logger.Err().Err(err).Str(`uri`, s.state.URI).Log(`failed to load restored session`)
	}

	s.dumpAllState()

	if err := s.state.Engine.SetActive(true); err != nil {
		s.logger.Err().Err(err).Log(`failed to activate restored session`)
	}
	s.state.Active = true
}

// recreate replaces a crashed or killed engine session, under a new
// identity. Recreation is rate limited per session, past the limit the
// session is suspended instead.
func (s *Session) recreate() {
	if limiter := s.registry.recreateLimiter; limiter != nil {
		if next, ok := limiter.Allow(s); !ok {
			s.logger.Warning().Time(`next`, next).Log(`session crashing too often, suspending instead of recreating`)
			s.closeEngine()
			s.state.Engine = nil
			s.state.Active = false
			id := s.state.ID
			s.changeListeners.Dispatch(func(l ChangeListener) { l.OnSessionRemoved(id) })
			return
		}
	}

	s.recreating = true
	defer func() { s.recreating = false }()

	wasFullScreen := s.state.FullScreen
	previous := s.state.Engine
	if previous != nil {
		s.closeEngine()
	}

	oldID := s.state.ID
	s.state = s.state.Recreate()
	s.logger = sessionLogger(s.registry.logger, s.state.ID)
	s.logger.Info().Str(`previous_id`, oldID).Log(`recreating session`)

	s.changeListeners.Dispatch(func(l ChangeListener) { l.OnSessionRemoved(oldID) })

	s.restore()

	s.changeListeners.Dispatch(func(l ChangeListener) { l.OnSessionStateChanged(s, true) })
	current := s.state.Engine
	s.changeListeners.Dispatch(func(l ChangeListener) { l.OnCurrentSessionChange(previous, current) })

	if wasFullScreen != s.state.FullScreen {
		fullScreen := s.state.FullScreen
		s.contentListeners.Dispatch(func(l engine.ContentDelegate) { l.OnFullScreen(current, fullScreen) })
	}
}

// closeEngine tears down an open engine session, releasing the display
// first.
func (s *Session) closeEngine() {
	es := s.state.Engine
	if es == nil {
		return
	}
	detach(es)
	if !es.IsOpen() {
		return
	}
	s.logEngineErr(`set inactive`, es.SetActive(false))
	s.logEngineErr(`stop`, es.Stop())
	if d := s.state.Display; d != nil {
		d.SurfaceDestroyed()
		s.logEngineErr(`release display`, es.ReleaseDisplay(d))
		s.state.Display = nil
	}
	s.logEngineErr(`close`, es.Close())
	s.state.Active = false
	s.firstContentfulPaint = false

	s.changeListeners.Dispatch(func(l ChangeListener) { l.OnSessionClosed(s) })
}

func (s *Session) logEngineErr(op string, err error) {
	if err != nil {
		s.logger.Err().Err(err).Str(`op`, op).Log(`engine session call failed`)
	}
}

// Shutdown closes the session for good, releasing the engine session and
// every listener. It is idempotent.
func (s *Session) Shutdown() {
	if s.closed {
		return
	}
	if s.state.Engine != nil {
		if s.state.Active {
			if err := s.SetActive(false); err != nil {
				s.logger.Err().Err(err).Log(`failed to deactivate session on shutdown`)
			}
		}
		// the engine session is released even if it refused to deactivate,
		// and regardless of the keep-alive window
		s.state.Active = false
		_ = s.suspend(false)
	}
	if parent := s.Parent(); parent != nil {
		parent.changeListeners.Remove(s.parentListener())
	}

	s.queue.Clear()
	s.navigationListeners.Clear()
	s.progressListeners.Clear()
	s.contentListeners.Clear()
	s.textInputListeners.Clear()
	s.mediaListeners.Clear()
	s.selectionListeners.Clear()
	s.contentBlockingListeners.Clear()
	s.videoListeners.Clear()
	s.webXRListeners.Clear()
	s.popUpListeners.Clear()
	s.drmListeners.Clear()
	s.changeListeners.Clear()

	s.registry.unregister(s)
	s.closed = true
	s.logger.Debug().Log(`session shut down`)
}
