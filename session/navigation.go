package session

import (
	"fmt"
	"strings"

	"github.com/joeycumines/go-browsersession/engine"
)

// engineOrErr returns the engine session to act on the page with.
func (s *Session) engineOrErr() (engine.Session, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.state.Engine == nil {
		return nil, ErrSuspended
	}
	return s.state.Engine, nil
}

// LoadURI loads uri, or the home page if uri is empty.
func (s *Session) LoadURI(uri string, flags engine.LoadFlags) error {
	if uri == `` {
		uri = s.HomeURI()
	}
	es, err := s.engineOrErr()
	if err != nil {
		return err
	}
	s.logger.Debug().Str(`uri`, uri).Stringer(`flags`, flags).Log(`loading uri`)
	return es.LoadURI(uri, flags)
}

// LoadHomePage loads [Session.HomeURI].
func (s *Session) LoadHomePage() error {
	return s.LoadURI(s.HomeURI(), engine.LoadFlagsNone)
}

// LoadPrivateBrowsingPage displays the private browsing page.
func (s *Session) LoadPrivateBrowsingPage() error {
	es, err := s.engineOrErr()
	if err != nil {
		return err
	}
	return es.LoadData([]byte(s.config().PrivatePage), `text/html`)
}

// Reload reloads the current page.
func (s *Session) Reload(flags engine.LoadFlags) error {
	es, err := s.engineOrErr()
	if err != nil {
		return err
	}
	return es.Reload(flags)
}

// Stop stops loading the current page.
func (s *Session) Stop() error {
	es, err := s.engineOrErr()
	if err != nil {
		return err
	}
	return es.Stop()
}

// PurgeHistory clears the back and forward history of the engine session.
func (s *Session) PurgeHistory() error {
	es, err := s.engineOrErr()
	if err != nil {
		return err
	}
	return es.PurgeHistory()
}

// ExitFullScreen asks the engine session to leave full screen.
func (s *Session) ExitFullScreen() error {
	es, err := s.engineOrErr()
	if err != nil {
		return err
	}
	return es.ExitFullScreen()
}

// CanGoBack reports whether [Session.GoBack] does anything: leaving full
// screen, navigating back, or returning to an undisplayed parent.
func (s *Session) CanGoBack() bool {
	if s.state.CanGoBack || s.state.FullScreen {
		return true
	}
	if parent := s.Parent(); parent != nil {
		return parent.state.Display == nil
	}
	return false
}

// CanGoForward reports whether the history has a forward entry.
func (s *Session) CanGoForward() bool { return s.state.CanGoForward }

// GoBack exits full screen, or navigates back, or asks the change listeners
// to unstack the session from its parent.
func (s *Session) GoBack() error {
	switch {
	case s.state.FullScreen:
		return s.ExitFullScreen()
	case s.state.CanGoBack && s.state.Engine != nil:
		return s.state.Engine.GoBack()
	}
	if parent := s.Parent(); parent != nil && parent.state.Display == nil {
		s.changeListeners.Dispatch(func(l ChangeListener) { l.OnUnstackSession(s, parent) })
	}
	return nil
}

// GoForward navigates forward in the history.
func (s *Session) GoForward() error {
	if s.state.CanGoForward && s.state.Engine != nil {
		return s.state.Engine.GoForward()
	}
	return nil
}

// HasDisplay reports whether a display is acquired.
func (s *Session) HasDisplay() bool { return s.state.Display != nil }

// SurfaceChanged renders the session to surface, acquiring the display if
// needed.
func (s *Session) SurfaceChanged(surface engine.Surface, left, top, width, height int) error {
	es := s.state.Engine
	if es == nil {
		return nil
	}
	if s.state.Display == nil {
		d, err := es.AcquireDisplay()
		if err != nil {
			return fmt.Errorf(`session: acquire display: %w`, err)
		}
		s.state.Display = d
	}
	s.state.Display.SurfaceChanged(surface, left, top, width, height)
	return nil
}

// SurfaceDestroyed tells the display, if any, that its surface is gone.
func (s *Session) SurfaceDestroyed() {
	if d := s.state.Display; d != nil {
		d.SurfaceDestroyed()
	}
}

// ReleaseDisplay destroys the surface and hands the display back to the
// engine session.
func (s *Session) ReleaseDisplay() error {
	s.SurfaceDestroyed()
	d := s.state.Display
	if d == nil {
		return nil
	}
	s.state.Display = nil
	if es := s.state.Engine; es != nil {
		return es.ReleaseDisplay(d)
	}
	return nil
}

// UserAgentMode returns the user agent mode of the session settings.
func (s *Session) UserAgentMode() engine.UserAgentMode {
	return s.state.Settings.UserAgentMode
}

// SetUAMode switches the user agent, and reloads. Switching to desktop
// leaves a mobile site (m. or mobile. hosts) for the main one.
func (s *Session) SetUAMode(mode engine.UserAgentMode) error {
	es := s.state.Engine
	if es == nil || s.state.Settings.UserAgentMode == mode {
		return nil
	}
	s.state.Settings.UserAgentMode = mode
	es.Settings().UserAgentMode = mode

	var overrideURI string
	if mode == engine.UserAgentModeDesktop {
		s.state.Settings.ViewportMode = engine.ViewportModeDesktop
		overrideURI = desktopSiteURI(s.state.URI)
	} else {
		s.state.Settings.ViewportMode = engine.ViewportModeMobile
	}
	es.Settings().ViewportMode = s.state.Settings.ViewportMode

	if overrideURI != `` {
		return es.LoadURI(overrideURI, engine.LoadFlagsBypassCache|engine.LoadFlagsReplaceHistory)
	}
	return es.Reload(engine.LoadFlagsBypassCache)
}

// Region returns the region of the home page.
func (s *Session) Region() string { return s.state.Region }

// SetRegion sets the region of the home page, reloading the home page if it
// is displayed. An empty region means worldwide.
func (s *Session) SetRegion(region string) error {
	s.state.Region = normalizeRegion(region)
	s.logger.Debug().Str(`region`, s.state.Region).Log(`set region`)
	if es := s.state.Engine; es != nil && s.isHomeURI(s.state.URI) {
		return es.LoadURI(`javascript:window.location.replace('`+s.HomeURI()+`');`, engine.LoadFlagsNone)
	}
	return nil
}

func normalizeRegion(region string) string {
	if region == `` {
		return `worldwide`
	}
	return strings.ToLower(region)
}

// HomeURI returns the home page, qualified with the region if set.
func (s *Session) HomeURI() string {
	home := s.config().HomePage
	if s.state.Region != `` {
		home += `?region=` + s.state.Region
	}
	return home
}

func (s *Session) isHomeURI(uri string) bool {
	home := s.config().HomePage
	return uri != `` && (strings.EqualFold(uri, home) || strings.HasPrefix(strings.ToLower(uri), strings.ToLower(home)+`?`))
}

// SetWebXRState updates the WebXR state, notifying listeners of changes.
func (s *Session) SetWebXRState(state WebXRState) {
	if state == s.state.WebXR {
		return
	}
	s.state.WebXR = state
	s.webXRListeners.Replay()
}

// SetPopUpState updates the popup state, always notifying listeners.
func (s *Session) SetPopUpState(state PopUpState) {
	s.state.PopUp = state
	s.popUpListeners.Replay()
}

// SetDrmState updates the DRM state, always notifying listeners.
func (s *Session) SetDrmState(state DrmState) {
	s.state.Drm = state
	s.drmListeners.Replay()
}
