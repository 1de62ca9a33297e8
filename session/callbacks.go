package session

import (
	"strings"

	"github.com/joeycumines/go-browsersession/engine"
	"github.com/joeycumines/go-browsersession/result"
)

// Adapters that receive the callbacks of the engine session, one per
// delegate category. Most callbacks from an engine session other than the
// current one are ignored, they come from a session that was replaced.
type (
	navigationHandler      struct{ s *Session }
	progressHandler        struct{ s *Session }
	contentHandler         struct{ s *Session }
	textInputHandler       struct{ s *Session }
	mediaHandler           struct{ s *Session }
	selectionActionHandler struct{ s *Session }
	contentBlockingHandler struct{ s *Session }

	// parentListener keeps a child session informed of its parent.
	parentListener struct {
		UnimplementedChangeListener
		child *Session
	}
)

var (
	_ engine.NavigationDelegate      = navigationHandler{}
	_ engine.ProgressDelegate        = progressHandler{}
	_ engine.ContentDelegate         = contentHandler{}
	_ engine.TextInputDelegate       = textInputHandler{}
	_ engine.MediaDelegate           = mediaHandler{}
	_ engine.SelectionActionDelegate = selectionActionHandler{}
	_ engine.ContentBlockingDelegate = contentBlockingHandler{}
	_ ChangeListener                 = parentListener{}
)

func (s *Session) isCurrent(es engine.Session) bool {
	return es != nil && es == s.state.Engine
}

func (s *Session) parentListener() ChangeListener {
	return parentListener{child: s}
}

func (x parentListener) OnSessionRemoved(string) {
	s := x.child
	if s.state.ParentID == `` {
		return
	}
	// the parent is gone, or lost its engine session
	s.state.ParentID = ``
	s.notifyCanGoBack()
}

func (x parentListener) OnSessionStateChanged(*Session, bool) {
	s := x.child
	if s.state.ParentID != `` {
		s.notifyCanGoBack()
	}
}

func (s *Session) notifyCanGoBack() {
	es, canGoBack := s.state.Engine, s.CanGoBack()
	s.navigationListeners.Dispatch(func(l engine.NavigationDelegate) { l.OnCanGoBack(es, canGoBack) })
}

func (x navigationHandler) OnLocationChange(es engine.Session, uri string) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}

	s.SetPopUpState(PopUpUnused)
	s.SetDrmState(DrmUnused)

	s.state.WebExtension = strings.HasPrefix(uri, extensionURIPrefix)
	s.state.PreviousURI = s.state.URI
	s.state.URI = uri

	if containsAny(uri, s.config().ForceMobileViewport) {
		es.Settings().ViewportMode = engine.ViewportModeMobile
	} else {
		es.Settings().ViewportMode = s.state.Settings.ViewportMode
	}

	s.navigationListeners.Dispatch(func(l engine.NavigationDelegate) { l.OnLocationChange(es, uri) })

	// the home page may finish loading after the region was set
	if s.state.Region != `` && strings.EqualFold(uri, s.config().HomePage) {
		s.logEngineErr(`load regional home page`,
			es.LoadURI(`javascript:window.location.replace('`+s.HomeURI()+`');`, engine.LoadFlagsNone))
	}
}

func (x navigationHandler) OnCanGoBack(es engine.Session, canGoBack bool) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.logger.Debug().Bool(`can_go_back`, canGoBack).Log(`can go back changed`)
	s.state.CanGoBack = canGoBack
	s.notifyCanGoBack()
}

func (x navigationHandler) OnCanGoForward(es engine.Session, canGoForward bool) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.logger.Debug().Bool(`can_go_forward`, canGoForward).Log(`can go forward changed`)
	s.state.CanGoForward = canGoForward
	s.navigationListeners.Dispatch(func(l engine.NavigationDelegate) { l.OnCanGoForward(es, canGoForward) })
}

func (x navigationHandler) OnLoadRequest(es engine.Session, req engine.LoadRequest) *result.Result[engine.AllowOrDeny] {
	s := x.s
	s.logger.Debug().Str(`uri`, req.URI).Log(`load request`)

	if s.isCurrent(es) {
		ua := s.registry.userAgents.Lookup(req.URI)
		es.Settings().UserAgentOverride = ua
		s.state.Settings.UserAgentOverride = ua
	}

	if isBlockedAboutPage(req.URI) {
		return engine.DenyResult(s.exec())
	}

	return arbitrate(s.exec(), s.navigationListeners.Listeners(), func(l engine.NavigationDelegate) *result.Result[engine.AllowOrDeny] {
		return l.OnLoadRequest(es, req)
	})
}

func (x navigationHandler) OnSubframeLoadRequest(engine.Session, engine.LoadRequest) *result.Result[engine.AllowOrDeny] {
	return nil
}

func (x navigationHandler) OnNewSession(_ engine.Session, uri string) *result.Result[engine.Session] {
	s := x.s
	s.keepAlive = s.now().Add(s.config().KeepAlive)
	s.logger.Debug().Str(`uri`, uri).Log(`new session requested`)

	child, err := s.registry.CreateSession(s.state.Settings, OpenModeDoNotOpen)
	if err != nil {
		return result.FromError[engine.Session](s.exec(), err)
	}
	child.keepAlive = s.keepAlive
	child.state.ParentID = s.state.ID
	s.changeListeners.Dispatch(func(l ChangeListener) { l.OnStackSession(child) })
	s.AddSessionChangeListener(child.parentListener())

	return result.FromValue(s.exec(), child.state.Engine)
}

func (x navigationHandler) OnLoadError(_ engine.Session, uri string, err engine.WebRequestError) *result.Result[string] {
	s := x.s
	s.logger.Debug().Str(`uri`, uri).Int(`code`, err.Code).Log(`load error`)
	return result.FromValue(s.exec(), ErrorPageURI(uri, err))
}

func (x progressHandler) OnPageStart(es engine.Session, uri string) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.state.IsLoading = true
	s.SetWebXRState(WebXRUnused)
	s.progressListeners.Dispatch(func(l engine.ProgressDelegate) { l.OnPageStart(es, uri) })
}

func (x progressHandler) OnPageStop(es engine.Session, success bool) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.state.IsLoading = false
	s.progressListeners.Dispatch(func(l engine.ProgressDelegate) { l.OnPageStop(es, success) })
}

func (x progressHandler) OnProgressChange(es engine.Session, progress int) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.progressListeners.Dispatch(func(l engine.ProgressDelegate) { l.OnProgressChange(es, progress) })
}

func (x progressHandler) OnSecurityChange(es engine.Session, info engine.SecurityInformation) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.state.Security = &info
	s.progressListeners.Dispatch(func(l engine.ProgressDelegate) { l.OnSecurityChange(es, info) })
}

func (x progressHandler) OnSessionStateChange(es engine.Session, state *engine.StateBlob) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.state.SessionState = state
	s.progressListeners.Dispatch(func(l engine.ProgressDelegate) { l.OnSessionStateChange(es, state) })
}

func (x contentHandler) OnTitleChange(es engine.Session, title string) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.state.Title = title
	s.contentListeners.Dispatch(func(l engine.ContentDelegate) { l.OnTitleChange(es, title) })
}

func (x contentHandler) OnFocusRequest(es engine.Session) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.contentListeners.Dispatch(func(l engine.ContentDelegate) { l.OnFocusRequest(es) })
}

func (x contentHandler) OnCloseRequest(es engine.Session) {
	x.s.contentListeners.Dispatch(func(l engine.ContentDelegate) { l.OnCloseRequest(es) })
}

func (x contentHandler) OnFullScreen(es engine.Session, fullScreen bool) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.state.FullScreen = fullScreen
	s.contentListeners.Dispatch(func(l engine.ContentDelegate) { l.OnFullScreen(es, fullScreen) })
}

func (x contentHandler) OnMetaViewportFitChange(es engine.Session, viewportFit string) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.contentListeners.Dispatch(func(l engine.ContentDelegate) { l.OnMetaViewportFitChange(es, viewportFit) })
}

func (x contentHandler) OnContextMenu(es engine.Session, screenX, screenY int, element engine.ContextElement) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.contentListeners.Dispatch(func(l engine.ContentDelegate) { l.OnContextMenu(es, screenX, screenY, element) })
}

func (x contentHandler) OnExternalResponse(es engine.Session, info engine.WebResponseInfo) {
	x.s.contentListeners.Dispatch(func(l engine.ContentDelegate) { l.OnExternalResponse(es, info) })
}

func (x contentHandler) OnCrash(engine.Session) {
	x.s.logger.Err().Log(`content process crashed, recreating session`)
	x.s.recreate()
}

func (x contentHandler) OnKill(engine.Session) {
	x.s.logger.Err().Log(`content process killed, recreating session`)
	x.s.recreate()
}

func (x contentHandler) OnFirstComposite(es engine.Session) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.contentListeners.Dispatch(func(l engine.ContentDelegate) { l.OnFirstComposite(es) })
	if s.firstContentfulPaint {
		// only reported once per engine session, repeat it for a session
		// that was reattached
		s.contentListeners.Dispatch(func(l engine.ContentDelegate) { l.OnFirstContentfulPaint(es) })
	}
}

func (x contentHandler) OnFirstContentfulPaint(es engine.Session) {
	s := x.s
	s.firstContentfulPaint = true
	if !s.isCurrent(es) {
		return
	}
	s.contentListeners.Dispatch(func(l engine.ContentDelegate) { l.OnFirstContentfulPaint(es) })
}

func (x contentHandler) OnPaintStatusReset(es engine.Session) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.contentListeners.Dispatch(func(l engine.ContentDelegate) { l.OnPaintStatusReset(es) })
}

func (x contentHandler) OnWebAppManifest(es engine.Session, manifest []byte) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.contentListeners.Dispatch(func(l engine.ContentDelegate) { l.OnWebAppManifest(es, manifest) })
}

// OnSlowScript returns the first answer of the listeners.
func (x contentHandler) OnSlowScript(es engine.Session, scriptFileName string) *result.Result[engine.SlowScriptResponse] {
	s := x.s
	if !s.isCurrent(es) {
		return nil
	}
	for _, l := range s.contentListeners.Listeners() {
		if r := l.OnSlowScript(es, scriptFileName); r != nil {
			return r
		}
	}
	return nil
}

func (x textInputHandler) RestartInput(es engine.Session, reason engine.RestartReason) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.textInputListeners.Dispatch(func(l engine.TextInputDelegate) { l.RestartInput(es, reason) })
}

func (x textInputHandler) ShowSoftInput(es engine.Session) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.state.InputActive = true
	s.textInputListeners.Dispatch(func(l engine.TextInputDelegate) { l.ShowSoftInput(es) })
}

func (x textInputHandler) HideSoftInput(es engine.Session) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.state.InputActive = false
	s.textInputListeners.Dispatch(func(l engine.TextInputDelegate) { l.HideSoftInput(es) })
}

func (x textInputHandler) UpdateSelection(es engine.Session, selStart, selEnd, compositionStart, compositionEnd int) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.textInputListeners.Dispatch(func(l engine.TextInputDelegate) {
		l.UpdateSelection(es, selStart, selEnd, compositionStart, compositionEnd)
	})
}

func (x textInputHandler) UpdateExtractedText(es engine.Session, text engine.ExtractedText) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.textInputListeners.Dispatch(func(l engine.TextInputDelegate) { l.UpdateExtractedText(es, text) })
}

func (x textInputHandler) UpdateCursorAnchorInfo(es engine.Session, info engine.CursorAnchorInfo) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.textInputListeners.Dispatch(func(l engine.TextInputDelegate) { l.UpdateCursorAnchorInfo(es, info) })
}

func (x mediaHandler) OnMediaAdd(es engine.Session, element engine.MediaElement) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	m := newMedia(element, s.now)
	s.state.Media = append(s.state.Media, m)
	s.videoListeners.Dispatch(func(l VideoAvailabilityListener) { l.OnVideoAvailabilityChanged(m, true) })
	s.mediaListeners.Dispatch(func(l engine.MediaDelegate) { l.OnMediaAdd(es, element) })
}

func (x mediaHandler) OnMediaRemove(es engine.Session, element engine.MediaElement) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	i := s.state.mediaIndex(element)
	if i < 0 {
		return
	}
	m := s.state.Media[i]
	m.unload()
	s.state.Media = append(s.state.Media[:i:i], s.state.Media[i+1:]...)
	s.videoListeners.Dispatch(func(l VideoAvailabilityListener) { l.OnVideoAvailabilityChanged(m, false) })
	s.mediaListeners.Dispatch(func(l engine.MediaDelegate) { l.OnMediaRemove(es, element) })
}

func (x mediaHandler) OnRecordingStatusChanged(es engine.Session, devices []engine.RecordingDevice) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.mediaListeners.Dispatch(func(l engine.MediaDelegate) { l.OnRecordingStatusChanged(es, devices) })
}

func (x selectionActionHandler) OnShowActionRequest(es engine.Session, selection engine.Selection) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.selectionListeners.Dispatch(func(l engine.SelectionActionDelegate) { l.OnShowActionRequest(es, selection) })
}

func (x selectionActionHandler) OnHideAction(es engine.Session, reason engine.HideReason) {
	s := x.s
	if !s.isCurrent(es) {
		return
	}
	s.selectionListeners.Dispatch(func(l engine.SelectionActionDelegate) { l.OnHideAction(es, reason) })
}

func (x contentBlockingHandler) OnContentBlocked(es engine.Session, event engine.BlockEvent) {
	x.s.logBlockEvent(`blocked content`, event)
	x.s.contentBlockingListeners.Dispatch(func(l engine.ContentBlockingDelegate) { l.OnContentBlocked(es, event) })
}

func (x contentBlockingHandler) OnContentLoaded(es engine.Session, event engine.BlockEvent) {
	x.s.logBlockEvent(`loaded tracking content`, event)
	x.s.contentBlockingListeners.Dispatch(func(l engine.ContentBlockingDelegate) { l.OnContentLoaded(es, event) })
}

func (s *Session) logBlockEvent(msg string, event engine.BlockEvent) {
	for _, c := range [...]struct {
		category engine.AntiTracking
		name     string
	}{
		{engine.AntiTrackingAd, `ad`},
		{engine.AntiTrackingAnalytic, `analytic`},
		{engine.AntiTrackingContent, `content`},
		{engine.AntiTrackingSocial, `social`},
	} {
		if event.Has(c.category) {
			s.logger.Debug().Str(`uri`, event.URI).Str(`category`, c.name).Log(msg)
		}
	}
}
