package engine

import (
	"github.com/joeycumines/go-browsersession/result"
)

// Delegate interfaces, one per callback category. Engine adapters invoke
// them on the context that owns the session. Methods returning a result may
// return nil, meaning the default behavior documented on the method.
//
// Implementations embed the matching Unimplemented type to pick up no-op
// defaults for the methods they do not care about.
type (
	NavigationDelegate interface {
		OnLocationChange(s Session, uri string)
		OnCanGoBack(s Session, canGoBack bool)
		OnCanGoForward(s Session, canGoForward bool)
		// OnLoadRequest decides a top-level load, nil means [Allow].
		OnLoadRequest(s Session, req LoadRequest) *result.Result[AllowOrDeny]
		// OnSubframeLoadRequest decides a subframe load, nil means [Allow].
		OnSubframeLoadRequest(s Session, req LoadRequest) *result.Result[AllowOrDeny]
		// OnNewSession supplies a new, unopened session for content that asked
		// for a new window. Nil fails the request.
		OnNewSession(s Session, uri string) *result.Result[Session]
		// OnLoadError supplies a URI to display in place of the failed load,
		// nil halts the load.
		OnLoadError(s Session, uri string, err WebRequestError) *result.Result[string]
	}

	ProgressDelegate interface {
		OnPageStart(s Session, uri string)
		OnPageStop(s Session, success bool)
		OnProgressChange(s Session, progress int)
		OnSecurityChange(s Session, info SecurityInformation)
		OnSessionStateChange(s Session, state *StateBlob)
	}

	ContentDelegate interface {
		OnTitleChange(s Session, title string)
		OnFocusRequest(s Session)
		OnCloseRequest(s Session)
		OnFullScreen(s Session, fullScreen bool)
		OnMetaViewportFitChange(s Session, viewportFit string)
		OnContextMenu(s Session, screenX, screenY int, element ContextElement)
		OnExternalResponse(s Session, info WebResponseInfo)
		// OnCrash reports that the content process crashed, the session is
		// closed and must be recreated.
		OnCrash(s Session)
		// OnKill reports that the content process was killed, e.g. to reclaim
		// memory.
		OnKill(s Session)
		OnFirstComposite(s Session)
		OnFirstContentfulPaint(s Session)
		OnPaintStatusReset(s Session)
		OnWebAppManifest(s Session, manifest []byte)
		// OnSlowScript decides whether a long running script may continue,
		// nil leaves the engine default.
		OnSlowScript(s Session, scriptFileName string) *result.Result[SlowScriptResponse]
	}

	TextInputDelegate interface {
		RestartInput(s Session, reason RestartReason)
		ShowSoftInput(s Session)
		HideSoftInput(s Session)
		UpdateSelection(s Session, selStart, selEnd, compositionStart, compositionEnd int)
		UpdateExtractedText(s Session, text ExtractedText)
		UpdateCursorAnchorInfo(s Session, info CursorAnchorInfo)
	}

	MediaDelegate interface {
		OnMediaAdd(s Session, element MediaElement)
		OnMediaRemove(s Session, element MediaElement)
		OnRecordingStatusChanged(s Session, devices []RecordingDevice)
	}

	HistoryDelegate interface {
		// OnVisited records a visit, completing with whether links to uri
		// should render as visited. lastVisitedURI is empty for the first
		// visit of a session.
		OnVisited(s Session, uri, lastVisitedURI string, flags VisitFlags) *result.Result[bool]
		// GetVisited completes with the visited status of each of uris.
		GetVisited(s Session, uris []string) *result.Result[[]bool]
		OnHistoryStateChange(s Session, list HistoryList)
	}

	PermissionDelegate interface {
		OnAndroidPermissionsRequest(s Session, permissions []string, callback PermissionCallback)
		OnContentPermissionRequest(s Session, uri string, permission PermissionType, callback PermissionCallback)
		OnMediaPermissionRequest(s Session, uri string, video, audio []MediaSource, callback PermissionCallback)
	}

	// PermissionCallback answers a permission request, exactly once.
	PermissionCallback interface {
		Grant()
		Reject()
	}

	// PermissionCallbackFunc adapts a function to a [PermissionCallback].
	PermissionCallbackFunc func(granted bool)

	// PromptDelegate answers prompts raised by content. A nil result dismisses
	// the prompt.
	PromptDelegate interface {
		OnPrompt(s Session, prompt Prompt) *result.Result[PromptResponse]
	}

	SelectionActionDelegate interface {
		OnShowActionRequest(s Session, selection Selection)
		OnHideAction(s Session, reason HideReason)
	}

	ContentBlockingDelegate interface {
		OnContentBlocked(s Session, event BlockEvent)
		OnContentLoaded(s Session, event BlockEvent)
	}

	// MediaSource is a capture source offered to
	// [PermissionDelegate.OnMediaPermissionRequest].
	MediaSource struct {
		ID   string
		Name string
		Type DeviceType
	}

	ExtractedText struct {
		Text           string
		SelectionStart int
		SelectionEnd   int
	}

	CursorAnchorInfo struct {
		SelectionStart  int
		SelectionEnd    int
		InsertionMarker Rect
	}
)

type (
	UnimplementedNavigationDelegate      struct{}
	UnimplementedProgressDelegate        struct{}
	UnimplementedContentDelegate         struct{}
	UnimplementedTextInputDelegate       struct{}
	UnimplementedMediaDelegate           struct{}
	UnimplementedHistoryDelegate         struct{}
	UnimplementedSelectionActionDelegate struct{}
	UnimplementedContentBlockingDelegate struct{}
)

var (
	_ NavigationDelegate      = UnimplementedNavigationDelegate{}
	_ ProgressDelegate        = UnimplementedProgressDelegate{}
	_ ContentDelegate         = UnimplementedContentDelegate{}
	_ TextInputDelegate       = UnimplementedTextInputDelegate{}
	_ MediaDelegate           = UnimplementedMediaDelegate{}
	_ HistoryDelegate         = UnimplementedHistoryDelegate{}
	_ SelectionActionDelegate = UnimplementedSelectionActionDelegate{}
	_ ContentBlockingDelegate = UnimplementedContentBlockingDelegate{}
	_ PermissionCallback      = PermissionCallbackFunc(nil)
)

func (f PermissionCallbackFunc) Grant() { f(true) }

func (f PermissionCallbackFunc) Reject() { f(false) }

func (UnimplementedNavigationDelegate) OnLocationChange(Session, string) {}

func (UnimplementedNavigationDelegate) OnCanGoBack(Session, bool) {}

func (UnimplementedNavigationDelegate) OnCanGoForward(Session, bool) {}

func (UnimplementedNavigationDelegate) OnLoadRequest(Session, LoadRequest) *result.Result[AllowOrDeny] {
	return nil
}

func (UnimplementedNavigationDelegate) OnSubframeLoadRequest(Session, LoadRequest) *result.Result[AllowOrDeny] {
	return nil
}

func (UnimplementedNavigationDelegate) OnNewSession(Session, string) *result.Result[Session] {
	return nil
}

func (UnimplementedNavigationDelegate) OnLoadError(Session, string, WebRequestError) *result.Result[string] {
	return nil
}

func (UnimplementedProgressDelegate) OnPageStart(Session, string) {}

func (UnimplementedProgressDelegate) OnPageStop(Session, bool) {}

func (UnimplementedProgressDelegate) OnProgressChange(Session, int) {}

func (UnimplementedProgressDelegate) OnSecurityChange(Session, SecurityInformation) {}

func (UnimplementedProgressDelegate) OnSessionStateChange(Session, *StateBlob) {}

func (UnimplementedContentDelegate) OnTitleChange(Session, string) {}

func (UnimplementedContentDelegate) OnFocusRequest(Session) {}

func (UnimplementedContentDelegate) OnCloseRequest(Session) {}

func (UnimplementedContentDelegate) OnFullScreen(Session, bool) {}

func (UnimplementedContentDelegate) OnMetaViewportFitChange(Session, string) {}

func (UnimplementedContentDelegate) OnContextMenu(Session, int, int, ContextElement) {}

func (UnimplementedContentDelegate) OnExternalResponse(Session, WebResponseInfo) {}

func (UnimplementedContentDelegate) OnCrash(Session) {}

func (UnimplementedContentDelegate) OnKill(Session) {}

func (UnimplementedContentDelegate) OnFirstComposite(Session) {}

func (UnimplementedContentDelegate) OnFirstContentfulPaint(Session) {}

func (UnimplementedContentDelegate) OnPaintStatusReset(Session) {}

func (UnimplementedContentDelegate) OnWebAppManifest(Session, []byte) {}

func (UnimplementedContentDelegate) OnSlowScript(Session, string) *result.Result[SlowScriptResponse] {
	return nil
}

func (UnimplementedTextInputDelegate) RestartInput(Session, RestartReason) {}

func (UnimplementedTextInputDelegate) ShowSoftInput(Session) {}

func (UnimplementedTextInputDelegate) HideSoftInput(Session) {}

func (UnimplementedTextInputDelegate) UpdateSelection(Session, int, int, int, int) {}

func (UnimplementedTextInputDelegate) UpdateExtractedText(Session, ExtractedText) {}

func (UnimplementedTextInputDelegate) UpdateCursorAnchorInfo(Session, CursorAnchorInfo) {}

func (UnimplementedMediaDelegate) OnMediaAdd(Session, MediaElement) {}

func (UnimplementedMediaDelegate) OnMediaRemove(Session, MediaElement) {}

func (UnimplementedMediaDelegate) OnRecordingStatusChanged(Session, []RecordingDevice) {}

func (UnimplementedHistoryDelegate) OnVisited(Session, string, string, VisitFlags) *result.Result[bool] {
	return nil
}

func (UnimplementedHistoryDelegate) GetVisited(Session, []string) *result.Result[[]bool] {
	return nil
}

func (UnimplementedHistoryDelegate) OnHistoryStateChange(Session, HistoryList) {}

func (UnimplementedSelectionActionDelegate) OnShowActionRequest(Session, Selection) {}

func (UnimplementedSelectionActionDelegate) OnHideAction(Session, HideReason) {}

func (UnimplementedContentBlockingDelegate) OnContentBlocked(Session, BlockEvent) {}

func (UnimplementedContentBlockingDelegate) OnContentLoaded(Session, BlockEvent) {}
