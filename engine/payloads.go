package engine

import (
	"slices"
	"time"
)

type (
	// LoadRequest describes a pending top-level or subframe load.
	LoadRequest struct {
		URI string
		// TriggerURI is the URI of the document that started the load, if any.
		TriggerURI         string
		Target             TargetWindow
		IsRedirect         bool
		HasUserGesture     bool
		IsDirectNavigation bool
	}

	// WebRequestError is reported when a load fails.
	WebRequestError struct {
		Category ErrorCategory
		Code     int
		// Certificate is the DER encoded server certificate, for security errors.
		Certificate []byte
	}

	// ErrorCategory groups [WebRequestError] codes.
	ErrorCategory int

	// SecurityInformation summarises the security state of a page.
	SecurityInformation struct {
		IsSecure         bool
		IsException      bool
		Origin           string
		Host             string
		SecurityMode     SecurityMode
		MixedModePassive MixedContent
		MixedModeActive  MixedContent
	}

	SecurityMode int

	MixedContent int

	// ContextElement is the target of a context menu request.
	ContextElement struct {
		BaseURI string
		LinkURI string
		Title   string
		AltText string
		Type    ContextElementType
		SrcURI  string
	}

	ContextElementType int

	// WebResponseInfo describes a response the engine will not render, e.g. a
	// download.
	WebResponseInfo struct {
		URI           string
		ContentType   string
		ContentLength int64
		Filename      string
	}

	// SlowScriptResponse answers [ContentDelegate.OnSlowScript].
	SlowScriptResponse int

	// RecordingDevice is a capture device reported to
	// [MediaDelegate.OnRecordingStatusChanged].
	RecordingDevice struct {
		Status RecordingStatus
		Type   DeviceType
	}

	RecordingStatus int

	DeviceType int

	// Selection is the current text selection, reported to
	// [SelectionActionDelegate.OnShowActionRequest].
	Selection struct {
		Flags SelectionFlags
		Text  string
		// ClientRect is the selection bounds, nil if not visible.
		ClientRect       *Rect
		AvailableActions []string
	}

	SelectionFlags int

	// HideReason is passed to [SelectionActionDelegate.OnHideAction].
	HideReason int

	Rect struct {
		Left, Top, Right, Bottom float64
	}

	// BlockEvent reports a resource that content blocking acted on.
	BlockEvent struct {
		URI                  string
		AntiTrackingCategory AntiTracking
		Blocking             bool
	}

	// AntiTracking is a bitmask of tracker categories.
	AntiTracking int

	// HistoryItem is one entry of a [HistoryList].
	HistoryItem struct {
		URI   string `json:"url"`
		Title string `json:"title"`
	}

	// HistoryList is the back/forward list of a session.
	HistoryList interface {
		Len() int
		Item(i int) (HistoryItem, bool)
		CurrentIndex() (int, error)
	}

	// MediaElement is a media element of a page, implemented by the engine
	// adapter.
	MediaElement interface {
		Play()
		Pause()
		Seek(t time.Duration)
		SetMuted(muted bool)
		SetVolume(volume float64)
		// SetDelegate attaches the receiver of element events, nil detaches.
		SetDelegate(delegate MediaElementDelegate)
	}

	// MediaElementDelegate receives events for one [MediaElement].
	MediaElementDelegate interface {
		OnPlaybackStateChange(element MediaElement, state MediaPlaybackState)
		OnReadyStateChange(element MediaElement, state MediaReadyState)
		OnMetadataChange(element MediaElement, metadata MediaMetadata)
		OnTimeChange(element MediaElement, t time.Duration)
		OnVolumeChange(element MediaElement, volume float64, muted bool)
		OnFullscreenChange(element MediaElement, fullscreen bool)
		OnError(element MediaElement, code int)
	}

	MediaPlaybackState int

	MediaReadyState int

	// MediaMetadata describes the loaded media.
	MediaMetadata struct {
		Duration        time.Duration
		Width           int
		Height          int
		IsSeekable      bool
		AudioTrackCount int
		VideoTrackCount int
	}
)

const (
	ErrorCategoryUnknown ErrorCategory = iota + 1
	ErrorCategorySecurity
	ErrorCategoryNetwork
	ErrorCategoryContent
	ErrorCategoryURI
	ErrorCategoryProxy
	ErrorCategorySafeBrowsing
)

const (
	SecurityModeUnknown SecurityMode = iota
	SecurityModeIdentified
	SecurityModeVerified
)

const (
	MixedContentUnknown MixedContent = iota
	MixedContentBlocked
	MixedContentLoaded
)

const (
	ContextElementNone ContextElementType = iota
	ContextElementImage
	ContextElementVideo
	ContextElementAudio
)

const (
	SlowScriptHalt SlowScriptResponse = iota
	SlowScriptContinue
)

const (
	RecordingStatusRecording RecordingStatus = iota
	RecordingStatusInactive
)

const (
	DeviceTypeCamera DeviceType = iota
	DeviceTypeMicrophone
)

const (
	SelectionCollapsed SelectionFlags = 1 << iota
	SelectionEditable
	SelectionPassword
)

// Selection actions, see [Selection.AvailableActions].
const (
	ActionHide            = `org.mozilla.geckoview.HIDE`
	ActionCut             = `org.mozilla.geckoview.CUT`
	ActionCopy            = `org.mozilla.geckoview.COPY`
	ActionDelete          = `org.mozilla.geckoview.DELETE`
	ActionPaste           = `org.mozilla.geckoview.PASTE`
	ActionSelectAll       = `org.mozilla.geckoview.SELECT_ALL`
	ActionUnselect        = `org.mozilla.geckoview.UNSELECT`
	ActionCollapseToStart = `org.mozilla.geckoview.COLLAPSE_TO_START`
	ActionCollapseToEnd   = `org.mozilla.geckoview.COLLAPSE_TO_END`
)

const (
	HideReasonNoSelection HideReason = iota
	HideReasonInvisibleSelection
	HideReasonActiveSelection
	HideReasonActiveScroll
)

const (
	AntiTrackingAd AntiTracking = 1 << (iota + 1)
	AntiTrackingAnalytic
	AntiTrackingSocial
	AntiTrackingContent
	AntiTrackingTest
	AntiTrackingCryptomining
	AntiTrackingFingerprinting
)

const (
	MediaPlaybackNone MediaPlaybackState = iota
	MediaPlaybackPlay
	MediaPlaybackPause
	MediaPlaybackPlaying
	MediaPlaybackEnded
	MediaPlaybackWaiting
	MediaPlaybackStalled
	MediaPlaybackSuspend
	MediaPlaybackEmptied
)

const (
	MediaReadyHaveNothing MediaReadyState = iota
	MediaReadyHaveMetadata
	MediaReadyHaveCurrentData
	MediaReadyHaveFutureData
	MediaReadyHaveEnoughData
)

// Has reports whether the selection has every bit of flag.
func (x Selection) Has(flag SelectionFlags) bool {
	return x.Flags&flag == flag
}

// IsActionAvailable reports whether action may be performed on the selection.
func (x Selection) IsActionAvailable(action string) bool {
	return slices.Contains(x.AvailableActions, action)
}

// Has reports whether the event matches any bit of category.
func (x BlockEvent) Has(category AntiTracking) bool {
	return x.AntiTrackingCategory&category != 0
}
