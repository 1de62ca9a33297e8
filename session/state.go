package session

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/joeycumines/go-browsersession/engine"
)

type (
	// WebXRState tracks whether content used, or was blocked from, WebXR.
	WebXRState int

	// PopUpState tracks the popup blocking outcome for the current page.
	PopUpState int

	// DrmState tracks the DRM (encrypted media) outcome for the current page.
	DrmState int

	// Lifecycle is the state of a [Session], see [Session.Lifecycle].
	Lifecycle int
)

const (
	WebXRUnused WebXRState = iota
	WebXRUsed
	WebXRBlocked
)

const (
	PopUpUnused PopUpState = iota
	PopUpBlocked
	PopUpAllowed
)

const (
	DrmUnused DrmState = iota
	DrmBlocked
	DrmAllowed
)

const (
	// LifecycleUnopened means the engine session exists but was never opened.
	LifecycleUnopened Lifecycle = iota
	// LifecycleOpen means the engine session is open, active or not.
	LifecycleOpen
	// LifecycleSuspended means the engine session was released, and will be
	// rebuilt from the saved state on activation.
	LifecycleSuspended
	// LifecycleRecreating is entered while a crashed or killed engine
	// session is replaced.
	LifecycleRecreating
	// LifecycleClosed is terminal.
	LifecycleClosed
)

func (x WebXRState) String() string {
	switch x {
	case WebXRUnused:
		return `unused`
	case WebXRUsed:
		return `used`
	case WebXRBlocked:
		return `blocked`
	default:
		return `unknown`
	}
}

func (x PopUpState) String() string {
	switch x {
	case PopUpUnused:
		return `unused`
	case PopUpBlocked:
		return `blocked`
	case PopUpAllowed:
		return `allowed`
	default:
		return `unknown`
	}
}

func (x DrmState) String() string {
	switch x {
	case DrmUnused:
		return `unused`
	case DrmBlocked:
		return `blocked`
	case DrmAllowed:
		return `allowed`
	default:
		return `unknown`
	}
}

func (x Lifecycle) String() string {
	switch x {
	case LifecycleUnopened:
		return `unopened`
	case LifecycleOpen:
		return `open`
	case LifecycleSuspended:
		return `suspended`
	case LifecycleRecreating:
		return `recreating`
	case LifecycleClosed:
		return `closed`
	default:
		return `unknown`
	}
}

// State is the mutable state of one browsing session. It is owned by its
// [Session], and only touched from the session's execution context.
type State struct {
	ID       string
	ParentID string

	// Engine is nil while the session is suspended.
	Engine  engine.Session
	Display engine.Display

	CanGoBack    bool
	CanGoForward bool
	IsLoading    bool

	URI         string
	PreviousURI string
	Title       string
	FullScreen  bool
	Security    *engine.SecurityInformation

	Media []*Media

	WebXR WebXRState
	PopUp PopUpState
	Drm   DrmState

	Active       bool
	InputActive  bool
	WebExtension bool
	LastUse      time.Time

	// SessionState is the engine state blob, used to restore history on
	// resume.
	SessionState *engine.StateBlob

	Settings engine.Settings
	Region   string
}

// Snapshot is the serialisable subset of [State], used to persist suspended
// sessions.
type Snapshot struct {
	ID           string            `json:"id"`
	ParentID     string            `json:"parentId,omitempty"`
	URI          string            `json:"uri,omitempty"`
	PreviousURI  string            `json:"previousUri,omitempty"`
	Title        string            `json:"title,omitempty"`
	CanGoBack    bool              `json:"canGoBack,omitempty"`
	CanGoForward bool              `json:"canGoForward,omitempty"`
	WebExtension bool              `json:"webExtension,omitempty"`
	LastUse      time.Time         `json:"lastUse"`
	SessionState *engine.StateBlob `json:"sessionState,omitempty"`
	Settings     engine.Settings   `json:"settings"`
	Region       string            `json:"region,omitempty"`
}

// NewState returns state for a fresh session, with a new identity.
func NewState(settings engine.Settings) *State {
	return &State{
		ID:       newID(),
		Settings: settings,
	}
}

func newID() string {
	return uuid.NewString()
}

// Recreate returns a copy of the state under a new identity, without the
// engine resources, for rebuilding a session that crashed. Navigation state
// carries over. Full screen does not, the new engine session starts windowed.
func (x *State) Recreate() *State {
	return &State{
		ID:           newID(),
		ParentID:     x.ParentID,
		CanGoBack:    x.CanGoBack,
		CanGoForward: x.CanGoForward,
		URI:          x.URI,
		PreviousURI:  x.PreviousURI,
		Title:        x.Title,
		WebExtension: x.WebExtension,
		LastUse:      x.LastUse,
		SessionState: x.SessionState.Clone(),
		Settings:     x.Settings,
		Region:       x.Region,
	}
}

// Snapshot returns the serialisable subset of the state.
func (x *State) Snapshot() Snapshot {
	return Snapshot{
		ID:           x.ID,
		ParentID:     x.ParentID,
		URI:          x.URI,
		PreviousURI:  x.PreviousURI,
		Title:        x.Title,
		CanGoBack:    x.CanGoBack,
		CanGoForward: x.CanGoForward,
		WebExtension: x.WebExtension,
		LastUse:      x.LastUse,
		SessionState: x.SessionState.Clone(),
		Settings:     x.Settings,
		Region:       x.Region,
	}
}

// FromSnapshot rebuilds suspended state from a snapshot. A snapshot without
// an ID gets a new one.
func FromSnapshot(s Snapshot) *State {
	x := &State{
		ID:           s.ID,
		ParentID:     s.ParentID,
		URI:          s.URI,
		PreviousURI:  s.PreviousURI,
		Title:        s.Title,
		CanGoBack:    s.CanGoBack,
		CanGoForward: s.CanGoForward,
		WebExtension: s.WebExtension,
		LastUse:      s.LastUse,
		SessionState: s.SessionState.Clone(),
		Settings:     s.Settings,
		Region:       s.Region,
	}
	if x.ID == `` {
		x.ID = newID()
	}
	return x
}

func (x *State) mediaIndex(element engine.MediaElement) int {
	return slices.IndexFunc(x.Media, func(m *Media) bool { return m.element == element })
}
