package engine

// UserAgentMode selects the user agent a session presents.
type UserAgentMode int

const (
	UserAgentModeMobile UserAgentMode = iota
	UserAgentModeDesktop
	UserAgentModeVR
)

func (x UserAgentMode) String() string {
	switch x {
	case UserAgentModeMobile:
		return `mobile`
	case UserAgentModeDesktop:
		return `desktop`
	case UserAgentModeVR:
		return `vr`
	default:
		return `unknown`
	}
}

// ViewportMode selects the layout viewport a session uses.
type ViewportMode int

const (
	ViewportModeMobile ViewportMode = iota
	ViewportModeDesktop
)

// Settings configure an engine session.
type Settings struct {
	// UserAgentOverride replaces the user agent string when non-empty.
	UserAgentOverride string `json:"userAgentOverride,omitempty"`

	UserAgentMode UserAgentMode `json:"userAgentMode"`
	ViewportMode  ViewportMode  `json:"viewportMode"`

	UsePrivateMode           bool `json:"usePrivateMode,omitempty"`
	UseTrackingProtection    bool `json:"useTrackingProtection,omitempty"`
	SuspendMediaWhenInactive bool `json:"suspendMediaWhenInactive,omitempty"`
}
