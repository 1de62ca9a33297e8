package engine

import (
	"strconv"
	"strings"
)

// LoadFlags modify how [Session.LoadURI] and [Session.Reload] load content.
type LoadFlags uint32

const (
	LoadFlagsNone              LoadFlags = 0
	LoadFlagsBypassCache       LoadFlags = 1 << 0
	LoadFlagsBypassProxy       LoadFlags = 1 << 1
	LoadFlagsExternal          LoadFlags = 1 << 2
	LoadFlagsAllowPopups       LoadFlags = 1 << 3
	LoadFlagsBypassClassifier  LoadFlags = 1 << 4
	LoadFlagsForceAllowDataURI LoadFlags = 1 << 5
	LoadFlagsReplaceHistory    LoadFlags = 1 << 6
)

var loadFlagNames = [...]string{
	`BypassCache`,
	`BypassProxy`,
	`External`,
	`AllowPopups`,
	`BypassClassifier`,
	`ForceAllowDataURI`,
	`ReplaceHistory`,
}

// Has reports whether every bit in flag is set.
func (x LoadFlags) Has(flag LoadFlags) bool {
	return x&flag == flag
}

func (x LoadFlags) String() string {
	if x == LoadFlagsNone {
		return `None`
	}
	var b strings.Builder
	for i, name := range loadFlagNames {
		if x&(1<<i) == 0 {
			continue
		}
		if b.Len() != 0 {
			b.WriteByte('|')
		}
		b.WriteString(name)
	}
	if rest := x &^ (1<<len(loadFlagNames) - 1); rest != 0 {
		if b.Len() != 0 {
			b.WriteByte('|')
		}
		b.WriteString(`0x`)
		b.WriteString(strconv.FormatUint(uint64(rest), 16))
	}
	return b.String()
}

// VisitFlags describe a visit reported to [HistoryDelegate.OnVisited].
type VisitFlags uint32

const (
	VisitTopLevel VisitFlags = 1 << iota
	VisitRedirectTemporary
	VisitRedirectPermanent
	VisitRedirectSource
	VisitRedirectSourcePermanent
	VisitUnrecoverableError
)

// TargetWindow is where a [LoadRequest] wants its content to go.
type TargetWindow int

const (
	TargetWindowNone TargetWindow = iota
	TargetWindowCurrent
	TargetWindowNew
)

// AllowOrDeny is the answer to a load request.
type AllowOrDeny int

const (
	Allow AllowOrDeny = iota
	Deny
)

func (x AllowOrDeny) String() string {
	switch x {
	case Allow:
		return `ALLOW`
	case Deny:
		return `DENY`
	default:
		return `AllowOrDeny(` + strconv.Itoa(int(x)) + `)`
	}
}

// PermissionType identifies a content permission request.
type PermissionType int

const (
	PermissionGeolocation PermissionType = iota
	PermissionDesktopNotification
	PermissionPersistentStorage
	PermissionXR
	PermissionAutoplayInaudible
	PermissionAutoplayAudible
	PermissionMediaKeySystemAccess
)

// RestartReason is passed to [TextInputDelegate.RestartInput].
type RestartReason int

const (
	RestartReasonFocus RestartReason = iota
	RestartReasonBlur
	RestartReasonContentChange
)
