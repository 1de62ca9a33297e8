// Package engine defines the contract between browsing sessions and a web
// rendering engine: the per-tab engine [Session] resource, the delegate
// callback surfaces the engine reports through, and the typed payloads that
// flow over them.
//
// Engine adapters implement [Session] and invoke the delegates set on it.
// Everything here is in-process, there is no wire protocol.
package engine

import (
	"errors"

	"github.com/joeycumines/go-browsersession/result"
)

var (
	// ErrNotOpen is returned when acting on an engine session that is not open.
	ErrNotOpen = errors.New(`engine: session is not open`)

	// ErrAlreadyOpen is returned by Open on an engine session that is open.
	ErrAlreadyOpen = errors.New(`engine: session is already open`)

	// ErrDisplayAcquired is returned by AcquireDisplay while a display is held.
	ErrDisplayAcquired = errors.New(`engine: display already acquired`)

	// ErrInvalidDisplay is returned by ReleaseDisplay for a display that the
	// session did not hand out, or already took back.
	ErrInvalidDisplay = errors.New(`engine: invalid display`)
)

type (
	// Session is the engine resource backing one browsing session (a tab).
	//
	// Methods that act on the page fail with [ErrNotOpen] unless the session
	// is open. The delegate setters may be called at any time, a nil value
	// detaches the delegate.
	Session interface {
		IsOpen() bool
		Open(runtime Runtime) error
		SetActive(active bool) error
		Stop() error
		Close() error

		LoadURI(uri string, flags LoadFlags) error
		LoadData(data []byte, contentType string) error
		Reload(flags LoadFlags) error
		GoBack() error
		GoForward() error
		PurgeHistory() error
		ExitFullScreen() error
		RestoreState(state *StateBlob) error

		// AcquireDisplay hands out the session's single display.
		AcquireDisplay() (Display, error)
		ReleaseDisplay(display Display) error

		// Settings returns the live settings of the session, which the engine
		// reads on each load.
		Settings() *Settings

		SetNavigationDelegate(delegate NavigationDelegate)
		SetProgressDelegate(delegate ProgressDelegate)
		SetContentDelegate(delegate ContentDelegate)
		SetTextInputDelegate(delegate TextInputDelegate)
		SetPermissionDelegate(delegate PermissionDelegate)
		SetPromptDelegate(delegate PromptDelegate)
		SetMediaDelegate(delegate MediaDelegate)
		SetHistoryDelegate(delegate HistoryDelegate)
		SetSelectionActionDelegate(delegate SelectionActionDelegate)
		SetContentBlockingDelegate(delegate ContentBlockingDelegate)
	}

	// Display is the rendering target of a session.
	Display interface {
		SurfaceChanged(surface Surface, left, top, width, height int)
		SurfaceDestroyed()
	}

	// Surface is an opaque platform drawing surface.
	Surface any

	// Runtime is the opaque, process-wide engine runtime a session is opened
	// against.
	Runtime any

	// Factory creates unopened engine sessions.
	Factory interface {
		NewSession(settings Settings) Session
	}

	// FactoryFunc adapts a function to a [Factory].
	FactoryFunc func(settings Settings) Session
)

// NewSession implements Factory.
func (f FactoryFunc) NewSession(settings Settings) Session {
	return f(settings)
}

// AllowResult returns a completed [Allow] answer owned by exec.
func AllowResult(exec result.Executor) *result.Result[AllowOrDeny] {
	return result.FromValue(exec, Allow)
}

// DenyResult returns a completed [Deny] answer owned by exec.
func DenyResult(exec result.Executor) *result.Result[AllowOrDeny] {
	return result.FromValue(exec, Deny)
}
