// Package enginetest implements an in-memory engine session, for testing the
// session package without a rendering engine.
//
// [Engine] enforces the programming-fault contract of [engine.Session], and
// records every call it receives. Tests drive engine callbacks by invoking
// the delegates the session under test attached, see [Engine.Navigation] and
// friends.
package enginetest

import (
	"fmt"
	"slices"
	"sync"

	"github.com/joeycumines/go-browsersession/engine"
)

type (
	// Engine is a fake [engine.Session].
	Engine struct {
		settings engine.Settings
		runtime  engine.Runtime
		display  *Display
		restored *engine.StateBlob
		calls    []Call

		navigation      engine.NavigationDelegate
		progress        engine.ProgressDelegate
		content         engine.ContentDelegate
		textInput       engine.TextInputDelegate
		permission      engine.PermissionDelegate
		prompt          engine.PromptDelegate
		media           engine.MediaDelegate
		history         engine.HistoryDelegate
		selectionAction engine.SelectionActionDelegate
		contentBlocking engine.ContentBlockingDelegate

		failures map[string]error

		mu     sync.Mutex
		open   bool
		active bool
		closed bool
	}

	// Call is a recorded method invocation.
	Call struct {
		Method string
		Args   []any
	}

	// Display is the fake [engine.Display].
	Display struct {
		engine    *Engine
		Surface   engine.Surface
		Left      int
		Top       int
		Width     int
		Height    int
		Destroyed bool
	}

	// Factory is a fake [engine.Factory] that keeps every session it creates.
	Factory struct {
		sessions []*Engine
		mu       sync.Mutex
	}
)

var (
	_ engine.Session = (*Engine)(nil)
	_ engine.Display = (*Display)(nil)
	_ engine.Factory = (*Factory)(nil)
)

// New returns an unopened engine using settings.
func New(settings engine.Settings) *Engine {
	return &Engine{settings: settings}
}

func (c Call) String() string {
	return fmt.Sprintf(`%s%v`, c.Method, c.Args)
}

func (x *Engine) record(method string, args ...any) {
	x.calls = append(x.calls, Call{Method: method, Args: args})
}

// FailOn makes every later call to method fail with err, without recording
// it. A nil err clears the failure.
func (x *Engine) FailOn(method string, err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err == nil {
		delete(x.failures, method)
		return
	}
	if x.failures == nil {
		x.failures = make(map[string]error)
	}
	x.failures[method] = err
}

// check fails with [engine.ErrNotOpen] if the engine is not open, or with the
// error set by FailOn. The caller must hold the lock.
func (x *Engine) check(method string) error {
	if !x.open {
		return fmt.Errorf(`%s: %w`, method, engine.ErrNotOpen)
	}
	if err := x.failures[method]; err != nil {
		return fmt.Errorf(`%s: %w`, method, err)
	}
	return nil
}

// mutate records the call, failing as described by check.
func (x *Engine) mutate(method string, args ...any) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.check(method); err != nil {
		return err
	}
	x.record(method, args...)
	return nil
}

// Calls returns every recorded call, in order.
func (x *Engine) Calls() []Call {
	x.mu.Lock()
	defer x.mu.Unlock()
	return slices.Clone(x.calls)
}

// Methods returns the method names of [Engine.Calls].
func (x *Engine) Methods() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	methods := make([]string, len(x.calls))
	for i, c := range x.calls {
		methods[i] = c.Method
	}
	return methods
}

// LastCall returns the most recent call to method.
func (x *Engine) LastCall(method string) (Call, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for i := len(x.calls) - 1; i >= 0; i-- {
		if x.calls[i].Method == method {
			return x.calls[i], true
		}
	}
	return Call{}, false
}

// Count returns the number of calls to method.
func (x *Engine) Count(method string) (n int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, c := range x.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// IsActive reports the last value passed to SetActive while open.
func (x *Engine) IsActive() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.active
}

// IsClosed reports whether Close was called.
func (x *Engine) IsClosed() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.closed
}

// Runtime returns the runtime the engine was opened with.
func (x *Engine) Runtime() engine.Runtime {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.runtime
}

// Restored returns the blob of the last RestoreState call.
func (x *Engine) Restored() *engine.StateBlob {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.restored
}

// Display returns the acquired display, or nil.
func (x *Engine) Display() *Display {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.display
}

func (x *Engine) IsOpen() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.open
}

func (x *Engine) Open(runtime engine.Runtime) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.open {
		return engine.ErrAlreadyOpen
	}
	x.open = true
	x.closed = false
	x.runtime = runtime
	x.record(`Open`)
	return nil
}

func (x *Engine) SetActive(active bool) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.check(`SetActive`); err != nil {
		return err
	}
	x.active = active
	x.record(`SetActive`, active)
	return nil
}

func (x *Engine) Stop() error { return x.mutate(`Stop`) }

func (x *Engine) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.open {
		return fmt.Errorf(`Close: %w`, engine.ErrNotOpen)
	}
	x.open = false
	x.active = false
	x.closed = true
	x.record(`Close`)
	return nil
}

func (x *Engine) LoadURI(uri string, flags engine.LoadFlags) error {
	return x.mutate(`LoadURI`, uri, flags)
}

func (x *Engine) LoadData(data []byte, contentType string) error {
	return x.mutate(`LoadData`, string(data), contentType)
}

func (x *Engine) Reload(flags engine.LoadFlags) error { return x.mutate(`Reload`, flags) }

func (x *Engine) GoBack() error { return x.mutate(`GoBack`) }

func (x *Engine) GoForward() error { return x.mutate(`GoForward`) }

func (x *Engine) PurgeHistory() error { return x.mutate(`PurgeHistory`) }

func (x *Engine) ExitFullScreen() error { return x.mutate(`ExitFullScreen`) }

func (x *Engine) RestoreState(state *engine.StateBlob) error {
	if err := x.mutate(`RestoreState`, state.String()); err != nil {
		return err
	}
	x.mu.Lock()
	x.restored = state
	x.mu.Unlock()
	return nil
}

func (x *Engine) AcquireDisplay() (engine.Display, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.open {
		return nil, fmt.Errorf(`AcquireDisplay: %w`, engine.ErrNotOpen)
	}
	if x.display != nil {
		return nil, engine.ErrDisplayAcquired
	}
	x.display = &Display{engine: x}
	x.record(`AcquireDisplay`)
	return x.display, nil
}

func (x *Engine) ReleaseDisplay(display engine.Display) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	d, ok := display.(*Display)
	if !ok || d == nil || d != x.display {
		return engine.ErrInvalidDisplay
	}
	x.display = nil
	x.record(`ReleaseDisplay`)
	return nil
}

func (x *Engine) Settings() *engine.Settings { return &x.settings }

func (x *Engine) SetNavigationDelegate(d engine.NavigationDelegate) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.navigation = d
}

func (x *Engine) SetProgressDelegate(d engine.ProgressDelegate) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.progress = d
}

func (x *Engine) SetContentDelegate(d engine.ContentDelegate) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.content = d
}

func (x *Engine) SetTextInputDelegate(d engine.TextInputDelegate) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.textInput = d
}

func (x *Engine) SetPermissionDelegate(d engine.PermissionDelegate) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.permission = d
}

func (x *Engine) SetPromptDelegate(d engine.PromptDelegate) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.prompt = d
}

func (x *Engine) SetMediaDelegate(d engine.MediaDelegate) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.media = d
}

func (x *Engine) SetHistoryDelegate(d engine.HistoryDelegate) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.history = d
}

func (x *Engine) SetSelectionActionDelegate(d engine.SelectionActionDelegate) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.selectionAction = d
}

func (x *Engine) SetContentBlockingDelegate(d engine.ContentBlockingDelegate) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.contentBlocking = d
}

func (x *Engine) Navigation() engine.NavigationDelegate {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.navigation
}

func (x *Engine) Progress() engine.ProgressDelegate {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.progress
}

func (x *Engine) Content() engine.ContentDelegate {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.content
}

func (x *Engine) TextInput() engine.TextInputDelegate {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.textInput
}

func (x *Engine) Permission() engine.PermissionDelegate {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.permission
}

func (x *Engine) Prompt() engine.PromptDelegate {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.prompt
}

func (x *Engine) Media() engine.MediaDelegate {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.media
}

func (x *Engine) History() engine.HistoryDelegate {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.history
}

func (x *Engine) SelectionAction() engine.SelectionActionDelegate {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.selectionAction
}

func (x *Engine) ContentBlocking() engine.ContentBlockingDelegate {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.contentBlocking
}

// SurfaceChanged implements engine.Display.
func (x *Display) SurfaceChanged(surface engine.Surface, left, top, width, height int) {
	x.Surface = surface
	x.Left, x.Top, x.Width, x.Height = left, top, width, height
	x.Destroyed = false
}

// SurfaceDestroyed implements engine.Display.
func (x *Display) SurfaceDestroyed() {
	x.Surface = nil
	x.Destroyed = true
}

// NewSession implements engine.Factory.
func (x *Factory) NewSession(settings engine.Settings) engine.Session {
	e := New(settings)
	x.mu.Lock()
	x.sessions = append(x.sessions, e)
	x.mu.Unlock()
	return e
}

// Sessions returns every session created, oldest first.
func (x *Factory) Sessions() []*Engine {
	x.mu.Lock()
	defer x.mu.Unlock()
	return slices.Clone(x.sessions)
}

// Last returns the most recently created session, or nil.
func (x *Factory) Last() *Engine {
	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.sessions) == 0 {
		return nil
	}
	return x.sessions[len(x.sessions)-1]
}
