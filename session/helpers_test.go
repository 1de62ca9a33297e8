package session

import (
	"bytes"
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-browsersession/engine"
	"github.com/joeycumines/go-browsersession/internal/enginetest"
	"github.com/joeycumines/go-browsersession/result"
)

type testClock struct{ now time.Time }

func (x *testClock) Now() time.Time { return x.now }

func (x *testClock) Advance(d time.Duration) { x.now = x.now.Add(d) }

type testHarness struct {
	registry *Registry
	factory  *enginetest.Factory
	clock    *testClock
	logs     *bytes.Buffer
}

func newTestHarness(t *testing.T, opts ...Option) *testHarness {
	t.Helper()
	h := &testHarness{
		factory: new(enginetest.Factory),
		clock:   &testClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		logs:    new(bytes.Buffer),
	}
	r, err := NewRegistry(append([]Option{
		WithEngineFactory(h.factory),
		WithClock(h.clock.Now),
		WithLogger(NewLogger(h.logs, logiface.LevelDebug)),
		WithRuntime(`test-runtime`),
	}, opts...)...)
	require.NoError(t, err)
	h.registry = r
	return h
}

// openSession creates an open, active session with a page loaded.
func (x *testHarness) openSession(t *testing.T, uri string) (*Session, *enginetest.Engine) {
	t.Helper()
	s, err := x.registry.CreateSession(engine.Settings{}, OpenModeOpen)
	require.NoError(t, err)
	e := x.engineOf(t, s)
	if uri != `` {
		e.Navigation().OnLocationChange(e, uri)
	}
	return s, e
}

func (x *testHarness) engineOf(t *testing.T, s *Session) *enginetest.Engine {
	t.Helper()
	e, ok := s.Engine().(*enginetest.Engine)
	require.True(t, ok, `session has no fake engine`)
	return e
}

// eventLog collects the events of the recording listeners, shared so tests
// can check the relative order of different categories.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (x *eventLog) add(event string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.events = append(x.events, event)
}

func (x *eventLog) Events() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return slices.Clone(x.events)
}

func (x *eventLog) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.events = nil
}

type navigationRecorder struct {
	engine.UnimplementedNavigationDelegate
	log    *eventLog
	answer func(req engine.LoadRequest) *result.Result[engine.AllowOrDeny]
}

func (x *navigationRecorder) OnLocationChange(_ engine.Session, uri string) {
	x.log.add(`location:` + uri)
}

func (x *navigationRecorder) OnCanGoBack(_ engine.Session, canGoBack bool) {
	x.log.add(`back:` + boolString(canGoBack))
}

func (x *navigationRecorder) OnCanGoForward(_ engine.Session, canGoForward bool) {
	x.log.add(`forward:` + boolString(canGoForward))
}

func (x *navigationRecorder) OnLoadRequest(_ engine.Session, req engine.LoadRequest) *result.Result[engine.AllowOrDeny] {
	x.log.add(`load:` + req.URI)
	if x.answer == nil {
		return nil
	}
	return x.answer(req)
}

type progressRecorder struct {
	engine.UnimplementedProgressDelegate
	log *eventLog
}

func (x *progressRecorder) OnPageStart(_ engine.Session, uri string) { x.log.add(`start:` + uri) }

func (x *progressRecorder) OnPageStop(_ engine.Session, success bool) {
	x.log.add(`stop:` + boolString(success))
}

func (x *progressRecorder) OnSecurityChange(_ engine.Session, info engine.SecurityInformation) {
	x.log.add(`secure:` + boolString(info.IsSecure))
}

type contentRecorder struct {
	engine.UnimplementedContentDelegate
	log *eventLog
}

func (x *contentRecorder) OnTitleChange(_ engine.Session, title string) { x.log.add(`title:` + title) }

func (x *contentRecorder) OnFullScreen(_ engine.Session, fullScreen bool) {
	x.log.add(`fullscreen:` + boolString(fullScreen))
}

func (x *contentRecorder) OnCloseRequest(engine.Session) { x.log.add(`close`) }

func (x *contentRecorder) OnFirstComposite(engine.Session) { x.log.add(`composite`) }

func (x *contentRecorder) OnFirstContentfulPaint(engine.Session) { x.log.add(`fcp`) }

type changeRecorder struct {
	UnimplementedChangeListener
	log *eventLog
}

func (x *changeRecorder) OnSessionAdded(s *Session) { x.log.add(`added`) }

func (x *changeRecorder) OnSessionOpened(s *Session) { x.log.add(`opened`) }

func (x *changeRecorder) OnSessionClosed(s *Session) { x.log.add(`closed`) }

func (x *changeRecorder) OnSessionRemoved(id string) { x.log.add(`removed:` + id) }

func (x *changeRecorder) OnSessionStateChanged(s *Session, active bool) {
	x.log.add(`active:` + boolString(active))
}

func (x *changeRecorder) OnCurrentSessionChange(old, current engine.Session) {
	x.log.add(`current`)
}

func (x *changeRecorder) OnStackSession(child *Session) { x.log.add(`stack:` + child.ID()) }

func (x *changeRecorder) OnUnstackSession(s, parent *Session) {
	x.log.add(`unstack:` + parent.ID())
}

type stateRecorder struct {
	log *eventLog
}

func (x *stateRecorder) OnVideoAvailabilityChanged(_ *Media, available bool) {
	x.log.add(`video:` + boolString(available))
}

func (x *stateRecorder) OnWebXRStateChanged(_ engine.Session, state WebXRState) {
	x.log.add(`webxr:` + state.String())
}

func (x *stateRecorder) OnPopUpStateChanged(_ engine.Session, state PopUpState) {
	x.log.add(`popup:` + state.String())
}

func (x *stateRecorder) OnDrmStateChanged(_ engine.Session, state DrmState) {
	x.log.add(`drm:` + state.String())
}

func boolString(v bool) string {
	if v {
		return `true`
	}
	return `false`
}

// memoryStore is an in-memory [SnapshotStore].
type memoryStore struct {
	mu        sync.Mutex
	snapshots map[string]Snapshot
	order     []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{snapshots: make(map[string]Snapshot)}
}

func (x *memoryStore) Put(_ context.Context, snapshot Snapshot) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.snapshots[snapshot.ID]; !ok {
		x.order = append(x.order, snapshot.ID)
	}
	x.snapshots[snapshot.ID] = snapshot
	return nil
}

func (x *memoryStore) Delete(_ context.Context, id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.snapshots, id)
	x.order = slices.DeleteFunc(x.order, func(v string) bool { return v == id })
	return nil
}

func (x *memoryStore) List(context.Context) ([]Snapshot, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	snapshots := make([]Snapshot, 0, len(x.order))
	for _, id := range x.order {
		snapshots = append(snapshots, x.snapshots[id])
	}
	return snapshots, nil
}
