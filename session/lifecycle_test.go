package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-browsersession/engine"
	"github.com/joeycumines/go-browsersession/internal/enginetest"
)

func TestRegistry_CreateSession(t *testing.T) {
	h := newTestHarness(t)
	log := new(eventLog)
	h.registry.AddSessionChangeListener(&changeRecorder{log: log})

	s, err := h.registry.CreateSession(engine.Settings{}, OpenModeOpen)
	require.NoError(t, err)
	e := h.engineOf(t, s)

	assert.Equal(t, LifecycleOpen, s.Lifecycle())
	assert.True(t, s.IsActive())
	assert.True(t, e.IsActive())
	assert.Equal(t, `test-runtime`, e.Runtime())
	assert.Equal(t, []string{`Open`, `SetActive`}, e.Methods())
	assert.Equal(t, []string{`added`, `opened`, `active:true`}, log.Events())
	assert.Same(t, s, h.registry.Get(s.ID()))

	unopened, err := h.registry.CreateSession(engine.Settings{}, OpenModeDoNotOpen)
	require.NoError(t, err)
	assert.Equal(t, LifecycleUnopened, unopened.Lifecycle())
	assert.False(t, unopened.IsActive())
	assert.NotEqual(t, s.ID(), unopened.ID())
	assert.Equal(t, []*Session{s, unopened}, h.registry.Sessions())
}

func TestSession_suspendResume(t *testing.T) {
	h := newTestHarness(t)
	s, e := h.openSession(t, `https://example.com/page`)
	e.Content().OnTitleChange(e, `Page`)
	id := s.ID()

	log := new(eventLog)
	s.AddSessionChangeListener(&changeRecorder{log: log})
	navLog := new(eventLog)
	s.AddNavigationListener(&navigationRecorder{log: navLog})
	e.Navigation().OnCanGoBack(e, true)
	e.Navigation().OnCanGoForward(e, true)
	navLog.Reset()

	assert.ErrorIs(t, s.Suspend(), ErrActive)
	assert.Equal(t, LifecycleOpen, s.Lifecycle())

	require.NoError(t, s.SetActive(false))
	require.NoError(t, s.Suspend())
	assert.Equal(t, LifecycleSuspended, s.Lifecycle())
	assert.Nil(t, s.Engine())
	assert.True(t, e.IsClosed())
	assert.Nil(t, e.Navigation(), `suspended engine session still delegates to the session`)
	assert.Equal(t, []string{`active:false`, `closed`, `removed:` + id}, log.Events())

	// suspending again is a no-op
	require.NoError(t, s.Suspend())
	assert.ErrorIs(t, s.LoadURI(`https://example.com`, engine.LoadFlagsNone), ErrSuspended)

	log.Reset()
	require.NoError(t, s.SetActive(true))
	resumed := h.engineOf(t, s)
	assert.NotSame(t, e, resumed)
	assert.Equal(t, id, s.ID(), `identity kept across suspension`)
	assert.Equal(t, LifecycleOpen, s.Lifecycle())
	assert.True(t, resumed.IsActive())
	assert.Equal(t, []string{`Open`, `LoadURI`, `SetActive`}, resumed.Methods())
	c, _ := resumed.LastCall(`LoadURI`)
	assert.Equal(t, []any{`https://example.com/page`, engine.LoadFlagsNone}, c.Args)
	assert.Equal(t, []string{`added`, `opened`, `active:true`}, log.Events())
	assert.Equal(t, `Page`, s.CurrentTitle())

	// listeners registered before suspension catch up with the same flags
	assert.Equal(t, []string{`back:true`, `forward:true`, `location:https://example.com/page`}, navLog.Events())
	assert.True(t, s.CanGoBack())
	assert.True(t, s.CanGoForward())
}

func TestSession_restoreContent(t *testing.T) {
	blob := engine.ParseStateBlob(`{"history":{"index":0,"fromIdx":-1,"entries":[{"url":"https://www.youtube.com/watch?v=1","title":"Video"}]}}`)
	require.NotNil(t, blob)

	for _, tc := range []struct {
		name    string
		state   *State
		methods []string
		check   func(t *testing.T, h *testHarness, e *enginetest.Engine)
	}{
		{
			name:    `home page`,
			state:   &State{},
			methods: []string{`Open`, `LoadURI`, `SetActive`},
			check: func(t *testing.T, h *testHarness, e *enginetest.Engine) {
				c, _ := e.LastCall(`LoadURI`)
				assert.Equal(t, []any{defaultHomePage, engine.LoadFlagsNone}, c.Args)
			},
		},
		{
			name:    `private page`,
			state:   &State{Settings: engine.Settings{UsePrivateMode: true}},
			methods: []string{`Open`, `LoadData`, `SetActive`},
			check: func(t *testing.T, h *testHarness, e *enginetest.Engine) {
				c, _ := e.LastCall(`LoadData`)
				assert.Equal(t, []any{defaultPrivatePage, `text/html`}, c.Args)
				assert.True(t, e.Settings().UseTrackingProtection)
			},
		},
		{
			name:    `data uri falls back to home page`,
			state:   &State{URI: `data:text/html,hello`, SessionState: blob},
			methods: []string{`Open`, `LoadURI`, `SetActive`},
		},
		{
			name:    `state blob`,
			state:   &State{URI: `https://example.com`, SessionState: engine.ParseStateBlob(`{"history":{"index":0,"fromIdx":-1,"entries":[{"url":"https://example.com","title":""}]}}`)},
			methods: []string{`Open`, `RestoreState`, `SetActive`},
			check: func(t *testing.T, h *testHarness, e *enginetest.Engine) {
				assert.Equal(t, 1, e.Restored().Len())
			},
		},
		{
			name:    `state blob reloads video sites`,
			state:   &State{URI: `https://www.youtube.com/watch?v=1`, SessionState: blob},
			methods: []string{`Open`, `RestoreState`, `LoadURI`, `SetActive`},
			check: func(t *testing.T, h *testHarness, e *enginetest.Engine) {
				c, _ := e.LastCall(`LoadURI`)
				assert.Equal(t, []any{`https://www.youtube.com/watch?v=1`, engine.LoadFlagsReplaceHistory}, c.Args)
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHarness(t)
			s := h.registry.CreateSuspendedSession(tc.state)
			assert.Equal(t, LifecycleSuspended, s.Lifecycle())

			require.NoError(t, s.SetActive(true))
			e := h.engineOf(t, s)
			assert.Equal(t, tc.methods, e.Methods())
			if tc.check != nil {
				tc.check(t, h, e)
			}
		})
	}
}

func TestSession_keepAlive(t *testing.T) {
	h := newTestHarness(t)
	parent, e := h.openSession(t, `https://example.com`)

	log := new(eventLog)
	parent.AddSessionChangeListener(&changeRecorder{log: log})

	out := e.Navigation().OnNewSession(e, `https://example.com/popup`)
	childEngine := out.Value()
	require.NotNil(t, childEngine)
	child := h.registry.Sessions()[1]
	assert.Same(t, childEngine, child.Engine())
	assert.Equal(t, parent.ID(), child.ParentID())
	assert.Same(t, parent, child.Parent())
	assert.Equal(t, LifecycleUnopened, child.Lifecycle())
	assert.Equal(t, []string{`stack:` + child.ID()}, log.Events())

	require.NoError(t, parent.SetActive(false))
	assert.ErrorIs(t, parent.Suspend(), ErrKeepAlive)
	assert.Contains(t, h.logs.String(), `refusing to suspend a kept alive session`)

	h.clock.Advance(defaultKeepAlive)
	require.NoError(t, parent.Suspend())
	assert.Equal(t, LifecycleSuspended, parent.Lifecycle())
}

func TestSession_keepAliveDisabled(t *testing.T) {
	h := newTestHarness(t, WithConfig(Config{KeepAlive: -1}))
	parent, e := h.openSession(t, ``)
	e.Navigation().OnNewSession(e, `https://example.com/popup`)
	require.NoError(t, parent.SetActive(false))
	require.NoError(t, parent.Suspend())
}

func TestSession_parentChild(t *testing.T) {
	h := newTestHarness(t)
	parent, e := h.openSession(t, `https://example.com`)
	e.Navigation().OnNewSession(e, `https://example.com/popup`)
	child := h.registry.Sessions()[1]
	require.NoError(t, child.Open())
	ce := h.engineOf(t, child)

	log := new(eventLog)
	child.AddSessionChangeListener(&changeRecorder{log: log})
	nav := &navigationRecorder{log: log}
	child.AddNavigationListener(nav)
	log.Reset()

	assert.True(t, child.CanGoBack(), `parent without a display can be returned to`)
	require.NoError(t, child.GoBack())
	assert.Equal(t, []string{`unstack:` + parent.ID()}, log.Events())
	assert.Zero(t, ce.Count(`GoBack`))

	// a displayed parent can not be unstacked to
	require.NoError(t, parent.SurfaceChanged(`surface`, 0, 0, 100, 100))
	assert.False(t, child.CanGoBack())

	log.Reset()
	parent.Shutdown()
	assert.Empty(t, child.ParentID())
	assert.Nil(t, child.Parent())
	// once on deactivation, once on removal
	assert.Equal(t, []string{`back:false`, `back:false`}, log.Events())
}

func TestSession_crashRecreates(t *testing.T) {
	h := newTestHarness(t)
	s, e := h.openSession(t, `https://example.com`)
	oldID := s.ID()

	log := new(eventLog)
	s.AddSessionChangeListener(&changeRecorder{log: log})
	s.AddContentListener(&contentRecorder{log: log})
	log.Reset()

	content := e.Content()
	content.OnCrash(e)

	assert.NotEqual(t, oldID, s.ID())
	assert.Same(t, s, h.registry.Get(s.ID()))
	assert.Nil(t, h.registry.Get(oldID))
	assert.True(t, e.IsClosed())
	ne := h.engineOf(t, s)
	assert.NotSame(t, e, ne)
	assert.True(t, ne.IsActive())
	assert.Equal(t, LifecycleOpen, s.Lifecycle())
	assert.Equal(t, `https://example.com`, s.CurrentURI())
	assert.Equal(t, []string{
		`closed`,
		`removed:` + oldID,
		`added`,
		`opened`,
		`title:`,
		`active:true`,
		`current`,
	}, log.Events())

	// callbacks from the dead engine session are ignored
	log.Reset()
	content.OnTitleChange(e, `stale`)
	assert.Empty(t, log.Events())
}

func TestSession_crashRecreateLeavesFullScreen(t *testing.T) {
	h := newTestHarness(t)
	s, e := h.openSession(t, `https://example.com`)
	e.Content().OnFullScreen(e, true)
	log := new(eventLog)
	s.AddContentListener(&contentRecorder{log: log})
	log.Reset()

	e.Content().OnKill(e)
	assert.False(t, s.IsInFullScreen())
	assert.Equal(t, []string{`title:`, `fullscreen:false`}, log.Events())
}

func TestSession_crashRateLimited(t *testing.T) {
	h := newTestHarness(t, WithConfig(Config{RecreateRates: map[time.Duration]int{time.Hour: 2}}))
	s, _ := h.openSession(t, `https://example.com`)

	for i := 0; i < 2; i++ {
		e := h.engineOf(t, s)
		e.Content().OnCrash(e)
		require.Equal(t, LifecycleOpen, s.Lifecycle(), `crash %d`, i)
	}

	log := new(eventLog)
	s.AddSessionChangeListener(&changeRecorder{log: log})
	id := s.ID()
	e := h.engineOf(t, s)
	e.Content().OnCrash(e)

	assert.Equal(t, LifecycleSuspended, s.Lifecycle())
	assert.Equal(t, id, s.ID())
	assert.False(t, s.IsActive())
	assert.True(t, e.IsClosed())
	assert.Equal(t, []string{`closed`, `removed:` + id}, log.Events())
	assert.Contains(t, h.logs.String(), `session crashing too often`)

	// the user can still bring it back
	require.NoError(t, s.SetActive(true))
	assert.Equal(t, LifecycleOpen, s.Lifecycle())
}

func TestSession_displayReleasedOnSuspend(t *testing.T) {
	h := newTestHarness(t)
	s, e := h.openSession(t, ``)

	require.NoError(t, s.SurfaceChanged(`surface`, 1, 2, 30, 40))
	d := e.Display()
	require.NotNil(t, d)
	assert.Equal(t, 30, d.Width)
	assert.True(t, s.HasDisplay())

	require.NoError(t, s.SurfaceChanged(`surface`, 0, 0, 50, 60))
	assert.Equal(t, 1, e.Count(`AcquireDisplay`))

	require.NoError(t, s.SetActive(false))
	require.NoError(t, s.Suspend())
	assert.True(t, d.Destroyed)
	assert.Nil(t, e.Display())
	assert.False(t, s.HasDisplay())
	assert.Equal(t, []string{`AcquireDisplay`, `SetActive`, `SetActive`, `Stop`, `ReleaseDisplay`, `Close`}, e.Methods()[2:])
}

func TestSession_Shutdown(t *testing.T) {
	h := newTestHarness(t)
	s, e := h.openSession(t, `https://example.com`)
	id := s.ID()
	h.registry.AddSessionChangeListener(&changeRecorder{log: new(eventLog)})

	require.True(t, h.registry.Remove(id))
	assert.Equal(t, LifecycleClosed, s.Lifecycle())
	assert.True(t, e.IsClosed())
	assert.Nil(t, h.registry.Get(id))
	assert.Zero(t, h.registry.Len())

	assert.False(t, h.registry.Remove(id))
	s.Shutdown()
	assert.Equal(t, 1, e.Count(`Close`))

	assert.ErrorIs(t, s.Open(), ErrClosed)
	assert.ErrorIs(t, s.SetActive(true), ErrClosed)
	assert.ErrorIs(t, s.Suspend(), ErrClosed)
	assert.ErrorIs(t, s.Reload(engine.LoadFlagsNone), ErrClosed)
}

func TestSession_ShutdownIgnoresKeepAlive(t *testing.T) {
	h := newTestHarness(t)
	s, e := h.openSession(t, ``)
	e.Navigation().OnNewSession(e, `https://example.com`)

	h.registry.Shutdown()
	assert.Equal(t, LifecycleClosed, s.Lifecycle())
	assert.True(t, e.IsClosed())
	assert.Zero(t, h.registry.Len())
}

func TestSession_SetActiveEngineError(t *testing.T) {
	h := newTestHarness(t)
	s, err := h.registry.CreateSession(engine.Settings{}, OpenModeDoNotOpen)
	require.NoError(t, err)
	log := new(eventLog)
	s.AddSessionChangeListener(&changeRecorder{log: log})
	history := new(historyRecorder)
	e := h.engineOf(t, s)
	e.History().OnVisited(e, `https://example.com`, ``, 0)
	require.Equal(t, 1, s.PendingHistoryCalls())

	assert.ErrorIs(t, s.SetActive(true), engine.ErrNotOpen)
	assert.False(t, s.IsActive())
	assert.Empty(t, log.Events(), `listeners told of a state the session is not in`)
	assert.Equal(t, 1, s.PendingHistoryCalls(), `queued calls replayed while inactive`)

	require.NoError(t, s.Open())
	log.Reset()
	require.NoError(t, s.SetActive(true))
	assert.True(t, s.IsActive())
	assert.Equal(t, []string{`active:true`}, log.Events())
	s.SetHistoryDelegate(history)
	assert.Zero(t, s.PendingHistoryCalls())
}

func TestSession_ShutdownDeactivateFails(t *testing.T) {
	h := newTestHarness(t)
	s, e := h.openSession(t, `https://example.com`)
	log := new(eventLog)
	s.AddSessionChangeListener(&changeRecorder{log: log})
	e.FailOn(`SetActive`, errors.New(`engine wedged`))

	assert.Error(t, s.SetActive(false))
	assert.True(t, s.IsActive())
	assert.Empty(t, log.Events())

	id := s.ID()
	s.Shutdown()
	assert.Equal(t, LifecycleClosed, s.Lifecycle())
	assert.False(t, e.IsOpen())
	assert.True(t, e.IsClosed())
	assert.Nil(t, s.Engine())
	assert.Nil(t, e.Navigation())
	assert.Equal(t, []string{`closed`, `removed:` + id}, log.Events())
	assert.Contains(t, h.logs.String(), `failed to deactivate session on shutdown`)
}

func TestSession_deactivateTwice(t *testing.T) {
	h := newTestHarness(t)
	s, e := h.openSession(t, ``)
	require.NoError(t, s.SetActive(false))
	require.NoError(t, s.SetActive(false))
	assert.Equal(t, 2, e.Count(`SetActive`))
	assert.False(t, e.IsActive())
}
