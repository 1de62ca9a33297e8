package session

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-browsersession/engine"
	"github.com/joeycumines/go-browsersession/internal/enginetest"
)

func TestParseConfig(t *testing.T) {
	t.Run(`empty`, func(t *testing.T) {
		c, err := ParseConfig(nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), c)
	})

	t.Run(`full`, func(t *testing.T) {
		c, err := ParseConfig([]byte(`
home_page: https://home.example/
keep_alive: 2s
user_agent_overrides:
  example.com: Custom UA
force_mobile_viewport: [".example.org"]
tracking_protection: true
recreate_rates:
  1m: 2
  1h: 10
`))
		require.NoError(t, err)
		assert.Equal(t, `https://home.example/`, c.HomePage)
		assert.Equal(t, defaultPrivatePage, c.PrivatePage)
		assert.Equal(t, 2*time.Second, c.KeepAlive)
		assert.Equal(t, map[string]string{`example.com`: `Custom UA`}, c.UserAgentOverrides)
		assert.Equal(t, []string{`.example.org`}, c.ForceMobileViewport)
		assert.True(t, c.TrackingProtection)
		assert.Equal(t, map[time.Duration]int{time.Minute: 2, time.Hour: 10}, c.RecreateRates)
	})

	t.Run(`unknown field`, func(t *testing.T) {
		_, err := ParseConfig([]byte("home: https://example.com\n"))
		assert.ErrorContains(t, err, `home`)
	})

	t.Run(`invalid rates`, func(t *testing.T) {
		_, err := ParseConfig([]byte("recreate_rates:\n  1m: 10\n  1h: 5\n"))
		assert.ErrorContains(t, err, `invalid recreate_rates`)
	})
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, `config.yaml`)
	require.NoError(t, os.WriteFile(path, []byte("keep_alive: -1s\n"), 0o600))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, -time.Second, c.KeepAlive)

	_, err = LoadConfig(filepath.Join(dir, `missing.yaml`))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewRegistry_options(t *testing.T) {
	_, err := NewRegistry()
	assert.ErrorContains(t, err, `engine factory is required`)

	_, err = NewRegistry(WithEngineFactory(nil))
	assert.Error(t, err)

	_, err = NewRegistry(WithEngineFactory(new(enginetest.Factory)), WithExecutor(nil))
	assert.Error(t, err)

	_, err = NewRegistry(WithEngineFactory(new(enginetest.Factory)), WithClock(nil))
	assert.Error(t, err)

	_, err = NewRegistry(WithEngineFactory(new(enginetest.Factory)), WithConfig(Config{
		RecreateRates: map[time.Duration]int{time.Minute: -1},
	}))
	assert.ErrorContains(t, err, `invalid recreate_rates`)

	r, err := NewRegistry(nil, WithEngineFactory(new(enginetest.Factory)), WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), r.Config())
	assert.NotNil(t, r.Executor())

	// logging disabled
	s, err := r.CreateSession(engine.Settings{}, OpenModeOpen)
	require.NoError(t, err)
	require.NoError(t, s.SetActive(false))
	require.NoError(t, s.Suspend())
}

func TestNewRegistry_trackingProtection(t *testing.T) {
	h := newTestHarness(t, WithConfig(Config{TrackingProtection: true}))
	_, e := h.openSession(t, ``)
	assert.True(t, e.Settings().UseTrackingProtection)

	h = newTestHarness(t)
	_, e = h.openSession(t, ``)
	assert.False(t, e.Settings().UseTrackingProtection)
}

func TestUserAgentTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, `ua.yaml`)
	require.NoError(t, os.WriteFile(path, []byte(`{"example.com": "File UA", ".Example.org": "Org UA"}`), 0o600))

	table := LoadUserAgentTable(path, map[string]string{`example.com`: `Inline UA`})
	require.NoError(t, table.Err())
	assert.Equal(t, 2, table.Len())
	for uri, want := range map[string]string{
		`https://example.com/a`:        `Inline UA`,
		`https://www.example.com`:      `Inline UA`,
		`https://deep.sub.example.org`: `Org UA`,
		`https://example.net`:          ``,
		`%zz`:                          ``,
	} {
		assert.Equal(t, want, table.Lookup(uri), uri)
	}

	missing := LoadUserAgentTable(filepath.Join(dir, `missing.yaml`), map[string]string{`example.com`: `Inline UA`})
	assert.ErrorIs(t, missing.Err(), os.ErrNotExist)
	assert.Empty(t, missing.Lookup(`https://example.com`))

	var none *UserAgentTable
	assert.NoError(t, none.Err())
	assert.Zero(t, none.Len())
	assert.Empty(t, none.Lookup(`https://example.com`))
}

func TestNewRegistry_userAgentFileMissing(t *testing.T) {
	h := newTestHarness(t, WithConfig(Config{UserAgentOverridesFile: filepath.Join(t.TempDir(), `missing.yaml`)}))
	assert.Contains(t, h.logs.String(), `user agent overrides unavailable`)
}

func TestErrorPageURI(t *testing.T) {
	for _, tc := range []struct {
		category engine.ErrorCategory
		title    string
	}{
		{engine.ErrorCategorySecurity, `Secure Connection Failed`},
		{engine.ErrorCategoryNetwork, `Unable to Connect`},
		{engine.ErrorCategoryContent, `Content Error`},
		{engine.ErrorCategoryURI, `Invalid Address`},
		{engine.ErrorCategoryProxy, `Proxy Server Refused Connection`},
		{engine.ErrorCategorySafeBrowsing, `Deceptive Site`},
		{engine.ErrorCategoryUnknown, `Problem Loading Page`},
	} {
		t.Run(tc.title, func(t *testing.T) {
			uri := ErrorPageURI(`https://example.com/<script>`, engine.WebRequestError{Category: tc.category, Code: 42})
			b, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, `data:text/html;base64,`))
			require.NoError(t, err)
			page := string(b)
			assert.Contains(t, page, `<title>`+tc.title+`</title>`)
			assert.Contains(t, page, `Error code 42`)
			assert.NotContains(t, page, `<script>`)
		})
	}
}

func TestState_RecreateAndSnapshot(t *testing.T) {
	s := NewState(engine.Settings{UsePrivateMode: true})
	s.URI = `https://example.com`
	s.Title = `Example`
	s.FullScreen = true
	s.Engine = enginetest.New(engine.Settings{})
	s.SessionState = engine.ParseStateBlob(`{"history":{"index":0,"fromIdx":-1,"entries":[{"url":"https://example.com","title":"Example"}]}}`)
	s.Region = `de`

	r := s.Recreate()
	assert.NotEqual(t, s.ID, r.ID)
	assert.Nil(t, r.Engine)
	assert.False(t, r.FullScreen)
	assert.Equal(t, s.URI, r.URI)
	assert.True(t, r.Settings.UsePrivateMode)
	assert.True(t, s.SessionState.Equal(r.SessionState))
	assert.NotSame(t, s.SessionState, r.SessionState)

	snapshot := s.Snapshot()
	restored := FromSnapshot(snapshot)
	assert.Equal(t, s.ID, restored.ID)
	assert.Equal(t, `Example`, restored.Title)
	assert.Equal(t, `de`, restored.Region)
	assert.Nil(t, restored.Engine)
	assert.Equal(t, 1, restored.SessionState.Len())

	assert.NotEmpty(t, FromSnapshot(Snapshot{}).ID)
}
