package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joeycumines/go-catrate"
	"gopkg.in/yaml.v3"
)

const (
	defaultHomePage  = `https://www.mozilla.org/`
	defaultKeepAlive = time.Second

	// PrivateBrowsingURI is the reserved URI of the private browsing page,
	// content may not navigate to it.
	PrivateBrowsingURI = `about:privatebrowsing`

	defaultPrivatePage = `<!DOCTYPE html><html><head><meta charset="utf-8"><title>Private Browsing</title></head>` +
		`<body><h1>Private Browsing</h1><p>History, cookies and form data are forgotten when the session closes.</p></body></html>`
)

// Config is the process-wide configuration shared by every session of a
// [Registry]. The zero value of each field means its default, see
// [DefaultConfig].
type Config struct {
	// HomePage is loaded by sessions without content to restore.
	HomePage string `yaml:"home_page"`

	// PrivatePage is the HTML displayed by private sessions in place of the
	// home page.
	PrivatePage string `yaml:"private_page"`

	// KeepAlive is how long a session that opened a child session (and the
	// child) refuses to suspend. Negative disables it.
	KeepAlive time.Duration `yaml:"keep_alive"`

	// UserAgentOverrides maps hosts to the user agent presented to them.
	UserAgentOverrides map[string]string `yaml:"user_agent_overrides"`

	// UserAgentOverridesFile is a YAML (or JSON) file of further overrides,
	// loaded on first use. Inline overrides take precedence.
	UserAgentOverridesFile string `yaml:"user_agent_overrides_file"`

	// ForceMobileViewport lists URI substrings for which the mobile viewport
	// is used, regardless of the session settings.
	ForceMobileViewport []string `yaml:"force_mobile_viewport"`

	// TrackingProtection enables tracking protection for every session,
	// private sessions always use it.
	TrackingProtection bool `yaml:"tracking_protection"`

	// RecreateRates limits how often a crashing session is recreated, per
	// session. Once exceeded, a crashed session is suspended instead.
	RecreateRates map[time.Duration]int `yaml:"recreate_rates"`
}

// DefaultConfig returns the configuration used for unset fields.
func DefaultConfig() Config {
	return Config{
		HomePage:            defaultHomePage,
		PrivatePage:         defaultPrivatePage,
		KeepAlive:           defaultKeepAlive,
		ForceMobileViewport: []string{`.youtube.com`},
		RecreateRates:       map[time.Duration]int{time.Minute: 3},
	}
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf(`session: load config: %w`, err)
	}
	return ParseConfig(b)
}

// ParseConfig decodes a YAML config document, filling in defaults, and
// validates it. Unknown fields are rejected.
func ParseConfig(b []byte) (Config, error) {
	var c Config
	d := yaml.NewDecoder(bytes.NewReader(b))
	d.KnownFields(true)
	if err := d.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf(`session: parse config: %w`, err)
	}
	c = c.withDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports configuration errors.
func (x Config) Validate() error {
	if _, err := newRecreateLimiter(x.RecreateRates); err != nil {
		return err
	}
	return nil
}

func (x Config) withDefaults() Config {
	d := DefaultConfig()
	if x.HomePage == `` {
		x.HomePage = d.HomePage
	}
	if x.PrivatePage == `` {
		x.PrivatePage = d.PrivatePage
	}
	if x.KeepAlive == 0 {
		x.KeepAlive = d.KeepAlive
	}
	if x.ForceMobileViewport == nil {
		x.ForceMobileViewport = d.ForceMobileViewport
	}
	if x.RecreateRates == nil {
		x.RecreateRates = d.RecreateRates
	}
	return x
}

// newRecreateLimiter returns nil (no limit) for empty rates.
func newRecreateLimiter(rates map[time.Duration]int) (limiter *catrate.Limiter, err error) {
	if len(rates) == 0 {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			limiter = nil
			err = fmt.Errorf(`session: invalid recreate_rates %v: %v`, rates, r)
		}
	}()
	return catrate.NewLimiter(rates), nil
}
