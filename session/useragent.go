package session

import (
	"fmt"
	"maps"
	"net/url"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// UserAgentTable maps hosts to user agent overrides. It is read-only once
// loaded, and shared by every session of a registry. A nil table has no
// overrides.
type UserAgentTable struct {
	load      func() (map[string]string, error)
	overrides map[string]string
	err       error
	once      sync.Once
}

// NewUserAgentTable returns a table of the given host to user agent
// overrides.
func NewUserAgentTable(overrides map[string]string) *UserAgentTable {
	return &UserAgentTable{load: func() (map[string]string, error) {
		return overrides, nil
	}}
}

// LoadUserAgentTable returns a table that reads the YAML (or JSON) object at
// path on first use, merged with inline, which takes precedence. An empty
// path loads only inline.
func LoadUserAgentTable(path string, inline map[string]string) *UserAgentTable {
	return &UserAgentTable{load: func() (map[string]string, error) {
		overrides := make(map[string]string)
		if path != `` {
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf(`session: load user agent overrides: %w`, err)
			}
			if err := yaml.Unmarshal(b, &overrides); err != nil {
				return nil, fmt.Errorf(`session: parse user agent overrides %s: %w`, path, err)
			}
		}
		maps.Copy(overrides, inline)
		return overrides, nil
	}}
}

func (x *UserAgentTable) init() {
	x.once.Do(func() {
		overrides, err := x.load()
		if err != nil {
			x.err = err
			return
		}
		x.overrides = make(map[string]string, len(overrides))
		for host, ua := range overrides {
			x.overrides[strings.ToLower(strings.TrimPrefix(host, `.`))] = ua
		}
	})
}

// Err returns the error that loading the table failed with, if any. A table
// that failed to load has no overrides.
func (x *UserAgentTable) Err() error {
	if x == nil {
		return nil
	}
	x.init()
	return x.err
}

// Len returns the number of overrides.
func (x *UserAgentTable) Len() int {
	if x == nil {
		return 0
	}
	x.init()
	return len(x.overrides)
}

// Lookup returns the override for the host of uri, matching the host itself
// then each parent domain, or an empty string.
func (x *UserAgentTable) Lookup(uri string) string {
	if x == nil {
		return ``
	}
	x.init()
	if len(x.overrides) == 0 {
		return ``
	}
	u, err := url.Parse(uri)
	if err != nil {
		return ``
	}
	host := strings.ToLower(u.Hostname())
	for host != `` {
		if ua, ok := x.overrides[host]; ok {
			return ua
		}
		_, parent, ok := strings.Cut(host, `.`)
		if !ok {
			break
		}
		host = parent
	}
	return ``
}
