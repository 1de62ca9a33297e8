package session

import (
	"net/url"
	"strings"
)

const (
	aboutBlank         = `about:blank`
	extensionURIPrefix = `moz-extension://`
)

// blockedAboutPages are the browser's internal pages, which content may not
// load.
var blockedAboutPages = [...]string{
	`privatebrowsing`,
	`bookmarks`,
	`history`,
	`downloads`,
	`addons`,
	`logins`,
	`config`,
	`preferences`,
}

// isBlockedAboutPage reports whether content may not navigate to uri, one of
// blockedAboutPages in either the about:name or about://name form.
func isBlockedAboutPage(uri string) bool {
	const scheme = `about:`
	if len(uri) < len(scheme) || !strings.EqualFold(uri[:len(scheme)], scheme) {
		return false
	}
	page := strings.TrimPrefix(uri[len(scheme):], `//`)
	if i := strings.IndexAny(page, `/?#`); i >= 0 {
		page = page[:i]
	}
	for _, name := range blockedAboutPages {
		if strings.EqualFold(page, name) {
			return true
		}
	}
	return false
}

// desktopSiteURI returns uri without an m. or mobile. host prefix, or an
// empty string if it has none.
func desktopSiteURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Host == `` {
		return ``
	}
	host := strings.ToLower(u.Host)
	for _, prefix := range [...]string{`m.`, `mobile.`} {
		if strings.HasPrefix(host, prefix) {
			u.Host = host[len(prefix):]
			return u.String()
		}
	}
	return ``
}

// containsAny reports whether s contains any of substrs.
func containsAny(s string, substrs []string) bool {
	for _, v := range substrs {
		if v != `` && strings.Contains(s, v) {
			return true
		}
	}
	return false
}
