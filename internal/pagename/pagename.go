// Package pagename derives short page identifiers from page locators.
package pagename

import (
	"net/url"
	"strings"

	"github.com/eykd/scenariodoc/internal/sanitize"
)

// IndexPage is the name given to a locator with an empty path.
const IndexPage = "index"

// Extractor maps a full page locator (usually a URL) to a page name.
type Extractor func(locator string) string

// Default returns the locator's path without the leading '/'. A fragment that
// looks like a client-side route ("#/login") is appended, so single-page apps
// get one page per route. Query strings are dropped. Locators that do not
// parse as URLs are returned sanitized.
func Default(locator string) string {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return IndexPage
	}
	u, err := url.Parse(locator)
	if err != nil {
		return sanitize.SanitizeForID(locator)
	}
	name := strings.TrimPrefix(u.Path, "/")
	if u.Opaque != "" && name == "" {
		name = u.Opaque
	}
	if route := routeFragment(u.Fragment); route != "" {
		name += "#" + route
	}
	if name == "" {
		return IndexPage
	}
	return name
}

func routeFragment(fragment string) string {
	if !strings.HasPrefix(fragment, "/") {
		return ""
	}
	if i := strings.IndexByte(fragment, '?'); i >= 0 {
		fragment = fragment[:i]
	}
	return fragment
}

// Resolve returns custom when it is non-nil and Default otherwise.
func Resolve(custom Extractor) Extractor {
	if custom != nil {
		return custom
	}
	return Default
}
