// Package route provides the URL value passed to request dispatch.
//
// A URL is either a path relative to the application under test or an
// absolute URL. Relative paths are resolved against the session base URL at
// dispatch time.
package route

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNoBaseURL is returned when a relative URL is resolved without a base.
var ErrNoBaseURL = errors.New("relative url requires a base url")

// URL keeps the path and query in their escaped form so resolving it sends
// exactly what the caller wrote.
type URL struct {
	origin   string // scheme://host of an absolute URL, empty for paths
	path     string
	rawQuery string
	fragment string
}

// Path returns a URL for a path on the application under test. Characters
// that are not valid in a path are escaped.
func Path(p string) *URL {
	return &URL{path: (&url.URL{Path: p}).EscapedPath()}
}

// Parse accepts either an absolute URL or a path with an optional query
// string and fragment. The path and query are kept as written.
func Parse(raw string) (*URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w", raw, err)
	}

	parsed := &URL{path: u.EscapedPath(), rawQuery: u.RawQuery, fragment: u.Fragment}
	if u.IsAbs() {
		parsed.origin = (&url.URL{Scheme: u.Scheme, User: u.User, Host: u.Host}).String()
	}
	return parsed, nil
}

// WithQuery sets a query parameter. The query string is re-encoded, which
// sorts its keys.
func (u *URL) WithQuery(key, value string) *URL {
	q, _ := url.ParseQuery(u.rawQuery)
	q.Set(key, value)
	u.rawQuery = q.Encode()
	return u
}

func (u *URL) WithFragment(fragment string) *URL {
	u.fragment = fragment
	return u
}

// Absolute returns the absolute string form of u. Absolute URLs ignore base.
// Relative paths are appended to the base path, so a site installed under
// a subdirectory keeps its prefix.
func (u *URL) Absolute(base string) (string, error) {
	var prefix string
	if u.origin != "" {
		prefix = u.origin + u.path
	} else {
		if base == "" {
			return "", ErrNoBaseURL
		}
		parsed, err := url.Parse(base)
		if err != nil {
			return "", fmt.Errorf("parsing base url: %w", err)
		}
		if !parsed.IsAbs() {
			return "", fmt.Errorf("base url %q is not absolute", base)
		}
		origin := (&url.URL{Scheme: parsed.Scheme, User: parsed.User, Host: parsed.Host}).String()
		prefix = origin + strings.TrimSuffix(parsed.EscapedPath(), "/") + "/" + strings.TrimPrefix(u.path, "/")
	}
	return prefix + u.suffix(), nil
}

// String returns the unresolved form of u.
func (u *URL) String() string {
	return u.origin + u.path + u.suffix()
}

func (u *URL) suffix() string {
	s := ""
	if u.rawQuery != "" {
		s += "?" + u.rawQuery
	}
	if u.fragment != "" {
		s += "#" + (&url.URL{Fragment: u.fragment}).EscapedFragment()
	}
	return s
}
