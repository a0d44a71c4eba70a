package browser

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Jar is an http.CookieJar that also remembers the order cookies were first
// stored in. net/http/cookiejar decides which cookies go on a request and
// which are accepted at all; the ordered list only tracks accepted cookies
// and backs All.
type Jar struct {
	mu      sync.Mutex
	inner   *cookiejar.Jar
	entries []Cookie
	now     func() time.Time
}

func NewJar() (*Jar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &Jar{inner: inner, now: time.Now}, nil
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)

	now := j.now()
	for _, c := range cookies {
		entry := Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   strings.TrimPrefix(strings.ToLower(c.Domain), "."),
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
		if entry.Domain == "" {
			entry.Domain = strings.ToLower(u.Hostname())
		}
		if entry.Path == "" || !strings.HasPrefix(entry.Path, "/") {
			entry.Path = defaultPath(u.Path)
		}

		remove := false
		switch {
		case c.MaxAge < 0:
			remove = true
		case c.MaxAge > 0:
			entry.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero():
			entry.Expires = c.Expires
			remove = !c.Expires.After(now)
		}

		idx := j.index(entry)
		switch {
		case remove && idx >= 0:
			j.entries = append(j.entries[:idx], j.entries[idx+1:]...)
		case remove:
		case !j.held(u, entry):
			// cookiejar refused it, for example a foreign or public suffix domain
		case idx >= 0:
			j.entries[idx] = entry
		default:
			j.entries = append(j.entries, entry)
		}
	}
}

// held reports whether the inner jar stored c. It must be called with mu held.
func (j *Jar) held(from *url.URL, c Cookie) bool {
	scheme := from.Scheme
	if c.Secure {
		scheme = "https"
	}
	for _, got := range j.inner.Cookies(&url.URL{Scheme: scheme, Host: c.Domain, Path: c.Path}) {
		if got.Name == c.Name && got.Value == c.Value {
			return true
		}
	}
	return false
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	inner := j.inner
	j.mu.Unlock()
	return inner.Cookies(u)
}

// All returns every unexpired cookie in the order it was first stored.
func (j *Jar) All() []Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	kept := j.entries[:0]
	for _, e := range j.entries {
		if !e.Expires.IsZero() && !e.Expires.After(now) {
			continue
		}
		kept = append(kept, e)
	}
	j.entries = kept

	out := make([]Cookie, len(kept))
	copy(out, kept)
	return out
}

// Set stores a session cookie for rawURL.
func (j *Jar) Set(rawURL, name, value string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parsing cookie url: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("cookie url %q has no host", rawURL)
	}
	j.SetCookies(u, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
	return nil
}

// Clear forgets every cookie.
func (j *Jar) Clear() error {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner = inner
	j.entries = nil
	return nil
}

func (j *Jar) index(c Cookie) int {
	for i, e := range j.entries {
		if e.Name == c.Name && e.Domain == c.Domain && e.Path == c.Path {
			return i
		}
	}
	return -1
}

// defaultPath implements the RFC 6265 section 5.1.4 default-path rule.
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}
