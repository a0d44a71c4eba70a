package browser

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Driver is a browser a test session navigates with.
type Driver interface {
	Name() string
	Visit(ctx context.Context, url string) (*Page, error)
	// CookieJar returns the driver's cookie store. The boolean is false when
	// the driver cannot enumerate cookies.
	CookieJar() (CookieJar, bool)
	Close() error
}

// CookieJar enumerates the cookies a driver currently holds.
type CookieJar interface {
	All() []Cookie
}

type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expires  time.Time
	Secure   bool
	HTTPOnly bool
}

func (c Cookie) String() string {
	return c.Name + "=" + c.Value
}

// Page is the result of visiting a URL.
type Page struct {
	URL        string
	StatusCode int
	Title      string
	Document   *goquery.Document
}

// Text returns the trimmed text of the first element matching selector.
func (p *Page) Text(selector string) string {
	if p.Document == nil {
		return ""
	}
	return strings.TrimSpace(p.Document.Find(selector).First().Text())
}
