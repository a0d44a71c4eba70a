package browser

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// DefaultUserAgent is sent by the emulated driver unless overridden.
const DefaultUserAgent = "apitest/emulated"

// EmulatedDriver browses in-process with net/http. It follows redirects the
// way a browser does and keeps cookies and history between visits.
type EmulatedDriver struct {
	client    *http.Client
	jar       *Jar
	userAgent string
	logger    zerolog.Logger

	mu      sync.Mutex
	history []string
}

type EmulatedOption func(*EmulatedDriver)

func WithHTTPClient(c *http.Client) EmulatedOption {
	return func(d *EmulatedDriver) {
		d.client = c
	}
}

func WithUserAgent(ua string) EmulatedOption {
	return func(d *EmulatedDriver) {
		d.userAgent = ua
	}
}

func WithEmulatedLogger(l zerolog.Logger) EmulatedOption {
	return func(d *EmulatedDriver) {
		d.logger = l
	}
}

func NewEmulatedDriver(opts ...EmulatedOption) (*EmulatedDriver, error) {
	jar, err := NewJar()
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	d := &EmulatedDriver{
		userAgent: DefaultUserAgent,
		logger:    zerolog.Nop(),
		jar:       jar,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.client == nil {
		d.client = &http.Client{Timeout: 30 * time.Second}
	}
	// A supplied client is copied so its jar can be replaced without
	// affecting other users.
	client := *d.client
	client.Jar = jar
	d.client = &client

	d.logger = d.logger.With().Str("driver", "emulated").Logger()
	return d, nil
}

func (d *EmulatedDriver) Name() string {
	return "emulated"
}

// Visit GETs url, following redirects, and parses the final page as HTML.
// Error statuses are returned as pages, not errors.
func (d *EmulatedDriver) Visit(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn().Err(err).Str("url", url).Msg("visit failed")
		return nil, fmt.Errorf("visit %s: %w", url, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	final := resp.Request.URL.String()
	d.mu.Lock()
	d.history = append(d.history, final)
	d.mu.Unlock()

	d.logger.Debug().Str("url", final).Int("status", resp.StatusCode).Msg("visited page")

	return &Page{
		URL:        final,
		StatusCode: resp.StatusCode,
		Title:      doc.Find("title").First().Text(),
		Document:   doc,
	}, nil
}

func (d *EmulatedDriver) CookieJar() (CookieJar, bool) {
	return d.jar, true
}

// Jar returns the driver's jar for seeding cookies.
func (d *EmulatedDriver) Jar() *Jar {
	return d.jar
}

// History returns the final URLs of all visits, oldest first.
func (d *EmulatedDriver) History() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.history))
	copy(out, d.history)
	return out
}

// Reset clears cookies and history.
func (d *EmulatedDriver) Reset() error {
	d.mu.Lock()
	d.history = nil
	d.mu.Unlock()
	return d.jar.Clear()
}

func (d *EmulatedDriver) Close() error {
	d.client.CloseIdleConnections()
	return nil
}
