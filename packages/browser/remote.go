package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// RemoteDriver drives a real Chrome over the DevTools protocol. Its cookies
// live in the browser, so it does not expose a cookie jar.
type RemoteDriver struct {
	devtoolsURL string
	headless    bool
	timeout     time.Duration
	logger      zerolog.Logger

	mu            sync.Mutex
	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

type RemoteOption func(*RemoteDriver)

// WithDevToolsURL attaches to an already running browser instead of
// launching one.
func WithDevToolsURL(url string) RemoteOption {
	return func(d *RemoteDriver) {
		d.devtoolsURL = url
	}
}

func WithHeadless(headless bool) RemoteOption {
	return func(d *RemoteDriver) {
		d.headless = headless
	}
}

func WithVisitTimeout(timeout time.Duration) RemoteOption {
	return func(d *RemoteDriver) {
		d.timeout = timeout
	}
}

func WithRemoteLogger(l zerolog.Logger) RemoteOption {
	return func(d *RemoteDriver) {
		d.logger = l
	}
}

// NewRemoteDriver configures a driver. The browser starts on the first Visit.
func NewRemoteDriver(opts ...RemoteOption) *RemoteDriver {
	d := &RemoteDriver{
		headless: true,
		timeout:  30 * time.Second,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With().Str("driver", "remote").Logger()
	return d
}

func (d *RemoteDriver) Name() string {
	return "remote"
}

func (d *RemoteDriver) start() (context.Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browserCtx != nil {
		return d.browserCtx, nil
	}

	var allocCtx context.Context
	if d.devtoolsURL != "" {
		allocCtx, d.cancelAlloc = chromedp.NewRemoteAllocator(context.Background(), d.devtoolsURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", d.headless))
		allocCtx, d.cancelAlloc = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		d.cancelAlloc()
		d.cancelAlloc = nil
		return nil, fmt.Errorf("start browser: %w", err)
	}

	d.browserCtx = browserCtx
	d.cancelBrowser = cancel
	d.logger.Debug().Str("devtools", d.devtoolsURL).Bool("headless", d.headless).Msg("browser started")
	return browserCtx, nil
}

// Visit navigates to url and captures the rendered HTML.
func (d *RemoteDriver) Visit(ctx context.Context, url string) (*Page, error) {
	browserCtx, err := d.start()
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(browserCtx, d.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var title, html, location string
	err = chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Title(&title),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		d.logger.Warn().Err(err).Str("url", url).Msg("visit failed")
		return nil, fmt.Errorf("visit %s: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	d.logger.Debug().Str("url", location).Msg("visited page")
	return &Page{URL: location, Title: title, Document: doc}, nil
}

func (d *RemoteDriver) CookieJar() (CookieJar, bool) {
	return nil, false
}

func (d *RemoteDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancelBrowser != nil {
		d.cancelBrowser()
		d.cancelBrowser = nil
	}
	if d.cancelAlloc != nil {
		d.cancelAlloc()
		d.cancelAlloc = nil
	}
	d.browserCtx = nil
	return nil
}
