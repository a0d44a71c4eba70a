package apirequest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/apitest/packages/browser"
	apihttp "github.com/abdul-hamid-achik/apitest/packages/http"
	"github.com/rs/zerolog"
)

// Target is a URL that can be turned into an absolute URL string.
type Target interface {
	Absolute(baseURL string) (string, error)
}

// Transport sends a fully prepared request.
type Transport interface {
	Request(ctx context.Context, method, url string, opts apihttp.Options) (*apihttp.Response, error)
}

// Harness exposes the ambient test session state a dispatch depends on.
type Harness interface {
	BaseURL() string
	Driver() browser.Driver
	Refresh(ctx context.Context) error
}

// Recorder receives every exchange that produced a response.
type Recorder interface {
	Record(ctx context.Context, ex *Exchange) error
}

// Exchange describes one dispatched request and its response.
type Exchange struct {
	Method   string
	URL      string
	Options  apihttp.Options
	Response *apihttp.Response
	Duration time.Duration
}

// forcedOptions are merged over caller options on every dispatch.
var forcedOptions = apihttp.Options{
	apihttp.OptionHTTPErrors:     false,
	apihttp.OptionAllowRedirects: false,
}

type Dispatcher struct {
	harness   Harness
	transport Transport
	recorder  Recorder
	logger    zerolog.Logger
}

type Option func(*Dispatcher)

func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

func NewDispatcher(harness Harness, transport Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		harness:   harness,
		transport: transport,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends one request and returns the transport's response untouched.
//
// opts is never modified. A HEAD request loses every body producing option
// (body, json, form_params). The method is matched case-insensitively because
// the client upper-cases it before sending, so "head" reaches the server as
// HEAD and must not carry a body either. The session is refreshed, error statuses and redirects are returned rather than raised
// or followed, and driver cookies are added to the Cookie header. Transport
// errors are returned as they are.
func (d *Dispatcher) Dispatch(ctx context.Context, method string, target Target, opts apihttp.Options) (*apihttp.Response, error) {
	prepared := opts.Clone()

	if strings.EqualFold(method, http.MethodHead) {
		for _, key := range apihttp.BodyOptions {
			delete(prepared, key)
		}
	}

	if err := d.harness.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("refreshing session: %w", err)
	}

	for k, v := range forcedOptions {
		prepared[k] = v
	}

	prepared = DecorateWithCookies(d.harness.Driver(), prepared)

	url, err := target.Absolute(d.harness.BaseURL())
	if err != nil {
		return nil, fmt.Errorf("resolving url: %w", err)
	}

	start := time.Now()
	resp, err := d.transport.Request(ctx, method, url, prepared)
	elapsed := time.Since(start)
	if err != nil {
		d.logger.Debug().Err(err).Str("method", method).Str("url", url).Msg("dispatch failed")
		return resp, err
	}

	if resp != nil {
		d.logger.Debug().
			Str("method", method).
			Str("url", url).
			Int("status", resp.StatusCode).
			Dur("duration", elapsed).
			Msg("dispatched")

		if d.recorder != nil {
			ex := &Exchange{Method: method, URL: url, Options: prepared, Response: resp, Duration: elapsed}
			if rerr := d.recorder.Record(ctx, ex); rerr != nil {
				d.logger.Warn().Err(rerr).Str("url", url).Msg("recording exchange failed")
			}
		}
	}

	return resp, nil
}
