package apirequest

import (
	"context"
	"time"

	"github.com/abdul-hamid-achik/apitest/packages/browser"
	apihttp "github.com/abdul-hamid-achik/apitest/packages/http"
)

type fakeJar []browser.Cookie

func (j fakeJar) All() []browser.Cookie { return j }

// fakeDriver reports a jar only when jar is non-nil.
type fakeDriver struct {
	jar fakeJar
}

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) Visit(ctx context.Context, url string) (*browser.Page, error) {
	return &browser.Page{URL: url}, nil
}

func (d *fakeDriver) CookieJar() (browser.CookieJar, bool) {
	if d.jar == nil {
		return nil, false
	}
	return d.jar, true
}

func (d *fakeDriver) Close() error { return nil }

type fakeHarness struct {
	baseURL    string
	driver     browser.Driver
	refreshErr error
	refreshes  int
}

func (h *fakeHarness) BaseURL() string        { return h.baseURL }
func (h *fakeHarness) Driver() browser.Driver { return h.driver }
func (h *fakeHarness) Refresh(ctx context.Context) error {
	h.refreshes++
	return h.refreshErr
}

type sentRequest struct {
	method string
	url    string
	opts   apihttp.Options
}

type fakeTransport struct {
	sent     []sentRequest
	response *apihttp.Response
	err      error
}

func (t *fakeTransport) Request(ctx context.Context, method, url string, opts apihttp.Options) (*apihttp.Response, error) {
	t.sent = append(t.sent, sentRequest{method: method, url: url, opts: opts})
	if t.err != nil {
		return nil, t.err
	}
	if t.response != nil {
		return t.response, nil
	}
	return &apihttp.Response{StatusCode: 200, Status: "200 OK", Duration: time.Millisecond}, nil
}

type fakeRecorder struct {
	exchanges []*Exchange
	err       error
}

func (r *fakeRecorder) Record(ctx context.Context, ex *Exchange) error {
	r.exchanges = append(r.exchanges, ex)
	return r.err
}
