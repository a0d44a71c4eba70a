package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

type redirectPolicyKey struct{}

type Client struct {
	httpClient     *http.Client
	timeout        time.Duration
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
	defaultHeaders map[string]string
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:        DefaultTimeout,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
		defaultHeaders: make(map[string]string),
	}

	for _, opt := range opts {
		opt(c)
	}

	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	if !c.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if c.proxyURL != "" {
		proxyURL, err := neturl.Parse(c.proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	// The redirect decision travels on the request context so a single
	// client can serve both following and non-following requests.
	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if follow, ok := req.Context().Value(redirectPolicyKey{}).(bool); ok && !follow {
			return http.ErrUseLastResponse
		}
		if len(via) >= c.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	c.httpClient = &http.Client{
		Transport:     transport,
		Timeout:       c.timeout,
		CheckRedirect: redirectPolicy,
	}

	return c
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

// WithDefaultHeaders sets multiple default headers for all requests
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// Request sends one request built from method, an absolute URL and opts.
//
// Redirects are followed unless allow_redirects is false. When http_errors is
// true (the default) a status of 400 or above is reported as a *StatusError
// alongside the response.
func (c *Client) Request(ctx context.Context, method, rawURL string, opts Options) (*Response, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	if d := opts.timeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	ctx = context.WithValue(ctx, redirectPolicyKey{}, opts.Bool(OptionAllowRedirects, true))

	body, contentType, err := buildBody(opts)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), withQuery(rawURL, opts.stringMap(OptionQuery)), body)
	if err != nil {
		return nil, err
	}

	for k, v := range c.defaultHeaders {
		httpReq.Header.Set(k, v)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range opts.Headers() {
		httpReq.Header.Set(k, v)
	}

	if auth, ok := opts[OptionAuth].([]string); ok && len(auth) >= 2 {
		httpReq.SetBasicAuth(auth[0], auth[1])
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    httpResp.Header,
		Body:       respBody,
		Duration:   duration,
		URL:        httpResp.Request.URL.String(),
	}

	if resp.StatusCode >= 400 && opts.Bool(OptionHTTPErrors, true) {
		return resp, &StatusError{Method: httpReq.Method, URL: rawURL, Response: resp}
	}

	return resp, nil
}

// buildBody returns the request body for the first body option present,
// checked in the order body, json, form_params.
func buildBody(opts Options) (io.Reader, string, error) {
	if v, ok := opts[OptionBody]; ok {
		switch b := v.(type) {
		case nil:
			return nil, "", nil
		case string:
			return strings.NewReader(b), "", nil
		case []byte:
			return bytes.NewReader(b), "", nil
		case io.Reader:
			return b, "", nil
		default:
			return nil, "", fmt.Errorf("unsupported body type %T", v)
		}
	}

	if v, ok := opts[OptionJSON]; ok {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("encoding json body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}

	if form := opts.stringMap(OptionFormParams); form != nil {
		values := neturl.Values{}
		for k, v := range form {
			values.Set(k, v)
		}
		return strings.NewReader(values.Encode()), "application/x-www-form-urlencoded", nil
	}

	return nil, "", nil
}

func withQuery(rawURL string, params map[string]string) string {
	if len(params) == 0 {
		return rawURL
	}

	u, err := neturl.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
