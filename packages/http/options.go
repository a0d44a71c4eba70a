package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Request option keys understood by Client.Request.
const (
	OptionBody           = "body"
	OptionJSON           = "json"
	OptionFormParams     = "form_params"
	OptionHeaders        = "headers"
	OptionQuery          = "query"
	OptionAuth           = "auth"
	OptionTimeout        = "timeout"
	OptionHTTPErrors     = "http_errors"
	OptionAllowRedirects = "allow_redirects"
)

// BodyOptions lists every option that produces a request body.
var BodyOptions = []string{OptionBody, OptionJSON, OptionFormParams}

// Options is an unordered set of request options keyed by option name.
// Unknown keys are ignored by the transport.
type Options map[string]any

// Clone returns a copy of o. The headers and query maps are copied as well so
// the clone can be modified without touching the original.
func (o Options) Clone() Options {
	clone := make(Options, len(o))
	for k, v := range o {
		switch m := v.(type) {
		case map[string]string:
			cp := make(map[string]string, len(m))
			for mk, mv := range m {
				cp[mk] = mv
			}
			clone[k] = cp
		default:
			clone[k] = v
		}
	}
	return clone
}

// Has reports whether key is present.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Headers returns the headers option as a map[string]string, or nil when it
// is missing. A map[string]string is returned as stored. map[string]any,
// map[string][]string and http.Header values are converted into a new map,
// with multiple values joined by ", ". Any other type is ignored.
func (o Options) Headers() map[string]string {
	switch h := o[OptionHeaders].(type) {
	case map[string]string:
		return h
	case http.Header:
		return joinHeaderValues(h)
	case map[string][]string:
		return joinHeaderValues(h)
	case map[string]any:
		out := make(map[string]string, len(h))
		for k, v := range h {
			switch vv := v.(type) {
			case []string:
				out[k] = strings.Join(vv, ", ")
			default:
				out[k] = fmt.Sprint(v)
			}
		}
		return out
	default:
		return nil
	}
}

func joinHeaderValues(h map[string][]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = strings.Join(v, ", ")
	}
	return out
}

// Header looks up a header case-insensitively and returns the key as spelled
// in the map together with its value.
func (o Options) Header(name string) (key, value string, ok bool) {
	for k, v := range o.Headers() {
		if strings.EqualFold(k, name) {
			return k, v, true
		}
	}
	return "", "", false
}

// SetHeader sets a header, creating the headers map when needed. An existing
// key with different casing is overwritten in place. Headers stored in one
// of the other shapes Headers accepts are converted to a map[string]string
// first, so the option always holds a map[string]string afterwards.
func (o Options) SetHeader(name, value string) {
	h := o.Headers()
	if h == nil {
		h = make(map[string]string)
	}
	o[OptionHeaders] = h
	if key, _, ok := o.Header(name); ok {
		h[key] = value
		return
	}
	h[name] = value
}

// Bool returns a boolean option, or def when the option is absent or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if b, ok := o[key].(bool); ok {
		return b
	}
	return def
}

func (o Options) timeout() time.Duration {
	d, _ := o[OptionTimeout].(time.Duration)
	return d
}

func (o Options) stringMap(key string) map[string]string {
	m, _ := o[key].(map[string]string)
	return m
}
