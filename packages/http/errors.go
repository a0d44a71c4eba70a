package http

import "fmt"

// StatusError reports a 4xx or 5xx response when http_errors is enabled.
// The response is still returned to the caller next to the error.
type StatusError struct {
	Method   string
	URL      string
	Response *Response
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %s", e.Method, e.URL, e.Response.Status)
}
