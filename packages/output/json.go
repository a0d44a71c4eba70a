package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/apitest/packages/apirequest"
	"github.com/abdul-hamid-achik/apitest/packages/assertions"
	"github.com/abdul-hamid-achik/apitest/packages/journal"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Request    *JSONRequest    `json:"request,omitempty"`
	Response   *JSONResponse   `json:"response,omitempty"`
	Query      *JSONQuery      `json:"query,omitempty"`
	Assertions []JSONAssertion `json:"assertions,omitempty"`
	History    []JSONEntry     `json:"history,omitempty"`
	Error      string          `json:"error,omitempty"`
	Passed     bool            `json:"passed"`
	Time       string          `json:"time"`
}

// JSONRequest represents request details
type JSONRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// JSONResponse represents response details
type JSONResponse struct {
	StatusCode int                 `json:"statusCode"`
	Status     string              `json:"status"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Body       json.RawMessage     `json:"body,omitempty"`
	BodyText   string              `json:"bodyText,omitempty"`
	Duration   float64             `json:"duration"`
}

// JSONQuery is the result of a JSON path lookup on the response body
type JSONQuery struct {
	Path  string `json:"path"`
	Found bool   `json:"found"`
	Value any    `json:"value,omitempty"`
}

// JSONAssertion represents an assertion result
type JSONAssertion struct {
	Subject  string `json:"subject"`
	Operator string `json:"operator"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
}

// JSONEntry is one journal row
type JSONEntry struct {
	ID         string  `json:"id"`
	Method     string  `json:"method"`
	URL        string  `json:"url"`
	Status     int     `json:"status"`
	Duration   float64 `json:"duration"`
	RecordedAt string  `json:"recordedAt"`
}

// JSONFormatter accumulates output and writes a single document on Flush.
type JSONFormatter struct {
	writer io.Writer
	out    JSONOutput
	now    func() time.Time
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		out:    JSONOutput{Passed: true},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatExchange(ex *apirequest.Exchange) {
	f.out.Request = &JSONRequest{
		Method:  ex.Method,
		URL:     ex.URL,
		Headers: ex.Options.Headers(),
	}

	resp := ex.Response
	jr := &JSONResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    resp.Headers,
		Duration:   float64(ex.Duration.Milliseconds()),
	}
	if len(resp.Body) > 0 {
		if json.Valid(resp.Body) {
			jr.Body = json.RawMessage(resp.Body)
		} else {
			jr.BodyText = resp.BodyString()
		}
	}
	f.out.Response = jr
}

func (f *JSONFormatter) FormatQuery(path, value string, found bool) {
	q := &JSONQuery{Path: path, Found: found}
	if found {
		var v any
		if err := json.Unmarshal([]byte(value), &v); err == nil {
			q.Value = v
		} else {
			q.Value = value
		}
	}
	f.out.Query = q
}

func (f *JSONFormatter) FormatResults(results []*assertions.Result) {
	for _, r := range results {
		f.out.Assertions = append(f.out.Assertions, JSONAssertion{
			Subject:  r.Assertion.Subject,
			Operator: string(r.Assertion.Operator),
			Expected: r.Assertion.Expected,
			Actual:   r.Actual,
			Passed:   r.Passed,
			Message:  r.Message,
		})
		if !r.Passed {
			f.out.Passed = false
		}
	}
}

func (f *JSONFormatter) FormatHistory(entries []*journal.Entry) {
	f.out.History = make([]JSONEntry, 0, len(entries))
	for _, e := range entries {
		f.out.History = append(f.out.History, JSONEntry{
			ID:         e.ID,
			Method:     e.Method,
			URL:        e.URL,
			Status:     e.Status,
			Duration:   float64(e.Duration.Milliseconds()),
			RecordedAt: e.RecordedAt.Format(time.RFC3339),
		})
	}
}

func (f *JSONFormatter) FormatError(err error) {
	f.out.Error = err.Error()
	f.out.Passed = false
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush() error {
	f.out.Time = f.now().Format(time.RFC3339)
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(f.out)
}
