package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/apitest/packages/apirequest"
	"github.com/abdul-hamid-achik/apitest/packages/assertions"
	"github.com/abdul-hamid-achik/apitest/packages/journal"
	"github.com/fatih/color"
)

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case nil:
		return "<missing>"
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	case map[string]string:
		return fmt.Sprintf("{map with %d entries}", len(val))
	case map[string][]string:
		return fmt.Sprintf("{headers with %d entries}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func statusColor(code int) *color.Color {
	switch {
	case code >= 500:
		return color.New(color.FgRed, color.Bold)
	case code >= 400:
		return color.New(color.FgRed)
	case code >= 300:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

// FormatExchange prints the status line of ex and, when verbose, the request
// headers, response headers and body.
func (f *ConsoleFormatter) FormatExchange(ex *apirequest.Exchange) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	resp := ex.Response
	status := statusColor(resp.StatusCode).Sprint(resp.Status)
	fmt.Fprintf(f.writer, "%s %s %s %s\n", bold(ex.Method), ex.URL, status, cyan(fmt.Sprintf("(%dms)", ex.Duration.Milliseconds())))

	if !f.verbose {
		if loc := resp.Location(); loc != "" {
			fmt.Fprintf(f.writer, "  %s %s\n", faint("Location:"), loc)
		}
		return
	}

	if headers := ex.Options.Headers(); len(headers) > 0 {
		fmt.Fprintf(f.writer, "\n%s\n", bold("Request headers"))
		for _, name := range sortedKeys(headers) {
			fmt.Fprintf(f.writer, "  %s: %s\n", name, headers[name])
		}
	}

	fmt.Fprintf(f.writer, "\n%s\n", bold("Response headers"))
	names := make([]string, 0, len(resp.Headers))
	for name := range resp.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(f.writer, "  %s: %s\n", name, strings.Join(resp.Headers[name], ", "))
	}

	if len(resp.Body) > 0 {
		fmt.Fprintf(f.writer, "\n%s\n", resp.BodyString())
	}
}

// FormatQuery prints the result of a JSON path lookup on its own line.
func (f *ConsoleFormatter) FormatQuery(path, value string, found bool) {
	if !found {
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Fprintf(f.writer, "%s %s\n", yellow("no match:"), path)
		return
	}
	fmt.Fprintln(f.writer, value)
}

// FormatResults prints one line per expectation and a summary.
func (f *ConsoleFormatter) FormatResults(results []*assertions.Result) {
	if len(results) == 0 {
		return
	}
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(f.writer, "\n")
	passed, failed := 0, 0
	for _, r := range results {
		if r.Passed {
			passed++
			fmt.Fprintf(f.writer, "  %s %s\n", green("✓"), r.Assertion)
			continue
		}
		failed++
		fmt.Fprintf(f.writer, "  %s %s\n", red("✗"), r.Assertion)
		if r.Assertion.Operator != assertions.OpSchema {
			if r.Assertion.Expected != nil {
				fmt.Fprintf(f.writer, "      Expected: %s\n", formatValue(r.Assertion.Expected, 100))
			}
			fmt.Fprintf(f.writer, "      Actual:   %s\n", formatValue(r.Actual, 100))
		}
		if r.Message != "" {
			fmt.Fprintf(f.writer, "      %s\n", r.Message)
		}
	}

	fmt.Fprintf(f.writer, "\nExpectations: ")
	if passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", passed)))
	}
	if failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", failed)))
	}
	fmt.Fprintf(f.writer, "%d total\n", len(results))
}

// FormatHistory prints journal entries, one per line.
func (f *ConsoleFormatter) FormatHistory(entries []*journal.Entry) {
	faint := color.New(color.Faint).SprintFunc()
	if len(entries) == 0 {
		fmt.Fprintf(f.writer, "%s\n", faint("no recorded exchanges"))
		return
	}
	for _, e := range entries {
		status := statusColor(e.Status).Sprint(e.Status)
		fmt.Fprintf(f.writer, "%s  %-7s %s %s %s\n",
			faint(e.RecordedAt.Local().Format("2006-01-02 15:04:05")),
			e.Method, status, e.URL, faint(fmt.Sprintf("%dms", e.Duration.Milliseconds())))
		if f.verbose && len(e.ResponseBody) > 0 {
			fmt.Fprintf(f.writer, "    %s\n", formatValue(string(e.ResponseBody), 200))
		}
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("apitest"), version)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
