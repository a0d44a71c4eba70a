package output

import (
	"fmt"
	"io"

	"github.com/abdul-hamid-achik/apitest/packages/apirequest"
	"github.com/abdul-hamid-achik/apitest/packages/assertions"
	"github.com/abdul-hamid-achik/apitest/packages/journal"
)

// Formatter renders the pieces of a send or history command.
type Formatter interface {
	FormatHeader(version string)
	FormatExchange(ex *apirequest.Exchange)
	FormatQuery(path, value string, found bool)
	FormatResults(results []*assertions.Result)
	FormatHistory(entries []*journal.Entry)
	FormatError(err error)
}

// Flushable is implemented by formatters that buffer until the command ends.
type Flushable interface {
	Flush() error
}

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New returns the formatter registered for name.
func New(name string, w io.Writer, verbose, noColor bool) (Formatter, error) {
	switch name {
	case "", FormatConsole:
		return NewConsoleFormatter(WithWriter(w), WithVerbose(verbose), WithNoColor(noColor)), nil
	case FormatJSON:
		return NewJSONFormatter(JSONWithWriter(w)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use %s or %s)", name, FormatConsole, FormatJSON)
	}
}
