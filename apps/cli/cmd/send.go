package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/apitest/packages/apirequest"
	"github.com/abdul-hamid-achik/apitest/packages/assertions"
	"github.com/abdul-hamid-achik/apitest/packages/browser"
	"github.com/abdul-hamid-achik/apitest/packages/core/config"
	"github.com/abdul-hamid-achik/apitest/packages/http"
	"github.com/abdul-hamid-achik/apitest/packages/journal"
	"github.com/abdul-hamid-achik/apitest/packages/logging"
	"github.com/abdul-hamid-achik/apitest/packages/output"
	"github.com/abdul-hamid-achik/apitest/packages/route"
	"github.com/abdul-hamid-achik/apitest/packages/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var sendCmd = &cobra.Command{
	Use:   "send <method> <path|url>",
	Short: "Send one request relative to the application base URL",
	Long: `Send one request the way a functional test does. Relative paths are
resolved against the base URL, cookies held by the browser driver are added
to the Cookie header, error statuses are returned and redirects are not
followed.

Examples:
  apitest send GET /node/1 --base-url http://localhost:8080
  apitest send GET /user/1 --cookie XDEBUG_SESSION=PHPSTORM --expect-status 200
  apitest send POST /entity/node --json '{"title": "{{title}}"}' --expect "body.nid exists"
  apitest send GET /session/token --visit /user/login --query token
  apitest send HEAD https://example.com/robots.txt -v`,
	Args: cobra.ExactArgs(2),
	RunE: sendCommand,
}

var (
	sendConfigFlag       string
	sendBaseURLFlag      string
	sendEnvFileFlag      string
	sendHeaderFlags      []string
	sendDataFlag         string
	sendJSONFlag         string
	sendFormFlags        []string
	sendDriverFlag       string
	sendVisitFlags       []string
	sendCookieFlags      []string
	sendQueryFlag        string
	sendExpectStatusFlag int
	sendExpectFlags      []string
	sendSchemaFlag       string
	sendJournalFlag      string
	sendTimeoutFlag      string
	sendInsecureFlag     bool
	sendProxyFlag        string
	sendVerboseFlag      bool
	sendNoColorFlag      bool
	sendLogLevelFlag     string
	sendOutputFlag       string
)

func init() {
	// Session flags
	sendCmd.Flags().StringVar(&sendConfigFlag, "config", getEnvString("APITEST_CONFIG", ""), "Path to config file (env: APITEST_CONFIG)")
	sendCmd.Flags().StringVarP(&sendBaseURLFlag, "base-url", "b", getEnvString("APITEST_BASE_URL", ""), "Application base URL (env: APITEST_BASE_URL)")
	sendCmd.Flags().StringVar(&sendEnvFileFlag, "env-file", getEnvString("APITEST_ENV_FILE", ""), "Path to .env file for variable interpolation (env: APITEST_ENV_FILE)")
	sendCmd.Flags().StringVar(&sendDriverFlag, "driver", getEnvString("APITEST_DRIVER", ""), "Browser driver: emulated, remote (env: APITEST_DRIVER)")
	sendCmd.Flags().StringArrayVar(&sendVisitFlags, "visit", nil, "Visit a page with the browser driver before sending (repeatable)")
	sendCmd.Flags().StringArrayVar(&sendCookieFlags, "cookie", nil, "Seed a browser cookie as name=value (repeatable)")

	// Request flags
	sendCmd.Flags().StringArrayVarP(&sendHeaderFlags, "header", "H", nil, "Request header as \"Name: value\" (repeatable)")
	sendCmd.Flags().StringVarP(&sendDataFlag, "data", "d", "", "Raw request body, or @file to read it from a file")
	sendCmd.Flags().StringVar(&sendJSONFlag, "json", "", "JSON request body")
	sendCmd.Flags().StringArrayVarP(&sendFormFlags, "form", "F", nil, "Form field as name=value (repeatable)")

	// Expectation flags
	sendCmd.Flags().StringVarP(&sendQueryFlag, "query", "q", "", "Print the JSON path from the response body")
	sendCmd.Flags().IntVar(&sendExpectStatusFlag, "expect-status", 0, "Fail unless the response has this status")
	sendCmd.Flags().StringArrayVarP(&sendExpectFlags, "expect", "e", nil, "Expectation such as \"body.id exists\" (repeatable)")
	sendCmd.Flags().StringVar(&sendSchemaFlag, "schema", "", "Validate the response body against a JSON schema file")

	// Network flags
	sendCmd.Flags().StringVar(&sendTimeoutFlag, "timeout", getEnvString("APITEST_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: APITEST_TIMEOUT)")
	sendCmd.Flags().StringVar(&sendProxyFlag, "proxy", getEnvString("APITEST_PROXY", ""), "Proxy URL for HTTP requests (env: APITEST_PROXY)")
	sendCmd.Flags().BoolVarP(&sendInsecureFlag, "insecure", "k", getEnvBool("APITEST_INSECURE", false), "Disable SSL certificate validation (env: APITEST_INSECURE)")

	// Output flags
	sendCmd.Flags().StringVar(&sendJournalFlag, "journal", getEnvString("APITEST_JOURNAL", ""), "Record the exchange in this SQLite journal (env: APITEST_JOURNAL)")
	sendCmd.Flags().BoolVarP(&sendVerboseFlag, "verbose", "v", false, "Print request and response headers and the body")
	sendCmd.Flags().BoolVar(&sendNoColorFlag, "no-color", getEnvBool("APITEST_NO_COLOR", false), "Disable colored output (env: APITEST_NO_COLOR)")
	sendCmd.Flags().StringVar(&sendLogLevelFlag, "log-level", getEnvString("APITEST_LOG_LEVEL", ""), "Log level: debug, info, warn, error (env: APITEST_LOG_LEVEL)")
	sendCmd.Flags().StringVarP(&sendOutputFlag, "output", "o", getEnvString("APITEST_OUTPUT", output.FormatConsole), "Output format: console, json (env: APITEST_OUTPUT)")
}

// captureRecorder keeps the last exchange for printing and forwards it to an
// optional journal.
type captureRecorder struct {
	next apirequest.Recorder
	last *apirequest.Exchange
}

func (r *captureRecorder) Record(ctx context.Context, ex *apirequest.Exchange) error {
	r.last = ex
	if r.next != nil {
		return r.next.Record(ctx, ex)
	}
	return nil
}

func sendCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(sendConfigFlag)
	if err != nil {
		return exitWith(ExitConfigError, fmt.Errorf("loading config: %w", err))
	}
	applySendFlags(cfg)

	noColor := cfg.GetNoColor()
	formatter, err := output.New(sendOutputFlag, cmd.OutOrStdout(), sendVerboseFlag, noColor)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}
	if sendVerboseFlag {
		formatter.FormatHeader(version)
	}

	fail := func(code int, err error) error {
		formatter.FormatError(err)
		if flushable, ok := formatter.(output.Flushable); ok {
			_ = flushable.Flush()
		}
		return exitWith(code, nil)
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Writer:  cmd.ErrOrStderr(),
		NoColor: noColor,
		File:    cfg.LogFile,
	})
	if err != nil {
		return fail(ExitConfigError, err)
	}
	defer logCloser.Close()

	timeout := cfg.TimeoutDuration()
	if sendTimeoutFlag != "" {
		timeout, err = time.ParseDuration(sendTimeoutFlag)
		if err != nil {
			return fail(ExitUsageError, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", sendTimeoutFlag, err))
		}
	}

	expectations, err := buildExpectations(cmd.Flags().Changed("expect-status"), sendExpectStatusFlag, sendSchemaFlag, sendExpectFlags)
	if err != nil {
		return fail(ExitUsageError, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver, err := browser.New(cfg.Driver, browser.Options{
		Timeout:     timeout,
		DevToolsURL: cfg.RemoteURL,
		Headless:    cfg.GetHeadless(),
		Logger:      logger,
	})
	if err != nil {
		return fail(ExitConfigError, err)
	}

	sess := session.New(cfg.BaseURL, driver,
		session.WithEnvFile(cfg.EnvFile),
		session.WithEnvPrefix(cfg.EnvPrefix),
		session.WithLogger(logger),
	)
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing browser driver")
		}
	}()

	if err := sess.Refresh(ctx); err != nil {
		return fail(ExitConfigError, err)
	}
	resolver := sess.Resolver()

	if err := seedCookies(driver, cfg.BaseURL, sendCookieFlags, resolver.Resolve); err != nil {
		return fail(ExitUsageError, err)
	}
	if err := visitPages(ctx, driver, cfg.BaseURL, sendVisitFlags, resolver.Resolve, logger); err != nil {
		return fail(ExitNetworkError, err)
	}

	opts, err := buildRequestOptions(requestInput{
		Headers: sendHeaderFlags,
		Data:    sendDataFlag,
		JSON:    sendJSONFlag,
		Form:    sendFormFlags,
	}, resolver.Resolve)
	if err != nil {
		return fail(ExitUsageError, err)
	}

	target, err := route.Parse(resolver.Resolve(args[1]))
	if err != nil {
		return fail(ExitUsageError, err)
	}

	client := http.NewClient(
		http.WithTimeout(timeout),
		http.WithValidateSSL(cfg.GetValidateSSL()),
		http.WithProxy(cfg.Proxy),
		http.WithDefaultHeaders(resolver.ResolveAll(cfg.Headers)),
	)

	recorder := &captureRecorder{}
	if cfg.Journal != "" {
		j, err := journal.Open(cfg.Journal)
		if err != nil {
			return fail(ExitConfigError, err)
		}
		defer j.Close()
		recorder.next = j
	}

	dispatcher := apirequest.NewDispatcher(sess, client,
		apirequest.WithRecorder(recorder),
		apirequest.WithLogger(logger),
	)

	method := strings.ToUpper(args[0])
	resp, err := dispatcher.Dispatch(ctx, method, target, opts)
	if err != nil {
		if errors.Is(err, route.ErrNoBaseURL) {
			return fail(ExitConfigError, fmt.Errorf("%w: pass --base-url or set baseUrl in the config file", err))
		}
		return fail(ExitNetworkError, err)
	}

	formatter.FormatExchange(recorder.last)

	if sendQueryFlag != "" {
		r := resp.JSONPath(sendQueryFlag)
		value := r.Raw
		if r.Type == gjson.String {
			value = r.String()
		}
		formatter.FormatQuery(sendQueryFlag, value, r.Exists())
	}

	results := assertions.EvaluateAll(resp, expectations)
	formatter.FormatResults(results)

	if flushable, ok := formatter.(output.Flushable); ok {
		if err := flushable.Flush(); err != nil {
			return exitWith(ExitUsageError, fmt.Errorf("error writing output: %w", err))
		}
	}

	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
	}
	if failed > 0 {
		return exitWith(ExitTestFailure, fmt.Errorf("%d of %d expectations failed", failed, len(results)))
	}
	return nil
}

// applySendFlags lays command line values over the loaded config.
func applySendFlags(cfg *config.Config) {
	if sendBaseURLFlag != "" {
		cfg.BaseURL = sendBaseURLFlag
	}
	if sendEnvFileFlag != "" {
		cfg.EnvFile = sendEnvFileFlag
	}
	if sendDriverFlag != "" {
		cfg.Driver = sendDriverFlag
	}
	if sendJournalFlag != "" {
		cfg.Journal = sendJournalFlag
	}
	if sendProxyFlag != "" {
		cfg.Proxy = sendProxyFlag
	}
	if sendInsecureFlag {
		cfg.ValidateSSL = config.BoolPtr(false)
	}
	if sendNoColorFlag {
		cfg.NoColor = config.BoolPtr(true)
	}
	if sendLogLevelFlag != "" {
		cfg.LogLevel = sendLogLevelFlag
	}
}

type requestInput struct {
	Headers []string
	Data    string
	JSON    string
	Form    []string
}

// buildRequestOptions turns command line request flags into transport
// options. Only one body source may be given.
func buildRequestOptions(in requestInput, resolve func(string) string) (http.Options, error) {
	opts := http.Options{}

	bodies := 0
	for _, set := range []bool{in.Data != "", in.JSON != "", len(in.Form) > 0} {
		if set {
			bodies++
		}
	}
	if bodies > 1 {
		return nil, fmt.Errorf("only one of --data, --json and --form may be used")
	}

	if len(in.Headers) > 0 {
		headers := make(map[string]string, len(in.Headers))
		for _, h := range in.Headers {
			name, value, ok := strings.Cut(h, ":")
			name = strings.TrimSpace(name)
			if !ok || name == "" {
				return nil, fmt.Errorf("invalid header %q (use \"Name: value\")", h)
			}
			headers[name] = resolve(strings.TrimSpace(value))
		}
		opts[http.OptionHeaders] = headers
	}

	switch {
	case in.Data != "":
		data := in.Data
		if path, ok := strings.CutPrefix(data, "@"); ok {
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading body file: %w", err)
			}
			data = string(content)
		}
		opts[http.OptionBody] = resolve(data)
	case in.JSON != "":
		var v any
		if err := json.Unmarshal([]byte(resolve(in.JSON)), &v); err != nil {
			return nil, fmt.Errorf("invalid --json body: %w", err)
		}
		opts[http.OptionJSON] = v
	case len(in.Form) > 0:
		form := make(map[string]string, len(in.Form))
		for _, f := range in.Form {
			name, value, err := parseKeyValue(f)
			if err != nil {
				return nil, fmt.Errorf("invalid form field: %w", err)
			}
			form[name] = resolve(value)
		}
		opts[http.OptionFormParams] = form
	}

	return opts, nil
}

func buildExpectations(checkStatus bool, status int, schema string, exprs []string) ([]*assertions.Assertion, error) {
	var out []*assertions.Assertion
	if checkStatus {
		out = append(out, &assertions.Assertion{Subject: "status", Operator: assertions.OpEquals, Expected: status})
	}
	if schema != "" {
		out = append(out, &assertions.Assertion{Subject: "body", Operator: assertions.OpSchema, Expected: schema})
	}
	for _, expr := range exprs {
		a, err := assertions.Parse(expr)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func parseKeyValue(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("%q is not name=value", s)
	}
	return name, value, nil
}

type cookieSeeder interface {
	Set(rawURL, name, value string) error
}

// seedCookies stores name=value pairs in the driver's jar for baseURL.
func seedCookies(driver browser.Driver, baseURL string, pairs []string, resolve func(string) string) error {
	if len(pairs) == 0 {
		return nil
	}
	jar, ok := driver.CookieJar()
	seeder, canSeed := jar.(cookieSeeder)
	if !ok || !canSeed {
		return fmt.Errorf("driver %q does not expose a cookie jar; --cookie needs the emulated driver", driver.Name())
	}
	if baseURL == "" {
		return fmt.Errorf("--cookie needs a base URL: %w", route.ErrNoBaseURL)
	}
	for _, pair := range pairs {
		name, value, err := parseKeyValue(pair)
		if err != nil {
			return fmt.Errorf("invalid cookie: %w", err)
		}
		if err := seeder.Set(baseURL, name, resolve(value)); err != nil {
			return err
		}
	}
	return nil
}

func visitPages(ctx context.Context, driver browser.Driver, baseURL string, paths []string, resolve func(string) string, logger zerolog.Logger) error {
	for _, p := range paths {
		u, err := route.Parse(resolve(p))
		if err != nil {
			return err
		}
		abs, err := u.Absolute(baseURL)
		if err != nil {
			return fmt.Errorf("visiting %s: %w", p, err)
		}
		page, err := driver.Visit(ctx, abs)
		if err != nil {
			return err
		}
		logger.Info().Str("url", page.URL).Int("status", page.StatusCode).Str("title", page.Title).Msg("visited")
	}
	return nil
}
