package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/apitest/packages/assertions"
	"github.com/abdul-hamid-achik/apitest/packages/browser"
	apihttp "github.com/abdul-hamid-achik/apitest/packages/http"
	"github.com/abdul-hamid-achik/apitest/packages/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(s string) string { return s }

func TestBuildRequestOptions(t *testing.T) {
	resolve := func(s string) string { return strings.ReplaceAll(s, "{{token}}", "abc") }

	t.Run("headers", func(t *testing.T) {
		opts, err := buildRequestOptions(requestInput{Headers: []string{"Accept: application/json", "X-Token:{{token}}"}}, resolve)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"Accept": "application/json", "X-Token": "abc"}, opts.Headers())
		assert.False(t, opts.Has(apihttp.OptionBody))
	})

	t.Run("raw body", func(t *testing.T) {
		opts, err := buildRequestOptions(requestInput{Data: "token={{token}}"}, resolve)
		require.NoError(t, err)
		assert.Equal(t, "token=abc", opts[apihttp.OptionBody])
	})

	t.Run("body from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "body.txt")
		require.NoError(t, os.WriteFile(path, []byte("from file"), 0644))

		opts, err := buildRequestOptions(requestInput{Data: "@" + path}, identity)
		require.NoError(t, err)
		assert.Equal(t, "from file", opts[apihttp.OptionBody])
	})

	t.Run("json body", func(t *testing.T) {
		opts, err := buildRequestOptions(requestInput{JSON: `{"title": "{{token}}"}`}, resolve)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"title": "abc"}, opts[apihttp.OptionJSON])
	})

	t.Run("form", func(t *testing.T) {
		opts, err := buildRequestOptions(requestInput{Form: []string{"name=admin", "pass={{token}}"}}, resolve)
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"name": "admin", "pass": "abc"}, opts[apihttp.OptionFormParams])
	})

	errorCases := map[string]requestInput{
		"bad header":        {Headers: []string{"no colon"}},
		"two bodies":        {Data: "a", JSON: "{}"},
		"invalid json":      {JSON: "{"},
		"bad form field":    {Form: []string{"novalue"}},
		"missing body file": {Data: "@" + filepath.Join(t.TempDir(), "missing")},
	}
	for name, in := range errorCases {
		t.Run(name, func(t *testing.T) {
			_, err := buildRequestOptions(in, identity)
			assert.Error(t, err)
		})
	}
}

func TestBuildExpectations(t *testing.T) {
	got, err := buildExpectations(true, 404, "schema.json", []string{"header Location == /destination"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, &assertions.Assertion{Subject: "status", Operator: assertions.OpEquals, Expected: 404}, got[0])
	assert.Equal(t, assertions.OpSchema, got[1].Operator)
	assert.Equal(t, "header Location", got[2].Subject)

	got, err = buildExpectations(false, 0, "", nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = buildExpectations(false, 0, "", []string{"status"})
	assert.Error(t, err)
}

func TestSeedCookies(t *testing.T) {
	driver, err := browser.NewEmulatedDriver()
	require.NoError(t, err)

	err = seedCookies(driver, "http://localhost:8080", []string{"XDEBUG_SESSION=PHPSTORM", "SESS=1"}, identity)
	require.NoError(t, err)

	cookies := driver.Jar().All()
	require.Len(t, cookies, 2)
	assert.Equal(t, "XDEBUG_SESSION=PHPSTORM", cookies[0].String())
	assert.Equal(t, "SESS=1", cookies[1].String())

	assert.Error(t, seedCookies(driver, "", []string{"a=1"}, identity))
	assert.Error(t, seedCookies(driver, "http://localhost", []string{"novalue"}, identity))
	assert.NoError(t, seedCookies(browser.NewRemoteDriver(), "http://localhost", nil, identity))
	assert.Error(t, seedCookies(browser.NewRemoteDriver(), "http://localhost", []string{"a=1"}, identity))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitTestFailure, exitCode(exitWith(ExitTestFailure, nil)))
	assert.Equal(t, ExitNetworkError, exitCode(exitWith(ExitNetworkError, errors.New("refused"))))
	assert.Equal(t, ExitUsageError, exitCode(errors.New("unknown flag")))
}

func TestSendAndHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"path":   r.URL.Path,
			"cookie": r.Header.Get("Cookie"),
		})
	}))
	defer server.Close()

	dbPath := filepath.Join(t.TempDir(), "journal.db")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{
		"send", "get", "/node/1",
		"--base-url", server.URL,
		"--cookie", "XDEBUG_SESSION=PHPSTORM",
		"--journal", dbPath,
		"--expect-status", "404",
		"--expect", "body.cookie == XDEBUG_SESSION=PHPSTORM",
		"--query", "path",
		"--no-color",
		"-o", "json",
	})
	require.NoError(t, rootCmd.Execute())

	var sent output.JSONOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &sent))
	assert.True(t, sent.Passed)
	require.NotNil(t, sent.Request)
	assert.Equal(t, "GET", sent.Request.Method)
	assert.Equal(t, server.URL+"/node/1", sent.Request.URL)
	assert.Equal(t, "XDEBUG_SESSION=PHPSTORM", sent.Request.Headers["Cookie"])
	require.NotNil(t, sent.Response)
	assert.Equal(t, 404, sent.Response.StatusCode)
	require.NotNil(t, sent.Query)
	assert.Equal(t, "/node/1", sent.Query.Value)
	assert.Len(t, sent.Assertions, 2)

	out.Reset()
	rootCmd.SetArgs([]string{"history", "--journal", dbPath, "-o", "json", "--no-color"})
	require.NoError(t, rootCmd.Execute())

	var history output.JSONOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &history))
	require.Len(t, history.History, 1)
	assert.Equal(t, "GET", history.History[0].Method)
	assert.Equal(t, 404, history.History[0].Status)
}
