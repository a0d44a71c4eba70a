package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmulatedDriver_VisitKeepsCookies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/login":
			http.SetCookie(w, &http.Cookie{Name: "SESS1", Value: "abc", Path: "/"})
			http.Redirect(w, r, "/user/1", http.StatusSeeOther)
		case "/user/1":
			c, err := r.Cookie("SESS1")
			if err != nil {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = w.Write([]byte(`<html><head><title>User ` + c.Value + `</title></head><body><h1> Account </h1></body></html>`))
		}
	}))
	defer server.Close()

	d, err := NewEmulatedDriver()
	require.NoError(t, err)
	defer d.Close()

	page, err := d.Visit(context.Background(), server.URL+"/user/login")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, "User abc", page.Title)
	assert.Equal(t, "Account", page.Text("h1"))
	assert.Equal(t, []string{server.URL + "/user/1"}, d.History())

	jar, ok := d.CookieJar()
	require.True(t, ok)
	assert.Equal(t, []string{"SESS1=abc"}, names(jar.All()))
}

func TestEmulatedDriver_ErrorStatusIsAPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<title>Not found</title>`))
	}))
	defer server.Close()

	d, err := NewEmulatedDriver(WithUserAgent("tests"))
	require.NoError(t, err)

	page, err := d.Visit(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, page.StatusCode)
	assert.Equal(t, "Not found", page.Title)
}

func TestEmulatedDriver_Reset(t *testing.T) {
	d, err := NewEmulatedDriver()
	require.NoError(t, err)

	require.NoError(t, d.Jar().Set("http://localhost", "a", "1"))
	require.NoError(t, d.Reset())

	assert.Empty(t, d.Jar().All())
	assert.Empty(t, d.History())
}

func TestRemoteDriver_HasNoCookieJar(t *testing.T) {
	d := NewRemoteDriver(WithDevToolsURL("ws://127.0.0.1:9222"))

	jar, ok := d.CookieJar()
	assert.False(t, ok)
	assert.Nil(t, jar)
	assert.Equal(t, "remote", d.Name())
	assert.NoError(t, d.Close())
}

func TestRegistry(t *testing.T) {
	assert.Subset(t, Names(), []string{"emulated", "remote"})

	d, err := New("", Options{})
	require.NoError(t, err)
	assert.Equal(t, "emulated", d.Name())

	d, err = New("Remote", Options{Headless: true})
	require.NoError(t, err)
	assert.Equal(t, "remote", d.Name())

	_, err = New("selenium", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}
