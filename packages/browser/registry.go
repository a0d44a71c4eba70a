package browser

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options carries the settings a driver constructor may use.
type Options struct {
	Timeout     time.Duration
	DevToolsURL string
	Headless    bool
	Logger      zerolog.Logger
}

// Constructor builds a named driver.
type Constructor func(opts Options) (Driver, error)

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

func init() {
	Register("emulated", func(opts Options) (Driver, error) {
		emulatedOpts := []EmulatedOption{WithEmulatedLogger(opts.Logger)}
		if opts.Timeout > 0 {
			emulatedOpts = append(emulatedOpts, WithHTTPClient(&http.Client{Timeout: opts.Timeout}))
		}
		return NewEmulatedDriver(emulatedOpts...)
	})
	Register("remote", func(opts Options) (Driver, error) {
		remoteOpts := []RemoteOption{
			WithHeadless(opts.Headless),
			WithRemoteLogger(opts.Logger),
		}
		if opts.DevToolsURL != "" {
			remoteOpts = append(remoteOpts, WithDevToolsURL(opts.DevToolsURL))
		}
		if opts.Timeout > 0 {
			remoteOpts = append(remoteOpts, WithVisitTimeout(opts.Timeout))
		}
		return NewRemoteDriver(remoteOpts...), nil
	})
}

// Register adds a named driver constructor. Names are case-insensitive and a
// later registration replaces an earlier one.
func Register(name string, ctor Constructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// New constructs the named driver. An empty name selects "emulated".
func New(name string, opts Options) (Driver, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "emulated"
	}

	mu.RLock()
	ctor, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("browser driver %q not registered: available drivers=%v", name, Names())
	}

	d, err := ctor(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to construct browser driver %q: %w", name, err)
	}
	if d == nil {
		return nil, errors.New("browser driver constructor returned nil")
	}
	return d, nil
}

// Names returns the registered driver names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
