// Package session holds the ambient state of a functional test: the
// application base URL, the browser driver and the variables loaded from the
// environment.
package session

import (
	"context"
	"fmt"

	"github.com/abdul-hamid-achik/apitest/packages/browser"
	"github.com/abdul-hamid-achik/apitest/packages/core/env"
	"github.com/rs/zerolog"
)

// RefreshFunc reloads state owned outside the session. Hooks run after the
// session variables have been reloaded.
type RefreshFunc func(ctx context.Context) error

type Session struct {
	baseURL   string
	driver    browser.Driver
	resolver  *env.Resolver
	envFile   string
	envPrefix string
	hooks     []RefreshFunc
	logger    zerolog.Logger
}

type Option func(*Session)

func WithEnvFile(path string) Option {
	return func(s *Session) {
		s.envFile = path
	}
}

// WithEnvPrefix selects process environment variables by prefix.
func WithEnvPrefix(prefix string) Option {
	return func(s *Session) {
		s.envPrefix = prefix
	}
}

func WithRefreshHook(fn RefreshFunc) Option {
	return func(s *Session) {
		s.hooks = append(s.hooks, fn)
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

func New(baseURL string, driver browser.Driver, opts ...Option) *Session {
	s := &Session{
		baseURL:  baseURL,
		driver:   driver,
		resolver: env.NewResolver(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver.SetWarnFunc(func(format string, args ...any) {
		s.logger.Warn().Msgf(format, args...)
	})
	return s
}

func (s *Session) BaseURL() string {
	return s.baseURL
}

func (s *Session) Driver() browser.Driver {
	return s.driver
}

func (s *Session) Resolver() *env.Resolver {
	return s.resolver
}

// OnRefresh registers an additional refresh hook.
func (s *Session) OnRefresh(fn RefreshFunc) {
	s.hooks = append(s.hooks, fn)
}

// Refresh reloads the session variables from the env file and the process
// environment, then runs the refresh hooks in registration order. Process
// environment values win over the env file. The first failing hook stops
// the refresh.
func (s *Session) Refresh(ctx context.Context) error {
	var fileVars map[string]string
	if s.envFile != "" {
		vars, err := env.LoadDotEnv(s.envFile)
		if err != nil {
			return err
		}
		fileVars = vars
	}

	vars := env.MergeVariables(env.StringVariables(fileVars), env.LoadSystemEnv(s.envPrefix))
	s.resolver.Replace(vars)

	for i, hook := range s.hooks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := hook(ctx); err != nil {
			return fmt.Errorf("refresh hook %d: %w", i, err)
		}
	}

	s.logger.Debug().Int("variables", len(vars)).Int("hooks", len(s.hooks)).Msg("session refreshed")
	return nil
}

// Close releases the driver.
func (s *Session) Close() error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Close()
}
