// Package session holds the process-wide authentication state: the selected
// API environment and the optional bearer token.
package session

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Environment selects which base URL requests are sent to.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// ParseEnvironment converts a config value into an Environment.
func ParseEnvironment(value string) (Environment, error) {
	switch env := Environment(strings.ToLower(strings.TrimSpace(value))); env {
	case Development, Staging, Production:
		return env, nil
	default:
		return "", fmt.Errorf("unknown environment %q", value)
	}
}

// Session is safe for concurrent use. Writes come from bootstrap and the
// login/logout flows; the request pipeline only reads.
type Session struct {
	mu    sync.RWMutex
	env   Environment
	urls  map[Environment]string
	token *string
}

// New returns a session for env with the given base URL per environment.
func New(env Environment, urls map[Environment]string) *Session {
	copied := make(map[Environment]string, len(urls))
	for k, v := range urls {
		copied[k] = v
	}
	return &Session{env: env, urls: copied}
}

// SetEnvironment switches the active environment.
func (s *Session) SetEnvironment(env Environment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env = env
}

// Environment returns the active environment.
func (s *Session) Environment() Environment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.env
}

// SetAccessToken stores token; nil or blank clears it.
func (s *Session) SetAccessToken(token *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == nil || strings.TrimSpace(*token) == "" {
		s.token = nil
		return
	}
	value := *token
	s.token = &value
}

// ClearAccessToken removes the token. Safe to call repeatedly.
func (s *Session) ClearAccessToken() {
	s.SetAccessToken(nil)
}

// AccessToken returns the bearer token and whether one is set.
func (s *Session) AccessToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return "", false
	}
	return *s.token, true
}

// BaseURL derives the base URL from the active environment.
func (s *Session) BaseURL() (*url.URL, error) {
	s.mu.RLock()
	env := s.env
	raw, ok := s.urls[env]
	s.mu.RUnlock()

	if !ok || strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("no base url configured for %s", env)
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", raw)
	}
	return u, nil
}

// MustBaseURL panics when the environment is misconfigured. Use it at startup
// only; a bad base URL is a configuration error, not a runtime one.
func (s *Session) MustBaseURL() *url.URL {
	u, err := s.BaseURL()
	if err != nil {
		panic(err)
	}
	return u
}
