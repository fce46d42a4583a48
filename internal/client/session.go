// Package client is the Go rendition of the mobile app's networking layer: a
// session controller owning the auth token, an API client for the server's
// HTTP surface, and a chat controller maintaining the visible message log.
package client

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// tokenFileName is the fixed key under which the session token is persisted.
const tokenFileName = "token"

// Session holds the current auth token and persists it across restarts. It is
// an explicit dependency of the API client; no component attaches headers
// through ambient global state.
type Session struct {
	mu    sync.Mutex
	path  string
	token string
}

// DefaultTokenPath returns the durable location of the token file under the
// user's config directory.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "medvise", tokenFileName), nil
}

// NewSession restores any previously persisted token from path. A missing
// file simply means unauthenticated.
func NewSession(path string) (*Session, error) {
	s := &Session{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	s.token = strings.TrimSpace(string(data))
	return s, nil
}

// SetToken stores and persists a token, or clears both when token is empty.
// Clearing while already unauthenticated is a no-op.
func (s *Session) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		s.token = ""
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}

	s.token = token
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token), 0o600)
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Authorize attaches the bearer header to an outgoing request when a token is
// held.
func (s *Session) Authorize(req *http.Request) {
	if token := s.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
