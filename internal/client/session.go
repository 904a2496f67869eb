package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// User is the public user view returned by the API.
type User struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatarUrl"`
}

// Session holds the signed-in user and token. When created with LoadSession
// every change is persisted to its file.
type Session struct {
	mu    sync.RWMutex
	path  string
	token string
	user  *User
}

type sessionFile struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// NewSession returns an empty in-memory session.
func NewSession() *Session {
	return &Session{}
}

// LoadSession reads the session stored at path. A missing file yields an
// empty session bound to path.
func LoadSession(path string) (*Session, error) {
	s := &Session{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", path, err)
	}
	s.token = f.Token
	s.user = f.User
	return s, nil
}

// CurrentUser returns the signed-in user, or nil.
func (s *Session) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// CurrentToken returns the bearer token, or "".
func (s *Session) CurrentToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetSession replaces the token and user. user may be nil when only a token
// is known, e.g. after the OAuth redirect.
func (s *Session) SetSession(token string, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
	return s.save()
}

// ClearSession signs out.
func (s *Session) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

func (s *Session) save() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(sessionFile{Token: s.token, User: s.user}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}
