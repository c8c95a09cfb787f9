// Package session provides the durable key-value store behind the login
// session: the bearer token, the current-user snapshot, and (when the local
// identity provider is active) the persisted user list. It is the single
// source of truth for "who is logged in"; both identity providers and the
// resource client read it.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/posthub/posthub/internal/logger"
	"github.com/posthub/posthub/internal/model"
)

// Slot keys. Token and current user are always written or cleared together;
// the user list belongs to the local identity provider and survives logout.
const (
	KeyToken       = "token"
	KeyCurrentUser = "current_user"
	KeyUsers       = "users"
)

// Store is a file-backed key-value store. Every write is flushed to disk
// immediately, so all readers in the process observe it at once.
type Store struct {
	path string
	mu   sync.Mutex
	data map[string]json.RawMessage
}

// DefaultPath returns the default store path (~/.posthub/session.json)
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".posthub", "session.json"), nil
}

// Open loads the store at path, starting empty if the file does not exist
// or cannot be parsed.
func Open(path string) (*Store, error) {
	s := &Store{path: path, data: map[string]json.RawMessage{}}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read session store: %w", err)
		}
		return s, nil
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		logger.Warn("Session store corrupted, starting empty", logger.F("path", path))
		s.data = map[string]json.RawMessage{}
	}
	return s, nil
}

// OpenDefault opens the store at the default path.
func OpenDefault() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// save persists the whole map. Caller must hold mu.
func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

// Get returns the raw value for key, or false if unset.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores value under key and persists immediately.
func (s *Store) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = raw
	return s.save()
}

// Remove deletes key and persists immediately. Removing an absent key is a
// no-op.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.save()
}

// Token returns the stored bearer token, or "" when logged out.
func (s *Store) Token() string {
	raw, ok := s.Get(KeyToken)
	if !ok {
		return ""
	}
	var token string
	if err := json.Unmarshal(raw, &token); err != nil {
		return ""
	}
	return token
}

// CurrentUser returns the current-user snapshot, or nil when logged out or
// when the slot is unparsable. It never fails.
func (s *Store) CurrentUser() *model.User {
	raw, ok := s.Get(KeyCurrentUser)
	if !ok {
		return nil
	}
	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil
	}
	return &u
}

// SetSession establishes a session, writing token and current user as a
// pair. Partial session state is never written.
func (s *Store) SetSession(token string, user *model.User) error {
	rawToken, err := json.Marshal(token)
	if err != nil {
		return err
	}
	rawUser, err := json.Marshal(user)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[KeyToken] = rawToken
	s.data[KeyCurrentUser] = rawUser
	return s.save()
}

// ClearSession destroys the session, removing token and current user
// together. The user list is untouched.
func (s *Store) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, KeyToken)
	delete(s.data, KeyCurrentUser)
	return s.save()
}

// Users returns the persisted user list, or nil if unset or unparsable.
func (s *Store) Users() []model.User {
	raw, ok := s.Get(KeyUsers)
	if !ok {
		return nil
	}
	var users []model.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil
	}
	return users
}

// SetUsers persists the user list.
func (s *Store) SetUsers(users []model.User) error {
	return s.Set(KeyUsers, users)
}
