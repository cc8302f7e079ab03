package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/odyssey-erp/lending-backoffice/internal/auth"
	"github.com/odyssey-erp/lending-backoffice/internal/shared"
)

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a single file readable only by its owner.
type FileTokenStore struct {
	Path string
}

// NewFileTokenStore returns a store at path, or at the default location when empty.
func NewFileTokenStore(path string) (*FileTokenStore, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("client: resolve config dir: %w", err)
		}
		path = filepath.Join(dir, "backoffice", "token")
	}
	return &FileTokenStore{Path: path}, nil
}

func (s *FileTokenStore) Load() (string, error) {
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, []byte(token), 0o600)
}

func (s *FileTokenStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryTokenStore keeps the token in process memory.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// Session is the current user of a Client. The identity is decoded from the
// token for display and capability checks only; the server verifies every call.
type Session struct {
	mu        sync.RWMutex
	store     TokenStore
	token     string
	principal *shared.Principal
	expiresAt time.Time
	now       func() time.Time
}

// NewSession creates an empty session backed by store.
func NewSession(store TokenStore) *Session {
	if store == nil {
		store = NewMemoryTokenStore()
	}
	return &Session{store: store, now: time.Now}
}

// WithNow overrides the clock used for expiry checks.
func (s *Session) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Hydrate loads the persisted token. Unreadable, malformed or expired tokens
// leave the session signed out and are removed from the store.
func (s *Session) Hydrate() error {
	raw, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("client: load token: %w", err)
	}
	if raw == "" {
		return nil
	}
	if err := s.apply(raw); err != nil {
		_ = s.store.Clear()
		s.reset()
		return nil
	}
	return nil
}

// SetToken installs a freshly issued token and persists it.
func (s *Session) SetToken(raw string) error {
	if err := s.apply(raw); err != nil {
		return err
	}
	if err := s.store.Save(raw); err != nil {
		return fmt.Errorf("client: save token: %w", err)
	}
	return nil
}

func (s *Session) apply(raw string) error {
	claims, err := auth.DecodeUnverified(raw)
	if err != nil {
		return err
	}
	var expires time.Time
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
		if !expires.After(s.now()) {
			return fmt.Errorf("%w: token expired", auth.ErrInvalidToken)
		}
	}
	s.mu.Lock()
	s.token = raw
	s.principal = claims.Principal()
	s.expiresAt = expires
	s.mu.Unlock()
	return nil
}

func (s *Session) reset() {
	s.mu.Lock()
	s.token = ""
	s.principal = nil
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

// Token returns the bearer token, or "" when signed out or expired.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return ""
	}
	if !s.expiresAt.IsZero() && !s.expiresAt.After(s.now()) {
		return ""
	}
	return s.token
}

// Principal returns the decoded identity, or nil when signed out.
func (s *Session) Principal() *shared.Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal
}

// Authenticated reports whether the session holds a usable token.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// IsAdmin is the single capability check used before admin operations.
func (s *Session) IsAdmin() bool {
	return s.Principal().IsAdmin()
}

// ExpiresAt returns the token expiry, zero when unknown.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Clear drops the token from memory and the store.
func (s *Session) Clear() {
	s.reset()
	_ = s.store.Clear()
}
