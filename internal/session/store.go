// Package session persists the authentication token and the cached user
// profile between runs.
package session

import (
	"errors"
	"sync"

	"github.com/eia/publicaciones/pkg/domain"
)

// ErrNoSession is returned when updating the profile of a session that does not exist.
var ErrNoSession = errors.New("session: no active session")

// Store holds the current session. Token and user are set and cleared together.
type Store interface {
	// Token returns the bearer token, if a session exists.
	Token() (string, bool)
	// User returns the cached profile, if one has been stored.
	User() (*domain.User, bool)
	// Set replaces the session. user may be nil when only the token is known.
	Set(token string, user *domain.User) error
	// SetUser caches the profile for the existing session.
	SetUser(user *domain.User) error
	// Clear removes the token and the cached user.
	Clear() error
}

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	token string
	user  *domain.User
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *MemoryStore) User() (*domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, false
	}
	u := *s.user
	return &u, true
}

func (s *MemoryStore) Set(token string, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = copyUser(user)
	return nil
}

func (s *MemoryStore) SetUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return ErrNoSession
	}
	s.user = copyUser(user)
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	return nil
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}
