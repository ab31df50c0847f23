package auth

import (
	"context"
	"sync"
)

// NewInMemorySessionStore returns a SessionStore backed by in-memory maps.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		byRefresh: make(map[string]Session),
		byAccess:  make(map[string]string),
	}
}

// InMemorySessionStore implements SessionStore for tests and local development.
type InMemorySessionStore struct {
	mu        sync.RWMutex
	byRefresh map[string]Session
	byAccess  map[string]string
}

// Save persists the provided session record.
func (s *InMemorySessionStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	s.byRefresh[session.RefreshToken] = session
	s.byAccess[session.AccessToken] = session.RefreshToken
	s.mu.Unlock()
	return nil
}

// FindByAccessToken retrieves a session by access token.
func (s *InMemorySessionStore) FindByAccessToken(_ context.Context, accessToken string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refreshToken, ok := s.byAccess[accessToken]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	session, ok := s.byRefresh[refreshToken]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

// FindByRefreshToken retrieves a session by refresh token.
func (s *InMemorySessionStore) FindByRefreshToken(_ context.Context, refreshToken string) (Session, error) {
	s.mu.RLock()
	session, ok := s.byRefresh[refreshToken]
	s.mu.RUnlock()
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Delete removes the session associated with the refresh token.
func (s *InMemorySessionStore) Delete(_ context.Context, refreshToken string) error {
	s.mu.Lock()
	if session, ok := s.byRefresh[refreshToken]; ok {
		delete(s.byAccess, session.AccessToken)
	}
	delete(s.byRefresh, refreshToken)
	s.mu.Unlock()
	return nil
}

// Has reports whether a refresh token exists. Useful for tests.
func (s *InMemorySessionStore) Has(refreshToken string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byRefresh[refreshToken]
	return ok
}
