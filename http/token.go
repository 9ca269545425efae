package http

import (
	"sync"

	"github.com/google/uuid"
)

// TokenStore holds the single process-wide bearer token. Every successful
// login replaces it atomically, which silently deauthorizes any other
// client still holding the previous token. This mirrors the historical
// single-token behavior; a per-session token map would be the hardening.
type TokenStore struct {
	mu    sync.RWMutex
	token string
}

func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Issue mints a fresh token, replacing whatever was issued before.
func (s *TokenStore) Issue() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = uuid.NewString()
	return s.token
}

// Matches reports whether presented equals the current token. Before any
// login has happened there is no token and nothing matches.
func (s *TokenStore) Matches(presented string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && presented == s.token
}
