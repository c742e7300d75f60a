// authenticationhandler/tokenstore.go
package authenticationhandler

import (
	"time"
)

// DefaultTokenRefreshBufferPeriod is the margin before expiry at which a token stops being
// handed out. It covers the latency between a validity check and the request using it.
const DefaultTokenRefreshBufferPeriod = 10 * time.Second

// Token is a bearer credential and the instant it stops being accepted.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// TokenStore holds at most one token. It performs no locking; the Coordinator is its only
// writer and serialises access.
type TokenStore struct {
	token *Token
	now   func() time.Time
}

// NewTokenStore creates an empty store. A nil clock defaults to time.Now.
func NewTokenStore(now func() time.Time) *TokenStore {
	if now == nil {
		now = time.Now
	}
	return &TokenStore{now: now}
}

// Set replaces the current token.
func (s *TokenStore) Set(token Token) {
	s.token = &token
}

// Clear removes the current token.
func (s *TokenStore) Clear() {
	s.token = nil
}

// IsValid reports whether a token is present and now < expiresAt - margin.
func (s *TokenStore) IsValid(margin time.Duration) bool {
	if s.token == nil {
		return false
	}
	return s.now().Before(s.token.ExpiresAt.Add(-margin))
}

// Current returns the token only while it is valid. A stale token is never returned.
func (s *TokenStore) Current(margin time.Duration) (Token, bool) {
	if !s.IsValid(margin) {
		return Token{}, false
	}
	return *s.token, true
}

// Now reads the store's clock.
func (s *TokenStore) Now() time.Time {
	return s.now()
}
