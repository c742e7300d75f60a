package authenticationhandler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced clock shared by the auth tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func TestTokenStore_EmptyIsInvalid(t *testing.T) {
	store := NewTokenStore(nil)

	assert.False(t, store.IsValid(DefaultTokenRefreshBufferPeriod))
	_, ok := store.Current(DefaultTokenRefreshBufferPeriod)
	assert.False(t, ok)
}

func TestTokenStore_ValidityHonoursMargin(t *testing.T) {
	clock := newFakeClock()
	store := NewTokenStore(clock.Now)
	store.Set(Token{AccessToken: "tok", ExpiresAt: clock.Now().Add(time.Minute)})

	assert.True(t, store.IsValid(10*time.Second))

	clock.Advance(49 * time.Second)
	assert.True(t, store.IsValid(10*time.Second))

	clock.Advance(time.Second)
	assert.False(t, store.IsValid(10*time.Second), "now == expiresAt - margin is invalid")
	assert.True(t, store.IsValid(0))
}

func TestTokenStore_CurrentNeverReturnsStaleToken(t *testing.T) {
	clock := newFakeClock()
	store := NewTokenStore(clock.Now)
	store.Set(Token{AccessToken: "tok", ExpiresAt: clock.Now().Add(30 * time.Second)})

	token, ok := store.Current(10 * time.Second)
	assert.True(t, ok)
	assert.Equal(t, "tok", token.AccessToken)

	clock.Advance(25 * time.Second)
	token, ok = store.Current(10 * time.Second)
	assert.False(t, ok)
	assert.Empty(t, token.AccessToken)
}

func TestTokenStore_SetReplacesAndClearRemoves(t *testing.T) {
	clock := newFakeClock()
	store := NewTokenStore(clock.Now)

	store.Set(Token{AccessToken: "first", ExpiresAt: clock.Now().Add(time.Hour)})
	store.Set(Token{AccessToken: "second", ExpiresAt: clock.Now().Add(time.Hour)})

	token, ok := store.Current(0)
	assert.True(t, ok)
	assert.Equal(t, "second", token.AccessToken)

	store.Clear()
	assert.False(t, store.IsValid(0))
}
