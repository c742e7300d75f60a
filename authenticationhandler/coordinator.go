// authenticationhandler/coordinator.go
package authenticationhandler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"

	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// State is the authentication state of a Coordinator.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unauthenticated"
	}
}

// Credentials identify an API client on a Jamf Pro server.
type Credentials struct {
	ServerURL    string
	ClientID     string
	ClientSecret string
	Persist      bool
}

// missing lists the empty identity fields.
func (c Credentials) missing() []string {
	var fields []string
	if c.ServerURL == "" {
		fields = append(fields, "server URL")
	}
	if c.ClientID == "" {
		fields = append(fields, "client ID")
	}
	if c.ClientSecret == "" {
		fields = append(fields, "client secret")
	}
	return fields
}

// Complete reports whether server URL, client ID and client secret are all set.
func (c Credentials) Complete() bool {
	return len(c.missing()) == 0
}

func (c Credentials) sameIdentity(other Credentials) bool {
	return c.ServerURL == other.ServerURL && c.ClientID == other.ClientID && c.ClientSecret == other.ClientSecret
}

// flightKey groups concurrent exchanges by identity. The secret is hashed so it never
// sits in the singleflight map in clear text.
func (c Credentials) flightKey() string {
	sum := sha256.Sum256([]byte(c.ClientSecret))
	return c.ServerURL + "\n" + c.ClientID + "\n" + hex.EncodeToString(sum[:])
}

// CredentialPersister stores credentials outside the process.
type CredentialPersister interface {
	Save(creds Credentials) error
	Forget(clientID string) error
}

// Coordinator owns the credentials and the token. It is the only writer to its TokenStore;
// every read and write happens under mu.
type Coordinator struct {
	exchanger CredentialExchanger
	persister CredentialPersister
	log       logger.Logger
	margin    time.Duration

	mu                sync.Mutex
	store             *TokenStore
	creds             Credentials
	lastAuthenticated *Credentials
	state             State
	lastErr           error

	flight         singleflight.Group
	authenticating atomic.Int32
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithTokenStore replaces the default TokenStore, typically to inject a clock.
func WithTokenStore(store *TokenStore) CoordinatorOption {
	return func(c *Coordinator) { c.store = store }
}

// WithRefreshBuffer sets the validity margin applied to the token.
func WithRefreshBuffer(margin time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.margin = margin }
}

// WithPersister enables credential persistence.
func WithPersister(p CredentialPersister) CoordinatorOption {
	return func(c *Coordinator) { c.persister = p }
}

// WithStoredCredentials seeds credentials that were loaded from persistent storage, so the
// first successful authentication does not write them back unchanged.
func WithStoredCredentials(creds Credentials) CoordinatorOption {
	return func(c *Coordinator) {
		c.creds = creds
		stored := creds
		c.lastAuthenticated = &stored
	}
}

// NewCoordinator creates a Coordinator in the Unauthenticated state.
func NewCoordinator(exchanger CredentialExchanger, log logger.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		exchanger: exchanger,
		log:       log,
		margin:    DefaultTokenRefreshBufferPeriod,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = NewTokenStore(nil)
	}
	return c
}

// Authenticate exchanges the current credentials for a new token. Concurrent callers with
// the same credentials share a single exchange. Incomplete credentials fail without network
// I/O.
func (c *Coordinator) Authenticate(ctx context.Context) bool {
	c.mu.Lock()
	creds := c.creds
	if missing := creds.missing(); len(missing) > 0 {
		c.failLocked(&ValidationError{Missing: missing})
		c.mu.Unlock()
		return false
	}
	c.mu.Unlock()

	v, _, _ := c.flight.Do(creds.flightKey(), func() (interface{}, error) {
		return c.authenticate(ctx, creds), nil
	})
	return v.(bool)
}

func (c *Coordinator) authenticate(ctx context.Context, creds Credentials) bool {
	c.authenticating.Add(1)
	defer c.authenticating.Add(-1)

	token, statusCode := c.exchanger.ExchangeCredentials(ctx, creds.ServerURL, creds.ClientID, creds.ClientSecret)

	c.mu.Lock()
	defer c.mu.Unlock()

	// The credentials were replaced while the exchange was in flight; the token belongs
	// to the old identity and must not be used.
	if !c.creds.sameIdentity(creds) {
		c.log.Warn("Credentials changed during authentication, discarding token")
		return false
	}

	if token == nil {
		c.failLocked(&AuthenticationError{StatusCode: statusCode})
		return false
	}

	c.store.Set(*token)
	c.state = StateAuthenticated
	c.lastErr = nil
	c.log.Info("Authenticated", zap.String("server_url", c.creds.ServerURL), zap.Time("expires_at", token.ExpiresAt))

	c.persistLocked()
	return true
}

// persistLocked saves the credentials when they differ from the last successfully
// authenticated set and persistence was requested. A secret persisted for a previous client
// ID is forgotten first.
func (c *Coordinator) persistLocked() {
	current := c.creds
	previous := c.lastAuthenticated
	changed := previous == nil || *previous != current
	c.lastAuthenticated = &current

	if !changed || !current.Persist || c.persister == nil {
		return
	}
	if previous != nil && previous.Persist && previous.ClientID != "" && previous.ClientID != current.ClientID {
		if err := c.persister.Forget(previous.ClientID); err != nil {
			c.log.Warn("Failed to remove secret of previous client", zap.String("client_id", previous.ClientID), zap.Error(err))
		}
	}
	if err := c.persister.Save(current); err != nil {
		c.log.Warn("Failed to persist credentials", zap.Error(err))
		return
	}
	c.log.Debug("Credentials persisted", zap.String("client_id", current.ClientID))
}

func (c *Coordinator) failLocked(err error) {
	c.store.Clear()
	c.state = StateFailed
	c.lastErr = err
	c.log.Warn("Authentication unavailable", zap.Error(err))
}

// EnsureAuthenticated returns true without network I/O while the token is valid and
// authenticates otherwise.
func (c *Coordinator) EnsureAuthenticated(ctx context.Context) bool {
	c.mu.Lock()
	if missing := c.creds.missing(); len(missing) > 0 {
		c.failLocked(&ValidationError{Missing: missing})
		c.mu.Unlock()
		return false
	}
	if c.store.IsValid(c.margin) {
		c.mu.Unlock()
		return true
	}
	c.mu.Unlock()

	c.log.Debug("Token missing or expiring, authenticating")
	return c.Authenticate(ctx)
}

// CurrentToken returns the bearer value while the token is valid.
func (c *Coordinator) CurrentToken() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	token, ok := c.store.Current(c.margin)
	if !ok {
		return "", false
	}
	return token.AccessToken, true
}

// UpdateCredentials replaces the credentials. The token is invalidated only when the server
// URL, client ID or client secret actually change.
func (c *Coordinator) UpdateCredentials(creds Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.creds.sameIdentity(creds) {
		c.store.Clear()
		c.state = StateUnauthenticated
		c.lastErr = nil
		c.log.Info("Credentials changed, token invalidated", zap.String("server_url", creds.ServerURL))
	}
	c.creds = creds
}

// ClearAuthentication drops the token and returns to Unauthenticated. Credentials are kept.
func (c *Coordinator) ClearAuthentication() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Clear()
	c.state = StateUnauthenticated
	c.lastErr = nil
}

// Logout clears authentication and removes the persisted secret.
func (c *Coordinator) Logout() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Clear()
	c.state = StateUnauthenticated
	c.lastErr = nil
	c.lastAuthenticated = nil

	if c.persister == nil || c.creds.ClientID == "" {
		return nil
	}
	return c.persister.Forget(c.creds.ClientID)
}

// Credentials returns a copy of the current credentials.
func (c *Coordinator) Credentials() Credentials {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds
}

// State returns the current authentication state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the reason for the Failed state, or nil.
func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// IsAuthenticating reports whether a token exchange is in flight.
func (c *Coordinator) IsAuthenticating() bool {
	return c.authenticating.Load() > 0
}
