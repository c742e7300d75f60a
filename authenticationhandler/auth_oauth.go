// authenticationhandler/auth_oauth.go

/* The authenticationhandler package manages Jamf Pro API client credentials. AuthClient
performs the OAuth client credentials exchange, TokenStore keeps the resulting bearer
token and Coordinator decides when a new exchange is needed. */
package authenticationhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deploymenttheory/go-jamfpro-fleetops/headers"
	"github.com/deploymenttheory/go-jamfpro-fleetops/headers/redact"
	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"github.com/deploymenttheory/go-jamfpro-fleetops/response"
	"github.com/deploymenttheory/go-jamfpro-fleetops/status"
	"go.uber.org/zap"
)

const (
	// OAuthTokenEndpoint is the client credentials grant path under the server URL.
	OAuthTokenEndpoint = "/api/oauth/token"
	// DefaultAuthTimeout bounds a single token exchange.
	DefaultAuthTimeout = 30 * time.Second
)

// OAuthResponse represents the response structure when obtaining an OAuth access token.
type OAuthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope,omitempty"`
	Error       string `json:"error,omitempty"`
}

// CredentialExchanger trades client credentials for a token. The status code is 0 when
// no HTTP response was received.
type CredentialExchanger interface {
	ExchangeCredentials(ctx context.Context, serverURL, clientID, clientSecret string) (*Token, int)
}

// AuthClient performs the client credentials exchange against a Jamf Pro server. It does
// not retry.
type AuthClient struct {
	httpClient        *http.Client
	log               logger.Logger
	hideSensitiveData bool
	timeout           time.Duration
	now               func() time.Time
}

// AuthClientOption configures an AuthClient.
type AuthClientOption func(*AuthClient)

// WithAuthTimeout overrides the exchange timeout.
func WithAuthTimeout(d time.Duration) AuthClientOption {
	return func(c *AuthClient) { c.timeout = d }
}

// WithAuthClock sets the clock used to compute token expiry.
func WithAuthClock(now func() time.Time) AuthClientOption {
	return func(c *AuthClient) { c.now = now }
}

// NewAuthClient creates an AuthClient sending requests through httpClient.
func NewAuthClient(httpClient *http.Client, log logger.Logger, hideSensitiveData bool, opts ...AuthClientOption) *AuthClient {
	c := &AuthClient{
		httpClient:        httpClient,
		log:               log,
		hideSensitiveData: hideSensitiveData,
		timeout:           DefaultAuthTimeout,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExchangeCredentials posts the client credentials grant and returns the token with the
// HTTP status. A transport failure yields (nil, 0); a non-2xx status, an undecodable body
// or a body without access_token or expires_in yields (nil, status).
func (c *AuthClient) ExchangeCredentials(ctx context.Context, serverURL, clientID, clientSecret string) (*Token, int) {
	authenticationEndpoint := strings.TrimRight(serverURL, "/") + OAuthTokenEndpoint

	data := url.Values{}
	data.Set("client_id", clientID)
	data.Set("grant_type", "client_credentials")
	data.Set("client_secret", clientSecret)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, authenticationEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		c.log.LogAuthTokenError("token_request_build_failed", authenticationEndpoint, status.NoResponse, err)
		return nil, status.NoResponse
	}
	headers.SetContentType(req, headers.ContentTypeForm)
	headers.SetRequestHeaders(req, "", headers.ContentTypeJSON)

	c.log.Debug("Attempting to obtain OAuth token", zap.String("client_id", clientID), zap.String("url", authenticationEndpoint))

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.LogAuthTokenError("token_request_failed", authenticationEndpoint, status.NoResponse, err)
		return nil, status.NoResponse
	}
	defer resp.Body.Close()
	c.log.LogRequestEnd("token_request_end", req.Method, authenticationEndpoint, resp.StatusCode, time.Since(startTime))

	if !status.IsSuccess(resp.StatusCode) {
		apiErr := response.ParseErrorResponse(resp, c.log)
		c.log.LogAuthTokenError("token_exchange_rejected", authenticationEndpoint, resp.StatusCode, apiErr)
		return nil, resp.StatusCode
	}

	oauthResp := &OAuthResponse{}
	if err := json.NewDecoder(resp.Body).Decode(oauthResp); err != nil {
		c.log.LogAuthTokenError("token_decode_failed", authenticationEndpoint, resp.StatusCode, err)
		return nil, resp.StatusCode
	}

	if oauthResp.Error != "" || oauthResp.AccessToken == "" || oauthResp.ExpiresIn <= 0 {
		c.log.Warn("Unexpected OAuth token response shape",
			zap.Int("status_code", resp.StatusCode),
			zap.String("error", oauthResp.Error),
			zap.Bool("access_token_present", oauthResp.AccessToken != ""),
			zap.Int64("expires_in", oauthResp.ExpiresIn),
		)
		return nil, resp.StatusCode
	}

	expiresIn := time.Duration(oauthResp.ExpiresIn) * time.Second
	token := &Token{
		AccessToken: oauthResp.AccessToken,
		ExpiresAt:   c.now().Add(expiresIn),
	}

	redactedAccessToken := redact.RedactSensitiveHeaderData(c.hideSensitiveData, "AccessToken", oauthResp.AccessToken)
	c.log.Info("OAuth token obtained successfully",
		zap.String("access_token", redactedAccessToken),
		zap.Duration("expires_in", expiresIn),
		zap.Time("expiration_time", token.ExpiresAt),
	)

	return token, resp.StatusCode
}
