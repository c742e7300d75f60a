// jamfpro/client.go
/* Package jamfpro issues the device operations of the toolkit against a Jamf Pro server.
Every call takes the server URL and bearer token explicitly and reports its outcome as an
OperationResult; no Go error crosses this boundary. A status code of 0 means no HTTP
response was received. */
package jamfpro

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/deploymenttheory/go-jamfpro-fleetops/cookiejar"
	"github.com/deploymenttheory/go-jamfpro-fleetops/headers"
	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"go.uber.org/zap"
)

// Client is stateless apart from its transport and may be shared across goroutines.
type Client struct {
	httpClient        *http.Client
	log               logger.Logger
	hideSensitiveData bool
	timeout           time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithRequestTimeout sets the per call timeout, clamped to 15-30s.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		switch {
		case d < MinRequestTimeout:
			d = MinRequestTimeout
		case d > MaxRequestTimeout:
			d = MaxRequestTimeout
		}
		c.timeout = d
	}
}

// WithHideSensitiveData controls redaction of headers and cookies in debug logs.
func WithHideSensitiveData(hide bool) Option {
	return func(c *Client) { c.hideSensitiveData = hide }
}

// NewClient creates a Client sending requests through httpClient.
func NewClient(httpClient *http.Client, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient:        httpClient,
		log:               log,
		hideSensitiveData: true,
		timeout:           DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request describes a single API call.
type request struct {
	op          string
	method      string
	endpoint    string
	accept      string
	contentType string
	body        []byte
	// logEndpoint replaces endpoint in logs when the path carries a secret.
	logEndpoint string
}

// do sends req and returns the response with a cancel func that must be called after the
// body is consumed. On transport failure the response is nil.
func (c *Client) do(ctx context.Context, serverURL, token string, r request) (*http.Response, context.CancelFunc, error) {
	url := strings.TrimRight(serverURL, "/") + r.endpoint
	logURL := url
	if r.logEndpoint != "" {
		logURL = strings.TrimRight(serverURL, "/") + r.logEndpoint
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, url, body)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	headers.SetRequestHeaders(req, token, r.accept)
	if r.contentType != "" {
		headers.SetContentType(req, r.contentType)
	}
	headers.LogHeaders(c.log, req, c.hideSensitiveData)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		c.log.LogError("request_failed", r.method, logURL, 0, "", err, "")
		if r.logEndpoint != "" {
			err = errors.New(strings.ReplaceAll(err.Error(), url, logURL))
		}
		return nil, nil, err
	}

	if r.logEndpoint != "" {
		// Error parsing reads the URL from the response's request.
		if redacted, parseErr := neturl.Parse(logURL); parseErr == nil {
			resp.Request = resp.Request.Clone(resp.Request.Context())
			resp.Request.URL = redacted
		}
	}

	c.log.LogRequestEnd(r.op, r.method, logURL, resp.StatusCode, time.Since(startTime))
	headers.CheckDeprecationHeader(resp, c.log)
	cookiejar.LogResponseCookies(c.log, resp, c.hideSensitiveData)

	return resp, cancel, nil
}

// execute runs a call whose success is signalled by the status code alone.
func (c *Client) execute(ctx context.Context, serverURL, token string, r request, accepted ...int) OperationResult {
	resp, cancel, err := c.do(ctx, serverURL, token, r)
	if err != nil {
		return transportFailure(r.op, err)
	}
	defer cancel()
	defer resp.Body.Close()

	result := c.resultFromResponse(r.op, resp, accepted...)
	if result.Success {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.log.Debug("Request succeeded", zap.String("operation", r.op), zap.Int("status_code", resp.StatusCode))
	}
	return result
}
