// httpclient/client.go
/* Package httpclient builds the *http.Client shared by the authentication and device
operation layers. It owns transport level concerns only: the request timeout, the cookie
jar used for Jamf Cloud load balancer stickiness, the redirect policy and the proxy.
There are no retries; callers see every response status. */
package httpclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/deploymenttheory/go-jamfpro-fleetops/config"
	"github.com/deploymenttheory/go-jamfpro-fleetops/cookiejar"
	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"github.com/deploymenttheory/go-jamfpro-fleetops/proxy"
	"github.com/deploymenttheory/go-jamfpro-fleetops/redirecthandler"
	"go.uber.org/zap"
)

// Build creates a new HTTP client from cfg.
func Build(cfg *config.Config, log logger.Logger) (*http.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("invalid configuration: nil config")
	}

	//region Transport

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if err := proxy.InitializeProxy(transport, cfg.ProxyURL, cfg.HideSensitiveData, log); err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout:   cfg.CustomTimeoutDuration(),
		Transport: transport,
	}

	//endregion

	//region Cookies

	if err := cookiejar.SetupCookieJar(httpClient, !cfg.DisableCookieJar, log); err != nil {
		return nil, err
	}

	//endregion

	//region Redirect

	if err := redirecthandler.SetupRedirectHandler(httpClient, cfg.FollowRedirects, cfg.MaxRedirects, log); err != nil {
		log.Error("Failed to set up redirect handler", zap.Error(err))
		return nil, err
	}

	//endregion

	log.Debug("New HTTP client initialized",
		zap.Duration("timeout", httpClient.Timeout),
		zap.Bool("cookie_jar_enabled", httpClient.Jar != nil),
		zap.Bool("follow_redirects", cfg.FollowRedirects),
		zap.Int("max_redirects", cfg.MaxRedirects),
		zap.Bool("proxy_configured", cfg.ProxyURL != ""),
	)

	return httpClient, nil
}

// WithTimeout returns a shallow copy of client with a different overall timeout. The copy
// shares the transport and cookie jar, so the token exchange and the device calls land on
// the same load balanced node.
func WithTimeout(client *http.Client, timeout time.Duration) *http.Client {
	c := *client
	c.Timeout = timeout
	return &c
}
