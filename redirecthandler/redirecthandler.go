package redirecthandler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"github.com/deploymenttheory/go-jamfpro-fleetops/status"
	"go.uber.org/zap"
)

// RedirectHandler contains configurations for handling HTTP redirects.
type RedirectHandler struct {
	Logger           logger.Logger
	MaxRedirects     int      // Maximum allowed redirects to prevent infinite loops.
	SensitiveHeaders []string // Headers removed on cross-host redirects.
}

// NewRedirectHandler creates a new instance of RedirectHandler.
func NewRedirectHandler(log logger.Logger, maxRedirects int) *RedirectHandler {
	return &RedirectHandler{
		Logger:           log,
		MaxRedirects:     maxRedirects,
		SensitiveHeaders: []string{"Authorization", "Cookie"},
	}
}

// WithRedirectHandling applies the redirect handling policy to an http.Client.
func (r *RedirectHandler) WithRedirectHandling(client *http.Client) {
	client.CheckRedirect = r.checkRedirect
}

// checkRedirect is called by net/http before following a redirect. req is the request about
// to be sent and via holds the requests made so far, oldest first.
func (r *RedirectHandler) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) == 0 {
		return nil
	}
	original := via[0]

	// State changing calls are never replayed against another location.
	if !isRedirectableMethod(original.Method) {
		r.Logger.Warn("Redirect attempted on state changing method, not following",
			zap.String("method", original.Method), zap.String("location", req.URL.String()))
		return http.ErrUseLastResponse
	}

	if len(via) >= r.MaxRedirects {
		r.Logger.Warn("Maximum redirects reached", zap.Int("max_redirects", r.MaxRedirects))
		return &MaxRedirectsError{MaxRedirects: r.MaxRedirects}
	}

	history := make([]*url.URL, 0, len(via)+1)
	for _, v := range via {
		history = append(history, v.URL)
	}
	history = append(history, req.URL)
	if hasLoop(history) {
		r.Logger.Warn("Redirect loop detected", zap.String("url", req.URL.String()))
		return &RedirectLoopError{URL: req.URL.String()}
	}

	previous := via[len(via)-1]
	if req.Response != nil && status.IsPermanentRedirect(req.Response.StatusCode) {
		r.Logger.Warn("Server reports a permanent move, consider updating server_url",
			zap.String("old_url", previous.URL.String()),
			zap.String("new_url", req.URL.String()),
		)
	}
	if req.URL.Host != previous.URL.Host {
		r.secureRequest(req)
	}

	r.Logger.Info("Redirecting request",
		zap.String("original_url", previous.URL.String()),
		zap.String("new_url", req.URL.String()),
		zap.Int("redirect_count", len(via)),
	)
	return nil
}

// secureRequest removes sensitive headers from a request bound for a different host.
func (r *RedirectHandler) secureRequest(req *http.Request) {
	for _, header := range r.SensitiveHeaders {
		req.Header.Del(header)
	}
}

func isRedirectableMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead
}

// RedirectLoopError represents an error when a redirect loop is detected.
type RedirectLoopError struct {
	URL string
}

func (e *RedirectLoopError) Error() string {
	return fmt.Sprintf("redirect loop detected at %s", e.URL)
}

// MaxRedirectsError represents an error when the maximum number of redirects is reached.
type MaxRedirectsError struct {
	MaxRedirects int
}

func (e *MaxRedirectsError) Error() string {
	return fmt.Sprintf("maximum redirects reached: %d", e.MaxRedirects)
}

// hasLoop checks if there's a loop in the redirect history.
func hasLoop(history []*url.URL) bool {
	urlSet := make(map[string]struct{})
	for _, u := range history {
		if _, exists := urlSet[u.String()]; exists {
			return true
		}
		urlSet[u.String()] = struct{}{}
	}
	return false
}

// SetupRedirectHandler configures the HTTP client for redirect handling. When redirects are
// disabled the client hands every 3xx back to the caller unchanged.
func SetupRedirectHandler(client *http.Client, followRedirects bool, maxRedirects int, log logger.Logger) error {
	if !followRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		return nil
	}

	if maxRedirects < 1 {
		return log.Error("Invalid maxRedirects value", zap.Int("max_redirects", maxRedirects))
	}

	NewRedirectHandler(log, maxRedirects).WithRedirectHandling(client)
	log.Debug("Redirect handling enabled", zap.Int("max_redirects", maxRedirects))
	return nil
}
