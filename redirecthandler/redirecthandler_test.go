package redirecthandler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(t *testing.T, method, rawURL string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, rawURL, nil)
	require.NoError(t, err)
	return req
}

// TestRedirectHandler_CheckRedirect covers method filtering, the redirect limit, loop
// detection and header stripping on cross-host redirects.
func TestRedirectHandler_CheckRedirect(t *testing.T) {
	tests := []struct {
		name          string
		method        string
		via           []string
		next          string
		maxRedirects  int
		expectedErr   interface{}
		authRetained  bool
	}{
		{
			name:         "GET same host is followed",
			method:       http.MethodGet,
			via:          []string{"https://acme.jamfcloud.com/a"},
			next:         "https://acme.jamfcloud.com/b",
			maxRedirects: 5,
			authRetained: true,
		},
		{
			name:         "PUT is never followed",
			method:       http.MethodPut,
			via:          []string{"https://acme.jamfcloud.com/a"},
			next:         "https://acme.jamfcloud.com/b",
			maxRedirects: 5,
			expectedErr:  http.ErrUseLastResponse,
			authRetained: true,
		},
		{
			name:         "POST is never followed",
			method:       http.MethodPost,
			via:          []string{"https://acme.jamfcloud.com/a"},
			next:         "https://acme.jamfcloud.com/b",
			maxRedirects: 5,
			expectedErr:  http.ErrUseLastResponse,
			authRetained: true,
		},
		{
			name:         "Maximum redirects reached",
			method:       http.MethodGet,
			via:          []string{"https://acme.jamfcloud.com/a", "https://acme.jamfcloud.com/b"},
			next:         "https://acme.jamfcloud.com/c",
			maxRedirects: 2,
			expectedErr:  &MaxRedirectsError{},
			authRetained: true,
		},
		{
			name:         "Redirect loop detected",
			method:       http.MethodGet,
			via:          []string{"https://acme.jamfcloud.com/a", "https://acme.jamfcloud.com/b"},
			next:         "https://acme.jamfcloud.com/a",
			maxRedirects: 5,
			expectedErr:  &RedirectLoopError{},
			authRetained: true,
		},
		{
			name:         "Cross host strips Authorization",
			method:       http.MethodGet,
			via:          []string{"https://acme.jamfcloud.com/a"},
			next:         "https://elsewhere.example.com/a",
			maxRedirects: 5,
			authRetained: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewRedirectHandler(logger.NewNop(), tc.maxRedirects)

			via := make([]*http.Request, 0, len(tc.via))
			for _, u := range tc.via {
				via = append(via, newRequest(t, tc.method, u))
			}
			req := newRequest(t, tc.method, tc.next)
			req.Header.Set("Authorization", "Bearer tok")

			err := handler.checkRedirect(req, via)

			switch expected := tc.expectedErr.(type) {
			case nil:
				assert.NoError(t, err)
			case *MaxRedirectsError:
				var target *MaxRedirectsError
				assert.ErrorAs(t, err, &target)
			case *RedirectLoopError:
				var target *RedirectLoopError
				assert.ErrorAs(t, err, &target)
			default:
				assert.Equal(t, expected, err)
			}
			assert.Equal(t, tc.authRetained, req.Header.Get("Authorization") != "")
		})
	}
}

func TestHasLoop(t *testing.T) {
	a, _ := url.Parse("https://acme.jamfcloud.com/a")
	b, _ := url.Parse("https://acme.jamfcloud.com/b")

	assert.False(t, hasLoop([]*url.URL{a, b}))
	assert.True(t, hasLoop([]*url.URL{a, b, a}))
}

func TestSetupRedirectHandler_Disabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer server.Close()

	client := &http.Client{}
	require.NoError(t, SetupRedirectHandler(client, false, 0, logger.NewNop()))

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestSetupRedirectHandler_InvalidMax(t *testing.T) {
	err := SetupRedirectHandler(&http.Client{}, true, 0, logger.NewNop())
	assert.Error(t, err)
}
