package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deploymenttheory/go-jamfpro-fleetops/config"
	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Defaults(t *testing.T) {
	cfg := config.Default()

	client, err := Build(cfg, logger.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, client.Timeout)
	assert.NotNil(t, client.Jar)
	assert.NotNil(t, client.CheckRedirect)
}

func TestBuild_DoesNotFollowRedirectsByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	}))
	defer server.Close()

	client, err := Build(config.Default(), logger.NewNop())
	require.NoError(t, err)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestBuild_FollowsRedirectsWhenEnabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.FollowRedirects = true

	client, err := Build(cfg, logger.NewNop())
	require.NoError(t, err)

	resp, err := client.Get(server.URL + "/old")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBuild_CookieJarDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.DisableCookieJar = true

	client, err := Build(cfg, logger.NewNop())
	require.NoError(t, err)
	assert.Nil(t, client.Jar)
}

func TestBuild_InvalidProxy(t *testing.T) {
	cfg := config.Default()
	cfg.ProxyURL = "proxy-without-scheme"

	_, err := Build(cfg, logger.NewNop())
	assert.Error(t, err)
}

func TestWithTimeout(t *testing.T) {
	client, err := Build(config.Default(), logger.NewNop())
	require.NoError(t, err)

	authClient := WithTimeout(client, 5*time.Second)

	assert.Equal(t, 5*time.Second, authClient.Timeout)
	assert.Equal(t, 30*time.Second, client.Timeout)
	assert.Same(t, client.Jar, authClient.Jar)
}
