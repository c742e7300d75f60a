// cookiejar/cookiejar.go

/* Package cookiejar sets up cookie handling for the Jamf Pro HTTP client. Jamf Cloud places
instances behind a load balancer that pins a session to a node through cookies; keeping
them between the token exchange and the device calls avoids requests landing on a node
that has not seen the token yet. */
package cookiejar

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// sensitiveCookieNames are redacted before cookies are logged.
var sensitiveCookieNames = map[string]bool{
	"APBALANCEID":  true,
	"jpro-ingress": true,
	"JSESSIONID":   true,
}

// SetupCookieJar attaches a public suffix aware cookie jar to client when enabled.
func SetupCookieJar(client *http.Client, enableCookieJar bool, log logger.Logger) error {
	if !enableCookieJar {
		return nil
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		log.Error("Failed to create cookie jar", zap.Error(err))
		return fmt.Errorf("setupCookieJar failed: %w", err)
	}
	client.Jar = jar
	log.Debug("Cookie jar enabled")
	return nil
}

// RedactSensitiveCookies returns copies of cookies with sensitive values replaced.
func RedactSensitiveCookies(cookies []*http.Cookie) []*http.Cookie {
	redacted := make([]*http.Cookie, 0, len(cookies))
	for _, cookie := range cookies {
		c := *cookie
		if sensitiveCookieNames[c.Name] {
			c.Value = "REDACTED"
		}
		redacted = append(redacted, &c)
	}
	return redacted
}

// CookiesFromHeader parses the Set-Cookie lines of a response header.
func CookiesFromHeader(header http.Header) []*http.Cookie {
	return (&http.Response{Header: header}).Cookies()
}

// LogResponseCookies logs the cookies a response sets, at debug level only.
func LogResponseCookies(log logger.Logger, resp *http.Response, hideSensitiveData bool) {
	if log.GetLogLevel() > logger.LogLevelDebug || resp == nil {
		return
	}

	cookies := CookiesFromHeader(resp.Header)
	if len(cookies) == 0 {
		return
	}
	if hideSensitiveData {
		cookies = RedactSensitiveCookies(cookies)
	}

	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name+"="+c.Value)
	}
	log.Debug("Response cookies", zap.Strings("cookies", names))
}
