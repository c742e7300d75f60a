// headers/headers.go
package headers

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/deploymenttheory/go-jamfpro-fleetops/headers/redact"
	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"github.com/deploymenttheory/go-jamfpro-fleetops/version"
	"go.uber.org/zap"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeXML  = "application/xml"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// SetAuthorization sets the Authorization header for the request.
func SetAuthorization(req *http.Request, token string) {
	// Ensure the token is prefixed with "Bearer " only once
	if !strings.HasPrefix(token, "Bearer ") {
		token = "Bearer " + token
	}
	req.Header.Set("Authorization", token)
}

// SetContentType sets the Content-Type header for the request.
func SetContentType(req *http.Request, contentType string) {
	req.Header.Set("Content-Type", contentType)
}

// SetAccept sets the Accept header for the request.
func SetAccept(req *http.Request, acceptHeader string) {
	req.Header.Set("Accept", acceptHeader)
}

// SetUserAgent sets the User-Agent header for the request.
func SetUserAgent(req *http.Request, userAgent string) {
	req.Header.Set("User-Agent", userAgent)
}

// SetRequestHeaders applies the headers every Jamf Pro API call carries.
func SetRequestHeaders(req *http.Request, token, accept string) {
	if token != "" {
		SetAuthorization(req, token)
	}
	if accept != "" {
		SetAccept(req, accept)
	}
	SetUserAgent(req, version.GetUserAgentHeader())
}

// LogHeaders prints all the current headers in the http.Request at debug level,
// redacting sensitive values when hideSensitiveData is set.
func LogHeaders(log logger.Logger, req *http.Request, hideSensitiveData bool) {
	if log.GetLogLevel() > logger.LogLevelDebug {
		return
	}

	redactedHeaders := http.Header{}
	for name, values := range req.Header {
		if len(values) > 0 {
			redactedHeaders.Set(name, redact.RedactSensitiveHeaderData(hideSensitiveData, name, values[0]))
		}
	}

	log.Debug("HTTP Request Headers", zap.String("Headers", HeadersToString(redactedHeaders)))
}

// HeadersToString converts a http.Header to a string for logging, one header per line in
// name order.
func HeadersToString(headers http.Header) string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	headerStrings := make([]string, 0, len(names))
	for _, name := range names {
		headerStrings = append(headerStrings, fmt.Sprintf("%s: %s", name, strings.Join(headers[name], ", ")))
	}
	return strings.Join(headerStrings, "\n")
}

// CheckDeprecationHeader checks the response headers for the Deprecation header and logs a warning if present.
func CheckDeprecationHeader(resp *http.Response, log logger.Logger) {
	deprecationHeader := resp.Header.Get("Deprecation")
	if deprecationHeader != "" && resp.Request != nil {
		log.Warn("API endpoint is deprecated",
			zap.String("Date", deprecationHeader),
			zap.String("Endpoint", resp.Request.URL.String()),
		)
	}
}
