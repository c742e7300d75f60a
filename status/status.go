// status.go
// This package provides utility functions for categorizing HTTP status codes returned by Jamf Pro.
package status

import (
	"fmt"
	"net/http"
)

// NoResponse is the status code recorded when no HTTP response was received at all
// (timeout, connection failure).
const NoResponse = 0

// IsSuccess reports whether statusCode is one of the accepted codes, or any 2xx code when
// none are given.
func IsSuccess(statusCode int, accepted ...int) bool {
	if len(accepted) == 0 {
		return statusCode >= 200 && statusCode < 300
	}
	for _, code := range accepted {
		if statusCode == code {
			return true
		}
	}
	return false
}

// IsRedirectStatusCode checks if the provided HTTP status code is one of the redirect codes.
func IsRedirectStatusCode(statusCode int) bool {
	switch statusCode {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

// IsPermanentRedirect checks if the provided HTTP status code is one of the permanent redirect codes.
func IsPermanentRedirect(statusCode int) bool {
	switch statusCode {
	case http.StatusMovedPermanently,
		http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

// IsAuthenticationFailure reports whether the server rejected the bearer token.
func IsAuthenticationFailure(statusCode int) bool {
	return statusCode == http.StatusUnauthorized
}

// IsRateLimitError checks if the status code indicates the client is being throttled.
func IsRateLimitError(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests
}

// IsTransientError checks if the status code indicates a transient server side error.
func IsTransientError(statusCode int) bool {
	switch statusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if the provided HTTP status code is considered retryable.
func IsRetryableStatusCode(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout || IsRateLimitError(statusCode) || IsTransientError(statusCode)
}

var statusMessages = map[int]string{
	http.StatusOK:                            "Request successful.",
	http.StatusCreated:                       "Request to create or update resource successful.",
	http.StatusAccepted:                      "The request was accepted for processing, but the processing has not completed.",
	http.StatusNoContent:                     "Request successful. No content to send for this request.",
	http.StatusBadRequest:                    "Bad request. Verify the syntax of the request.",
	http.StatusUnauthorized:                  "Authentication failed. Verify the credentials being used for the request.",
	http.StatusForbidden:                     "Invalid permissions. Verify the account has the proper permissions for the resource.",
	http.StatusNotFound:                      "Resource not found. Verify the URL path is correct.",
	http.StatusMethodNotAllowed:              "Method not allowed. The method specified is not allowed for the resource.",
	http.StatusNotAcceptable:                 "Not acceptable. The server cannot produce a response matching the list of acceptable values.",
	http.StatusRequestTimeout:                "Request timeout. The server timed out waiting for the request.",
	http.StatusConflict:                      "Conflict. The request could not be processed because of conflict in the request.",
	http.StatusPreconditionFailed:            "Precondition failed. The server does not meet one of the preconditions specified in the request.",
	http.StatusUnsupportedMediaType:          "Unsupported media type. The request entity has a media type which the server or resource does not support.",
	http.StatusUnprocessableEntity:           "Unprocessable entity. The server understands the content type and syntax of the request but was unable to process the contained instructions.",
	http.StatusLocked:                        "Locked. The resource that is being accessed is locked.",
	http.StatusTooManyRequests:               "Too many requests. The user has sent too many requests in a given amount of time.",
	http.StatusInternalServerError:           "Internal server error. The server encountered an unexpected condition that prevented it from fulfilling the request.",
	http.StatusNotImplemented:                "Not implemented. The server does not support the functionality required to fulfill the request.",
	http.StatusBadGateway:                    "Bad gateway. The server received an invalid response from the upstream server while trying to fulfill the request.",
	http.StatusServiceUnavailable:            "Service unavailable. The server is currently unable to handle the request due to temporary overloading or maintenance.",
	http.StatusGatewayTimeout:                "Gateway timeout. The server did not receive a timely response from the upstream server.",
	http.StatusNetworkAuthenticationRequired: "Network authentication required. The client needs to authenticate to gain network access.",
}

// TranslateStatusCode provides a human-readable message for HTTP status codes.
func TranslateStatusCode(statusCode int) string {
	if statusCode == NoResponse {
		return "No status code received, possible network or connection error."
	}
	if message, exists := statusMessages[statusCode]; exists {
		return message
	}
	return fmt.Sprintf("Unknown status code: %d", statusCode)
}
