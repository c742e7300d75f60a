package jamfpro

import (
	"net/http"
	"time"

	"github.com/deploymenttheory/go-jamfpro-fleetops/ratehandler"
	"github.com/deploymenttheory/go-jamfpro-fleetops/response"
	"github.com/deploymenttheory/go-jamfpro-fleetops/status"
	"go.uber.org/zap"
)

// OperationResult is the outcome of one device operation.
type OperationResult struct {
	Success      bool
	StatusCode   int
	ErrorMessage string
	// Err carries the typed failure; nil on success.
	Err error

	ComputerID          *int
	CurrentManagedState *bool

	// RetryAfter is the wait the server asked for on a throttled response.
	RetryAfter time.Duration
}

func transportFailure(op string, err error) OperationResult {
	transportErr := &TransportError{Op: op, Err: err}
	return OperationResult{
		StatusCode:   status.NoResponse,
		ErrorMessage: transportErr.Error(),
		Err:          transportErr,
	}
}

func failure(statusCode int, err error) OperationResult {
	return OperationResult{
		StatusCode:   statusCode,
		ErrorMessage: err.Error(),
		Err:          err,
	}
}

// resultFromResponse classifies resp. A failed response has its body parsed for a message
// and, when throttled, its rate limit headers read.
func (c *Client) resultFromResponse(op string, resp *http.Response, accepted ...int) OperationResult {
	if status.IsSuccess(resp.StatusCode, accepted...) {
		return OperationResult{Success: true, StatusCode: resp.StatusCode}
	}

	apiErr := response.ParseErrorResponse(resp, c.log)
	c.log.LogError("request_rejected", apiErr.Method, apiErr.URL, resp.StatusCode, resp.Status, apiErr, apiErr.RawResponse)

	if status.IsRedirectStatusCode(resp.StatusCode) {
		c.log.Warn("Redirect not followed, check server_url or enable follow_redirects",
			zap.String("operation", op),
			zap.String("location", resp.Header.Get("Location")),
		)
	}

	result := failure(resp.StatusCode, &StatusError{Op: op, StatusCode: resp.StatusCode, Message: apiErr.Message})
	if status.IsRateLimitError(resp.StatusCode) || resp.StatusCode == http.StatusServiceUnavailable {
		result.RetryAfter = ratehandler.ParseRateLimitHeaders(resp, c.log)
	}
	return result
}
