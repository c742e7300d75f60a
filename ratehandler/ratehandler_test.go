// ratehandler/ratehandler_test.go
package ratehandler

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"github.com/stretchr/testify/assert"
)

// TestCalculateBackoff tests the backoff calculation for various retry counts
func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		retry       int
		expectedMin time.Duration
		expectedMax time.Duration
	}{
		{retry: 0, expectedMin: time.Duration(float64(baseDelay) * (1 - jitterFactor)), expectedMax: time.Duration(float64(baseDelay) * (1 + jitterFactor))},
		{retry: 1, expectedMin: time.Duration(float64(baseDelay*2) * (1 - jitterFactor)), expectedMax: time.Duration(float64(baseDelay*2) * (1 + jitterFactor))},
		{retry: 2, expectedMin: time.Duration(float64(baseDelay*4) * (1 - jitterFactor)), expectedMax: time.Duration(float64(baseDelay*4) * (1 + jitterFactor))},
		{retry: 10, expectedMin: maxDelay, expectedMax: maxDelay},
	}

	for _, tt := range tests {
		t.Run("RetryCount"+strconv.Itoa(tt.retry), func(t *testing.T) {
			delay := CalculateBackoff(tt.retry)

			assert.GreaterOrEqual(t, delay, tt.expectedMin, "Delay should be greater than or equal to expected minimum after jitter adjustment")
			assert.LessOrEqual(t, delay, tt.expectedMax, "Delay should be less than or equal to expected maximum")
		})
	}
}

// TestParseRateLimitHeaders checks Retry-After in both forms, X-RateLimit-Reset and the
// no-header case, allowing a small delta for execution time.
func TestParseRateLimitHeaders(t *testing.T) {
	tests := []struct {
		name         string
		headers      map[string]string
		expectedWait time.Duration
	}{
		{
			name:         "RetryAfterInSeconds",
			headers:      map[string]string{"Retry-After": "120"},
			expectedWait: 2 * time.Minute,
		},
		{
			name:         "RetryAfterHTTPDate",
			headers:      map[string]string{"Retry-After": time.Now().UTC().Format(http.TimeFormat)},
			expectedWait: 0,
		},
		{
			name: "XRateLimitReset",
			headers: map[string]string{
				"X-RateLimit-Remaining": "0",
				"X-RateLimit-Reset":     strconv.FormatInt(time.Now().Add(90*time.Second).Unix(), 10),
			},
			expectedWait: 90*time.Second + skewBuffer,
		},
		{
			name:         "NoHeaders",
			headers:      map[string]string{},
			expectedWait: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			for k, v := range tt.headers {
				resp.Header.Add(k, v)
			}

			wait := ParseRateLimitHeaders(resp, logger.NewNop())

			assert.InDelta(t, float64(tt.expectedWait), float64(wait), float64(2*time.Second), "Wait duration should be within expected range")
		})
	}
}

func TestParseRateLimitHeaders_NilResponse(t *testing.T) {
	assert.Equal(t, time.Duration(0), ParseRateLimitHeaders(nil, logger.NewNop()))
}
