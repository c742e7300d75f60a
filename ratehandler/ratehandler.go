// ratehandler/ratehandler.go

/*
Components:

Backoff Strategy: A function that calculates the delay before the next request based on
the number of consecutive throttled or failed responses, using exponential backoff with
jitter so a fleet of clients does not retry in lockstep.

Rate Limit Header Parsing: A function that reads the Retry-After and X-RateLimit-* headers
to decide how long the server asked us to wait.
*/
package ratehandler

import (
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"go.uber.org/zap"
)

const (
	baseDelay    = 500 * time.Millisecond
	maxDelay     = 30 * time.Second
	jitterFactor = 0.5
	// skewBuffer covers clock drift between us and the server when using X-RateLimit-Reset.
	skewBuffer = 5 * time.Second
)

// CalculateBackoff returns baseDelay * 2^retry, randomised by ±jitterFactor and capped at maxDelay.
func CalculateBackoff(retry int) time.Duration {
	if retry < 0 {
		retry = 0
	}

	delay := float64(baseDelay) * math.Pow(2, float64(retry))
	jitter := (rand.Float64() - 0.5) * jitterFactor * 2
	delayWithJitter := delay * (1 + jitter)

	if delayWithJitter > float64(maxDelay) {
		return maxDelay
	}
	return time.Duration(delayWithJitter)
}

// ParseRateLimitHeaders parses common rate limit headers and returns how long to wait.
// Retry-After may be a delay in seconds or an HTTP date; X-RateLimit-Reset is a unix
// timestamp honoured only when X-RateLimit-Remaining is zero.
func ParseRateLimitHeaders(resp *http.Response, log logger.Logger) time.Duration {
	if resp == nil {
		return 0
	}

	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if waitSeconds, err := strconv.Atoi(retryAfter); err == nil {
			wait := time.Duration(waitSeconds) * time.Second
			log.LogRateLimiting("retry_after_seconds", retryAfter, wait)
			return wait
		}
		if retryTime, err := http.ParseTime(retryAfter); err == nil {
			wait := time.Until(retryTime)
			if wait < 0 {
				wait = 0
			}
			log.LogRateLimiting("retry_after_date", retryAfter, wait)
			return wait
		}
		log.Warn("Unparseable Retry-After header", zap.String("retry_after", retryAfter))
	}

	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining == "0" {
		if resetTime := resp.Header.Get("X-RateLimit-Reset"); resetTime != "" {
			if resetTimeInt, err := strconv.ParseInt(resetTime, 10, 64); err == nil {
				wait := time.Until(time.Unix(resetTimeInt, 0)) + skewBuffer
				if wait < 0 {
					wait = 0
				}
				log.LogRateLimiting("rate_limit_reset", resetTime, wait)
				return wait
			}
		}
	}

	return 0
}
