// concurrency/handler.go
/* Package concurrency bounds the number of in-flight Jamf Pro requests. The inventory
search fans detail lookups out through a Handler; each acquired permit carries a request ID
that is attached to the context for log correlation. */
package concurrency

import (
	"sync"
	"time"

	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
)

const (
	// DefaultConcurrency is the detail lookup window of the inventory search.
	DefaultConcurrency = 5
	// MaxConcurrency caps the window regardless of configuration.
	MaxConcurrency = 20
	// MinConcurrency represents the minimum allowed concurrent requests.
	MinConcurrency = 1
)

// Handler controls the number of concurrent HTTP requests.
type Handler struct {
	sem     chan struct{}
	logger  logger.Logger
	Metrics *Metrics
}

// Metrics captures request counts and timings observed through a Handler.
type Metrics struct {
	sync.Mutex
	TotalRequests  int64
	TotalErrors    int64
	PermitWaitTime time.Duration
	ResponseTime   struct {
		Total   time.Duration
		Count   int64
		Maximum time.Duration
	}
}

// NewHandler creates a Handler allowing limit concurrent permits. limit is clamped to
// [MinConcurrency, MaxConcurrency]; a nil metrics gets a fresh Metrics.
func NewHandler(limit int, log logger.Logger, metrics *Metrics) *Handler {
	if limit < MinConcurrency {
		limit = MinConcurrency
	}
	if limit > MaxConcurrency {
		limit = MaxConcurrency
	}
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &Handler{
		sem:     make(chan struct{}, limit),
		logger:  log,
		Metrics: metrics,
	}
}

// Limit returns the number of permits.
func (h *Handler) Limit() int {
	return cap(h.sem)
}

// RequestIDKey is the context key under which the permit's request ID is stored.
type RequestIDKey struct{}
