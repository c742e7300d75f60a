// concurrency/semaphore.go
package concurrency

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AcquireConcurrencyToken blocks until a permit is free or ctx is done. On success the
// returned context carries the permit's request ID under RequestIDKey; the caller must
// release the permit with ReleaseConcurrencyToken.
func (h *Handler) AcquireConcurrencyToken(ctx context.Context) (context.Context, uuid.UUID, error) {
	tokenAcquisitionStart := time.Now()
	requestID := uuid.New()

	select {
	case h.sem <- struct{}{}:
		tokenAcquisitionDuration := time.Since(tokenAcquisitionStart)

		h.Metrics.Lock()
		h.Metrics.PermitWaitTime += tokenAcquisitionDuration
		h.Metrics.TotalRequests++
		h.Metrics.Unlock()

		utilizedTokens := len(h.sem)
		h.logger.Debug("Acquired concurrency token",
			zap.String("request_id", requestID.String()),
			zap.Duration("acquisition_time", tokenAcquisitionDuration),
			zap.Int("utilized_tokens", utilizedTokens),
			zap.Int("available_tokens", cap(h.sem)-utilizedTokens),
		)

		return context.WithValue(ctx, RequestIDKey{}, requestID), requestID, nil

	case <-ctx.Done():
		h.logger.Debug("Concurrency token not acquired", zap.Error(ctx.Err()))
		return ctx, requestID, ctx.Err()
	}
}

// ReleaseConcurrencyToken returns a permit to the pool.
func (h *Handler) ReleaseConcurrencyToken(requestID uuid.UUID) {
	<-h.sem

	utilizedTokens := len(h.sem)
	h.logger.Debug("Released concurrency token",
		zap.String("request_id", requestID.String()),
		zap.Int("utilized_tokens", utilizedTokens),
		zap.Int("available_tokens", cap(h.sem)-utilizedTokens),
	)
}

// Do runs fn while holding a permit and records its duration and outcome.
func (h *Handler) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, requestID, err := h.AcquireConcurrencyToken(ctx)
	if err != nil {
		return err
	}
	defer h.ReleaseConcurrencyToken(requestID)

	start := time.Now()
	err = fn(ctx)
	h.Metrics.record(time.Since(start), err)
	return err
}

// RequestIDFromContext returns the permit request ID stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(RequestIDKey{}).(uuid.UUID)
	return id, ok
}
