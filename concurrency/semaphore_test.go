package concurrency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler_ClampsLimit(t *testing.T) {
	assert.Equal(t, MinConcurrency, NewHandler(0, logger.NewNop(), nil).Limit())
	assert.Equal(t, MaxConcurrency, NewHandler(100, logger.NewNop(), nil).Limit())
	assert.Equal(t, DefaultConcurrency, NewHandler(DefaultConcurrency, logger.NewNop(), nil).Limit())
}

func TestAcquireConcurrencyToken_AttachesRequestID(t *testing.T) {
	h := NewHandler(1, logger.NewNop(), nil)

	ctx, requestID, err := h.AcquireConcurrencyToken(context.Background())
	require.NoError(t, err)
	defer h.ReleaseConcurrencyToken(requestID)

	fromCtx, ok := RequestIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, requestID, fromCtx)
}

func TestAcquireConcurrencyToken_RespectsContext(t *testing.T) {
	h := NewHandler(1, logger.NewNop(), nil)
	_, first, err := h.AcquireConcurrencyToken(context.Background())
	require.NoError(t, err)
	defer h.ReleaseConcurrencyToken(first)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err = h.AcquireConcurrencyToken(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDo_BoundsConcurrency(t *testing.T) {
	const limit = 3
	h := NewHandler(limit, logger.NewNop(), nil)

	var inFlight, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Do(context.Background(), func(ctx context.Context) error {
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				inFlight.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(limit))
	assert.Equal(t, int64(20), h.Metrics.Snapshot().TotalRequests)
}

func TestDo_RecordsErrors(t *testing.T) {
	h := NewHandler(2, logger.NewNop(), nil)

	err := h.Do(context.Background(), func(ctx context.Context) error { return errors.New("boom") })
	assert.EqualError(t, err, "boom")
	require.NoError(t, h.Do(context.Background(), func(ctx context.Context) error { return nil }))

	snapshot := h.Metrics.Snapshot()
	assert.Equal(t, int64(2), snapshot.TotalRequests)
	assert.Equal(t, int64(1), snapshot.TotalErrors)
}
