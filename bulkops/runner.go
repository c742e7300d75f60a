// bulkops/runner.go
/* Package bulkops runs one operation over a batch of devices. Items are processed strictly
one at a time in input order: authenticate if needed, look the computer up by serial, check
preconditions, perform the operation. A failing item never aborts the batch. */
package bulkops

import (
	"context"
	"errors"
	"time"

	"github.com/deploymenttheory/go-jamfpro-fleetops/authenticationhandler"
	"github.com/deploymenttheory/go-jamfpro-fleetops/jamfpro"
	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"github.com/deploymenttheory/go-jamfpro-fleetops/ratehandler"
	"github.com/deploymenttheory/go-jamfpro-fleetops/status"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultInterItemDelay is the pause between the end of one item and the start of the next.
const DefaultInterItemDelay = 250 * time.Millisecond

// Authenticator provides a valid bearer token. It is satisfied by
// *authenticationhandler.Coordinator.
type Authenticator interface {
	EnsureAuthenticated(ctx context.Context) bool
	CurrentToken() (string, bool)
	Credentials() authenticationhandler.Credentials
	LastError() error
}

// DeviceClient performs the remote calls. It is satisfied by *jamfpro.Client.
type DeviceClient interface {
	FindComputer(ctx context.Context, serverURL, token, serialNumber string) jamfpro.OperationResult
	RedeployAgent(ctx context.Context, serverURL, token string, computerID int) jamfpro.OperationResult
	SetManagedState(ctx context.Context, serverURL, token string, computerID int, managed bool) jamfpro.OperationResult
	LockWithPIN(ctx context.Context, serverURL, token string, computerID int, pin string) jamfpro.OperationResult
}

// ProgressFunc is called with the number of finished items and the batch size.
type ProgressFunc func(processed, total int)

// Runner executes bulk runs. A Runner holds no per-run state and may be reused.
type Runner struct {
	auth              Authenticator
	client            DeviceClient
	log               logger.Logger
	interItemDelay    time.Duration
	backoffOnThrottle bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithInterItemDelay sets the pacing between items. Zero disables pacing.
func WithInterItemDelay(d time.Duration) RunnerOption {
	return func(r *Runner) { r.interItemDelay = d }
}

// WithThrottleBackoff enables widening the pacing after 408, 429 and transient 5xx responses.
func WithThrottleBackoff(enabled bool) RunnerOption {
	return func(r *Runner) { r.backoffOnThrottle = enabled }
}

// NewRunner creates a Runner.
func NewRunner(auth Authenticator, client DeviceClient, log logger.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		auth:              auth,
		client:            client,
		log:               log,
		interItemDelay:    DefaultInterItemDelay,
		backoffOnThrottle: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run applies op to items in order and returns the summary. Cancelling ctx stops the run
// between items; an item already started runs to completion and unreached items stay
// Pending. onProgress may be nil.
func (r *Runner) Run(ctx context.Context, items []*DeviceBatchItem, op Operation, onProgress ProgressFunc) BatchRunSummary {
	runID := uuid.New()
	log := r.log.With(zap.String("run_id", runID.String()), zap.String("operation", op.String()))
	if onProgress == nil {
		onProgress = func(int, int) {}
	}

	total := len(items)
	log.Info("Bulk run started", zap.Int("items", total))

	// Remote calls keep their own per call timeouts but ignore cancellation, so a lock is
	// never left without its managed state update.
	itemCtx := context.WithoutCancel(ctx)

	pacer := newPacer(r.interItemDelay, r.backoffOnThrottle, log)
	stopped := false
	processed := 0

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		if err := pacer.wait(ctx); err != nil {
			stopped = true
			break
		}

		if err := item.markInProgress(); err != nil {
			log.Warn("Skipping item that is not pending", zap.Int("item_id", item.ID), zap.Stringer("status", item.Status))
			continue
		}
		onProgress(processed, total)

		last := r.processItem(itemCtx, item, op, log)
		pacer.observe(last)

		processed++
		onProgress(processed, total)
	}

	summary := Summarize(items)
	summary.RunID = runID
	summary.Cancelled = stopped || ctx.Err() != nil

	log.Info("Bulk run finished",
		zap.Int("processed", summary.TotalProcessed),
		zap.Int("succeeded", summary.SuccessCount),
		zap.Int("failed", summary.ErrorCount),
		zap.Bool("cancelled", summary.Cancelled),
	)
	return summary
}

// processItem drives one item to Completed or Failed and returns the last remote result.
func (r *Runner) processItem(ctx context.Context, item *DeviceBatchItem, op Operation, log logger.Logger) jamfpro.OperationResult {
	log = log.With(zap.Int("item_id", item.ID), zap.String("serial_number", item.SerialNumber))

	if item.SerialNumber == "" {
		item.fail(&ValidationError{Message: "missing serial number"}, 0)
		return jamfpro.OperationResult{}
	}

	if !r.auth.EnsureAuthenticated(ctx) {
		r.failAuth(item, log)
		return jamfpro.OperationResult{}
	}
	token, ok := r.auth.CurrentToken()
	if !ok {
		r.failAuth(item, log)
		return jamfpro.OperationResult{}
	}
	serverURL := r.auth.Credentials().ServerURL

	lookup := r.client.FindComputer(ctx, serverURL, token, item.SerialNumber)
	if !lookup.Success || lookup.ComputerID == nil {
		item.fail(resultErr(lookup, &jamfpro.NotFoundError{SerialNumber: item.SerialNumber, StatusCode: lookup.StatusCode}), lookup.StatusCode)
		log.Warn("Computer lookup failed", zap.Int("status_code", lookup.StatusCode))
		return lookup
	}
	computerID := *lookup.ComputerID
	item.JamfComputerID = &computerID

	var result jamfpro.OperationResult
	switch op.Kind {
	case KindRedeploy:
		result = r.client.RedeployAgent(ctx, serverURL, token, computerID)

	case KindSetManagedState:
		if op.locksBeforeUnmanage() {
			if lookup.CurrentManagedState != nil && !*lookup.CurrentManagedState {
				item.fail(ErrAlreadyUnmanaged, 0)
				log.Warn("Device already unmanaged, lock skipped")
				return lookup
			}

			lock := r.client.LockWithPIN(ctx, serverURL, token, computerID, op.PIN)
			if !lock.Success {
				item.fail(&LockFailedError{StatusCode: lock.StatusCode, Cause: resultErr(lock, nil)}, lock.StatusCode)
				log.Warn("Device lock failed, managed state left unchanged", zap.Int("status_code", lock.StatusCode))
				return lock
			}
			log.Info("Device locked", zap.Int("computer_id", computerID))
		}
		result = r.client.SetManagedState(ctx, serverURL, token, computerID, op.TargetManaged)

	default:
		item.fail(op.Validate(), 0)
		return jamfpro.OperationResult{}
	}

	if !result.Success {
		item.fail(resultErr(result, nil), result.StatusCode)
		log.Warn("Operation failed", zap.Int("status_code", result.StatusCode), zap.String("reason", item.ErrorMessage))
		return result
	}

	item.complete(computerID)
	log.Info("Operation completed", zap.Int("computer_id", computerID), zap.Int("status_code", result.StatusCode))
	return result
}

func (r *Runner) failAuth(item *DeviceBatchItem, log logger.Logger) {
	authErr := &AuthFailedError{Cause: r.auth.LastError()}
	item.fail(authErr, authErr.statusCode())
	log.Warn("Item skipped, authentication failed", zap.Error(authErr))
}

// resultErr returns the typed error carried by result, falling back to fallback or a
// status error built from the result.
func resultErr(result jamfpro.OperationResult, fallback error) error {
	if result.Err != nil {
		return result.Err
	}
	if fallback != nil {
		return fallback
	}
	if result.ErrorMessage != "" {
		return errors.New(result.ErrorMessage)
	}
	return &jamfpro.StatusError{Op: "request", StatusCode: result.StatusCode}
}

// pacer holds the pause taken after an item finishes and before the next one starts. The
// pause is the inter-item delay, widened by the backoff after a throttled item.
type pacer struct {
	base        time.Duration
	next        time.Duration
	backoff     bool
	consecutive int
	log         logger.Logger
}

func newPacer(base time.Duration, backoff bool, log logger.Logger) *pacer {
	return &pacer{
		base:    base,
		backoff: backoff,
		log:     log,
	}
}

// wait blocks for the pending pause or until ctx is done. The pause is taken once; nothing
// is pending before the first item.
func (p *pacer) wait(ctx context.Context) error {
	pause := p.next
	p.next = 0
	if pause <= 0 {
		return ctx.Err()
	}
	// A fresh limiter with its single token spent makes Wait last exactly pause.
	limiter := rate.NewLimiter(rate.Every(pause), 1)
	limiter.Allow()
	return limiter.Wait(ctx)
}

// observe sets the pause that follows an item from its last remote result.
func (p *pacer) observe(result jamfpro.OperationResult) {
	p.next = p.base
	if !p.backoff {
		return
	}

	throttled := !result.Success && status.IsRetryableStatusCode(result.StatusCode)
	if !throttled {
		p.consecutive = 0
		return
	}

	wait := ratehandler.CalculateBackoff(p.consecutive)
	if result.RetryAfter > wait {
		wait = result.RetryAfter
	}
	p.next = max(wait, p.base)
	p.consecutive++

	p.log.LogRateLimiting("bulk_backoff", result.RetryAfter.String(), p.next)
}
