// Package inventory searches the computer inventory of a Jamf Pro server. The classic API
// has no free text search, so the listing is walked in batches and each computer's detail
// record is fetched and matched locally.
package inventory

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/deploymenttheory/go-jamfpro-fleetops/authenticationhandler"
	"github.com/deploymenttheory/go-jamfpro-fleetops/concurrency"
	"github.com/deploymenttheory/go-jamfpro-fleetops/jamfpro"
	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
)

// DefaultBatchSize is the number of detail records fetched between progress reports.
const DefaultBatchSize = 50

// ErrEmptyQuery is returned for a blank search query.
var ErrEmptyQuery = errors.New("search query must not be empty")

// ErrNotAuthenticated is returned when no token could be obtained and the coordinator
// recorded no reason.
var ErrNotAuthenticated = errors.New("not authenticated")

// Authenticator provides a valid bearer token. It is satisfied by
// *authenticationhandler.Coordinator.
type Authenticator interface {
	EnsureAuthenticated(ctx context.Context) bool
	CurrentToken() (string, bool)
	Credentials() authenticationhandler.Credentials
	LastError() error
}

// InventoryClient reads computer records. It is satisfied by *jamfpro.Client.
type InventoryClient interface {
	ListComputers(ctx context.Context, serverURL, token string) ([]jamfpro.ComputerSummary, jamfpro.OperationResult)
	GetComputerDetail(ctx context.Context, serverURL, token string, computerID int) (*jamfpro.ComputerDetail, jamfpro.OperationResult)
}

// ComputerMatch is a computer whose inventory matched the query.
type ComputerMatch struct {
	ID           int
	Name         string
	SerialNumber string
	Username     string
	Model        string
	OSVersion    string
	IPAddress    string
	Managed      bool
}

func matchFromDetail(d *jamfpro.ComputerDetail) ComputerMatch {
	return ComputerMatch{
		ID:           d.General.ID,
		Name:         d.General.Name,
		SerialNumber: d.General.SerialNumber,
		Username:     d.Location.Username,
		Model:        d.Hardware.Model,
		OSVersion:    d.Hardware.OSVersion,
		IPAddress:    d.General.IPAddress,
		Managed:      d.General.RemoteManagement.Managed,
	}
}

// Matches reports whether any searchable field contains query, ignoring case. query must
// already be lower case.
func (m ComputerMatch) Matches(query string) bool {
	for _, field := range []string{m.Name, m.SerialNumber, m.Username, m.Model, m.OSVersion, m.IPAddress} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Searcher runs inventory searches.
type Searcher struct {
	auth      Authenticator
	client    InventoryClient
	handler   *concurrency.Handler
	log       logger.Logger
	batchSize int
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithBatchSize sets the number of detail lookups per batch.
func WithBatchSize(n int) SearcherOption {
	return func(s *Searcher) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewSearcher creates a Searcher whose detail lookups are bounded by handler.
func NewSearcher(auth Authenticator, client InventoryClient, handler *concurrency.Handler, log logger.Logger, opts ...SearcherOption) *Searcher {
	s := &Searcher{
		auth:      auth,
		client:    client,
		handler:   handler,
		log:       log,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns the computers matching query in listing order. onProgress, when set,
// receives the completed fraction after each batch. Cancellation is checked between
// batches; a cancelled search returns the matches found so far together with ctx.Err().
// A detail lookup that fails is logged and skipped.
func (s *Searcher) Search(ctx context.Context, query string, onProgress func(fraction float64)) ([]ComputerMatch, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, ErrEmptyQuery
	}

	serverURL, token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	computers, result := s.client.ListComputers(ctx, serverURL, token)
	if !result.Success {
		return nil, result.Err
	}

	log := s.log.With(zap.String("query", query), zap.Int("computers", len(computers)))
	log.Info("Inventory search started", zap.Int("batch_size", s.batchSize), zap.Int("window", s.handler.Limit()))

	var matches []ComputerMatch
	for start := 0; start < len(computers); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			log.Info("Inventory search cancelled", zap.Int("matches", len(matches)))
			return matches, err
		}

		end := min(start+s.batchSize, len(computers))

		// A long search can outlive the token.
		serverURL, token, err = s.token(ctx)
		if err != nil {
			return matches, err
		}

		batch, err := s.searchBatch(ctx, serverURL, token, computers[start:end], query, log)
		if err != nil {
			return matches, err
		}
		matches = append(matches, batch...)

		// Lookups aborted by cancellation were skipped, so the batch may be incomplete.
		if err := ctx.Err(); err != nil {
			log.Info("Inventory search cancelled", zap.Int("matches", len(matches)))
			return matches, err
		}

		if onProgress != nil {
			onProgress(float64(end) / float64(len(computers)))
		}
	}

	if len(computers) == 0 && onProgress != nil {
		onProgress(1)
	}

	log.Info("Inventory search finished", zap.Int("matches", len(matches)))
	return matches, nil
}

// searchBatch fetches the detail of every computer in batch concurrently and returns the
// matches in batch order.
func (s *Searcher) searchBatch(ctx context.Context, serverURL, token string, batch []jamfpro.ComputerSummary, query string, log logger.Logger) ([]ComputerMatch, error) {
	found := make([]*ComputerMatch, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	for i, computer := range batch {
		i, computer := i, computer
		g.Go(func() error {
			return s.handler.Do(gctx, func(ctx context.Context) error {
				detail, result := s.client.GetComputerDetail(ctx, serverURL, token, computer.ID)
				if !result.Success {
					requestID, _ := concurrency.RequestIDFromContext(ctx)
					log.Warn("Computer detail lookup failed",
						zap.String("request_id", requestID.String()),
						zap.Int("computer_id", computer.ID),
						zap.Int("status_code", result.StatusCode),
						zap.String("error", result.ErrorMessage),
					)
					return nil
				}

				match := matchFromDetail(detail)
				if match.Matches(query) {
					found[i] = &match
				}
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var matches []ComputerMatch
	for _, m := range found {
		if m != nil {
			matches = append(matches, *m)
		}
	}
	return matches, nil
}

func (s *Searcher) token(ctx context.Context) (string, string, error) {
	if !s.auth.EnsureAuthenticated(ctx) {
		if err := s.auth.LastError(); err != nil {
			return "", "", err
		}
		return "", "", ErrNotAuthenticated
	}
	token, ok := s.auth.CurrentToken()
	if !ok {
		return "", "", ErrNotAuthenticated
	}
	return s.auth.Credentials().ServerURL, token, nil
}
