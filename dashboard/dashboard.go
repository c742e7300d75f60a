// Package dashboard summarises a Jamf Pro advanced computer search: how many computers it
// returns and how their display field values are distributed.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/deploymenttheory/go-jamfpro-fleetops/authenticationhandler"
	"github.com/deploymenttheory/go-jamfpro-fleetops/jamfpro"
	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
)

const (
	// DefaultCacheTTL is how long a summary is served from the cache.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultCacheSize is the number of searches kept.
	DefaultCacheSize = 32
	// EmptyValue stands in for a missing or blank field value.
	EmptyValue = "(none)"
)

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

// SearchClient fetches advanced searches. It is satisfied by *jamfpro.Client.
type SearchClient interface {
	GetAdvancedSearch(ctx context.Context, serverURL, token string, searchID int) (*jamfpro.AdvancedComputerSearch, jamfpro.OperationResult)
}

// ValueCount is the number of computers sharing a field value.
type ValueCount struct {
	Value string
	Count int
}

// FieldSummary is the value distribution of one display field, most common value first.
type FieldSummary struct {
	Name   string
	Values []ValueCount
}

// Summary aggregates one advanced search.
type Summary struct {
	SearchID       int
	Name           string
	TotalComputers int
	Fields         []FieldSummary
	GeneratedAt    time.Time
}

// Service builds and caches summaries.
type Service struct {
	auth   Authenticator
	client SearchClient
	log    logger.Logger

	ttl   time.Duration
	size  int
	now   func() time.Time
	cache *expirable.LRU[int, *Summary]

	mu       sync.Mutex
	selected int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCacheTTL sets the summary lifetime.
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithCacheSize sets the number of cached searches.
func WithCacheSize(size int) ServiceOption {
	return func(s *Service) {
		if size > 0 {
			s.size = size
		}
	}
}

// WithClock sets the clock used for GeneratedAt.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(auth Authenticator, client SearchClient, log logger.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		auth:   auth,
		client: client,
		log:    log,
		ttl:    DefaultCacheTTL,
		size:   DefaultCacheSize,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = expirable.NewLRU[int, *Summary](s.size, func(searchID int, _ *Summary) {
		s.log.Debug("Dashboard summary evicted", zap.Int("search_id", searchID))
	}, s.ttl)
	return s
}

// Summary returns the summary of searchID, from the cache when it holds a live entry.
func (s *Service) Summary(ctx context.Context, searchID int) (*Summary, error) {
	if summary, ok := s.cache.Get(searchID); ok {
		s.log.Debug("Dashboard summary served from cache", zap.Int("search_id", searchID))
		return summary, nil
	}

	if !s.auth.EnsureAuthenticated(ctx) {
		if err := s.auth.LastError(); err != nil {
			return nil, err
		}
		return nil, ErrNotAuthenticated
	}
	token, ok := s.auth.CurrentToken()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	search, result := s.client.GetAdvancedSearch(ctx, s.auth.Credentials().ServerURL, token, searchID)
	if !result.Success {
		return nil, result.Err
	}

	summary := Aggregate(search)
	summary.SearchID = searchID
	summary.GeneratedAt = s.now()

	s.cache.Add(searchID, summary)
	s.log.Info("Dashboard summary built",
		zap.Int("search_id", searchID),
		zap.String("search_name", summary.Name),
		zap.Int("total_computers", summary.TotalComputers),
	)
	return summary, nil
}

// Select records searchID as the displayed search. Changing the selection drops the
// previous search from the cache so returning to it fetches fresh data.
func (s *Service) Select(searchID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selected != 0 && s.selected != searchID {
		s.cache.Remove(s.selected)
	}
	s.selected = searchID
}

// Selected returns the displayed search, 0 when none.
func (s *Service) Selected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Invalidate drops the cached summary of searchID.
func (s *Service) Invalidate(searchID int) {
	s.cache.Remove(searchID)
}

// Purge drops every cached summary.
func (s *Service) Purge() {
	s.cache.Purge()
}

// Aggregate counts the values of each display field across the search results. The
// classic API keys result columns by the display field name with spaces replaced by
// underscores.
func Aggregate(search *jamfpro.AdvancedComputerSearch) *Summary {
	summary := &Summary{
		SearchID:       search.ID,
		Name:           search.Name,
		TotalComputers: len(search.Computers),
	}

	for _, field := range search.DisplayFields {
		key := strings.ReplaceAll(field.Name, " ", "_")

		counts := make(map[string]int)
		for _, computer := range search.Computers {
			counts[formatValue(computer[key])]++
		}

		values := make([]ValueCount, 0, len(counts))
		for value, count := range counts {
			values = append(values, ValueCount{Value: value, Count: count})
		}
		sort.Slice(values, func(i, j int) bool {
			if values[i].Count != values[j].Count {
				return values[i].Count > values[j].Count
			}
			return values[i].Value < values[j].Value
		})

		summary.Fields = append(summary.Fields, FieldSummary{Name: field.Name, Values: values})
	}

	return summary
}

func formatValue(v any) string {
	if v == nil {
		return EmptyValue
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	if s == "" {
		return EmptyValue
	}
	return s
}
