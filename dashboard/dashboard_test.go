package dashboard

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-jamfpro-fleetops/authenticationhandler"
	"github.com/deploymenttheory/go-jamfpro-fleetops/jamfpro"
	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
)

type stubAuth struct {
	ok      bool
	lastErr error
}

func (s *stubAuth) EnsureAuthenticated(ctx context.Context) bool { return s.ok }

func (s *stubAuth) CurrentToken() (string, bool) { return "tok", s.ok }

func (s *stubAuth) Credentials() authenticationhandler.Credentials {
	return authenticationhandler.Credentials{ServerURL: "https://x.example.com"}
}

func (s *stubAuth) LastError() error { return s.lastErr }

type mockSearchClient struct {
	mock.Mock
}

func (m *mockSearchClient) GetAdvancedSearch(ctx context.Context, serverURL, token string, searchID int) (*jamfpro.AdvancedComputerSearch, jamfpro.OperationResult) {
	args := m.Called(searchID)
	search, _ := args.Get(0).(*jamfpro.AdvancedComputerSearch)
	return search, args.Get(1).(jamfpro.OperationResult)
}

var okResult = jamfpro.OperationResult{Success: true, StatusCode: http.StatusOK}

func sampleSearch(id int) *jamfpro.AdvancedComputerSearch {
	return &jamfpro.AdvancedComputerSearch{
		ID:   id,
		Name: "Lab Macs",
		DisplayFields: []jamfpro.DisplayField{
			{Name: "Operating System Version"},
			{Name: "Model"},
		},
		Computers: []map[string]any{
			{"Operating_System_Version": "14.5", "Model": "MacBook Air"},
			{"Operating_System_Version": "14.5", "Model": "Mac mini"},
			{"Operating_System_Version": "13.6", "Model": "MacBook Air"},
			{"Operating_System_Version": "", "Model": "MacBook Air"},
		},
	}
}

func TestAggregate(t *testing.T) {
	summary := Aggregate(sampleSearch(7))

	assert.Equal(t, 7, summary.SearchID)
	assert.Equal(t, "Lab Macs", summary.Name)
	assert.Equal(t, 4, summary.TotalComputers)
	require.Len(t, summary.Fields, 2)

	assert.Equal(t, "Operating System Version", summary.Fields[0].Name)
	assert.Equal(t, []ValueCount{{"14.5", 2}, {EmptyValue, 1}, {"13.6", 1}}, summary.Fields[0].Values)

	assert.Equal(t, []ValueCount{{"MacBook Air", 3}, {"Mac mini", 1}}, summary.Fields[1].Values)
}

func TestAggregate_NumericAndMissingValues(t *testing.T) {
	search := &jamfpro.AdvancedComputerSearch{
		DisplayFields: []jamfpro.DisplayField{{Name: "Battery Cycle Count"}},
		Computers: []map[string]any{
			{"Battery_Cycle_Count": float64(12)},
			{},
		},
	}

	summary := Aggregate(search)
	assert.Equal(t, []ValueCount{{EmptyValue, 1}, {"12", 1}}, summary.Fields[0].Values)
}

func TestSummary_CachesBySearchID(t *testing.T) {
	client := &mockSearchClient{}
	client.On("GetAdvancedSearch", 7).Return(sampleSearch(7), okResult).Once()
	generated := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	service := NewService(&stubAuth{ok: true}, client, logger.NewNop(), WithClock(func() time.Time { return generated }))

	first, err := service.Summary(context.Background(), 7)
	require.NoError(t, err)
	second, err := service.Summary(context.Background(), 7)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, generated, first.GeneratedAt)
	client.AssertNumberOfCalls(t, "GetAdvancedSearch", 1)
}

func TestSummary_ExpiresAfterTTL(t *testing.T) {
	client := &mockSearchClient{}
	client.On("GetAdvancedSearch", 7).Return(sampleSearch(7), okResult)

	service := NewService(&stubAuth{ok: true}, client, logger.NewNop(), WithCacheTTL(30*time.Millisecond))

	_, err := service.Summary(context.Background(), 7)
	require.NoError(t, err)
	time.Sleep(80 * time.Millisecond)
	_, err = service.Summary(context.Background(), 7)
	require.NoError(t, err)

	client.AssertNumberOfCalls(t, "GetAdvancedSearch", 2)
}

func TestSelect_InvalidatesPreviousSearch(t *testing.T) {
	client := &mockSearchClient{}
	client.On("GetAdvancedSearch", 7).Return(sampleSearch(7), okResult)
	client.On("GetAdvancedSearch", 8).Return(sampleSearch(8), okResult)

	service := NewService(&stubAuth{ok: true}, client, logger.NewNop())
	ctx := context.Background()

	service.Select(7)
	_, err := service.Summary(ctx, 7)
	require.NoError(t, err)

	// Selecting the same search keeps its entry.
	service.Select(7)
	_, err = service.Summary(ctx, 7)
	require.NoError(t, err)
	client.AssertNumberOfCalls(t, "GetAdvancedSearch", 1)

	service.Select(8)
	assert.Equal(t, 8, service.Selected())
	_, err = service.Summary(ctx, 8)
	require.NoError(t, err)

	service.Select(7)
	_, err = service.Summary(ctx, 7)
	require.NoError(t, err)

	client.AssertNumberOfCalls(t, "GetAdvancedSearch", 3)
}

func TestInvalidateAndPurge(t *testing.T) {
	client := &mockSearchClient{}
	client.On("GetAdvancedSearch", 7).Return(sampleSearch(7), okResult)
	client.On("GetAdvancedSearch", 8).Return(sampleSearch(8), okResult)

	service := NewService(&stubAuth{ok: true}, client, logger.NewNop())
	ctx := context.Background()

	for _, id := range []int{7, 8} {
		_, err := service.Summary(ctx, id)
		require.NoError(t, err)
	}

	service.Invalidate(7)
	_, err := service.Summary(ctx, 7)
	require.NoError(t, err)
	_, err = service.Summary(ctx, 8)
	require.NoError(t, err)
	client.AssertNumberOfCalls(t, "GetAdvancedSearch", 3)

	service.Purge()
	for _, id := range []int{7, 8} {
		_, err := service.Summary(ctx, id)
		require.NoError(t, err)
	}
	client.AssertNumberOfCalls(t, "GetAdvancedSearch", 5)
}

func TestSummary_Failures(t *testing.T) {
	searchErr := &jamfpro.StatusError{Op: "advanced search", StatusCode: http.StatusNotFound}
	client := &mockSearchClient{}
	client.On("GetAdvancedSearch", 9).Return(nil, jamfpro.OperationResult{StatusCode: http.StatusNotFound, Err: searchErr})

	service := NewService(&stubAuth{ok: true}, client, logger.NewNop())
	_, err := service.Summary(context.Background(), 9)
	assert.ErrorIs(t, err, searchErr)

	// Failures are not cached.
	_, err = service.Summary(context.Background(), 9)
	assert.Error(t, err)
	client.AssertNumberOfCalls(t, "GetAdvancedSearch", 2)

	unauthenticated := NewService(&stubAuth{}, client, logger.NewNop())
	_, err = unauthenticated.Summary(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}
