package jamfpro

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deploymenttheory/go-jamfpro-fleetops/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testToken = "tok"

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, string) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		assert.Contains(t, r.Header.Get("User-Agent"), "jamf-fleetops/")
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return NewClient(server.Client(), logger.NewNop()), server.URL
}

func TestFindComputer_Found(t *testing.T) {
	client, serverURL := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/JSSResource/computers/serialnumber/C02XYZ", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"computer":{"general":{"id":42,"name":"mac-1","remote_management":{"managed":true}}}}`))
	})

	result := client.FindComputer(context.Background(), serverURL, testToken, "C02XYZ")

	require.True(t, result.Success)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	require.NotNil(t, result.ComputerID)
	assert.Equal(t, 42, *result.ComputerID)
	require.NotNil(t, result.CurrentManagedState)
	assert.True(t, *result.CurrentManagedState)
}

func TestFindComputer_NotFound(t *testing.T) {
	client, serverURL := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<html><body><p>Not Found</p></body></html>`))
	})

	result := client.FindComputer(context.Background(), serverURL, testToken, "BBB")

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.Nil(t, result.ComputerID)
	assert.Contains(t, result.ErrorMessage, "404")

	var notFound *NotFoundError
	require.ErrorAs(t, result.Err, &notFound)
	assert.Equal(t, "BBB", notFound.SerialNumber)
}

func TestFindComputerID(t *testing.T) {
	client, serverURL := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/JSSResource/computers/serialnumber/AAA" {
			_, _ = w.Write([]byte(`{"computer":{"general":{"id":1}}}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	id, statusCode := client.FindComputerID(context.Background(), serverURL, testToken, "AAA")
	require.NotNil(t, id)
	assert.Equal(t, 1, *id)
	assert.Equal(t, http.StatusOK, statusCode)

	id, statusCode = client.FindComputerID(context.Background(), serverURL, testToken, "BBB")
	assert.Nil(t, id)
	assert.Equal(t, http.StatusNotFound, statusCode)
}

func TestFindComputer_UndecodableBodyIsNotFound(t *testing.T) {
	client, serverURL := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"computer":`))
	})

	result := client.FindComputer(context.Background(), serverURL, testToken, "AAA")

	assert.False(t, result.Success)
	assert.Nil(t, result.ComputerID)
}

func TestFindComputer_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	serverURL := server.URL
	server.Close()

	client := NewClient(&http.Client{}, logger.NewNop())
	result := client.FindComputer(context.Background(), serverURL, testToken, "AAA")

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.StatusCode)
	var transportErr *TransportError
	assert.ErrorAs(t, result.Err, &transportErr)
}

func TestRedeployAgent(t *testing.T) {
	tests := []struct {
		statusCode int
		success    bool
	}{
		{http.StatusOK, true},
		{http.StatusCreated, true},
		{http.StatusAccepted, true},
		{http.StatusNoContent, false},
		{http.StatusNotFound, false},
		{http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.statusCode), func(t *testing.T) {
			client, serverURL := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/v1/jamf-management-framework/redeploy/7", r.URL.Path)
				w.WriteHeader(tt.statusCode)
			})

			result := client.RedeployAgent(context.Background(), serverURL, testToken, 7)

			assert.Equal(t, tt.success, result.Success)
			assert.Equal(t, tt.statusCode, result.StatusCode)
			if tt.success {
				require.NotNil(t, result.ComputerID)
				assert.Equal(t, 7, *result.ComputerID)
			} else {
				assert.Contains(t, result.ErrorMessage, strconv.Itoa(tt.statusCode))
			}
		})
	}
}

func TestSetManagedState(t *testing.T) {
	for _, managed := range []bool{true, false} {
		client, serverURL := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/JSSResource/computers/id/9", r.URL.Path)
			assert.Equal(t, "application/xml", r.Header.Get("Content-Type"))

			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			expected := "<computer><general><remote_management><managed>false</managed></remote_management></general></computer>"
			if managed {
				expected = "<computer><general><remote_management><managed>true</managed></remote_management></general></computer>"
			}
			assert.Equal(t, expected, string(body))
			w.WriteHeader(http.StatusCreated)
		})

		result := client.SetManagedState(context.Background(), serverURL, testToken, 9, managed)

		require.True(t, result.Success)
		assert.Equal(t, managed, *result.CurrentManagedState)
	}
}

func TestSetManagedState_ConflictParsesXMLError(t *testing.T) {
	client, serverURL := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`<?xml version="1.0"?><error><message>Unable to update the database</message></error>`))
	})

	result := client.SetManagedState(context.Background(), serverURL, testToken, 9, false)

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusConflict, result.StatusCode)
	assert.Contains(t, result.ErrorMessage, "409")
}

func TestLockWithPIN(t *testing.T) {
	var calls atomic.Int32
	client, serverURL := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/JSSResource/computercommands/command/DeviceLock/passcode/123456/id/3", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	})

	result := client.LockWithPIN(context.Background(), serverURL, testToken, 3, "123456")
	assert.True(t, result.Success)

	for _, pin := range []string{"", "12345", "1234567", "12345a", "１２３４５６"} {
		result := client.LockWithPIN(context.Background(), serverURL, testToken, 3, pin)
		assert.False(t, result.Success, pin)
		var pinErr *InvalidPINError
		assert.ErrorAs(t, result.Err, &pinErr)
	}
	assert.Equal(t, int32(1), calls.Load(), "invalid PINs must not reach the server")
}

func TestLockWithPIN_PasscodeNotLogged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("<html><body><p>Error: device offline</p></body></html>"))
	}))
	t.Cleanup(server.Close)

	core, logs := observer.New(zapcore.DebugLevel)
	client := NewClient(server.Client(), logger.NewLogger(zap.New(core), logger.LogLevelDebug))

	result := client.LockWithPIN(context.Background(), server.URL, testToken, 3, "654321")
	require.False(t, result.Success)
	assert.Equal(t, http.StatusConflict, result.StatusCode)

	require.NotZero(t, logs.Len())
	for _, entry := range logs.All() {
		for key, value := range entry.ContextMap() {
			assert.NotContains(t, fmt.Sprint(value), "654321", "field %s of %q", key, entry.Message)
		}
	}
}

func TestThrottledResponseCarriesRetryAfter(t *testing.T) {
	client, serverURL := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	result := client.RedeployAgent(context.Background(), serverURL, testToken, 1)

	assert.False(t, result.Success)
	assert.Equal(t, http.StatusTooManyRequests, result.StatusCode)
	assert.Equal(t, 3*time.Second, result.RetryAfter)
}

func TestListComputersAndDetail(t *testing.T) {
	client, serverURL := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/JSSResource/computers":
			_, _ = w.Write([]byte(`{"computers":[{"id":1,"name":"alpha"},{"id":2,"name":"beta"}]}`))
		case "/JSSResource/computers/id/2":
			_, _ = w.Write([]byte(`{"computer":{"general":{"id":2,"name":"beta","serial_number":"BBB","ip_address":"10.0.0.2"},"location":{"username":"jdoe"},"hardware":{"model":"MacBook Pro","os_version":"14.4"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	computers, result := client.ListComputers(context.Background(), serverURL, testToken)
	require.True(t, result.Success)
	require.Len(t, computers, 2)
	assert.Equal(t, "beta", computers[1].Name)

	detail, result := client.GetComputerDetail(context.Background(), serverURL, testToken, 2)
	require.True(t, result.Success)
	assert.Equal(t, "BBB", detail.General.SerialNumber)
	assert.Equal(t, "jdoe", detail.Location.Username)
	assert.Equal(t, "14.4", detail.Hardware.OSVersion)

	_, result = client.GetComputerDetail(context.Background(), serverURL, testToken, 3)
	assert.False(t, result.Success)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
}

func TestGetAdvancedSearch(t *testing.T) {
	client, serverURL := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/JSSResource/advancedcomputersearches/id/5", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"advanced_computer_search":{"id":5,"name":"Sonoma","display_fields":[{"name":"Operating System Version"}],"computers":[{"id":1,"name":"a","Operating_System_Version":"14.4"}]}}`))
	})

	search, result := client.GetAdvancedSearch(context.Background(), serverURL, testToken, 5)

	require.True(t, result.Success)
	assert.Equal(t, "Sonoma", search.Name)
	require.Len(t, search.Computers, 1)
	assert.Equal(t, "14.4", search.Computers[0]["Operating_System_Version"])
}

func TestWithRequestTimeoutClamps(t *testing.T) {
	c := NewClient(&http.Client{}, logger.NewNop(), WithRequestTimeout(time.Second))
	assert.Equal(t, MinRequestTimeout, c.timeout)

	c = NewClient(&http.Client{}, logger.NewNop(), WithRequestTimeout(time.Minute))
	assert.Equal(t, MaxRequestTimeout, c.timeout)
}

func TestErrorTitles(t *testing.T) {
	assert.Equal(t, "Not authorized", (&StatusError{StatusCode: http.StatusUnauthorized}).Title())
	assert.Equal(t, "Request failed", (&StatusError{StatusCode: http.StatusConflict}).Title())
	assert.True(t, errors.Is(&TransportError{Err: context.Canceled}, context.Canceled))
}
