package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	running bool
	pending int
}

func (f fakeWriter) Running() bool { return f.running }
func (f fakeWriter) Pending() int  { return f.pending }

type fakeStorage struct{ err error }

func (f fakeStorage) Ping(context.Context) error { return f.err }

type fakeNATS bool

func (f fakeNATS) IsConnected() bool { return bool(f) }

func TestCheck_Healthy(t *testing.T) {
	checker := NewChecker(fakeWriter{running: true, pending: 2}, fakeStorage{}, fakeNATS(true), func() int { return 4 })

	status := checker.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, 4, status.Connections)
	assert.Equal(t, 2, status.PendingDocuments)
	assert.True(t, status.StorageReachable)
	assert.True(t, status.NATSConnected)
	assert.Empty(t, status.Errors)
}

func TestCheck_StorageWithoutPingIsReachable(t *testing.T) {
	checker := NewChecker(fakeWriter{running: true}, struct{}{}, nil, nil)

	status := checker.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.True(t, status.StorageReachable)
	assert.False(t, status.NATSConnected)
}

func TestCheck_Unhealthy(t *testing.T) {
	checker := NewChecker(
		fakeWriter{running: false, pending: 500},
		fakeStorage{err: errors.New("connection refused")},
		fakeNATS(false),
		nil,
	)

	status := checker.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.False(t, status.StorageReachable)
	assert.Len(t, status.Errors, 4)
}

func TestServeHTTP(t *testing.T) {
	checker := NewChecker(fakeWriter{running: false}, nil, nil, nil)

	rec := httptest.NewRecorder()
	checker.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Healthy)
	assert.Equal(t, []string{"persistence writer not running"}, status.Errors)
}
