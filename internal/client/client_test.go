package client

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/and161185/trust-backend/internal/config"
	"github.com/and161185/trust-backend/internal/server/testutils"
	"github.com/and161185/trust-backend/model"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(testutils.NewTestServer(context.Background()).Router())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(addr string) *Client {
	return NewClient(&config.ClientConfig{
		ServerAddr:     addr,
		ClientName:     "agent-1",
		ReportInterval: 10 * time.Millisecond,
		ClientTimeout:  time.Second,
	})
}

func TestClient_StatusCheckRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newClient(newBackend(t).URL)

	created, err := c.CreateStatusCheck(ctx, "web")
	require.NoError(t, err)
	require.Equal(t, "web", created.ClientName)
	require.NotEmpty(t, created.ID)

	list, err := c.ListStatusChecks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, created.ID, list[0].ID)
	require.True(t, created.Timestamp.Equal(list[0].Timestamp))
}

func TestClient_ListEmpty(t *testing.T) {
	c := newClient(newBackend(t).URL)

	list, err := c.ListStatusChecks(context.Background())
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestClient_TrustMetricsStable(t *testing.T) {
	ctx := context.Background()
	c := newClient(newBackend(t).URL)

	first, err := c.TrustMetrics(ctx)
	require.NoError(t, err)
	require.Len(t, first.Items, 4)
	require.Equal(t, "rating", first.Items[0].Key)

	second, err := c.TrustMetrics(ctx)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestClient_Ping(t *testing.T) {
	require.NoError(t, newClient(newBackend(t).URL).Ping(context.Background()))
}

func TestClient_SendsGzip(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/status", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "gzip", r.Header.Get("Content-Encoding"))

		gr, err := gzip.NewReader(r.Body)
		require.NoError(t, err)
		var in model.StatusCheckCreate
		require.NoError(t, json.NewDecoder(gr).Decode(&in))
		require.NotNil(t, in.ClientName)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(model.NewStatusCheck(*in.ClientName))
	}))
	defer ts.Close()

	got, err := newClient(ts.URL).CreateStatusCheck(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, "x", got.ClientName)
}

func TestClient_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"store unavailable"}`))
	}))
	defer ts.Close()
	c := newClient(ts.URL)

	_, err := c.TrustMetrics(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	require.Equal(t, "store unavailable", apiErr.Detail)
	require.Contains(t, err.Error(), "unexpected status")

	err = c.Ping(context.Background())
	require.True(t, errors.As(err, &apiErr))
}

func TestClient_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	_, err := newClient(addr).ListStatusChecks(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "send request")
}

func TestClientRun_ReportsUntilCanceled(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(model.NewStatusCheck("agent-1"))
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := newClient(ts.URL).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.GreaterOrEqual(t, hits.Load(), int32(2))
}

func TestClientRun_KeepsGoingOnFailure(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, newClient(ts.URL).Run(ctx), context.Canceled)
	require.GreaterOrEqual(t, hits.Load(), int32(2))
}

func TestClientRun_BadInterval(t *testing.T) {
	c := NewClient(&config.ClientConfig{ServerAddr: "http://localhost:1"})
	require.Error(t, c.Run(context.Background()))
}
