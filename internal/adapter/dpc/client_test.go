package dpc

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/covid-region-plots/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "../../domain/testdata/dpc-covid19-ita-regioni-sample.csv"

func testClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Extract_Success(t *testing.T) {
	body, err := os.ReadFile(sampleCSV)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/dati-regioni/dpc-covid19-ita-regioni.csv", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c := testClient(srv.URL+"/dati-regioni/dpc-covid19-ita-regioni.csv", 5*time.Second)
	records, err := c.Extract(context.Background())
	require.NoError(t, err)

	assert.Len(t, records, 9)
	assert.Equal(t, "Lombardia", records[0].Region)
	assert.InDelta(t, 9.0, testutil.ToFloat64(c.metrics.RowsFetched), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.FetchRequests.WithLabelValues("success")), 0)
}

func TestClient_Extract_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("404: Not Found"))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	_, err := c.Extract(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "Not Found")
	assert.InDelta(t, 1.0, testutil.ToFloat64(c.metrics.FetchRequests.WithLabelValues("error")), 0)
}

func TestClient_Extract_MalformedCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("data,denominazione_regione\n2020-03-01T18:00:00,Umbria\n"))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 5*time.Second)
	_, err := c.Extract(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestClient_Extract_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 50*time.Millisecond)
	_, err := c.Extract(context.Background())
	require.Error(t, err)
}

func TestClient_Extract_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := testClient(srv.URL, 5*time.Second)
	_, err := c.Extract(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
