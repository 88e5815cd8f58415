// Package dpc downloads the Civil Protection regional COVID-19 table.
package dpc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/covid-region-plots/internal/domain"
	"github.com/couchcryptid/covid-region-plots/internal/observability"
)

// maxErrorBody caps how much of a failed response ends up in the error.
const maxErrorBody = 512

// Client fetches and parses the DPC regional CSV. It implements pipeline.Extractor.
type Client struct {
	url        string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a client for the CSV at url.
func NewClient(url string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Extract downloads the table once and returns every row.
func (c *Client) Extract(ctx context.Context) ([]domain.Record, error) {
	start := time.Now()
	records, err := c.fetch(ctx)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	c.metrics.FetchRequests.WithLabelValues("success").Inc()
	c.metrics.RowsFetched.Add(float64(len(records)))
	c.logger.Info("source table fetched", "url", c.url, "rows", len(records), "duration", time.Since(start))
	return records, nil
}

func (c *Client) fetch(ctx context.Context) ([]domain.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch source csv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("fetch source csv: status %d: %s", resp.StatusCode, body)
	}

	records, err := domain.ParseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch source csv: %w", err)
	}
	return records, nil
}
