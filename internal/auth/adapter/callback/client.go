// Package callback implements the outbound round-trip to the configured
// authorization callback endpoint.
package callback

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"authcallback/internal/domain"
	"authcallback/internal/platform/telemetry"
)

// Client invokes the authorization callback. The HTTP client is shared,
// read-only configuration; Client itself holds no mutable state and is
// safe for concurrent use.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	metrics    *telemetry.AuthMetrics
}

// NewClient creates a callback client for the given URI. The httpClient
// governs all transport behavior (timeouts, redirects, pooling); pass nil
// to use http.DefaultClient. The metrics parameter is optional; pass nil
// to skip metric recording.
func NewClient(uri string, httpClient *http.Client, m *telemetry.AuthMetrics) (*Client, error) {
	base, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse callback URI: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base:       base,
		httpClient: httpClient,
		metrics:    m,
	}, nil
}

// Fetch POSTs to the callback with every inbound parameter appended as a
// query parameter (one occurrence per value, value order preserved within
// a name), an empty body, and Accept: */*. The response is classified
// into exactly one of:
//
//   - 2xx with a decodable JSON body: the parsed record.
//   - 4xx/5xx: domain.ErrCallbackRejected.
//   - 2xx with an empty or undecodable body, or any other status:
//     domain.ErrBadCallbackResponse.
//   - transport failure: a wrapped error matching neither sentinel.
//
// There are no retries and no deadline beyond the HTTP client's own.
func (c *Client) Fetch(ctx context.Context, params url.Values) (*domain.Record, error) {
	target := *c.base
	query := target.Query()
	for name, values := range params {
		for _, value := range values {
			query.Add(name, value)
		}
	}
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating callback request: %w", err)
	}
	req.Header.Set("Accept", "*/*")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(ctx, "transport_error", start)
		return nil, fmt.Errorf("invoking callback: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400:
		c.record(ctx, "rejected", start)
		return nil, domain.ErrCallbackRejected

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var record domain.Record
		if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
			// Simple callbacks often return an empty success body
			// and rely on the default record instead.
			slog.Debug("callback response was not valid record JSON", "error", err)
			c.record(ctx, "bad_response", start)
			return nil, domain.ErrBadCallbackResponse
		}
		c.record(ctx, "success", start)
		return &record, nil

	default:
		c.record(ctx, "bad_response", start)
		return nil, domain.ErrBadCallbackResponse
	}
}

func (c *Client) record(ctx context.Context, result string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordCallbackRequest(ctx, result, time.Since(start).Seconds())
	}
}
