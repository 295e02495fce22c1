package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meltforce/fittracker/internal/ingest/packages"
	"github.com/meltforce/fittracker/internal/models"
)

// RecordError mirrors tracker.RecordError as returned by the server.
type RecordError struct {
	Index int    `json:"index"`
	Code  string `json:"code"`
	Err   string `json:"error"`
}

// IngestResult is the server's answer to a batch ingest.
type IngestResult struct {
	Received  int           `json:"received"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Stored    int64         `json:"stored"`
	Errors    []RecordError `json:"errors,omitempty"`
	Messages  []string      `json:"messages"`
}

// Client sends sensor packages to a fittracker server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the fittracker server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// Ingest POSTs pkgs to the server's ingest endpoint in line format.
// Retries up to 3 times with exponential backoff on transport errors and 5xx
// responses; 4xx responses are returned immediately.
func (c *Client) Ingest(ctx context.Context, pkgs []models.Package) (*IngestResult, error) {
	var body bytes.Buffer
	if err := packages.Encode(&body, pkgs); err != nil {
		return nil, fmt.Errorf("encoding packages: %w", err)
	}

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.serverURL+"/api/v1/ingest/", bytes.NewReader(body.Bytes()))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "text/plain")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			var result IngestResult
			if err := json.Unmarshal(data, &result); err != nil {
				return nil, fmt.Errorf("decoding ingest result: %w", err)
			}
			return &result, nil
		case resp.StatusCode < http.StatusInternalServerError:
			return nil, fmt.Errorf("ingest rejected (status %d): %s", resp.StatusCode, data)
		}
		lastErr = fmt.Errorf("ingest failed (status %d): %s", resp.StatusCode, data)
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}
