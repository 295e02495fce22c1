package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/fittracker/internal/models"
	"github.com/meltforce/fittracker/internal/storage"
)

// HTTPClient implements DataSource by calling the fittracker REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the history lives on a remote server.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

// QuerySummaries calls GET /api/v1/summaries.
func (c *HTTPClient) QuerySummaries(ctx context.Context, limit int, code string) ([]models.SummaryRow, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if code != "" {
		params.Set("code", code)
	}

	body, err := c.get(ctx, "/api/v1/summaries", params)
	if err != nil {
		return nil, err
	}
	var rows []models.SummaryRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("httpclient: decode summaries: %w", err)
	}
	return rows, nil
}

// SummaryStats calls GET /api/v1/summaries/stats.
func (c *HTTPClient) SummaryStats(ctx context.Context) ([]storage.CodeStats, error) {
	body, err := c.get(ctx, "/api/v1/summaries/stats", nil)
	if err != nil {
		return nil, err
	}
	var stats []storage.CodeStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("httpclient: decode stats: %w", err)
	}
	return stats, nil
}
