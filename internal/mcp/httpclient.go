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

	"github.com/google/uuid"

	"github.com/meltforce/movassist/internal/storage"
)

// HTTPClient implements DataSource by calling the MovAssist REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
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

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) ListSessions(ctx context.Context, exercise string, start, end time.Time, limit int) ([]storage.SessionRow, error) {
	params := timeParams(start, end)
	if exercise != "" {
		params.Set("exercise", exercise)
	}
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/api/v1/sessions", params)
	if err != nil {
		return nil, err
	}

	var rows []storage.SessionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("httpclient: decode sessions: %w", err)
	}
	return rows, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, id uuid.UUID) (*storage.SessionDetail, error) {
	body, err := c.get(ctx, "/api/v1/sessions/"+id.String(), nil)
	if err != nil {
		return nil, err
	}

	var detail storage.SessionDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("httpclient: decode session: %w", err)
	}
	return &detail, nil
}

func (c *HTTPClient) GetSessionReps(ctx context.Context, id uuid.UUID) ([]storage.RepRow, error) {
	body, err := c.get(ctx, "/api/v1/sessions/"+id.String()+"/reps", nil)
	if err != nil {
		return nil, err
	}

	var reps []storage.RepRow
	if err := json.Unmarshal(body, &reps); err != nil {
		return nil, fmt.Errorf("httpclient: decode reps: %w", err)
	}
	return reps, nil
}

func (c *HTTPClient) ViolationStats(ctx context.Context, exercise string, start, end time.Time) ([]storage.ViolationCount, error) {
	params := timeParams(start, end)
	if exercise != "" {
		params.Set("exercise", exercise)
	}

	body, err := c.get(ctx, "/api/v1/stats/violations", params)
	if err != nil {
		return nil, err
	}

	var stats []storage.ViolationCount
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("httpclient: decode violation stats: %w", err)
	}
	return stats, nil
}

func (c *HTTPClient) Totals(ctx context.Context, start, end time.Time) ([]storage.ExerciseTotals, error) {
	body, err := c.get(ctx, "/api/v1/stats/totals", timeParams(start, end))
	if err != nil {
		return nil, err
	}

	var totals []storage.ExerciseTotals
	if err := json.Unmarshal(body, &totals); err != nil {
		return nil, fmt.Errorf("httpclient: decode totals: %w", err)
	}
	return totals, nil
}
