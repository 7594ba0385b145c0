package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/meltforce/movassist/internal/ingest"
)

// Client sends landmark recordings to the MovAssist server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new HTTP client for the MovAssist server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ingestResponse is the server's ingest reply envelope.
type ingestResponse struct {
	Result ingest.Result `json:"result"`
}

// SendRecording POSTs a JSONL recording to the server's ingest endpoint.
// Retries up to 3 times with exponential backoff on failure.
func (c *Client) SendRecording(exercise string, fps float64, data []byte) (*ingest.Result, error) {
	params := url.Values{}
	params.Set("exercise", exercise)
	if fps > 0 {
		params.Set("fps", strconv.FormatFloat(fps, 'f', -1, 64))
	}
	u := c.serverURL + "/api/v1/ingest?" + params.Encode()

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			time.Sleep(time.Duration(1<<uint(attempt-1)) * time.Second)
		}

		req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-ndjson")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			var env ingestResponse
			if err := json.Unmarshal(body, &env); err != nil {
				return nil, fmt.Errorf("decoding ingest response: %w", err)
			}
			return &env.Result, nil
		}
		lastErr = fmt.Errorf("ingest failed (status %d): %s", resp.StatusCode, body)
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}
