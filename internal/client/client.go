package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quill/internal/logging"
	"quill/internal/pipeline"
)

// Config holds settings for the execution service client.
type Config struct {
	BaseURL     string        // Service base URL, e.g. "https://draft.example.com"
	APIKey      string        // Bearer token; optional for unauthenticated deployments
	HTTPTimeout time.Duration // Timeout for buffered requests (streaming requests only use it for dialing)
	Retry       RetryConfig
}

// Client talks to the drafting execution service over HTTP. It covers the
// two execution surfaces: an SSE stream for persisted pipelines and a
// buffered call for ad-hoc ones.
type Client struct {
	httpClient   *http.Client
	streamClient *http.Client
	baseURL      string
	apiKey       string
	retry        RetryConfig
}

// New creates a client for the given service.
func New(cfg Config) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	retry := cfg.Retry
	if retry.MaxRetries == 0 && retry.RetryDelay == 0 {
		retry = DefaultRetryConfig()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		// No client timeout on the streaming path: a run may stream for
		// longer than any fixed request budget. Cancellation comes from
		// the caller's context.
		streamClient: &http.Client{},
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		retry:        retry,
	}
}

// InlineRequest is the body of a buffered execution call.
type InlineRequest struct {
	Persona string          `json:"persona"`
	Steps   []pipeline.Step `json:"steps"`
	Input   string          `json:"input"`
}

// InlineResponse is the buffered execution result.
type InlineResponse struct {
	Steps       []pipeline.StepResult `json:"steps"`
	FinalOutput string                `json:"finalOutput"`
}

// StreamRun starts a streaming execution of a persisted pipeline and
// returns the raw SSE body. The caller owns closing it. Retries with
// backoff apply only before a stream is obtained; once the body is handed
// out no retry happens.
func (c *Client) StreamRun(ctx context.Context, runID, input string) (io.ReadCloser, error) {
	url := fmt.Sprintf("%s/api/agents/%s/run/stream", c.baseURL, runID)
	body, err := json.Marshal(map[string]string{"input": input})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := CalculateBackoff(c.retry.RetryDelay, attempt-1, c.retry.MaxDelay)
			logging.Info("retrying stream request", "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		stream, err := c.openStream(ctx, url, body)
		if err == nil {
			return stream, nil
		}
		lastErr = err
		if !IsRetryableError(err) {
			return nil, err
		}
		logging.Warn("stream request failed, will retry", "attempt", attempt, "error", err)
	}
	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.retry.MaxRetries, lastErr)
}

func (c *Client) openStream(ctx context.Context, url string, body []byte) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp.Body, nil
}

// ExecuteInline runs an unpersisted pipeline in one buffered call.
func (c *Client) ExecuteInline(ctx context.Context, req InlineRequest) (*InlineResponse, error) {
	url := c.baseURL + "/api/agents/run"
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp)
	}

	var out InlineResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode run response: %w", err)
	}
	return &out, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// decodeAPIError turns a non-2xx response into an APIError. The service
// should send {"error": "..."} but anything else is tolerated with a
// generic message.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("request failed with status %d", resp.StatusCode),
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apiErr
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	}
	return apiErr
}
