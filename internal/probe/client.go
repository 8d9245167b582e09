package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"medgemma/pkg/types"
)

// Client talks to a running medgemmad.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for baseURL, e.g. "http://localhost:8000".
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx response from medgemmad.
type APIError struct {
	Status int
	Msg    string
}

func (e *APIError) Error() string { return fmt.Sprintf("medgemmad: %d %s", e.Status, e.Msg) }

// StatusCode returns the HTTP status of the response.
func (e *APIError) StatusCode() int { return e.Status }

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (types.HealthResponse, error) {
	var out types.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

// Models calls GET /models.
func (c *Client) Models(ctx context.Context) (types.ModelsResponse, error) {
	var out types.ModelsResponse
	err := c.do(ctx, http.MethodGet, "/models", nil, &out)
	return out, err
}

// Analyze calls POST /analyze. A generation failure is a successful call whose
// response has Success=false.
func (c *Client) Analyze(ctx context.Context, req types.AnalyzeRequest) (types.AnalyzeResponse, error) {
	var out types.AnalyzeResponse
	err := c.do(ctx, http.MethodPost, "/analyze", req, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e types.ErrorResponse
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Msg: msg}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
