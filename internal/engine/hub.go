package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default Hugging Face endpoints.
const (
	DefaultHubURL       = "https://huggingface.co"
	DefaultInferenceURL = "https://api-inference.huggingface.co/models"
)

// HubClient is a minimal Hugging Face Hub and Inference API client.
type HubClient struct {
	token        string
	hubURL       string
	inferenceURL string
	timeout      time.Duration
	httpClient   *http.Client
}

// HubOption configures a HubClient.
type HubOption func(*HubClient)

// WithHubURL overrides the hub base URL. Empty keeps the default.
func WithHubURL(u string) HubOption {
	return func(c *HubClient) {
		if u = strings.TrimSpace(u); u != "" {
			c.hubURL = strings.TrimRight(u, "/")
		}
	}
}

// WithInferenceURL overrides the inference base URL. Empty keeps the default.
func WithInferenceURL(u string) HubOption {
	return func(c *HubClient) {
		if u = strings.TrimSpace(u); u != "" {
			c.inferenceURL = strings.TrimRight(u, "/")
		}
	}
}

// WithRequestTimeout bounds each hub call. Zero leaves deadlines to the caller's context.
func WithRequestTimeout(d time.Duration) HubOption {
	return func(c *HubClient) { c.timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) HubOption {
	return func(c *HubClient) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// NewHubClient returns a client authenticating with token (which may be empty).
func NewHubClient(token string, opts ...HubOption) *HubClient {
	c := &HubClient{
		token:        strings.TrimSpace(token),
		hubURL:       DefaultHubURL,
		inferenceURL: DefaultInferenceURL,
		httpClient:   &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// HasToken reports whether a token is configured.
func (c *HubClient) HasToken() bool { return c.token != "" }

// WhoamiInfo is the authenticated hub identity.
type WhoamiInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Fullname string `json:"fullname,omitempty"`
}

// ModelInfo is the subset of hub model metadata we use. Gated is false or a
// string such as "auto" or "manual".
type ModelInfo struct {
	ID          string `json:"id"`
	Gated       any    `json:"gated"`
	Private     bool   `json:"private"`
	PipelineTag string `json:"pipeline_tag,omitempty"`
	Downloads   int    `json:"downloads,omitempty"`
}

// IsGated reports whether the model requires accepting a license.
func (m ModelInfo) IsGated() bool {
	switch v := m.Gated.(type) {
	case bool:
		return v
	case string:
		return v != "" && !strings.EqualFold(v, "false")
	default:
		return false
	}
}

// Whoami returns the identity behind the token.
func (c *HubClient) Whoami(ctx context.Context) (WhoamiInfo, error) {
	var out WhoamiInfo
	err := c.getJSON(ctx, "whoami", c.hubURL+"/api/whoami-v2", &out)
	return out, err
}

// ModelInfo fetches metadata for a hub model id such as "google/medgemma-4b-it".
func (c *HubClient) ModelInfo(ctx context.Context, id string) (ModelInfo, error) {
	var out ModelInfo
	err := c.getJSON(ctx, "model info", c.hubURL+"/api/models/"+escapeModelID(id), &out)
	return out, err
}

// TextGenerationParameters are the generation knobs accepted by the Inference API.
type TextGenerationParameters struct {
	MaxNewTokens      int      `json:"max_new_tokens,omitempty"`
	Temperature       *float64 `json:"temperature,omitempty"`
	TopK              int      `json:"top_k,omitempty"`
	TopP              float64  `json:"top_p,omitempty"`
	RepetitionPenalty float64  `json:"repetition_penalty,omitempty"`
	DoSample          bool     `json:"do_sample"`
	ReturnFullText    bool     `json:"return_full_text"`
	Details           bool     `json:"details,omitempty"`
}

// InferenceOptions control hub-side caching and cold starts.
type InferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

// TextGenerationRequest is the Inference API text-generation payload.
type TextGenerationRequest struct {
	Inputs     string                   `json:"inputs"`
	Parameters TextGenerationParameters `json:"parameters"`
	Options    InferenceOptions         `json:"options"`
}

// TextGenerationOutput is one element of the Inference API response.
type TextGenerationOutput struct {
	GeneratedText string `json:"generated_text"`
	Details       *struct {
		FinishReason    string `json:"finish_reason"`
		GeneratedTokens int    `json:"generated_tokens"`
	} `json:"details,omitempty"`
}

// TextGeneration runs text generation for model.
func (c *HubClient) TextGeneration(ctx context.Context, model string, in TextGenerationRequest) (TextGenerationOutput, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return TextGenerationOutput{}, err
	}
	raw, err := c.do(ctx, "inference", http.MethodPost, c.inferenceURL+"/"+escapeModelID(model), body)
	if err != nil {
		return TextGenerationOutput{}, err
	}
	var list []TextGenerationOutput
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return TextGenerationOutput{}, fmt.Errorf("inference: empty response")
		}
		return list[0], nil
	}
	var one TextGenerationOutput
	if err := json.Unmarshal(raw, &one); err != nil {
		return TextGenerationOutput{}, fmt.Errorf("inference: decode response: %w", err)
	}
	return one, nil
}

func (c *HubClient) getJSON(ctx context.Context, op, u string, out any) error {
	raw, err := c.do(ctx, op, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *HubClient) do(ctx context.Context, op, method, u string, body []byte) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteError{Op: op, Status: resp.StatusCode, Msg: hubErrorMessage(raw)}
	}
	return raw, nil
}

// hubErrorMessage extracts {"error": "..."} from a hub error body, falling back to the raw text.
func hubErrorMessage(raw []byte) string {
	var e struct {
		Error any `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Error != nil {
		switch v := e.Error.(type) {
		case string:
			return v
		default:
			b, _ := json.Marshal(v)
			return string(b)
		}
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 512 {
		s = s[:512]
	}
	return s
}

// escapeModelID escapes each path segment of "org/name" but keeps the slash.
func escapeModelID(id string) string {
	parts := strings.Split(strings.Trim(id, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
