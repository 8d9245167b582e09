package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// llamaServerBackend talks to a running llama.cpp server over its OpenAI-compatible API.
type llamaServerBackend struct {
	baseURL    string
	apiKey     string
	reqTimeout time.Duration
	httpClient *http.Client
}

// NewLlamaServerBackend constructs a server-backed backend.
func NewLlamaServerBackend(baseURL, apiKey string, reqTimeout, connectTimeout time.Duration) Backend {
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Deadlines come from the request context; the client itself never times out.
	return &llamaServerBackend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		reqTimeout: reqTimeout,
		httpClient: &http.Client{Transport: tr},
	}
}

func (b *llamaServerBackend) Name() string { return BackendLlamaServer }

type openAIModelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Load verifies the server is reachable and lists models. The model id is passed
// through on every completion; servers with a single model ignore it.
func (b *llamaServerBackend) Load(ctx context.Context, cfg Config) (Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/v1/models", nil)
	if err != nil {
		return nil, err
	}
	b.authorize(req)
	resp, err := b.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrDependencyUnavailable("llama server unreachable: " + err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &RemoteError{Op: "list models", Status: resp.StatusCode, Msg: strings.TrimSpace(string(msg))}
	}
	var list openAIModelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, errors.New("llama server: decode model list: " + err.Error())
	}
	if len(list.Data) == 0 {
		return nil, ErrModelNotFound(cfg.ModelID)
	}
	return &llamaServerSession{backend: b, modelID: cfg.ModelID}, nil
}

func (b *llamaServerBackend) authorize(req *http.Request) {
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}
}

type llamaServerSession struct {
	backend *llamaServerBackend
	modelID string
}

// openAICompletionRequest represents the payload for /v1/completions.
type openAICompletionRequest struct {
	Model       string  `json:"model,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p,omitempty"`
	TopK        int     `json:"top_k"`
	Stream      bool    `json:"stream"`
	// RepeatPenalty is a llama.cpp extension; other servers ignore it.
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	StreamOptions *struct {
		IncludeUsage bool `json:"include_usage"`
	} `json:"stream_options,omitempty"`
}

type openAIStreamChoice struct {
	Text  string `json:"text"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
	FinishReason string `json:"finish_reason"`
}

type openAIStreamResponse struct {
	Choices []openAIStreamChoice `json:"choices"`
	Usage   *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (s *llamaServerSession) Generate(ctx context.Context, prompt string, opts SamplingOptions) (Completion, error) {
	if s.backend.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.backend.reqTimeout)
		defer cancel()
	}
	payload := openAICompletionRequest{
		Model:         s.modelID,
		Prompt:        prompt,
		MaxTokens:     opts.MaxTokens,
		Temperature:   opts.Temperature,
		TopP:          opts.TopP,
		TopK:          opts.TopK,
		Stream:        true,
		RepeatPenalty: repetitionPenalty,
	}
	payload.StreamOptions = &struct {
		IncludeUsage bool `json:"include_usage"`
	}{IncludeUsage: true}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.backend.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return Completion{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	s.backend.authorize(req)
	resp, err := s.backend.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Completion{}, ctx.Err()
		}
		return Completion{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Completion{}, &RemoteError{Op: "completion", Status: resp.StatusCode, Msg: strings.TrimSpace(string(msg))}
	}
	return readCompletionStream(ctx, resp.Body)
}

// readCompletionStream accumulates an SSE completion stream. Token usage is taken
// from the final usage chunk when the server sends one, otherwise each non-empty
// chunk counts as one token.
func readCompletionStream(ctx context.Context, body io.Reader) (Completion, error) {
	r := bufio.NewReader(body)
	var (
		sb     strings.Builder
		chunks int
		usage  = -1
	)
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(line), "data:") {
			data := strings.TrimSpace(line[len("data:"):])
			if data == "[DONE]" {
				break
			}
			var msg openAIStreamResponse
			if jerr := json.Unmarshal([]byte(data), &msg); jerr == nil {
				if msg.Usage != nil {
					usage = msg.Usage.CompletionTokens
				}
				if len(msg.Choices) > 0 {
					frag := msg.Choices[0].Text
					if frag == "" {
						frag = msg.Choices[0].Delta.Content
					}
					if frag != "" {
						sb.WriteString(frag)
						chunks++
					}
				}
			} else {
				zlog.Debug().Str("backend", BackendLlamaServer).Str("line", line).Msg("unknown stream line")
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return Completion{}, ctx.Err()
			}
			return Completion{}, err
		}
	}
	if usage < 0 {
		usage = chunks
	}
	return Completion{Text: sb.String(), OutputTokens: usage}, nil
}

func (s *llamaServerSession) Close() error {
	s.backend.httpClient.CloseIdleConnections()
	return nil
}
