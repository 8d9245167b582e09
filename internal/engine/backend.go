package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medgemma/internal/registry"
)

// Backend abstracts the inference runtime that actually owns the model weights.
// Concrete implementations (llama.cpp, llama-server, Hugging Face) satisfy this interface.
type Backend interface {
	// Name identifies the backend in logs, metrics and status.
	Name() string
	// Load acquires the model and tokenizer described by cfg.
	Load(ctx context.Context, cfg Config) (Session, error)
}

// Session is a loaded model ready to generate.
type Session interface {
	// Generate runs one completion for prompt. Implementations must be safe for the
	// concurrency they advertise; the adapter adds no locking of its own.
	Generate(ctx context.Context, prompt string, opts SamplingOptions) (Completion, error)
	// Close releases any resources associated with the session.
	Close() error
}

// Completion is the raw backend output.
type Completion struct {
	// Text is the decoded output. It may start with the prompt for backends that
	// echo their input; the adapter strips it.
	Text string
	// InputTokens and OutputTokens are sequence lengths. Backends that return only
	// the continuation report InputTokens as zero and OutputTokens as the generated count.
	InputTokens  int
	OutputTokens int
}

// Generated returns the number of new tokens, never negative.
func (c Completion) Generated() int {
	if n := c.OutputTokens - c.InputTokens; n > 0 {
		return n
	}
	return 0
}

// Backend names accepted by OpenBackend.
const (
	BackendLlama       = "llama"
	BackendLlamaServer = "llama-server"
	BackendHFInference = "hf-inference"
)

// LlamaOptions configures the in-process llama.cpp backend.
type LlamaOptions struct {
	// ModelPath overrides catalog resolution when set.
	ModelPath string
	// Models are the local GGUF entries used to resolve Config.ModelID.
	Models      []registry.Entry
	ContextSize int
	Threads     int
}

// BackendOptions carries everything OpenBackend may need.
type BackendOptions struct {
	HFToken        string
	HubURL         string
	InferenceURL   string
	LlamaServerURL string
	LlamaServerKey string
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	Llama          LlamaOptions
}

// OpenBackend builds the backend registered under name.
func OpenBackend(name string, o BackendOptions) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case BackendLlama, "":
		return NewLlamaBackend(o.Llama), nil
	case BackendLlamaServer:
		if strings.TrimSpace(o.LlamaServerURL) == "" {
			return nil, fmt.Errorf("backend %s requires a server url", BackendLlamaServer)
		}
		return NewLlamaServerBackend(o.LlamaServerURL, o.LlamaServerKey, o.RequestTimeout, o.ConnectTimeout), nil
	case BackendHFInference, "hf", "huggingface":
		return NewHFInferenceBackend(o.HFToken,
			WithHubURL(o.HubURL),
			WithInferenceURL(o.InferenceURL),
			WithRequestTimeout(o.RequestTimeout),
		), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

// resolveModelPath picks the GGUF file for cfg, honoring an explicit path first.
func resolveModelPath(o LlamaOptions, cfg Config) (string, error) {
	if p := strings.TrimSpace(o.ModelPath); p != "" {
		return p, nil
	}
	e, ok := registry.Resolve(o.Models, cfg.ModelID, cfg.UseQuantization)
	if !ok {
		return "", ErrModelNotFound(cfg.ModelID)
	}
	return e.Path, nil
}

// LlamaBuilt reports whether this binary was compiled with the llama build tag.
func LlamaBuilt() bool { return llamaBuilt }
