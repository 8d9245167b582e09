//go:build llama

package engine

import (
	"context"
	"errors"
	"strconv"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt indicates this binary was compiled with real llama support.
const llamaBuilt = true

type llamaBackend struct {
	opts LlamaOptions
}

// NewLlamaBackend returns the in-process llama.cpp backend.
func NewLlamaBackend(o LlamaOptions) Backend {
	if o.ContextSize <= 0 {
		o.ContextSize = maxInputTokens * 2
	}
	return &llamaBackend{opts: o}
}

func (b *llamaBackend) Name() string { return BackendLlama }

func (b *llamaBackend) Load(ctx context.Context, cfg Config) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := resolveModelPath(b.opts, cfg)
	if err != nil {
		return nil, err
	}
	m, err := llama.New(path, modelOptions(b.opts, cfg)...)
	if err != nil {
		return nil, err
	}
	return &llamaSession{model: m, threads: b.opts.Threads}, nil
}

func modelOptions(o LlamaOptions, cfg Config) []llama.ModelOption {
	mo := []llama.ModelOption{llama.SetContext(o.ContextSize)}
	switch cfg.Device.Kind {
	case DeviceGPU:
		mo = append(mo, llama.SetGPULayers(999), llama.SetMainGPU(strconv.Itoa(cfg.Device.GPU)))
	case DeviceAuto, "":
		mo = append(mo, llama.SetGPULayers(999))
	}
	if !cfg.UseQuantization {
		mo = append(mo, llama.EnableF16Memory)
	}
	return mo
}

// llamaSession owns the loaded model. The llama.cpp context is not reentrant,
// so calls are serialized.
type llamaSession struct {
	mu      sync.Mutex
	model   *llama.LLama
	threads int
}

func (s *llamaSession) Generate(ctx context.Context, prompt string, opts SamplingOptions) (Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return Completion{}, errors.New("llama model not initialized")
	}
	generated := 0
	s.model.SetTokenCallback(func(string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		generated++
		return true
	})
	text, err := s.model.Predict(prompt, predictOptions(opts, s.threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return Completion{}, ctx.Err()
		}
		return Completion{}, err
	}
	return Completion{Text: text, OutputTokens: generated}, nil
}

func (s *llamaSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model != nil {
		s.model.Free()
		s.model = nil
	}
	return nil
}

func predictOptions(o SamplingOptions, threads int) []llama.PredictOption {
	return []llama.PredictOption{
		llama.SetTokens(max(1, o.MaxTokens)),
		llama.SetThreads(max(1, threads)),
		llama.SetTopP(float32(o.TopP)),
		llama.SetTopK(o.TopK),
		llama.SetTemperature(float32(o.Temperature)),
		llama.SetPenalty(repetitionPenalty),
	}
}
