//go:build !llama

package engine

// No-CGO stub for the llama backend, compiled when the 'llama' build tag is not set.
// Load always fails so the service reports itself unready instead of faking output.

import "context"

const llamaBuilt = false

type llamaBackend struct {
	opts LlamaOptions
}

// NewLlamaBackend returns the in-process llama.cpp backend.
func NewLlamaBackend(o LlamaOptions) Backend { return &llamaBackend{opts: o} }

func (b *llamaBackend) Name() string { return BackendLlama }

func (b *llamaBackend) Load(ctx context.Context, cfg Config) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
