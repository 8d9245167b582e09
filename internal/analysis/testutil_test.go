package analysis

import (
	"context"
	"sync"

	"medgemma/internal/engine"
)

// spyGenerator records every call made by the façade.
type spyGenerator struct {
	mu      sync.Mutex
	ready   bool
	modelID string
	result  engine.GenerationResult
	calls   int
	prompts []string
	opts    []engine.SamplingOptions
}

func (g *spyGenerator) Ready() bool     { return g.ready }
func (g *spyGenerator) ModelID() string { return g.modelID }

func (g *spyGenerator) Generate(ctx context.Context, prompt string, opts engine.SamplingOptions) engine.GenerationResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	g.opts = append(g.opts, opts)
	return g.result
}

func (g *spyGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
