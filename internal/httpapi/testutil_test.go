package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"medgemma/internal/analysis"
	"medgemma/internal/engine"
	"medgemma/internal/registry"
	"medgemma/pkg/types"
)

// spyGenerator stands in for the model adapter and counts calls.
type spyGenerator struct {
	mu      sync.Mutex
	ready   bool
	modelID string
	result  engine.GenerationResult
	panics  bool
	calls   int
	prompts []string
}

func (g *spyGenerator) Ready() bool     { return g.ready }
func (g *spyGenerator) ModelID() string { return g.modelID }

func (g *spyGenerator) Generate(ctx context.Context, prompt string, opts engine.SamplingOptions) engine.GenerationResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if g.panics {
		panic("façade bug")
	}
	return g.result
}

func (g *spyGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func newTestMux(g *spyGenerator) http.Handler {
	return NewMux(analysis.NewService(g, registry.Builtin()))
}

func postAnalyze(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// errService returns a fixed error from Analyze.
type errService struct{ err error }

func (s errService) Health(ctx context.Context) types.HealthResponse     { return types.HealthResponse{} }
func (s errService) ListModels(ctx context.Context) types.ModelsResponse { return types.ModelsResponse{} }
func (s errService) Ready() bool                                         { return true }

func (s errService) Analyze(ctx context.Context, req analysis.TaskRequest) (types.AnalyzeResponse, error) {
	return types.AnalyzeResponse{}, s.err
}

type statusErr struct {
	msg  string
	code int
}

func (e statusErr) Error() string   { return e.msg }
func (e statusErr) StatusCode() int { return e.code }
