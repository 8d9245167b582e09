package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medgemma/internal/analysis"
	"medgemma/internal/engine"
	"medgemma/internal/httpapi"
	"medgemma/internal/registry"
	"medgemma/pkg/types"
)

type stubGenerator struct{ ready bool }

func (g stubGenerator) Ready() bool     { return g.ready }
func (g stubGenerator) ModelID() string { return "RSM-VLM/med-gemma" }

func (g stubGenerator) Generate(ctx context.Context, prompt string, opts engine.SamplingOptions) engine.GenerationResult {
	return engine.GenerationResult{Success: true, Text: "Consider pneumonia.", ModelID: g.ModelID(), TokensGenerated: 4, Elapsed: time.Second}
}

func newService(t *testing.T, ready bool) *Client {
	t.Helper()
	svc := analysis.NewService(stubGenerator{ready: ready}, registry.Builtin())
	ts := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(ts.Close)
	return NewClient(ts.URL+"/", 5*time.Second)
}

func TestClient_RoundTrip(t *testing.T) {
	c := newService(t, true)
	ctx := context.Background()

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)

	m, err := c.Models(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, m.Models)

	in := "What are the symptoms of pneumonia?"
	resp, err := c.Analyze(ctx, types.AnalyzeRequest{Input: &in, Type: "clinical_qa"})
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.Equal(t, "Consider pneumonia.", *resp.Result)
	assert.Equal(t, 4, *resp.TokensGenerated)
}

func TestClient_ErrorStatus(t *testing.T) {
	c := newService(t, false)
	in := "chest pain"
	_, err := c.Analyze(context.Background(), types.AnalyzeRequest{Input: &in})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode())
	assert.Equal(t, "MedGemma model not available", apiErr.Msg)

	_, err = newService(t, true).Analyze(context.Background(), types.AnalyzeRequest{})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Missing required field: input", apiErr.Msg)
}
