package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medgemma/internal/analysis"
	"medgemma/internal/engine"
	"medgemma/internal/httpapi"
	"medgemma/internal/registry"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := buildRootCmd(&out)
	root.SetArgs(append([]string{"--env-file="}, args...))
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

type echoGenerator struct{}

func (echoGenerator) Ready() bool     { return true }
func (echoGenerator) ModelID() string { return "RSM-VLM/med-gemma" }
func (echoGenerator) Generate(ctx context.Context, prompt string, opts engine.SamplingOptions) engine.GenerationResult {
	return engine.GenerationResult{Success: true, Text: fmt.Sprintf("max=%d", opts.MaxTokens), ModelID: "RSM-VLM/med-gemma", TokensGenerated: 2, Elapsed: 1500 * time.Millisecond}
}

func TestAnalyzeAndHealth(t *testing.T) {
	ts := httptest.NewServer(httpapi.NewMux(analysis.NewService(echoGenerator{}, registry.Builtin())))
	t.Cleanup(ts.Close)

	out, err := run(t, "analyze", "--url", ts.URL, "--max-tokens", "64", "chest pain")
	require.NoError(t, err)
	assert.Contains(t, out, "max=64")
	assert.Contains(t, out, "model RSM-VLM/med-gemma, 2 tokens, 1.50s")

	out, err = run(t, "health", "--url", ts.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "status=healthy model_loaded=true model=RSM-VLM/med-gemma")
}

func TestAnalyze_RequiresInput(t *testing.T) {
	_, err := run(t, "analyze")
	require.Error(t, err)
}

func TestProbeHub_UsesConfiguredHub(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/whoami-v2", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer hf_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"name":"clinician"}`))
	})
	mux.HandleFunc("/api/models/google/medgemma-4b-it", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"google/medgemma-4b-it","gated":"manual"}`))
	})
	mux.HandleFunc("/models/google/medgemma-4b-it", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Access to model google/medgemma-4b-it is restricted"}`))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	cfgPath := filepath.Join(t.TempDir(), "medgemma.yaml")
	body := fmt.Sprintf("hub:\n  url: %s\n  inference_url: %s/models\n", ts.URL, ts.URL)
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	t.Setenv("HUGGING_FACE_TOKEN", "hf_test")

	out, err := run(t, "--config", cfgPath, "probe", "hub", "--model", "google/medgemma-4b-it")
	require.NoError(t, err)
	assert.Contains(t, out, "Authenticated as: clinician")
	assert.Contains(t, out, "license_required")
	assert.Contains(t, out, "https://huggingface.co/google/medgemma-4b-it")

	t.Setenv("HUGGING_FACE_TOKEN", "wrong")
	out, err = run(t, "--config", cfgPath, "probe", "hub")
	require.Error(t, err)
	assert.Contains(t, out, "Hub authentication failed")
}

func TestProbeHub_RequiresToken(t *testing.T) {
	for _, k := range []string{"HUGGING_FACE_TOKEN", "HF_TOKEN", "HUGGING_FACE_API_KEY"} {
		t.Setenv(k, "")
	}
	_, err := run(t, "probe", "hub")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no hub token")
}

func TestProbeLocal_HFBackend(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/models/google/medgemma-4b-it", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"google/medgemma-4b-it","gated":false}`))
	})
	mux.HandleFunc("/models/google/medgemma-4b-it", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"generated_text":"Fever, cough and dyspnea.","details":{"generated_tokens":6}}]`))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	cfgPath := filepath.Join(t.TempDir(), "medgemma.yaml")
	body := fmt.Sprintf("backend: hf-inference\nmodels_dir: %s\nmodel:\n  id: google/medgemma-4b-it\nhub:\n  url: %s\n  inference_url: %s/models\n",
		t.TempDir(), ts.URL, ts.URL)
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))

	out, err := run(t, "--config", cfgPath, "probe", "local", "--question", "What are the common symptoms of pneumonia?")
	require.NoError(t, err)
	assert.Contains(t, out, "Response: Fever, cough and dyspnea.")
	assert.Contains(t, out, "1/1 answered")
}
