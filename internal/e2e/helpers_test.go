// Package e2e drives the full HTTP stack (router, façade, adapter, backend)
// against fake inference servers.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"medgemma/internal/analysis"
	"medgemma/internal/engine"
	"medgemma/internal/httpapi"
	"medgemma/internal/registry"
	"medgemma/internal/telemetry"
)

// completionCall is what the fake llama server saw on /v1/completions.
type completionCall struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"top_k"`
	TopP        float64 `json:"top_p"`
	Stream      bool    `json:"stream"`
}

// fakeLlamaServer is an OpenAI-compatible llama.cpp server that streams chunks.
type fakeLlamaServer struct {
	mu     sync.Mutex
	chunks []string
	usage  int
	status int
	calls  []completionCall
}

func (f *fakeLlamaServer) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"id":"medgemma-4b-it-Q4_K_M.gguf"}]}`))
	})
	mux.HandleFunc("/v1/completions", func(w http.ResponseWriter, r *http.Request) {
		var c completionCall
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			t.Errorf("decode completion: %v", err)
		}
		f.mu.Lock()
		f.calls = append(f.calls, c)
		chunks, usage, status := f.chunks, f.usage, f.status
		f.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"context size exceeded"}}`))
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, ch := range chunks {
			b, _ := json.Marshal(map[string]any{"choices": []map[string]any{{"text": ch}}})
			w.Write([]byte("data: " + string(b) + "\n\n"))
			if fl, ok := w.(http.Flusher); ok {
				fl.Flush()
			}
		}
		if usage > 0 {
			b, _ := json.Marshal(map[string]any{"choices": []any{}, "usage": map[string]int{"completion_tokens": usage}})
			w.Write([]byte("data: " + string(b) + "\n\n"))
		}
		w.Write([]byte("data: [DONE]\n\n"))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func (f *fakeLlamaServer) lastCall(t *testing.T) completionCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatalf("llama server received no completion call")
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeLlamaServer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// newServer wires the service the way medgemmad does and loads the model.
// A load failure is returned, not fatal, so tests can cover the unready path.
func newServer(t *testing.T, modelID string, backend engine.Backend) (*httptest.Server, *engine.Adapter, error) {
	t.Helper()
	adapter, err := engine.New(engine.Config{ModelID: modelID, UseQuantization: true}, backend)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(func() { _ = adapter.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	loadErr := adapter.Load(ctx)

	svc := analysis.NewService(adapter, registry.Builtin())
	srv := httptest.NewServer(telemetry.Middleware(httpapi.NewMux(svc)))
	t.Cleanup(srv.Close)
	return srv, adapter, loadErr
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader([]byte(payload)))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}
