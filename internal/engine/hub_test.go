package engine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeHub struct {
	gated    any
	infer    func(w http.ResponseWriter, r *http.Request)
	lastBody TextGenerationRequest
	lastAuth string
}

func (h *fakeHub) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/whoami-v2", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer hf_test" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Invalid credentials in Authorization header"}`))
			return
		}
		w.Write([]byte(`{"name":"clinician","type":"user"}`))
	})
	mux.HandleFunc("/api/models/google/medgemma-4b-it", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "google/medgemma-4b-it", "gated": h.gated, "pipeline_tag": "image-text-to-text"})
	})
	mux.HandleFunc("/models/google/medgemma-4b-it", func(w http.ResponseWriter, r *http.Request) {
		h.lastAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&h.lastBody)
		h.infer(w, r)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func hubOpts(ts *httptest.Server) []HubOption {
	return []HubOption{WithHubURL(ts.URL), WithInferenceURL(ts.URL + "/models")}
}

func TestHubClient_Whoami(t *testing.T) {
	ts := (&fakeHub{}).server(t)
	who, err := NewHubClient("hf_test", hubOpts(ts)...).Whoami(testCtx(t))
	if err != nil || who.Name != "clinician" {
		t.Fatalf("whoami: %+v %v", who, err)
	}
	_, err = NewHubClient("bad", hubOpts(ts)...).Whoami(testCtx(t))
	if !IsUnauthorized(err) || !strings.Contains(err.Error(), "Invalid credentials") {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestModelInfo_IsGated(t *testing.T) {
	cases := []struct {
		gated any
		want  bool
	}{{false, false}, {true, true}, {"auto", true}, {"manual", true}, {nil, false}}
	for _, tc := range cases {
		if got := (ModelInfo{Gated: tc.gated}).IsGated(); got != tc.want {
			t.Fatalf("gated=%v: got %v", tc.gated, got)
		}
	}
}

func TestHFBackend_Generate(t *testing.T) {
	h := &fakeHub{gated: "manual", infer: func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"generated_text":" Consider sepsis. ","details":{"finish_reason":"eos_token","generated_tokens":5}}]`))
	}}
	ts := h.server(t)
	cfg := Config{ModelID: "google/medgemma-4b-it", UseQuantization: true}
	a, err := New(cfg, NewHFInferenceBackend("hf_test", hubOpts(ts)...))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if err := a.Load(testCtx(t)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	res := a.Generate(testCtx(t), "fever and hypotension", SamplingOptions{MaxTokens: 32, Temperature: 0.5, TopK: 20, TopP: 0.9})
	if !res.Success || res.Text != "Consider sepsis." || res.TokensGenerated != 5 {
		t.Fatalf("unexpected result: %+v", res)
	}
	p := h.lastBody.Parameters
	if h.lastBody.Inputs != "fever and hypotension" || p.MaxNewTokens != 32 || p.TopK != 20 {
		t.Fatalf("unexpected body: %+v", h.lastBody)
	}
	if p.ReturnFullText || !p.DoSample || p.Temperature == nil || *p.Temperature != 0.5 || p.RepetitionPenalty != repetitionPenalty {
		t.Fatalf("unexpected parameters: %+v", p)
	}
	if !h.lastBody.Options.WaitForModel || h.lastAuth != "Bearer hf_test" {
		t.Fatalf("options=%+v auth=%q", h.lastBody.Options, h.lastAuth)
	}
}

func TestHFBackend_GreedyOmitsTemperature(t *testing.T) {
	req := textGenerationRequest("p", SamplingOptions{MaxTokens: 8, Temperature: 0})
	if req.Parameters.DoSample || req.Parameters.Temperature != nil {
		t.Fatalf("greedy decoding must not sample: %+v", req.Parameters)
	}
}

func TestHFBackend_GatedWithoutToken(t *testing.T) {
	ts := (&fakeHub{gated: "manual"}).server(t)
	_, err := NewHFInferenceBackend("", hubOpts(ts)...).Load(testCtx(t), Config{ModelID: "google/medgemma-4b-it"})
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestHFBackend_UnknownModel(t *testing.T) {
	ts := (&fakeHub{}).server(t)
	_, err := NewHFInferenceBackend("hf_test", hubOpts(ts)...).Load(testCtx(t), Config{ModelID: "google/nope"})
	if !IsModelNotFound(err) {
		t.Fatalf("expected model not found, got %v", err)
	}
}

func TestHFBackend_ModelLoading(t *testing.T) {
	h := &fakeHub{gated: false, infer: func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"Model google/medgemma-4b-it is currently loading","estimated_time":20.0}`))
	}}
	ts := h.server(t)
	sess, err := NewHFInferenceBackend("hf_test", hubOpts(ts)...).Load(testCtx(t), Config{ModelID: "google/medgemma-4b-it"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, err = sess.Generate(testCtx(t), "p", DefaultSamplingOptions())
	if !IsModelLoading(err) || !strings.Contains(err.Error(), "currently loading") {
		t.Fatalf("expected loading error, got %v", err)
	}
}
