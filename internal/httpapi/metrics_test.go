package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMetricsEndpoint_ExposesRouteLabels(t *testing.T) {
	h := newTestMux(&spyGenerator{ready: false, modelID: "m"})
	postAnalyze(t, h, `{"input":"q"}`)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/no/such/route/123", nil))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`medgemma_http_requests_total{method="POST",path="/analyze",status="503"}`,
		`medgemma_http_requests_total{method="GET",path="unmatched",status="404"}`,
		`medgemma_http_analyze_outcomes_total{outcome="unavailable"}`,
		"medgemma_http_inflight_requests",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %s", want)
		}
	}
	if strings.Contains(body, "/no/such/route/123") {
		t.Fatalf("raw paths must not become labels")
	}
}

func TestRoutePatternOrPath(t *testing.T) {
	r := chi.NewRouter()
	var got string
	r.Get("/models/{id}", func(w http.ResponseWriter, req *http.Request) {
		got = routePatternOrPath(req)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/models/abc", nil))
	if got != "/models/{id}" {
		t.Fatalf("pattern=%q", got)
	}
	if p := routePatternOrPath(httptest.NewRequest(http.MethodGet, "/x", nil)); p != "unmatched" {
		t.Fatalf("fallback=%q", p)
	}
}

func TestStatusRecorder_FirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}
	sr.WriteHeader(http.StatusTeapot)
	sr.WriteHeader(http.StatusInternalServerError)
	if sr.status != http.StatusTeapot {
		t.Fatalf("status=%d", sr.status)
	}
}
