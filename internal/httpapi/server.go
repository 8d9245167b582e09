package httpapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"medgemma/internal/analysis"
	"medgemma/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Health(ctx context.Context) types.HealthResponse
	ListModels(ctx context.Context) types.ModelsResponse
	Analyze(ctx context.Context, req analysis.TaskRequest) (types.AnalyzeResponse, error)
	Ready() bool
}

type handlers struct {
	svc Service
}

// NewMux builds the HTTP router for svc.
func NewMux(svc Service) http.Handler {
	h := &handlers{svc: svc}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(MetricsMiddleware)
	r.Use(Recoverer)
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", h.health)
	r.Post("/analyze", h.analyze)
	r.Get("/models", h.models)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("unready"))
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	MountSwagger(r)
	return r
}

// health godoc
// @Summary      Service health
// @Description  Reports whether the model finished loading. Always returns 200.
// @Tags         service
// @Produce      json
// @Success      200  {object}  types.HealthResponse
// @Router       /health [get]
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Health(r.Context()))
}

// models godoc
// @Summary      List models
// @Description  Returns the model catalog with the loaded model marked.
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Router       /models [get]
func (h *handlers) models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListModels(r.Context()))
}

// analyze godoc
// @Summary      Analyze medical text
// @Description  Builds a task prompt from the request and runs one generation. A generation
// @Description  failure inside the model returns 200 with success=false.
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        request  body      types.AnalyzeRequest  true  "Analysis request"
// @Param        log      query     string                false "Per-request log level (off|error|info|debug)"
// @Success      200      {object}  types.AnalyzeResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      413      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      500      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse
// @Router       /analyze [post]
func (h *handlers) analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lvl := requestLogLevel(r)

	if !h.svc.Ready() {
		analyzeOutcomes.WithLabelValues(outcomeUnavailable).Inc()
		writeJSONError(w, http.StatusServiceUnavailable, analysis.ErrModelUnavailable.Error())
		logAnalyzeEnd(r, lvl, http.StatusServiceUnavailable, start, analysis.ErrModelUnavailable)
		return
	}
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		analyzeOutcomes.WithLabelValues(outcomeInvalid).Inc()
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		analyzeOutcomes.WithLabelValues(outcomeInvalid).Inc()
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	req, err := analysis.ParseRequest(bytes.NewReader(body))
	if err != nil {
		analyzeOutcomes.WithLabelValues(outcomeInvalid).Inc()
		status, msg := statusFor(err)
		writeJSONError(w, status, msg)
		logAnalyzeEnd(r, lvl, status, start, err)
		return
	}
	if lvl >= LevelInfo {
		ev := zlog.Info().Str("type", string(req.Type)).Int("input_len", len(req.Input)).Int("max_tokens", req.Sampling.MaxTokens)
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			ev = ev.Str("request_id", rid)
		}
		if lvl >= LevelDebug {
			ev = ev.Str("input", req.Input)
		}
		ev.Msg("analyze start")
	}

	resp, err := h.svc.Analyze(r.Context(), req)
	if err != nil {
		status, msg := statusFor(err)
		outcome := outcomeError
		if status == http.StatusServiceUnavailable {
			outcome = outcomeUnavailable
		}
		analyzeOutcomes.WithLabelValues(outcome).Inc()
		writeJSONError(w, status, msg)
		logAnalyzeEnd(r, lvl, status, start, err)
		return
	}
	if resp.Success {
		analyzeOutcomes.WithLabelValues(outcomeOK).Inc()
	} else {
		analyzeOutcomes.WithLabelValues(outcomeFailed).Inc()
	}
	writeJSON(w, http.StatusOK, resp)
	var genErr error
	if !resp.Success {
		genErr = errors.New(resp.Error)
	}
	logAnalyzeEnd(r, lvl, http.StatusOK, start, genErr)
}
