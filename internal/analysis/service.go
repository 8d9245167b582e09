package analysis

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"medgemma/internal/engine"
	"medgemma/internal/registry"
	"medgemma/pkg/types"
)

// ErrModelUnavailable is returned by Analyze when the model is not loaded.
var ErrModelUnavailable = errors.New("MedGemma model not available")

// Generator is the subset of the model adapter the façade needs.
type Generator interface {
	Ready() bool
	ModelID() string
	Generate(ctx context.Context, prompt string, opts engine.SamplingOptions) engine.GenerationResult
}

// Service implements the /health, /analyze and /models operations.
type Service struct {
	gen     Generator
	catalog []registry.Entry
	tracer  trace.Tracer
}

// NewService wires the façade to a generator and the model catalog shown by /models.
func NewService(gen Generator, catalog []registry.Entry) *Service {
	return &Service{
		gen:     gen,
		catalog: catalog,
		tracer:  otel.Tracer("medgemma/analysis"),
	}
}

// Ready reports whether the underlying model can serve requests.
func (s *Service) Ready() bool { return s.gen.Ready() }

// Analyze builds the prompt for req and runs one generation. Generation failures
// come back as an envelope with Success=false, not as an error.
func (s *Service) Analyze(ctx context.Context, req TaskRequest) (types.AnalyzeResponse, error) {
	if !s.gen.Ready() {
		return types.AnalyzeResponse{}, ErrModelUnavailable
	}
	ctx, span := s.tracer.Start(ctx, "analysis.analyze", trace.WithAttributes(
		attribute.String("analysis.type", string(req.Type)),
		attribute.Bool("analysis.has_context", req.Context != ""),
		attribute.Int("analysis.input_len", len(req.Input)),
	))
	defer span.End()
	res := s.gen.Generate(ctx, BuildPrompt(req), req.Sampling)
	span.SetAttributes(attribute.Bool("analysis.success", res.Success))
	return MapResult(res), nil
}

// Health reports readiness and the loaded model.
func (s *Service) Health(ctx context.Context) types.HealthResponse {
	if !s.gen.Ready() {
		return types.HealthResponse{Status: "unhealthy"}
	}
	id := s.gen.ModelID()
	return types.HealthResponse{Status: "healthy", ModelLoaded: true, ModelID: &id}
}

// ListModels returns the catalog with the loaded model marked. A loaded model
// missing from the catalog is appended so current_model always appears in the list.
func (s *Service) ListModels(ctx context.Context) types.ModelsResponse {
	loaded := ""
	if s.gen.Ready() {
		loaded = s.gen.ModelID()
	}
	models := registry.ToModels(s.catalog, loaded)
	out := types.ModelsResponse{Models: models}
	if loaded == "" {
		return out
	}
	out.CurrentModel = &loaded
	for _, m := range models {
		if m.Loaded {
			return out
		}
	}
	out.Models = append(out.Models, types.Model{ID: loaded, Name: loaded, Loaded: true})
	return out
}
