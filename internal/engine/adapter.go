package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// Adapter owns the configured model and its backend session. It is safe for
// concurrent use; concurrent Load calls share a single backend load.
type Adapter struct {
	cfg     Config
	backend Backend
	pub     EventPublisher
	tracer  trace.Tracer
	now     func() time.Time

	sf singleflight.Group

	mu       sync.RWMutex
	session  Session
	state    State
	lastErr  error
	loadedAt time.Time
	loadDur  time.Duration
	closed   bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithPublisher routes lifecycle events to p.
func WithPublisher(p EventPublisher) Option {
	return func(a *Adapter) {
		if p != nil {
			a.pub = p
		}
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(a *Adapter) {
		if t != nil {
			a.tracer = t
		}
	}
}

// New returns an unloaded adapter. Call Load before Generate.
func New(cfg Config, b Backend, opts ...Option) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b == nil {
		return nil, errors.New("engine: backend is nil")
	}
	a := &Adapter{
		cfg:     cfg.clone(),
		backend: b,
		pub:     noopPublisher{},
		tracer:  otel.Tracer("medgemma/engine"),
		now:     time.Now,
		state:   StateStarting,
	}
	for _, o := range opts {
		o(a)
	}
	return a, nil
}

// Config returns a copy of the model configuration.
func (a *Adapter) Config() Config { return a.cfg.clone() }

// ModelID returns the configured model identifier.
func (a *Adapter) ModelID() string { return a.cfg.ModelID }

// BackendName returns the name of the backend in use.
func (a *Adapter) BackendName() string { return a.backend.Name() }

// Ready reports whether a model is loaded and Generate can produce output.
func (a *Adapter) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state == StateReady && a.session != nil
}

// State returns the current readiness state.
func (a *Adapter) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Status returns a snapshot of the adapter.
func (a *Adapter) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	st := Status{
		State:        a.state,
		ModelID:      a.cfg.ModelID,
		Backend:      a.backend.Name(),
		LoadedAt:     a.loadedAt,
		LoadDuration: a.loadDur,
	}
	if a.lastErr != nil {
		st.LastError = a.lastErr.Error()
	}
	return st
}

// Load acquires the model through the backend. It is idempotent once ready;
// a failed load leaves the adapter unready and may be retried.
func (a *Adapter) Load(ctx context.Context) error {
	if a.Ready() {
		return nil
	}
	_, err, _ := a.sf.Do("load", func() (any, error) {
		return nil, a.load(ctx)
	})
	return err
}

func (a *Adapter) load(ctx context.Context) error {
	a.mu.RLock()
	ready, closed := a.state == StateReady, a.closed
	a.mu.RUnlock()
	if ready {
		return nil
	}
	if closed {
		return &LoadError{ModelID: a.cfg.ModelID, Backend: a.backend.Name(), Err: errors.New("adapter closed")}
	}

	ctx, span := a.tracer.Start(ctx, "engine.load", trace.WithAttributes(
		attribute.String("model.id", a.cfg.ModelID),
		attribute.String("engine.backend", a.backend.Name()),
		attribute.Bool("model.quantized", a.cfg.UseQuantization),
		attribute.String("model.device", a.cfg.Device.String()),
	))
	defer span.End()

	a.pub.Publish(Event{Name: EventLoadStart, ModelID: a.cfg.ModelID, Fields: map[string]any{"backend": a.backend.Name()}})
	zlog.Info().Str("model_id", a.cfg.ModelID).Str("backend", a.backend.Name()).
		Bool("quantized", a.cfg.UseQuantization).Str("device", a.cfg.Device.String()).Msg("loading model")

	start := a.now()
	sess, err := a.openSession(ctx)
	dur := a.now().Sub(start)
	if err != nil {
		le := &LoadError{ModelID: a.cfg.ModelID, Backend: a.backend.Name(), Err: err}
		a.mu.Lock()
		a.state = StateUnready
		a.lastErr = le
		a.mu.Unlock()
		modelReady.Set(0)
		loadDuration.WithLabelValues(a.backend.Name(), "error").Observe(dur.Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		a.pub.Publish(Event{Name: EventLoadFailed, ModelID: a.cfg.ModelID, Fields: map[string]any{"error": err.Error()}})
		zlog.Error().Err(err).Str("model_id", a.cfg.ModelID).Msg("model load failed")
		return le
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		_ = sess.Close()
		return &LoadError{ModelID: a.cfg.ModelID, Backend: a.backend.Name(), Err: errors.New("adapter closed")}
	}
	a.session = sess
	a.state = StateReady
	a.lastErr = nil
	a.loadedAt = start
	a.loadDur = dur
	a.mu.Unlock()

	modelReady.Set(1)
	loadDuration.WithLabelValues(a.backend.Name(), "ok").Observe(dur.Seconds())
	a.pub.Publish(Event{Name: EventLoadOK, ModelID: a.cfg.ModelID, Fields: map[string]any{"duration_ms": dur.Milliseconds()}})
	zlog.Info().Str("model_id", a.cfg.ModelID).Dur("duration", dur).Msg("model ready")
	return nil
}

func (a *Adapter) openSession(ctx context.Context) (sess Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			sess, err = nil, fmt.Errorf("backend load panic: %v", r)
		}
	}()
	sess, err = a.backend.Load(ctx, a.cfg)
	if err == nil && sess == nil {
		err = errors.New("backend returned no session")
	}
	return sess, err
}

// Generate runs one completion. It never returns an error: failures, including
// backend panics, are reported through GenerationResult.Success and Err.
func (a *Adapter) Generate(ctx context.Context, prompt string, opts SamplingOptions) GenerationResult {
	start := a.now()
	res := GenerationResult{ModelID: a.cfg.ModelID}

	a.mu.RLock()
	sess := a.session
	a.mu.RUnlock()
	if sess == nil {
		res.Err = errNotLoaded.Error()
		res.Elapsed = a.now().Sub(start)
		return res
	}

	genID := uuid.NewString()
	opts = opts.withDefaults()
	ctx, span := a.tracer.Start(ctx, "engine.generate", trace.WithAttributes(
		attribute.String("generation.id", genID),
		attribute.String("model.id", a.cfg.ModelID),
		attribute.String("engine.backend", a.backend.Name()),
		attribute.Int("generation.max_tokens", opts.MaxTokens),
		attribute.Float64("generation.temperature", opts.Temperature),
	))
	defer span.End()

	comp, err := invoke(ctx, sess, prompt, opts)
	res.Elapsed = a.now().Sub(start)
	if err != nil {
		res.Err = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		observeGeneration(a.backend.Name(), "error", res.Elapsed.Seconds(), 0)
		a.pub.Publish(Event{Name: EventGenerateFailed, ModelID: a.cfg.ModelID, Fields: map[string]any{"id": genID, "error": res.Err}})
		zlog.Warn().Err(err).Str("generation_id", genID).Dur("elapsed", res.Elapsed).Msg("generation failed")
		return res
	}

	res.Success = true
	res.Text = stripPrompt(comp.Text, prompt)
	res.TokensGenerated = comp.Generated()
	span.SetAttributes(attribute.Int("generation.tokens", res.TokensGenerated))
	observeGeneration(a.backend.Name(), "ok", res.Elapsed.Seconds(), res.TokensGenerated)
	a.pub.Publish(Event{Name: EventGenerateOK, ModelID: a.cfg.ModelID, Fields: map[string]any{
		"id": genID, "tokens": res.TokensGenerated, "elapsed_ms": res.Elapsed.Milliseconds(),
	}})
	zlog.Debug().Str("generation_id", genID).Int("tokens", res.TokensGenerated).Dur("elapsed", res.Elapsed).Msg("generation done")
	return res
}

func invoke(ctx context.Context, sess Session, prompt string, opts SamplingOptions) (c Completion, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = Completion{}, fmt.Errorf("generation panic: %v", r)
		}
	}()
	return sess.Generate(ctx, prompt, opts)
}

// Gemma control tokens dropped when decoding with special tokens skipped.
var specialTokens = strings.NewReplacer(
	"<bos>", "",
	"<eos>", "",
	"<start_of_turn>", "",
	"<end_of_turn>", "",
)

// stripPrompt removes an echoed prompt from the decoded output. Backends may echo
// the prompt verbatim or with its control tokens removed.
func stripPrompt(text, prompt string) string {
	if prompt != "" {
		if strings.HasPrefix(text, prompt) {
			text = text[len(prompt):]
		} else if plain := specialTokens.Replace(prompt); plain != "" && strings.HasPrefix(text, plain) {
			text = text[len(plain):]
		}
	}
	return strings.TrimSpace(text)
}

// Close releases the backend session. The adapter cannot be reloaded afterwards.
func (a *Adapter) Close() error {
	a.mu.Lock()
	sess := a.session
	a.session = nil
	a.closed = true
	a.state = StateUnready
	a.mu.Unlock()
	modelReady.Set(0)
	if sess == nil {
		return nil
	}
	return sess.Close()
}
