package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"medgemma/internal/analysis"
	"medgemma/internal/config"
	"medgemma/internal/engine"
	"medgemma/internal/httpapi"
	"medgemma/internal/registry"
	"medgemma/internal/telemetry"
)

// newLogger builds the process logger. Debug mode switches to the console writer.
func newLogger(cfg config.Config, out io.Writer) zerolog.Logger {
	if cfg.Debug {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "medgemmad").Logger()
}

// buildCatalog merges the built-in models, an optional catalog file and local GGUF
// files. A missing models directory is not an error.
func buildCatalog(cfg config.Config, log zerolog.Logger) ([]registry.Entry, error) {
	lists := [][]registry.Entry{registry.Builtin()}
	if cfg.Catalog != "" {
		extra, err := registry.LoadCatalog(cfg.Catalog)
		if err != nil {
			return nil, err
		}
		lists = append(lists, extra)
	}
	if cfg.ModelsDir != "" {
		local, err := registry.ScanGGUF(cfg.ModelsDir)
		if err != nil {
			log.Debug().Err(err).Str("dir", cfg.ModelsDir).Msg("models dir not scanned")
		} else {
			lists = append(lists, local)
		}
	}
	return registry.Merge(lists...), nil
}

// app is a fully wired service ready to be served.
type app struct {
	adapter *engine.Adapter
	handler http.Handler
}

// newApp wires the registry, the model adapter and the HTTP façade. The model load
// runs before returning; a failed load leaves the service up and unready.
func newApp(ctx context.Context, cfg config.Config, log zerolog.Logger) (*app, error) {
	catalog, err := buildCatalog(cfg, log)
	if err != nil {
		return nil, err
	}
	ecfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}
	bopts, err := cfg.BackendOptions(catalog)
	if err != nil {
		return nil, err
	}
	backend, err := engine.OpenBackend(cfg.Backend, bopts)
	if err != nil {
		return nil, err
	}
	adapter, err := engine.New(ecfg, backend, engine.WithPublisher(engine.LogPublisher{}))
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("model_id", ecfg.ModelID).
		Str("backend", backend.Name()).
		Str("device", ecfg.Device.String()).
		Bool("use_quantization", ecfg.UseQuantization).
		Msg("loading model")
	if err := adapter.Load(ctx); err != nil {
		log.Error().Err(err).Str("model_id", ecfg.ModelID).Msg("model load failed, serving unready")
	}

	httpapi.SetMaxBodyBytes(cfg.HTTP.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.HTTP.CORSEnabled, cfg.HTTP.CORSOrigins, nil, nil)
	svc := analysis.NewService(adapter, catalog)
	return &app{
		adapter: adapter,
		handler: telemetry.Middleware(httpapi.NewMux(svc)),
	}, nil
}

// serveHTTP runs the service until SIGINT or SIGTERM, then shuts down gracefully.
func serveHTTP(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := newLogger(cfg, os.Stderr)
	httpapi.SetLogger(log)
	httpapi.SetRequestLogLevel(cfg.LogLevel)
	engine.SetLogger(log)

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRatio:    cfg.Tracing.SampleRatio,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		_ = shutdownTracing(context.Background())
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Bool("model_loaded", a.adapter.Ready()).Msg("medgemmad listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case serveErr = <-errc:
		log.Error().Err(serveErr).Msg("server error")
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	if err := a.adapter.Close(); err != nil {
		log.Warn().Err(err).Msg("model close error")
	}
	if err := shutdownTracing(sctx); err != nil {
		log.Warn().Err(err).Msg("tracer shutdown error")
	}
	return serveErr
}
