package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"medgemma/internal/common/fsutil"
	"medgemma/internal/engine"
	"medgemma/internal/registry"
)

// Validate checks the combined configuration and returns every problem found.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Model.ID) == "" {
		errs = append(errs, errors.New("model id is empty"))
	}
	if c.Addr == "" && (c.Port < 1 || c.Port > 65535) {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	if _, err := engine.ParseDevicePlacement(c.Model.Device); err != nil {
		errs = append(errs, err)
	}
	for dev, size := range c.Model.MaxMemory {
		if _, err := fsutil.ParseSize(size); err != nil {
			errs = append(errs, fmt.Errorf("max memory %s: %w", dev, err))
		}
	}
	switch strings.ToLower(c.Backend) {
	case engine.BackendLlama, engine.BackendHFInference:
	case engine.BackendLlamaServer:
		if strings.TrimSpace(c.LlamaServer.URL) == "" {
			errs = append(errs, errors.New("backend llama-server requires llama_server.url"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if c.HTTP.MaxBodyBytes < 0 {
		errs = append(errs, errors.New("http.max_body_bytes must not be negative"))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio %v outside [0,1]", c.Tracing.SampleRatio))
	}
	return errors.Join(errs...)
}

// EngineConfig converts the model section into the adapter configuration.
func (c Config) EngineConfig() (engine.Config, error) {
	dev, err := engine.ParseDevicePlacement(c.Model.Device)
	if err != nil {
		return engine.Config{}, err
	}
	ec := engine.Config{
		ModelID:         strings.TrimSpace(c.Model.ID),
		UseQuantization: c.Model.UseQuantization,
		Device:          dev,
		MaxMemory:       c.Model.MaxMemory,
	}
	return ec, ec.Validate()
}

// BackendOptions builds the options for engine.OpenBackend. models are the local
// GGUF entries used by the llama backend to resolve the model id.
func (c Config) BackendOptions(models []registry.Entry) (engine.BackendOptions, error) {
	modelPath, err := fsutil.ExpandHome(c.Model.Path)
	if err != nil {
		return engine.BackendOptions{}, err
	}
	return engine.BackendOptions{
		HFToken:        c.HFToken,
		HubURL:         c.Hub.URL,
		InferenceURL:   c.Hub.InferenceURL,
		LlamaServerURL: c.LlamaServer.URL,
		LlamaServerKey: c.LlamaServer.APIKey,
		RequestTimeout: time.Duration(c.LlamaServer.TimeoutSeconds) * time.Second,
		ConnectTimeout: 5 * time.Second,
		Llama: engine.LlamaOptions{
			ModelPath:   modelPath,
			Models:      models,
			ContextSize: c.Llama.ContextSize,
			Threads:     c.Llama.Threads,
		},
	}, nil
}
