package config

import (
	"strconv"
	"time"
)

// Config holds runtime parameters for the service. Fields are layered:
// Default(), then a config file, then environment, then command-line flags.
type Config struct {
	// Addr, when set, overrides Port as the full listen address.
	Addr     string `json:"addr" yaml:"addr" toml:"addr"`
	Port     int    `json:"port" yaml:"port" toml:"port"`
	Debug    bool   `json:"debug" yaml:"debug" toml:"debug"`
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`

	Backend   string      `json:"backend" yaml:"backend" toml:"backend"`
	Model     ModelConfig `json:"model" yaml:"model" toml:"model"`
	HFToken   string      `json:"hf_token" yaml:"hf_token" toml:"hf_token"`
	ModelsDir string      `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	Catalog   string      `json:"catalog" yaml:"catalog" toml:"catalog"`

	LlamaServer LlamaServerConfig `json:"llama_server" yaml:"llama_server" toml:"llama_server"`
	Llama       LlamaConfig       `json:"llama" yaml:"llama" toml:"llama"`
	Hub         HubConfig         `json:"hub" yaml:"hub" toml:"hub"`
	HTTP        HTTPConfig        `json:"http" yaml:"http" toml:"http"`
	Tracing     TracingConfig     `json:"tracing" yaml:"tracing" toml:"tracing"`
}

// ModelConfig selects the model and how it is placed.
type ModelConfig struct {
	ID              string            `json:"id" yaml:"id" toml:"id"`
	UseQuantization bool              `json:"use_quantization" yaml:"use_quantization" toml:"use_quantization"`
	Device          string            `json:"device" yaml:"device" toml:"device"`
	MaxMemory       map[string]string `json:"max_memory" yaml:"max_memory" toml:"max_memory"`
	// Path points directly at a GGUF file and bypasses catalog resolution.
	Path string `json:"path" yaml:"path" toml:"path"`
}

type LlamaServerConfig struct {
	URL            string `json:"url" yaml:"url" toml:"url"`
	APIKey         string `json:"api_key" yaml:"api_key" toml:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
}

type LlamaConfig struct {
	ContextSize int `json:"context_size" yaml:"context_size" toml:"context_size"`
	Threads     int `json:"threads" yaml:"threads" toml:"threads"`
}

// HubConfig overrides the Hugging Face endpoints, mainly for tests and mirrors.
type HubConfig struct {
	URL          string `json:"url" yaml:"url" toml:"url"`
	InferenceURL string `json:"inference_url" yaml:"inference_url" toml:"inference_url"`
}

type HTTPConfig struct {
	MaxBodyBytes           int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORSEnabled            bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins            []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	ShutdownTimeoutSeconds int      `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds" toml:"shutdown_timeout_seconds"`
}

type TracingConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled" toml:"enabled"`
	Endpoint    string  `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	Insecure    bool    `json:"insecure" yaml:"insecure" toml:"insecure"`
	SampleRatio float64 `json:"sample_ratio" yaml:"sample_ratio" toml:"sample_ratio"`
	ServiceName string  `json:"service_name" yaml:"service_name" toml:"service_name"`
}

// Defaults.
const (
	DefaultModelID = "RSM-VLM/med-gemma"
	DefaultPort    = 8000
	DefaultBackend = "llama"
)

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		Port:      DefaultPort,
		LogLevel:  "info",
		Backend:   DefaultBackend,
		ModelsDir: "~/models/llm",
		Model: ModelConfig{
			ID:              DefaultModelID,
			UseQuantization: true,
			Device:          "auto",
		},
		LlamaServer: LlamaServerConfig{TimeoutSeconds: 300},
		Llama:       LlamaConfig{ContextSize: 4096},
		HTTP: HTTPConfig{
			MaxBodyBytes:           1 << 20,
			ShutdownTimeoutSeconds: 10,
		},
		Tracing: TracingConfig{
			Insecure:    true,
			SampleRatio: 1,
			ServiceName: "medgemmad",
		},
	}
}

// ListenAddr returns Addr when set, otherwise ":<Port>".
func (c Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return ":" + strconv.Itoa(c.Port)
}

// ShutdownTimeout is the graceful shutdown budget.
func (c Config) ShutdownTimeout() time.Duration {
	if c.HTTP.ShutdownTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.HTTP.ShutdownTimeoutSeconds) * time.Second
}
