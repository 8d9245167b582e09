package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"medgemma/internal/common/fsutil"
)

// ApplyEnv overlays environment variables onto cfg. Unset variables leave
// the current value alone; malformed values are reported, not ignored.
func ApplyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("MEDGEMMA_MODEL_ID", &cfg.Model.ID)
	str("MEDGEMMA_BACKEND", &cfg.Backend)
	str("MEDGEMMA_DEVICE", &cfg.Model.Device)
	str("MEDGEMMA_MODEL_PATH", &cfg.Model.Path)
	str("MEDGEMMA_MODELS_DIR", &cfg.ModelsDir)
	str("MEDGEMMA_CATALOG", &cfg.Catalog)
	str("MEDGEMMA_LOG_LEVEL", &cfg.LogLevel)
	str("MEDGEMMA_ADDR", &cfg.Addr)
	str("HUGGING_FACE_API_KEY", &cfg.HFToken)
	str("HF_TOKEN", &cfg.HFToken)
	str("HUGGING_FACE_TOKEN", &cfg.HFToken)
	str("LLAMA_SERVER_URL", &cfg.LlamaServer.URL)
	str("LLAMA_SERVER_API_KEY", &cfg.LlamaServer.APIKey)

	if v, ok := lookup("USE_QUANTIZATION"); ok {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("USE_QUANTIZATION: %w", err)
		}
		cfg.Model.UseQuantization = b
	}
	if v, ok := lookup("DEBUG"); ok {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("DEBUG: %w", err)
		}
		cfg.Debug = b
	}
	if v, ok := lookup("PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: invalid integer %q", v)
		}
		cfg.Port = n
	}
	if v, ok := lookup("MEDGEMMA_MAX_MEMORY"); ok {
		mm, err := ParseMaxMemory(v)
		if err != nil {
			return fmt.Errorf("MEDGEMMA_MAX_MEMORY: %w", err)
		}
		cfg.Model.MaxMemory = mm
	}
	if v, ok := lookup("MEDGEMMA_CORS_ORIGINS"); ok {
		cfg.HTTP.CORSOrigins = splitCSV(v)
		cfg.HTTP.CORSEnabled = len(cfg.HTTP.CORSOrigins) > 0
	}
	if v, ok := lookup("OTEL_EXPORTER_OTLP_ENDPOINT"); ok {
		cfg.Tracing.Endpoint = v
		cfg.Tracing.Enabled = true
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// ParseMaxMemory parses "0=20GiB,cpu=64GiB" into a device to size map.
// Sizes are validated but kept verbatim for the backend.
func ParseMaxMemory(s string) (map[string]string, error) {
	parts := splitCSV(s)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(parts))
	for _, p := range parts {
		dev, size, ok := strings.Cut(p, "=")
		dev, size = strings.TrimSpace(dev), strings.TrimSpace(size)
		if !ok || dev == "" || size == "" {
			return nil, fmt.Errorf("expected device=size, got %q", p)
		}
		if _, err := fsutil.ParseSize(size); err != nil {
			return nil, fmt.Errorf("device %s: %w", dev, err)
		}
		out[dev] = size
	}
	return out, nil
}

// splitCSV splits a comma-separated list, trimming items and dropping empties.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
