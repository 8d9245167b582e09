package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"medgemma/internal/common/fsutil"
	"medgemma/internal/config"
)

// serveFlags are command-line overrides. A flag only applies when it was set
// explicitly, so it never clobbers a value from the config file or environment.
type serveFlags struct {
	configPath   string
	envFile      string
	addr         string
	port         int
	backend      string
	modelID      string
	modelPath    string
	modelsDir    string
	catalog      string
	device       string
	quantize     bool
	logLevel     string
	debug        bool
	maxBodyBytes int64
	corsOrigins  string
}

func (f *serveFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "Path to a YAML, TOML or JSON config file")
	fl.StringVar(&f.envFile, "env-file", ".env.local", "Dotenv file loaded before reading the environment (ignored if missing)")
	fl.StringVar(&f.addr, "addr", "", "HTTP listen address, e.g. :8000 (overrides --port)")
	fl.IntVar(&f.port, "port", config.DefaultPort, "HTTP listen port")
	fl.StringVar(&f.backend, "backend", config.DefaultBackend, "Inference backend: llama|llama-server|hf-inference")
	fl.StringVar(&f.modelID, "model", config.DefaultModelID, "Model identifier to load")
	fl.StringVar(&f.modelPath, "model-path", "", "GGUF file to load, bypassing catalog resolution")
	fl.StringVar(&f.modelsDir, "models-dir", "~/models/llm", "Directory to scan for *.gguf model files")
	fl.StringVar(&f.catalog, "catalog", "", "Additional model catalog file (.yaml or .json)")
	fl.StringVar(&f.device, "device", "auto", "Device placement: auto|cpu|gpu|gpu:N")
	fl.BoolVar(&f.quantize, "quantize", true, "Prefer quantized weights")
	fl.StringVar(&f.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	fl.BoolVar(&f.debug, "debug", false, "Human-readable debug logging")
	fl.Int64Var(&f.maxBodyBytes, "max-body-bytes", 1<<20, "Maximum /analyze request body size")
	fl.StringVar(&f.corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (enables CORS)")
}

// loadConfig layers defaults, the config file, the environment and explicit flags,
// then validates the result.
func loadConfig(cmd *cobra.Command, f *serveFlags) (config.Config, error) {
	if err := loadEnvFile(f.envFile); err != nil {
		return config.Config{}, err
	}
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return config.Config{}, err
		}
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return config.Config{}, fmt.Errorf("environment: %w", err)
	}

	fl := cmd.Flags()
	set := fl.Changed
	if set("addr") {
		cfg.Addr = f.addr
	}
	if set("port") {
		cfg.Port = f.port
	}
	if set("backend") {
		cfg.Backend = f.backend
	}
	if set("model") {
		cfg.Model.ID = f.modelID
	}
	if set("model-path") {
		cfg.Model.Path = f.modelPath
	}
	if set("models-dir") {
		cfg.ModelsDir = f.modelsDir
	}
	if set("catalog") {
		cfg.Catalog = f.catalog
	}
	if set("device") {
		cfg.Model.Device = f.device
	}
	if set("quantize") {
		cfg.Model.UseQuantization = f.quantize
	}
	if set("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if set("debug") {
		cfg.Debug = f.debug
	}
	if set("max-body-bytes") {
		cfg.HTTP.MaxBodyBytes = f.maxBodyBytes
	}
	if set("cors-origins") {
		var origins []string
		for _, o := range strings.Split(f.corsOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.HTTP.CORSOrigins = origins
		cfg.HTTP.CORSEnabled = len(origins) > 0
	}
	if cfg.Debug && !set("log-level") && cfg.LogLevel == "info" {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadEnvFile overlays a dotenv file onto the process environment. Values in the
// file win over variables already set, matching local development expectations.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err != nil {
		return nil
	}
	if err := godotenv.Overload(p); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
