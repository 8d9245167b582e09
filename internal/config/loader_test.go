package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", `port: 9999
backend: llama-server
model:
  id: google/medgemma-4b-it
  use_quantization: false
  device: gpu:1
  max_memory:
    "0": 20GiB
llama_server:
  url: http://127.0.0.1:8081
http:
  cors_enabled: true
  cors_origins: ["http://localhost:3000"]
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9999 || cfg.Backend != "llama-server" || cfg.Model.ID != "google/medgemma-4b-it" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Model.UseQuantization || cfg.Model.Device != "gpu:1" || cfg.Model.MaxMemory["0"] != "20GiB" {
		t.Fatalf("unexpected model section: %+v", cfg.Model)
	}
	if !cfg.HTTP.CORSEnabled || len(cfg.HTTP.CORSOrigins) != 1 || cfg.LlamaServer.URL != "http://127.0.0.1:8081" {
		t.Fatalf("unexpected http/llama_server: %+v %+v", cfg.HTTP, cfg.LlamaServer)
	}
	// untouched keys keep their defaults
	if cfg.LogLevel != "info" || cfg.HTTP.MaxBodyBytes != 1<<20 || cfg.Llama.ContextSize != 4096 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":"127.0.0.1:7070","models_dir":"/m","model":{"id":"m2"}}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr() != "127.0.0.1:7070" || cfg.ModelsDir != "/m" || cfg.Model.ID != "m2" || !cfg.Model.UseQuantization {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "port = 8081\nmodels_dir = \"/x\"\n\n[model]\nid = \"m3\"\ndevice = \"cpu\"\n\n[tracing]\nenabled = true\nsample_ratio = 0.25\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr() != ":8081" || cfg.ModelsDir != "/x" || cfg.Model.ID != "m3" || cfg.Model.Device != "cpu" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.SampleRatio != 0.25 || cfg.Tracing.ServiceName != "medgemmad" {
		t.Fatalf("unexpected tracing: %+v", cfg.Tracing)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
	if _, err := Load("/definitely/not/a/real/file-12345.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent file")
	}
	for name, body := range map[string]string{
		"bad.yaml": "port: :8080\n: broken\n",
		"bad.json": `{ "port": 8080, "models_dir": }`,
		"bad.toml": "port=8080\nmodels_dir\n",
	} {
		if _, err := Load(writeTempFile(t, d, name, body)); err == nil {
			t.Fatalf("%s: expected unmarshal error", name)
		}
	}
}
