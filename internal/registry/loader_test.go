package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte(""), 0o644); err != nil {
			t.Fatalf("write temp file: %v", err)
		}
	}
}

func TestScanGGUF_FiltersAndSplitsQuant(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "medgemma-4b-it-Q4_K_M.gguf", "gemma-7b-it.F16.GGUF", "notes.txt", "model.bin")
	if err := os.Mkdir(filepath.Join(dir, "sub.gguf"), 0o755); err != nil { t.Fatalf("mkdir: %v", err) }

	got, err := ScanGGUF(dir)
	if err != nil { t.Fatalf("scan: %v", err) }
	if len(got) != 2 { t.Fatalf("expected 2 entries, got %d: %+v", len(got), got) }
	byID := map[string]Entry{}
	for _, e := range got { byID[e.ID] = e }
	mg, ok := byID["medgemma-4b-it"]
	if !ok || mg.Quant != "Q4_K_M" || mg.Family != "medgemma" { t.Fatalf("unexpected medgemma entry: %+v", mg) }
	if !filepath.IsAbs(mg.Path) { t.Fatalf("path not absolute: %s", mg.Path) }
	g, ok := byID["gemma-7b-it"]
	if !ok || g.Quant != "F16" || g.Family != "gemma" { t.Fatalf("unexpected gemma entry: %+v", g) }
}

func TestScanGGUF_MissingDir(t *testing.T) {
	if _, err := ScanGGUF(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}

func TestScanGGUF_ExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil { t.Skipf("no home dir on this platform: %v", err) }
	hTmp, err := os.MkdirTemp(home, "medgemma-registry-*")
	if err != nil { t.Skipf("cannot create temp under home: %v", err) }
	defer os.RemoveAll(hTmp)
	touch(t, hTmp, "m.gguf")

	rel := "~/" + strings.TrimPrefix(hTmp, home+string(os.PathSeparator))
	got, err := ScanGGUF(rel)
	if err != nil { t.Fatalf("scan: %v", err) }
	if len(got) != 1 || got[0].ID != "m" || got[0].Quant != "" { t.Fatalf("unexpected: %+v", got) }
}

func TestSplitQuant(t *testing.T) {
	cases := []struct{ in, id, quant string }{
		{"medgemma-27b-text-it-q8_0", "medgemma-27b-text-it", "Q8_0"},
		{"gemma-7b-it.bf16", "gemma-7b-it", "BF16"},
		{"medgemma-4b-it-IQ3_M", "medgemma-4b-it", "IQ3_M"},
		{"plain-model", "plain-model", ""},
	}
	for _, c := range cases {
		id, q := splitQuant(c.in)
		if id != c.id || q != c.quant { t.Fatalf("%q -> (%q,%q), want (%q,%q)", c.in, id, q, c.id, c.quant) }
	}
}
