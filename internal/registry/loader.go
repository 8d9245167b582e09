package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"medgemma/internal/common/fsutil"
)

// quantSuffix matches the llama.cpp quantization tag at the end of a GGUF file stem,
// e.g. "medgemma-4b-it-Q4_K_M" or "gemma-7b-it.f16".
var quantSuffix = regexp.MustCompile(`(?i)[-_.]((?:i?q\d[a-z0-9_]*)|bf16|f16|f32)$`)

// ScanGGUF scans a directory for *.gguf files and builds catalog entries from filenames.
// ID is the file stem without its quantization tag; Path is the absolute file path.
func ScanGGUF(dir string) ([]Entry, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []Entry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		id, quant := splitQuant(name[:len(name)-len(".gguf")])
		out = append(out, Entry{
			ID:     id,
			Name:   name,
			Quant:  quant,
			Family: familyOf(id),
			Path:   filepath.Join(abs, name),
		})
	}
	return out, nil
}

// splitQuant separates a trailing quantization tag from a GGUF file stem.
func splitQuant(stem string) (id, quant string) {
	loc := quantSuffix.FindStringSubmatchIndex(stem)
	if loc == nil {
		return stem, ""
	}
	return stem[:loc[0]], strings.ToUpper(stem[loc[2]:loc[3]])
}

func familyOf(id string) string {
	l := strings.ToLower(id)
	switch {
	case strings.Contains(l, "medgemma"), strings.Contains(l, "med-gemma"):
		return "medgemma"
	case strings.Contains(l, "gemma"):
		return "gemma"
	default:
		return ""
	}
}
