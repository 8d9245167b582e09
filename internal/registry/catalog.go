// Package registry describes the models medgemmad knows about: a built-in catalog of
// hub identifiers, optional catalog files, and GGUF files found on disk.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"medgemma/internal/common/fsutil"
	"medgemma/pkg/types"
)

// Entry is a catalog record. Path is set only for models available as local files.
type Entry struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Family      string `json:"family,omitempty" yaml:"family,omitempty"`
	Quant       string `json:"quant,omitempty" yaml:"quant,omitempty"`
	Path        string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Builtin returns the models the service advertises without any configuration.
func Builtin() []Entry {
	return []Entry{
		{ID: "RSM-VLM/med-gemma", Name: "MedGemma 7B", Family: "medgemma",
			Description: "Medical Gemma model fine-tuned for clinical tasks"},
		{ID: "google/gemma-7b-it", Name: "Gemma 7B Instruct", Family: "gemma",
			Description: "Base Gemma model suitable for medical fine-tuning"},
		{ID: "google/medgemma-4b-it", Name: "MedGemma 4B Instruct", Family: "medgemma",
			Description: "Multimodal MedGemma, instruction tuned"},
		{ID: "google/medgemma-27b-text-it", Name: "MedGemma 27B Text Instruct", Family: "medgemma",
			Description: "Text-only MedGemma, instruction tuned"},
		{ID: "google/medgemma-27b-it", Name: "MedGemma 27B Instruct", Family: "medgemma",
			Description: "Multimodal MedGemma 27B, instruction tuned"},
	}
}

type catalogFile struct {
	Models []Entry `json:"models" yaml:"models"`
}

// LoadCatalog reads additional entries from a .yaml/.yml or .json file.
func LoadCatalog(path string) ([]Entry, error) {
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f catalogFile
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &f)
	case ".json":
		err = json.Unmarshal(b, &f)
	default:
		return nil, fmt.Errorf("unsupported catalog extension: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for i, e := range f.Models {
		if strings.TrimSpace(e.ID) == "" {
			return nil, fmt.Errorf("catalog %s: entry %d has no id", path, i)
		}
	}
	return f.Models, nil
}

// Merge concatenates lists, dropping later entries whose ID, Quant and Path all duplicate
// an earlier one. IDs compare case-insensitively. Local GGUF variants of the same ID are
// kept when their quantization or file differs.
func Merge(lists ...[]Entry) []Entry {
	seen := make(map[string]bool)
	var out []Entry
	for _, l := range lists {
		for _, e := range l {
			k := strings.ToLower(e.ID) + "\x00" + strings.ToUpper(e.Quant) + "\x00" + e.Path
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, e)
		}
	}
	return out
}

// ToModels projects entries to the wire catalog. Only the first entry whose ID is
// loadedID is marked loaded, so quantization variants of one model are not all
// reported as loaded. An empty loadedID marks nothing.
func ToModels(entries []Entry, loadedID string) []types.Model {
	out := make([]types.Model, 0, len(entries))
	marked := false
	for _, e := range entries {
		name := e.Name
		if name == "" {
			name = e.ID
		}
		out = append(out, types.Model{
			ID:          e.ID,
			Name:        name,
			Description: e.Description,
			Quant:       e.Quant,
			Loaded:      !marked && loadedID != "" && e.ID == loadedID,
		})
		if out[len(out)-1].Loaded {
			marked = true
		}
	}
	return out
}
