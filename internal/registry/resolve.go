package registry

import (
	"path"
	"strings"
)

// Resolve finds the local file for a model identifier.
//
// Hub-style identifiers match on their last path element, so "google/medgemma-4b-it"
// resolves to a scanned "medgemma-4b-it-Q4_K_M.gguf". When several quantizations exist,
// quantized=true prefers integer quants (Q4 first) and quantized=false prefers
// full-precision files (BF16, F16, F32, then Q8).
func Resolve(entries []Entry, id string, quantized bool) (Entry, bool) {
	want := strings.ToLower(strings.TrimSpace(id))
	if want == "" {
		return Entry{}, false
	}
	short := path.Base(want)
	var best Entry
	bestRank := -1
	for _, e := range entries {
		if e.Path == "" {
			continue
		}
		eid := strings.ToLower(e.ID)
		if eid != want && eid != short && path.Base(eid) != short {
			continue
		}
		r := quantRank(e.Quant, quantized)
		if r > bestRank {
			best, bestRank = e, r
		}
	}
	return best, bestRank >= 0
}

// quantRank scores a quantization tag; higher is preferred.
func quantRank(quant string, quantized bool) int {
	q := strings.ToUpper(quant)
	isInt := strings.HasPrefix(q, "Q") || strings.HasPrefix(q, "IQ")
	if quantized {
		switch {
		case strings.HasPrefix(q, "Q4"):
			return 5
		case strings.HasPrefix(q, "Q5"):
			return 4
		case isInt:
			return 3
		case q == "":
			return 1
		default:
			return 0
		}
	}
	switch {
	case q == "BF16", q == "F16":
		return 5
	case q == "F32":
		return 4
	case strings.HasPrefix(q, "Q8"):
		return 3
	case q == "":
		return 2
	default:
		return 0
	}
}
