package analysis

import (
	"math"

	"medgemma/internal/engine"
	"medgemma/pkg/types"
)

// MapResult converts a generation outcome into the /analyze envelope.
// processing_time is reported in seconds with millisecond precision.
func MapResult(res engine.GenerationResult) types.AnalyzeResponse {
	out := types.AnalyzeResponse{
		Success:        res.Success,
		Model:          res.ModelID,
		ProcessingTime: math.Round(res.Elapsed.Seconds()*1000) / 1000,
	}
	if res.Success {
		text, n := res.Text, res.TokensGenerated
		out.Result = &text
		out.TokensGenerated = &n
		return out
	}
	out.Error = res.Err
	if out.Error == "" {
		out.Error = "generation failed"
	}
	return out
}
