package probe

import (
	"context"
	"errors"
	"time"

	"medgemma/internal/analysis"
	"medgemma/internal/engine"
	"medgemma/pkg/types"
)

// SampleQuestions are the medical questions used by the local smoke test.
var SampleQuestions = []string{
	"What are the common symptoms of pneumonia?",
	"Explain the difference between Type 1 and Type 2 diabetes.",
	"What imaging modalities are used to diagnose stroke?",
}

// Analyzer runs one analysis. *analysis.Service satisfies it.
type Analyzer interface {
	Ready() bool
	Analyze(ctx context.Context, req analysis.TaskRequest) (types.AnalyzeResponse, error)
}

// Answer pairs a question with the service response.
type Answer struct {
	Question string
	Response types.AnalyzeResponse
}

// LocalReport is the result of RunLocal.
type LocalReport struct {
	Answers []Answer
	Elapsed time.Duration
}

// Failures counts answers whose generation failed.
func (r LocalReport) Failures() int {
	n := 0
	for _, a := range r.Answers {
		if !a.Response.Success {
			n++
		}
	}
	return n
}

// ErrNotReady is returned when the model could not be loaded.
var ErrNotReady = errors.New("model not loaded")

// RunLocal asks each question as a clinical_qa task. Per-question generation
// failures are recorded in the report rather than aborting the run.
func RunLocal(ctx context.Context, svc Analyzer, questions []string, maxTokens int) (LocalReport, error) {
	start := time.Now()
	var rep LocalReport
	if !svc.Ready() {
		return rep, ErrNotReady
	}
	opts := engine.DefaultSamplingOptions()
	if maxTokens > 0 {
		opts.MaxTokens = maxTokens
	}
	for _, q := range questions {
		resp, err := svc.Analyze(ctx, analysis.TaskRequest{
			Input:    q,
			Type:     analysis.TaskClinicalQA,
			Sampling: opts,
		})
		if err != nil {
			rep.Elapsed = time.Since(start)
			return rep, err
		}
		zlog.Debug().Str("question", q).Bool("success", resp.Success).Msg("sample answered")
		rep.Answers = append(rep.Answers, Answer{Question: q, Response: resp})
	}
	rep.Elapsed = time.Since(start)
	return rep, nil
}
