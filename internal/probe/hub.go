// Package probe checks whether MedGemma is reachable before the service is deployed:
// hub access and license state, a local backend smoke test, and a client for a
// running medgemmad.
package probe

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"medgemma/internal/analysis"
	"medgemma/internal/engine"
)

// Candidates are the hub models checked by ProbeHub, in order of preference.
var Candidates = []string{
	"google/medgemma-4b-it",
	"google/medgemma-27b-it",
	"google/medgemma-27b-text-it",
	"google/gemma-2b-it",
	"google/gemma-7b-it",
}

// ProbeQuestion is the prompt sent to each candidate model.
const ProbeQuestion = "What are the symptoms of pneumonia?"

// Outcome classifies a single model probe.
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomeLoading         Outcome = "loading"
	OutcomeLicenseRequired Outcome = "license_required"
	OutcomeForbidden       Outcome = "forbidden"
	OutcomeNotFound        Outcome = "not_found"
	OutcomeError           Outcome = "error"
)

// Accessible reports whether the model can be used, possibly after a cold start.
func (o Outcome) Accessible() bool { return o == OutcomeOK || o == OutcomeLoading }

// Hub is the subset of engine.HubClient the probe needs.
type Hub interface {
	Whoami(ctx context.Context) (engine.WhoamiInfo, error)
	ModelInfo(ctx context.Context, id string) (engine.ModelInfo, error)
	TextGeneration(ctx context.Context, model string, in engine.TextGenerationRequest) (engine.TextGenerationOutput, error)
}

// ModelReport is the result of probing one model.
type ModelReport struct {
	Model     string
	Outcome   Outcome
	Status    int
	Gated     bool
	Downloads int
	Sample    string
	Elapsed   time.Duration
	Err       error
}

// HubReport is the result of ProbeHub.
type HubReport struct {
	User    string
	AuthErr error
	Models  []ModelReport
}

// Accessible returns the models that answered or are loading, in probe order.
func (r HubReport) Accessible() []string {
	var out []string
	for _, m := range r.Models {
		if m.Outcome.Accessible() {
			out = append(out, m.Model)
		}
	}
	return out
}

// ProbeHub checks the token, then model metadata and one inference call for every
// model. A failed identity check stops the probe.
func ProbeHub(ctx context.Context, hub Hub, models []string) HubReport {
	var rep HubReport
	who, err := hub.Whoami(ctx)
	if err != nil {
		rep.AuthErr = err
		zlog.Warn().Err(err).Msg("hub authentication failed")
		return rep
	}
	rep.User = who.Name
	zlog.Info().Str("user", who.Name).Msg("hub authenticated")

	for _, m := range models {
		if ctx.Err() != nil {
			break
		}
		rep.Models = append(rep.Models, probeModel(ctx, hub, m))
	}
	return rep
}

func probeModel(ctx context.Context, hub Hub, model string) ModelReport {
	start := time.Now()
	mr := ModelReport{Model: model}

	info, err := hub.ModelInfo(ctx, model)
	if err != nil {
		mr.Outcome, mr.Status, mr.Err = classify(err), statusOf(err), err
		zlog.Debug().Err(err).Str("model", model).Msg("model info failed")
		return finish(mr, start)
	}
	mr.Gated, mr.Downloads = info.IsGated(), info.Downloads

	out, err := hub.TextGeneration(ctx, model, probeRequest())
	mr.Outcome, mr.Status, mr.Err = classify(err), statusOf(err), err
	if err == nil {
		mr.Status = http.StatusOK
		mr.Sample = strings.TrimSpace(out.GeneratedText)
	}
	zlog.Debug().Str("model", model).Str("outcome", string(mr.Outcome)).Int("status", mr.Status).Msg("model probed")
	return finish(mr, start)
}

func finish(mr ModelReport, start time.Time) ModelReport {
	mr.Elapsed = time.Since(start)
	return mr
}

func probeRequest() engine.TextGenerationRequest {
	temp := 0.7
	return engine.TextGenerationRequest{
		Inputs: analysis.BuildPrompt(analysis.TaskRequest{Input: ProbeQuestion}),
		Parameters: engine.TextGenerationParameters{
			MaxNewTokens:   100,
			Temperature:    &temp,
			DoSample:       true,
			ReturnFullText: false,
		},
		Options: engine.InferenceOptions{WaitForModel: true, UseCache: true},
	}
}

func statusOf(err error) int {
	var re *engine.RemoteError
	if errors.As(err, &re) {
		return re.StatusCode()
	}
	return 0
}

// classify maps hub errors to outcomes. 401 on a known model means the account
// has not accepted the license.
func classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case engine.IsModelLoading(err):
		return OutcomeLoading
	}
	switch statusOf(err) {
	case http.StatusUnauthorized:
		return OutcomeLicenseRequired
	case http.StatusForbidden:
		return OutcomeForbidden
	case http.StatusNotFound:
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}
