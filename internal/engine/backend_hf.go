package engine

import (
	"context"
	"net/http"
)

// hfBackend serves generations from the Hugging Face Inference API.
type hfBackend struct {
	client *HubClient
}

// NewHFInferenceBackend returns a backend that generates through the Inference API.
func NewHFInferenceBackend(token string, opts ...HubOption) Backend {
	return &hfBackend{client: NewHubClient(token, opts...)}
}

func (b *hfBackend) Name() string { return BackendHFInference }

// Load checks that the model exists and is accessible with the configured token.
func (b *hfBackend) Load(ctx context.Context, cfg Config) (Session, error) {
	info, err := b.client.ModelInfo(ctx, cfg.ModelID)
	if err != nil {
		if remoteStatus(err) == http.StatusNotFound {
			return nil, ErrModelNotFound(cfg.ModelID)
		}
		return nil, err
	}
	if info.IsGated() && !b.client.HasToken() {
		return nil, &RemoteError{Op: "model info", Status: http.StatusUnauthorized,
			Msg: "model is gated; set a token whose account accepted the license"}
	}
	return &hfSession{client: b.client, modelID: cfg.ModelID}, nil
}

type hfSession struct {
	client  *HubClient
	modelID string
}

func (s *hfSession) Generate(ctx context.Context, prompt string, opts SamplingOptions) (Completion, error) {
	out, err := s.client.TextGeneration(ctx, s.modelID, textGenerationRequest(prompt, opts))
	if err != nil {
		return Completion{}, err
	}
	c := Completion{Text: out.GeneratedText}
	if out.Details != nil {
		c.OutputTokens = out.Details.GeneratedTokens
	}
	return c, nil
}

func (s *hfSession) Close() error { return nil }

func textGenerationRequest(prompt string, opts SamplingOptions) TextGenerationRequest {
	p := TextGenerationParameters{
		MaxNewTokens:      opts.MaxTokens,
		TopK:              opts.TopK,
		TopP:              opts.TopP,
		RepetitionPenalty: repetitionPenalty,
		DoSample:          opts.Temperature > 0,
		ReturnFullText:    false,
		Details:           true,
	}
	if opts.Temperature > 0 {
		t := opts.Temperature
		p.Temperature = &t
	}
	return TextGenerationRequest{
		Inputs:     prompt,
		Parameters: p,
		Options:    InferenceOptions{WaitForModel: true, UseCache: false},
	}
}
