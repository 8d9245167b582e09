package types

// AnalyzeOptions carries optional sampling overrides for POST /analyze.
// Nil fields fall back to the server defaults.
type AnalyzeOptions struct {
	// Maximum number of new tokens to generate.
	// example: 512
	MaxTokens *int `json:"maxTokens,omitempty" example:"512"`
	// Sampling temperature in [0, 2].
	// example: 0.7
	Temperature *float64 `json:"temperature,omitempty" example:"0.7"`
	// Top-K sampling: limit candidates to top K tokens (0 disables).
	// example: 50
	TopK *int `json:"top_k,omitempty" example:"50"`
	// Nucleus sampling probability in (0, 1].
	// example: 0.95
	TopP *float64 `json:"top_p,omitempty" example:"0.95"`
}

// AnalyzeRequest is the payload for POST /analyze.
type AnalyzeRequest struct {
	// Required text to analyze or answer.
	// example: What are the symptoms of pneumonia?
	Input *string `json:"input" example:"What are the symptoms of pneumonia?"`
	// Task type selecting the instruction prefix.
	// example: clinical_qa
	Type string `json:"type,omitempty" example:"clinical_qa" enums:"general,clinical_qa,text_analysis,search_enhancement,image_analysis"`
	// Optional clinical context prepended to the input.
	// example: 67-year-old smoker with a three day history of fever.
	Context string `json:"context,omitempty" example:"67-year-old smoker with a three day history of fever."`
	// Optional sampling overrides.
	Options *AnalyzeOptions `json:"options,omitempty"`
}

// AnalyzeResponse is the envelope returned by POST /analyze with HTTP 200.
// Success is false when generation failed inside the model backend.
type AnalyzeResponse struct {
	// Whether generation succeeded.
	// example: true
	Success bool `json:"success" example:"true"`
	// Generated text, present on success.
	// example: Common symptoms include cough, fever and pleuritic chest pain.
	Result *string `json:"result,omitempty" example:"Common symptoms include cough, fever and pleuritic chest pain."`
	// Generation error, present on failure.
	Error string `json:"error,omitempty"`
	// Identifier of the model that served the request.
	// example: RSM-VLM/med-gemma
	Model string `json:"model" example:"RSM-VLM/med-gemma"`
	// Inference latency in seconds.
	// example: 2.41
	ProcessingTime float64 `json:"processing_time" example:"2.41"`
	// Number of generated tokens, present on success.
	// example: 87
	TokensGenerated *int `json:"tokens_generated,omitempty" example:"87"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	// healthy when the model is loaded, unhealthy otherwise.
	// example: healthy
	Status string `json:"status" example:"healthy"`
	// Whether the model finished loading.
	// example: true
	ModelLoaded bool `json:"model_loaded" example:"true"`
	// Loaded model identifier, null when no model is loaded.
	// example: RSM-VLM/med-gemma
	ModelID *string `json:"model_id" example:"RSM-VLM/med-gemma"`
}

// ModelsResponse wraps the catalog returned by GET /models.
type ModelsResponse struct {
	// Known models.
	Models []Model `json:"models"`
	// Identifier of the loaded model, null when none is loaded.
	// example: RSM-VLM/med-gemma
	CurrentModel *string `json:"current_model" example:"RSM-VLM/med-gemma"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Always false.
	// example: false
	Success bool `json:"success" example:"false"`
	// Error message.
	// example: Missing required field: input
	Error string `json:"error" example:"Missing required field: input"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
