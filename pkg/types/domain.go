package types

// Model is a catalog entry exposed by GET /models.
type Model struct {
	// Hub-style identifier.
	// example: RSM-VLM/med-gemma
	ID string `json:"id" example:"RSM-VLM/med-gemma"`
	// Human-friendly name.
	// example: MedGemma 7B
	Name string `json:"name" example:"MedGemma 7B"`
	// Short description.
	// example: Medical Gemma model fine-tuned for clinical tasks
	Description string `json:"description,omitempty" example:"Medical Gemma model fine-tuned for clinical tasks"`
	// Quantization variant when known (local GGUF files).
	// example: Q4_K_M
	Quant string `json:"quant,omitempty" example:"Q4_K_M"`
	// Whether this model is the one currently loaded.
	// example: true
	Loaded bool `json:"loaded" example:"true"`
}
