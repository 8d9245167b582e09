// Package engine is the model adapter: it owns the model configuration, the loaded
// backend session and the process readiness state. It is structured into small files
// by concern:
//
//   - adapter.go: Adapter type, Load/Generate, readiness and status.
//   - config.go: Config, device placement and sampling defaults.
//   - backend.go: Backend/Session capability interfaces and OpenBackend.
//   - errors.go: error types and helpers (IsLoadError, IsUnauthorized, ...).
//   - events.go: lifecycle events and publishers.
//   - metrics.go: Prometheus collectors for loads and generations.
//
// Backends:
//
//   - llama: in-process llama.cpp via go-llama.cpp. Enabled with `-tags=llama`.
//     Files: backend_llama.go, llama_cgo.go. Without the tag, backend_llama_stub.go
//     reports the dependency as unavailable and the service stays unready.
//   - llama-server: a running llama.cpp server, OpenAI-compatible /v1/completions.
//   - hf-inference: the Hugging Face Inference API.
//
// Tokenization, weight loading and sampling are entirely the backend's business; the
// adapter only times calls, strips the echoed prompt and never lets a generation
// failure escape as a fault.
package engine
