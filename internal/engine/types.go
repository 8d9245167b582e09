package engine

import "time"

// State is the adapter readiness state.
type State string

const (
	StateStarting State = "starting"
	StateReady    State = "ready"
	StateUnready  State = "unready"
)

// Status is a point-in-time snapshot of the adapter.
type Status struct {
	State        State         `json:"state"`
	ModelID      string        `json:"model_id"`
	Backend      string        `json:"backend"`
	LastError    string        `json:"last_error,omitempty"`
	LoadedAt     time.Time     `json:"loaded_at,omitempty"`
	LoadDuration time.Duration `json:"load_duration,omitempty"`
}

// GenerationResult is the outcome of one Generate call. Success=false carries a
// human-readable Err; Text and TokensGenerated are then zero.
type GenerationResult struct {
	Success         bool
	Text            string
	ModelID         string
	Elapsed         time.Duration
	TokensGenerated int
	Err             string
}
