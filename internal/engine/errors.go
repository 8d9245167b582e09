package engine

import (
	"errors"
	"fmt"
	"net/http"
)

// errNotLoaded is reported in GenerationResult when Generate runs before a successful Load.
var errNotLoaded = errors.New("Model not loaded")

// LoadError wraps the backend failure that left the adapter unready.
type LoadError struct {
	ModelID string
	Backend string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s via %s: %v", e.ModelID, e.Backend, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsLoadError reports whether err came from a failed Load.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// modelNotFoundError is returned when no local file or hub entry matches the model id.
type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "model not found: " + e.id }

// ErrModelNotFound returns an error for a model id the backend cannot locate.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether the error indicates a missing model id.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

// dependencyUnavailableError signals a missing external dependency (e.g., llama.cpp
// not compiled in) so the service can report itself unready instead of crashing.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing/failed runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}

// RemoteError reports a non-2xx response from a remote inference endpoint.
type RemoteError struct {
	Op     string
	Status int
	Msg    string
}

func (e *RemoteError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: http %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.Status, e.Msg)
}

// StatusCode returns the upstream HTTP status.
func (e *RemoteError) StatusCode() int { return e.Status }

func remoteStatus(err error) int {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

// IsUnauthorized reports whether the remote rejected our credentials or the model
// is gated behind a license the token has not accepted.
func IsUnauthorized(err error) bool {
	s := remoteStatus(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

// IsModelLoading reports whether the remote is still warming the model up.
func IsModelLoading(err error) bool {
	return remoteStatus(err) == http.StatusServiceUnavailable
}
