package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"medgemma/internal/engine"
	"medgemma/pkg/types"
)

// TaskRequest is a validated analysis request.
type TaskRequest struct {
	Input    string
	Type     TaskType
	Context  string
	Sampling engine.SamplingOptions
}

// ValidationError reports a request that cannot be served as sent.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// ParseRequest decodes and validates a JSON analysis request body.
func ParseRequest(r io.Reader) (TaskRequest, error) {
	var w types.AnalyzeRequest
	dec := json.NewDecoder(r)
	if err := dec.Decode(&w); err != nil {
		return TaskRequest{}, decodeError(err)
	}
	if dec.More() {
		return TaskRequest{}, invalid("", "request body must contain a single JSON object")
	}
	return FromWire(w)
}

func decodeError(err error) error {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		switch {
		case te.Field == "":
			return invalid("", "request body must be a JSON object")
		case te.Field == "input":
			return invalid("input", "field input must be a string")
		default:
			return invalid(te.Field, "field %s must be of type %s", te.Field, jsonTypeName(te.Type.Kind().String()))
		}
	}
	if errors.Is(err, io.EOF) {
		return invalid("", "request body is empty")
	}
	return invalid("", "malformed JSON body")
}

func jsonTypeName(kind string) string {
	switch {
	case strings.HasPrefix(kind, "int"), strings.HasPrefix(kind, "float"):
		return "number"
	case kind == "ptr", kind == "struct":
		return "object"
	default:
		return kind
	}
}

// FromWire validates a decoded wire request and applies sampling defaults.
func FromWire(w types.AnalyzeRequest) (TaskRequest, error) {
	if w.Input == nil {
		return TaskRequest{}, invalid("input", "Missing required field: input")
	}
	if strings.TrimSpace(*w.Input) == "" {
		return TaskRequest{}, invalid("input", "field input must not be empty")
	}
	req := TaskRequest{
		Input:    *w.Input,
		Type:     TaskType(w.Type),
		Context:  w.Context,
		Sampling: engine.DefaultSamplingOptions(),
	}
	if req.Type == "" {
		req.Type = TaskGeneral
	}
	if o := w.Options; o != nil {
		if o.MaxTokens != nil {
			if *o.MaxTokens <= 0 {
				return TaskRequest{}, invalid("options.maxTokens", "options.maxTokens must be greater than 0")
			}
			req.Sampling.MaxTokens = *o.MaxTokens
		}
		if o.Temperature != nil {
			if *o.Temperature < 0 || *o.Temperature > 2 {
				return TaskRequest{}, invalid("options.temperature", "options.temperature must be between 0 and 2")
			}
			req.Sampling.Temperature = *o.Temperature
		}
		if o.TopK != nil {
			if *o.TopK < 0 {
				return TaskRequest{}, invalid("options.top_k", "options.top_k must not be negative")
			}
			req.Sampling.TopK = *o.TopK
		}
		if o.TopP != nil {
			if *o.TopP <= 0 || *o.TopP > 1 {
				return TaskRequest{}, invalid("options.top_p", "options.top_p must be in (0, 1]")
			}
			req.Sampling.TopP = *o.TopP
		}
	}
	return req, nil
}
