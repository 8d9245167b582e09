package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DeviceKind selects where the backend places model weights.
type DeviceKind string

const (
	DeviceAuto DeviceKind = "auto"
	DeviceCPU  DeviceKind = "cpu"
	DeviceGPU  DeviceKind = "gpu"
)

// DevicePlacement is auto, cpu, or a specific GPU index.
type DevicePlacement struct {
	Kind DeviceKind
	GPU  int
}

func (d DevicePlacement) String() string {
	if d.Kind == DeviceGPU {
		return "gpu:" + strconv.Itoa(d.GPU)
	}
	if d.Kind == "" {
		return string(DeviceAuto)
	}
	return string(d.Kind)
}

// ParseDevicePlacement accepts "auto", "cpu", "gpu", "gpu:<n>" and "cuda:<n>".
// An empty string means auto.
func ParseDevicePlacement(s string) (DevicePlacement, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", "auto":
		return DevicePlacement{Kind: DeviceAuto}, nil
	case "cpu":
		return DevicePlacement{Kind: DeviceCPU}, nil
	case "gpu", "cuda":
		return DevicePlacement{Kind: DeviceGPU}, nil
	}
	for _, p := range []string{"gpu:", "cuda:"} {
		if strings.HasPrefix(v, p) {
			n, err := strconv.Atoi(strings.TrimPrefix(v, p))
			if err != nil || n < 0 {
				return DevicePlacement{}, fmt.Errorf("invalid gpu index in device %q", s)
			}
			return DevicePlacement{Kind: DeviceGPU, GPU: n}, nil
		}
	}
	return DevicePlacement{}, fmt.Errorf("unknown device placement %q (want auto, cpu or gpu:<n>)", s)
}

// Config is the immutable model configuration handed to the backend on Load.
type Config struct {
	ModelID         string
	UseQuantization bool
	Device          DevicePlacement
	// MaxMemory is an optional per-device memory hint, e.g. {"0": "20GiB", "cpu": "64GiB"}.
	MaxMemory map[string]string
}

// Validate checks the invariants of a Config.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ModelID) == "" {
		return errors.New("model identifier is empty")
	}
	switch c.Device.Kind {
	case "", DeviceAuto, DeviceCPU, DeviceGPU:
	default:
		return fmt.Errorf("unknown device kind %q", c.Device.Kind)
	}
	return nil
}

// clone returns a deep copy so callers cannot mutate the adapter's view.
func (c Config) clone() Config {
	if c.MaxMemory != nil {
		mm := make(map[string]string, len(c.MaxMemory))
		for k, v := range c.MaxMemory {
			mm[k] = v
		}
		c.MaxMemory = mm
	}
	if c.Device.Kind == "" {
		c.Device.Kind = DeviceAuto
	}
	return c
}

// Defaults applied by the adapter to unset sampling fields.
const (
	DefaultMaxTokens   = 512
	DefaultTemperature = 0.7
	DefaultTopK        = 50
	DefaultTopP        = 0.95

	// repetitionPenalty is fixed for every generation.
	repetitionPenalty = 1.1
	// maxInputTokens bounds the prompt the backends are asked to accept.
	maxInputTokens = 2048
)

// SamplingOptions are the per-request generation parameters.
type SamplingOptions struct {
	MaxTokens   int
	Temperature float64
	TopK        int
	TopP        float64
}

// DefaultSamplingOptions returns the service defaults.
func DefaultSamplingOptions() SamplingOptions {
	return SamplingOptions{
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		TopK:        DefaultTopK,
		TopP:        DefaultTopP,
	}
}

// withDefaults fills fields that cannot be valid as given. Temperature 0 and
// TopK 0 are meaningful (greedy, disabled) and are left alone.
func (o SamplingOptions) withDefaults() SamplingOptions {
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.TopP <= 0 || o.TopP > 1 {
		o.TopP = DefaultTopP
	}
	if o.Temperature < 0 {
		o.Temperature = DefaultTemperature
	}
	if o.TopK < 0 {
		o.TopK = DefaultTopK
	}
	return o
}
