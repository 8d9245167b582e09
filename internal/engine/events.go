package engine

import "sync"

// Event names published by the adapter.
const (
	EventLoadStart      = "load_start"
	EventLoadOK         = "load_ok"
	EventLoadFailed     = "load_failed"
	EventGenerateOK     = "generate_ok"
	EventGenerateFailed = "generate_failed"
)

// Event represents an adapter lifecycle event: a name, the model ID and optional fields.
type Event struct {
	Name    string
	ModelID string
	Fields  map[string]any
}

// EventPublisher receives events from the adapter. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// LogPublisher writes each event to the package logger at debug level.
type LogPublisher struct{}

func (LogPublisher) Publish(e Event) {
	ev := zlog.Debug().Str("event", e.Name).Str("model_id", e.ModelID)
	for k, v := range e.Fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg("engine event")
}

// MemoryPublisher stores events in-memory for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Names returns the event names in publication order.
func (p *MemoryPublisher) Names() []string {
	evs := p.Events()
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Name
	}
	return out
}
