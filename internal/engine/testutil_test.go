package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeBackend is an in-memory backend used for tests.
type fakeBackend struct {
	loads     atomic.Int32
	loadDelay time.Duration
	loadErr   error
	loadPanic bool

	mu        sync.Mutex
	comp      Completion
	genErr    error
	genPanic  bool
	gotPrompt string
	gotOpts   SamplingOptions
	closed    bool
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Load(ctx context.Context, cfg Config) (Session, error) {
	f.loads.Add(1)
	if f.loadDelay > 0 {
		select {
		case <-time.After(f.loadDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.loadPanic {
		panic("boom")
	}
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return &fakeSession{f: f}, nil
}

type fakeSession struct{ f *fakeBackend }

func (s *fakeSession) Generate(ctx context.Context, prompt string, opts SamplingOptions) (Completion, error) {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.f.gotPrompt = prompt
	s.f.gotOpts = opts
	if s.f.genPanic {
		panic("generate exploded")
	}
	if s.f.genErr != nil {
		return Completion{}, s.f.genErr
	}
	return s.f.comp, nil
}

func (s *fakeSession) Close() error {
	s.f.mu.Lock()
	s.f.closed = true
	s.f.mu.Unlock()
	return nil
}

func testConfig() Config {
	return Config{ModelID: "RSM-VLM/med-gemma", UseQuantization: true}
}

func newLoaded(t *testing.T, fb *fakeBackend, opts ...Option) *Adapter {
	t.Helper()
	a, err := New(testConfig(), fb, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Load(testCtx(t)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return a
}

// testCtx returns a context bounded to the test.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
