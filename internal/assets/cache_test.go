package assets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matheuskafuri/larder/internal/imagegen"
	"github.com/matheuskafuri/larder/internal/logger"
	"github.com/matheuskafuri/larder/internal/throttle"
)

// memStore is an in-memory Store with optional injected failures.
type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
	gets   int
	sets   int
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) GetAsset(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) SetAsset(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

// fakeGenerator answers with "img:<prompt>" unless errs has queued failures.
// When gate is non-nil every call blocks until it is closed.
type fakeGenerator struct {
	mu       sync.Mutex
	calls    int
	prompts  []string
	errs     []error
	gate     chan struct{}
	started  chan struct{}
	inFlight atomic.Int32
	maxPar   atomic.Int32
}

func (g *fakeGenerator) RequestImage(ctx context.Context, prompt string, aspect imagegen.AspectRatio) ([]byte, error) {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		cur := g.maxPar.Load()
		if n <= cur || g.maxPar.CompareAndSwap(cur, n) {
			break
		}
	}

	g.mu.Lock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	var err error
	if len(g.errs) > 0 {
		err = g.errs[0]
		g.errs = g.errs[1:]
	}
	first := g.calls == 1
	g.mu.Unlock()

	if first && g.started != nil {
		close(g.started)
	}
	if g.gate != nil {
		<-g.gate
	}
	if err != nil {
		return nil, err
	}
	return []byte("img:" + prompt), nil
}

func (g *fakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func staticPrompt(key string) (Prompt, error) {
	return Prompt{Text: key, Aspect: imagegen.Square}, nil
}

func TestEnsureGeneratesAndPersists(t *testing.T) {
	st := newMemStore()
	gen := &fakeGenerator{}
	c := New(st, gen, Options{})

	e := c.Ensure(context.Background(), "item:milk", staticPrompt)
	if e.State != Ready {
		t.Fatalf("expected ready, got %s (%v)", e.State, e.Err)
	}
	if string(e.Value) != "img:item:milk" {
		t.Errorf("unexpected value %q", e.Value)
	}
	if e.Source != SourceGenerated {
		t.Errorf("expected generated source, got %s", e.Source)
	}
	if string(st.data["item:milk"]) != "img:item:milk" {
		t.Errorf("expected value to be persisted")
	}

	again := c.Ensure(context.Background(), "item:milk", staticPrompt)
	if again.State != Ready || gen.Calls() != 1 {
		t.Errorf("expected cached ready value, got %s after %d calls", again.State, gen.Calls())
	}
}

func TestEnsureConcurrentCallersShareOneGeneration(t *testing.T) {
	gen := &fakeGenerator{gate: make(chan struct{}), started: make(chan struct{})}
	c := New(newMemStore(), gen, Options{})

	const callers = 10
	results := make(chan Entry, callers)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results <- c.Ensure(context.Background(), "category:dairy", staticPrompt)
	}()

	<-gen.started
	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- c.Ensure(context.Background(), "category:dairy", staticPrompt)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(gen.gate)
	wg.Wait()
	close(results)

	for e := range results {
		if e.State != Ready {
			t.Errorf("expected ready, got %s", e.State)
		}
	}
	if gen.Calls() != 1 {
		t.Errorf("expected exactly one provider call, got %d", gen.Calls())
	}
}

func TestEnsureStoreHitSkipsGeneration(t *testing.T) {
	st := newMemStore()
	st.data["category:produce"] = []byte("stored")
	gen := &fakeGenerator{}
	c := New(st, gen, Options{})

	var states []State
	c.Subscribe("category:produce", func(e Entry) { states = append(states, e.State) })

	e := c.Ensure(context.Background(), "category:produce", staticPrompt)
	if e.State != Ready || string(e.Value) != "stored" {
		t.Fatalf("expected stored value, got %s %q", e.State, e.Value)
	}
	if e.Source != SourceStore {
		t.Errorf("expected store source, got %s", e.Source)
	}
	if gen.Calls() != 0 {
		t.Errorf("expected no provider calls, got %d", gen.Calls())
	}
	for _, s := range states {
		if s == Loading {
			t.Errorf("store hit must not pass through loading, got %v", states)
		}
	}
}

func TestEnsureRetryCeilingLeavesFailed(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)}
	p := &rateLimitedProvider{}
	gen := throttle.New(p, throttle.Config{BaseDelay: 5 * time.Second, MaxRetries: 3, Clock: clock})
	st := newMemStore()
	c := New(st, gen, Options{})

	e := c.Ensure(context.Background(), "item:milk", staticPrompt)
	if e.State != Failed {
		t.Fatalf("expected failed, got %s", e.State)
	}
	if e.ErrKind != imagegen.KindRateLimited {
		t.Errorf("expected rate_limited kind, got %s", e.ErrKind)
	}
	if !errors.Is(e.Err, throttle.ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", e.Err)
	}
	if p.Calls() != 4 {
		t.Errorf("expected 4 provider calls, got %d", p.Calls())
	}
	if st.sets != 0 {
		t.Errorf("failed generation must not be persisted")
	}

	// No background retry happens after the failure.
	time.Sleep(10 * time.Millisecond)
	if p.Calls() != 4 {
		t.Errorf("expected no fifth call, got %d", p.Calls())
	}
	if got := c.Get("item:milk"); got.State != Failed {
		t.Errorf("expected key to stay failed, got %s", got.State)
	}
}

func TestEnsurePersistFailureStillReady(t *testing.T) {
	st := newMemStore()
	st.setErr = errors.New("disk full")
	rec := &logger.Recorder{}
	gen := &fakeGenerator{}
	c := New(st, gen, Options{Logger: rec})

	e := c.Ensure(context.Background(), "recipe:omelette", staticPrompt)
	if e.State != Ready || len(e.Value) == 0 {
		t.Fatalf("expected ready despite persist failure, got %s", e.State)
	}
	if len(rec.Warnings()) != 1 {
		t.Errorf("expected one persistence warning, got %v", rec.Warnings())
	}

	again := c.Ensure(context.Background(), "recipe:omelette", staticPrompt)
	if again.State != Ready || gen.Calls() != 1 {
		t.Errorf("expected session value reused, got %s after %d calls", again.State, gen.Calls())
	}
}

func TestEnsureStoreReadErrorIsMiss(t *testing.T) {
	st := newMemStore()
	st.getErr = errors.New("locked")
	rec := &logger.Recorder{}
	gen := &fakeGenerator{}
	c := New(st, gen, Options{Logger: rec})

	e := c.Ensure(context.Background(), "item:eggs", staticPrompt)
	if e.State != Ready {
		t.Fatalf("expected ready, got %s", e.State)
	}
	if gen.Calls() != 1 {
		t.Errorf("expected generation after read failure, got %d calls", gen.Calls())
	}
	if len(rec.Warnings()) != 1 {
		t.Errorf("expected read warning, got %v", rec.Warnings())
	}
}

func TestEnsureRetriesAfterFailure(t *testing.T) {
	gen := &fakeGenerator{errs: []error{&imagegen.APIError{Provider: "fake", StatusCode: 500}}}
	c := New(newMemStore(), gen, Options{})

	first := c.Ensure(context.Background(), "item:milk", staticPrompt)
	if first.State != Failed || first.ErrKind != imagegen.KindOther {
		t.Fatalf("expected failed/other, got %s/%s", first.State, first.ErrKind)
	}

	second := c.Ensure(context.Background(), "item:milk", staticPrompt)
	if second.State != Ready {
		t.Fatalf("expected ready on retry, got %s", second.State)
	}
	if second.Err != nil {
		t.Errorf("expected error cleared, got %v", second.Err)
	}
	if gen.Calls() != 2 {
		t.Errorf("expected 2 calls, got %d", gen.Calls())
	}
}

func TestEnsurePromptErrorFails(t *testing.T) {
	gen := &fakeGenerator{}
	c := New(newMemStore(), gen, Options{})

	e := c.Ensure(context.Background(), "item:x", func(string) (Prompt, error) {
		return Prompt{}, fmt.Errorf("no template")
	})
	if e.State != Failed || e.ErrKind != imagegen.KindOther {
		t.Errorf("expected failed/other, got %s/%s", e.State, e.ErrKind)
	}
	if gen.Calls() != 0 {
		t.Errorf("expected no provider call, got %d", gen.Calls())
	}
}

func TestSubscribersSeeEveryTransition(t *testing.T) {
	c := New(newMemStore(), &fakeGenerator{}, Options{})

	var mu sync.Mutex
	var a, b, all []State
	record := func(dst *[]State) func(Entry) {
		return func(e Entry) {
			mu.Lock()
			*dst = append(*dst, e.State)
			mu.Unlock()
		}
	}
	c.Subscribe("item:milk", record(&a))
	cancelB := c.Subscribe("item:milk", record(&b))
	c.Subscribe("", record(&all))

	c.Ensure(context.Background(), "item:milk", staticPrompt)
	cancelB()
	cancelB()
	c.Ensure(context.Background(), "item:bread", staticPrompt)

	want := []State{Idle, Loading, Ready}
	for name, got := range map[string][]State{"a": a, "b": b} {
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("subscriber %s: expected %v, got %v", name, want, got)
		}
	}
	if len(all) != 6 {
		t.Errorf("expected 6 transitions across both keys, got %v", all)
	}
}

func TestEnsureReturnsEarlyOnCallerCancel(t *testing.T) {
	gen := &fakeGenerator{gate: make(chan struct{}), started: make(chan struct{})}
	c := New(newMemStore(), gen, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Entry, 1)
	go func() { done <- c.Ensure(ctx, "item:milk", staticPrompt) }()

	<-gen.started
	cancel()
	e := <-done
	if e.State != Loading {
		t.Errorf("expected loading when caller gives up, got %s", e.State)
	}

	ready := make(chan struct{})
	c.Subscribe("item:milk", func(e Entry) {
		if e.State == Ready {
			close(ready)
		}
	})
	close(gen.gate)

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("generation did not complete after caller cancellation")
	}
}

func TestEnsureWithCanceledContextDoesNotStart(t *testing.T) {
	gen := &fakeGenerator{}
	c := New(newMemStore(), gen, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if e := c.Ensure(ctx, "item:milk", staticPrompt); e.State != Idle {
		t.Errorf("expected idle, got %s", e.State)
	}
	if gen.Calls() != 0 {
		t.Errorf("expected no calls, got %d", gen.Calls())
	}
}

func TestSeedIsSequential(t *testing.T) {
	st := newMemStore()
	st.data["category:dairy"] = []byte("cached")
	gen := &fakeGenerator{}
	c := New(st, gen, Options{})

	keys := CategoryKeys()
	entries := c.Seed(context.Background(), keys, DefaultPrompts)
	if len(entries) != len(keys) {
		t.Fatalf("expected %d entries, got %d", len(keys), len(entries))
	}
	for i, e := range entries {
		if e.Key != keys[i] || e.State != Ready {
			t.Errorf("entry %d: expected %s ready, got %s %s", i, keys[i], e.Key, e.State)
		}
	}
	if gen.maxPar.Load() != 1 {
		t.Errorf("expected at most one generation in flight, got %d", gen.maxPar.Load())
	}
	if gen.Calls() != len(keys)-1 {
		t.Errorf("expected %d calls (one key cached), got %d", len(keys)-1, gen.Calls())
	}
}

func TestSeedStopsOnCancel(t *testing.T) {
	gen := &fakeGenerator{}
	c := New(newMemStore(), gen, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	entries := c.Seed(ctx, OnboardingKeys(), DefaultPrompts)
	for _, e := range entries {
		if e.State != Idle {
			t.Errorf("expected idle for %s, got %s", e.Key, e.State)
		}
	}
	if gen.Calls() != 0 {
		t.Errorf("expected no calls, got %d", gen.Calls())
	}
}

func TestPrefetchAndWait(t *testing.T) {
	gen := &fakeGenerator{}
	c := New(newMemStore(), gen, Options{})

	c.Prefetch("item:milk", staticPrompt)
	c.Prefetch("item:milk", staticPrompt)
	c.Prefetch("item:eggs", staticPrompt)
	c.Wait()

	if c.Get("item:milk").State != Ready || c.Get("item:eggs").State != Ready {
		t.Errorf("expected both keys ready, got %+v", c.Snapshot())
	}
	if gen.Calls() != 2 {
		t.Errorf("expected 2 calls, got %d", gen.Calls())
	}
}

func TestPromptPanicBecomesFailure(t *testing.T) {
	rec := &logger.Recorder{}
	gen := &fakeGenerator{}
	c := New(newMemStore(), gen, Options{Logger: rec})

	c.Prefetch("item:milk", func(string) (Prompt, error) { panic("boom") })
	c.Wait()

	if e := c.Get("item:milk"); e.State != Failed {
		t.Errorf("expected failed, got %s", e.State)
	}
	if len(rec.Errors()) != 1 {
		t.Errorf("expected failure to be logged, got %v", rec.Errors())
	}
	if gen.Calls() != 0 {
		t.Errorf("expected no provider call, got %d", gen.Calls())
	}
}

func TestGetAndSnapshot(t *testing.T) {
	c := New(newMemStore(), &fakeGenerator{}, Options{})

	if e := c.Get("item:unknown"); e.State != Idle || e.Key != "item:unknown" {
		t.Errorf("expected idle entry, got %+v", e)
	}

	c.Ensure(context.Background(), "item:b", staticPrompt)
	c.Ensure(context.Background(), "item:a", staticPrompt)
	snap := c.Snapshot()
	if len(snap) != 2 || snap[0].Key != "item:a" || snap[1].Key != "item:b" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return ctx.Err()
}

type rateLimitedProvider struct {
	calls atomic.Int32
}

func (p *rateLimitedProvider) Name() string { return "limited" }

func (p *rateLimitedProvider) Generate(ctx context.Context, prompt string, aspect imagegen.AspectRatio) ([]byte, error) {
	p.calls.Add(1)
	return nil, &imagegen.APIError{Provider: "limited", StatusCode: 429}
}

func (p *rateLimitedProvider) Calls() int { return int(p.calls.Load()) }
