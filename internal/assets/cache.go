// Package assets owns generated imagery: it resolves a logical key from
// persistent storage or the throttled generator, deduplicates concurrent
// requests and publishes per-key state to observers.
package assets

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/matheuskafuri/larder/internal/imagegen"
	"github.com/matheuskafuri/larder/internal/logger"
)

// State is the lifecycle position of one key.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Source records where a Ready value came from.
type Source int

const (
	SourceNone Source = iota
	SourceStore
	SourceGenerated
)

func (s Source) String() string {
	switch s {
	case SourceStore:
		return "store"
	case SourceGenerated:
		return "generated"
	default:
		return "none"
	}
}

// Entry is a snapshot of one key. Value is set only when State is Ready;
// Err and ErrKind only when State is Failed.
type Entry struct {
	Key       string
	State     State
	Value     []byte
	Err       error
	ErrKind   imagegen.ErrorKind
	Source    Source
	UpdatedAt time.Time
}

// Store is the persistence boundary. A get error is treated as a miss.
type Store interface {
	GetAsset(ctx context.Context, key string) ([]byte, bool, error)
	SetAsset(ctx context.Context, key string, value []byte) error
}

// Generator produces image bytes, applying its own throttling and retries.
type Generator interface {
	RequestImage(ctx context.Context, prompt string, aspect imagegen.AspectRatio) ([]byte, error)
}

type Options struct {
	Logger logger.Logger
	Now    func() time.Time
}

type subscriber struct {
	key string
	fn  func(Entry)
}

// Cache is the single authority for asset values within a process.
// Entries are never evicted.
type Cache struct {
	store Store
	gen   Generator
	log   logger.Logger
	now   func() time.Time

	group singleflight.Group
	wg    sync.WaitGroup

	mu      sync.Mutex
	entries map[string]Entry
	subs    map[int]subscriber
	nextSub int
}

func New(store Store, gen Generator, opts Options) *Cache {
	if opts.Logger == nil {
		opts.Logger = logger.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		store:   store,
		gen:     gen,
		log:     opts.Logger,
		now:     opts.Now,
		entries: make(map[string]Entry),
		subs:    make(map[int]subscriber),
	}
}

// Get returns the current entry for key, or an Idle entry if the key was
// never requested.
func (c *Cache) Get(key string) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e
	}
	return Entry{Key: key, State: Idle}
}

// Snapshot returns every known entry ordered by key.
func (c *Cache) Snapshot() []Entry {
	c.mu.Lock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Subscribe registers fn for every transition of key. An empty key
// observes all keys. fn runs on the goroutine performing the transition
// and must not block. The returned func removes the subscription.
func (c *Cache) Subscribe(key string, fn func(Entry)) (cancel func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = subscriber{key: key, fn: fn}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Ensure resolves key and returns its settled entry, Ready or Failed.
// Concurrent calls for the same key share a single load. If ctx ends first
// the current entry is returned and the load keeps running. A Failed key is
// retried on the next call.
func (c *Cache) Ensure(ctx context.Context, key string, build PromptBuilder) Entry {
	if e := c.Get(key); e.State == Ready {
		return e
	}
	if ctx.Err() != nil {
		return c.Get(key)
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.load(detached, key, build), nil
	})

	select {
	case res := <-ch:
		return res.Val.(Entry)
	case <-ctx.Done():
		return c.Get(key)
	}
}

// Prefetch starts Ensure in the background. Use Wait to block until every
// prefetch has settled.
func (c *Cache) Prefetch(key string, build PromptBuilder) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				c.log.Error("panic prefetching %s: %v\n%s", key, r, debug.Stack())
			}
		}()
		c.Ensure(context.Background(), key, build)
	}()
}

// Wait blocks until all prefetches started so far have finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

// Seed warms keys one at a time. Throttling stays with the generator, so a
// cold seed never bursts the provider. Keys left unvisited when ctx ends
// are reported with their current state.
func (c *Cache) Seed(ctx context.Context, keys []string, build PromptBuilder) []Entry {
	out := make([]Entry, 0, len(keys))
	for _, key := range keys {
		if ctx.Err() != nil {
			out = append(out, c.Get(key))
			continue
		}
		out = append(out, c.Ensure(ctx, key, build))
	}
	return out
}

// load runs at most once per key at a time.
func (c *Cache) load(ctx context.Context, key string, build PromptBuilder) Entry {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if ok && e.State == Ready {
		return e
	}
	if !ok {
		c.transition(Entry{Key: key, State: Idle})
	}

	value, found, err := c.store.GetAsset(ctx, key)
	if err != nil {
		c.log.Warn("reading asset %s: %v", key, err)
	} else if found {
		return c.transition(Entry{Key: key, State: Ready, Value: value, Source: SourceStore})
	}

	c.transition(Entry{Key: key, State: Loading})

	prompt, err := buildPrompt(build, key)
	if err != nil {
		return c.fail(key, fmt.Errorf("building prompt: %w", err))
	}

	img, err := c.gen.RequestImage(ctx, prompt.Text, prompt.Aspect)
	if err != nil {
		return c.fail(key, err)
	}

	if err := c.store.SetAsset(ctx, key, img); err != nil {
		c.log.Warn("persisting asset %s: %v", key, err)
	}
	return c.transition(Entry{Key: key, State: Ready, Value: img, Source: SourceGenerated})
}

func buildPrompt(build PromptBuilder, key string) (p Prompt, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("prompt builder panicked: %v", r)
		}
	}()
	return build(key)
}

func (c *Cache) fail(key string, err error) Entry {
	kind := imagegen.Classify(err)
	c.log.Error("asset %s failed (%s): %v", key, kind, err)
	return c.transition(Entry{Key: key, State: Failed, Err: err, ErrKind: kind})
}

// transition records e and notifies subscribers outside the lock.
func (c *Cache) transition(e Entry) Entry {
	e.UpdatedAt = c.now()

	c.mu.Lock()
	c.entries[e.Key] = e
	var fns []func(Entry)
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		s := c.subs[id]
		if s.key == "" || s.key == e.Key {
			fns = append(fns, s.fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
	return e
}
