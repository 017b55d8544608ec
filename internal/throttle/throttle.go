// Package throttle serializes image generation calls behind a single queue
// and retries rate-limited calls with linear backoff.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/matheuskafuri/larder/internal/imagegen"
	"github.com/matheuskafuri/larder/internal/logger"
)

// Default policy values.
const (
	DefaultSpacing     = 2 * time.Second
	DefaultBaseDelay   = 5 * time.Second
	DefaultMaxRetries  = 3
	DefaultCallTimeout = 60 * time.Second
)

// ErrGenerationFailed matches every terminal failure returned by RequestImage.
var ErrGenerationFailed = errors.New("image generation failed")

// GenerationError is the terminal failure of one logical request.
type GenerationError struct {
	Kind     imagegen.ErrorKind
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("image generation failed after %d attempt(s) (%s): %v", e.Attempts, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGenerationFailed }

// Clock abstracts time so tests can run the policy without sleeping.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// Config is the generator policy. Zero durations disable the matching wait.
type Config struct {
	Spacing     time.Duration
	BaseDelay   time.Duration
	MaxRetries  int
	CallTimeout time.Duration
	Clock       Clock
	Logger      logger.Logger
}

// DefaultConfig returns the policy used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Spacing:     DefaultSpacing,
		BaseDelay:   DefaultBaseDelay,
		MaxRetries:  DefaultMaxRetries,
		CallTimeout: DefaultCallTimeout,
	}
}

// RetryState tracks one logical request across its attempts.
type RetryState struct {
	Attempt       int
	LastErrorKind imagegen.ErrorKind
	TotalDelayed  time.Duration
}

// Generator wraps a Provider with global spacing and rate-limit retries.
type Generator struct {
	provider imagegen.Provider
	cfg      Config

	// sem is the dispatch queue; holding it grants access to lastResolved
	sem          chan struct{}
	lastResolved time.Time

	dispatched atomic.Int64
}

// New creates a Generator. Missing Clock and Logger default to the wall
// clock and a Nop logger.
func New(p imagegen.Provider, cfg Config) *Generator {
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop{}
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Generator{
		provider: p,
		cfg:      cfg,
		sem:      make(chan struct{}, 1),
	}
}

// Dispatched returns how many provider calls have been started.
func (g *Generator) Dispatched() int64 {
	return g.dispatched.Load()
}

// RequestImage generates one image. Rate-limited attempts are retried up to
// MaxRetries times, waiting BaseDelay*(attempt+1) before each retry; any
// other failure is returned immediately.
func (g *Generator) RequestImage(ctx context.Context, prompt string, aspect imagegen.AspectRatio) ([]byte, error) {
	var state RetryState
	for {
		img, err := g.dispatch(ctx, prompt, aspect)
		if err == nil {
			return img, nil
		}

		state.LastErrorKind = imagegen.Classify(err)
		attempts := state.Attempt + 1
		if state.LastErrorKind != imagegen.KindRateLimited {
			return nil, &GenerationError{Kind: state.LastErrorKind, Attempts: attempts, Err: err}
		}
		if state.Attempt >= g.cfg.MaxRetries {
			g.cfg.Logger.Warn("rate limited %d times, giving up on %q", attempts, truncate(prompt, 48))
			return nil, &GenerationError{Kind: imagegen.KindRateLimited, Attempts: attempts, Err: err}
		}

		delay := g.cfg.BaseDelay * time.Duration(state.Attempt+1)
		g.cfg.Logger.Warn("rate limited, retry %d/%d in %s", attempts, g.cfg.MaxRetries, delay)
		if err := g.cfg.Clock.Sleep(ctx, delay); err != nil {
			return nil, &GenerationError{Kind: imagegen.KindOther, Attempts: attempts, Err: err}
		}
		state.TotalDelayed += delay
		state.Attempt++
	}
}

// dispatch waits for the queue and the spacing window, then makes exactly
// one provider call.
func (g *Generator) dispatch(ctx context.Context, prompt string, aspect imagegen.AspectRatio) ([]byte, error) {
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-g.sem }()

	if !g.lastResolved.IsZero() && g.cfg.Spacing > 0 {
		if wait := g.cfg.Spacing - g.cfg.Clock.Now().Sub(g.lastResolved); wait > 0 {
			if err := g.cfg.Clock.Sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}

	callCtx := ctx
	if g.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.cfg.CallTimeout)
		defer cancel()
	}

	g.dispatched.Add(1)
	img, err := g.provider.Generate(callCtx, prompt, aspect)
	g.lastResolved = g.cfg.Clock.Now()

	if err == nil && len(img) == 0 {
		err = imagegen.ErrNoImage
	}
	return img, err
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
