// Package loader acquires the model tiers from an ordered list of
// sources. It only knows how to try sources in order with a timeout and
// share the outcome between concurrent callers; what the models do is
// the vision package's business.
package loader

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Tier names handed to the fetcher. They match the tier names the model
// server speaks.
const (
	TierCritical = "critical"
	TierOptional = "optional"
)

// DefaultTimeout bounds a single source attempt.
const DefaultTimeout = 60 * time.Second

// ErrAllSourcesFailed resolves an acquisition attempt that exhausted
// every source for the critical tier. The loader resets afterwards, so
// a later call retries the whole sequence from the first source.
var ErrAllSourcesFailed = errors.New("all model sources failed")

// TierFetcher loads the named models for one tier from one source.
type TierFetcher interface {
	LoadTier(ctx context.Context, source, tier string, models []string) error
}

type Options struct {
	Sources  []string      // tried in order, first is preferred
	Timeout  time.Duration // per-source attempt bound, DefaultTimeout when zero
	Critical []string      // models required before anything works
	Optional []string      // models that only enable demographics
}

// attempt is the shared handle for one in-flight acquisition. Everyone
// who calls EnsureReady while it runs waits on the same done channel and
// reads the same outcome.
type attempt struct {
	done chan struct{}
	err  error
}

// Loader drives tier acquisition. Safe for concurrent use; concurrent
// EnsureReady calls never start a second acquisition.
type Loader struct {
	fetcher  TierFetcher
	sources  []string
	timeout  time.Duration
	critical []string
	optional []string

	mu            sync.Mutex
	criticalReady bool
	optionalReady bool
	activeSource  string
	pending       *attempt
}

func New(fetcher TierFetcher, opts Options) *Loader {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Loader{
		fetcher:  fetcher,
		sources:  opts.Sources,
		timeout:  timeout,
		critical: opts.Critical,
		optional: opts.Optional,
	}
}

// EnsureReady makes sure the critical tier is loaded. It returns
// immediately when it already is, joins the in-flight acquisition when
// one is running, and otherwise starts one. The context only governs
// this caller's wait; the acquisition itself keeps running for the
// benefit of the other callers.
func (l *Loader) EnsureReady(ctx context.Context) error {
	l.mu.Lock()
	if l.criticalReady {
		l.mu.Unlock()
		return nil
	}
	a := l.pending
	if a == nil {
		a = &attempt{done: make(chan struct{})}
		l.pending = a
		go l.acquire(a)
	}
	l.mu.Unlock()

	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// acquire walks the source list for the critical tier. Each attempt gets
// its own timeout and runs on a background context: a caller giving up
// must not abort the acquisition other callers are waiting on.
func (l *Loader) acquire(a *attempt) {
	for _, source := range l.sources {
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		err := l.fetcher.LoadTier(ctx, source, TierCritical, l.critical)
		cancel()
		if err != nil {
			slog.Warn("loader: source failed for critical tier", "source", source, "error", err)
			continue
		}

		l.mu.Lock()
		l.criticalReady = true
		l.activeSource = source
		l.pending = nil
		l.mu.Unlock()

		slog.Info("loader: critical tier ready", "source", source)

		// The optional tier loads in the background against the same
		// source; its outcome never touches the success signal.
		go l.acquireOptional(source)

		close(a.done)
		return
	}

	l.mu.Lock()
	l.pending = nil
	l.mu.Unlock()

	slog.Error("loader: critical tier failed on every source", "sources", len(l.sources))
	a.err = ErrAllSourcesFailed
	close(a.done)
}

// acquireOptional loads the optional tier once per successful critical
// load. A failure only leaves the capability flag down; it is not
// retried until the next full acquisition.
func (l *Loader) acquireOptional(source string) {
	if len(l.optional) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	if err := l.fetcher.LoadTier(ctx, source, TierOptional, l.optional); err != nil {
		slog.Warn("loader: optional tier unavailable", "source", source, "error", err)
		return
	}

	l.mu.Lock()
	l.optionalReady = true
	l.mu.Unlock()

	slog.Info("loader: optional tier ready", "source", source)
}

// Ready reports whether the critical tier is loaded.
func (l *Loader) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.criticalReady
}

// OptionalReady reports whether the optional tier is loaded.
func (l *Loader) OptionalReady() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.optionalReady
}

// ActiveSource returns the source that served the critical tier, or an
// empty string while unloaded.
func (l *Loader) ActiveSource() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activeSource
}
