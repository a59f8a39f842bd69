// Package watcher reports changes of the foreground application.
package watcher

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/quack/internal/animate"
	"github.com/1broseidon/quack/internal/platform"
)

const (
	// PollInterval is the time between foreground samples.
	PollInterval = 1000 * time.Millisecond
	// SelfName is the process name of the widget itself.
	SelfName = "quack"
)

// NormalizeName strips a trailing ".exe" from a process name.
func NormalizeName(name string) string {
	return strings.TrimSuffix(name, ".exe")
}

// Watcher polls a ForegroundSource and reports each new foreground application
// once. Every Watcher keeps its own last-seen name.
type Watcher struct {
	source   platform.ForegroundSource
	clock    animate.Clock
	logger   *slog.Logger
	selfName string
	interval time.Duration

	mu   sync.Mutex
	last string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithClock overrides the clock pacing the poll loop.
func WithClock(c animate.Clock) Option {
	return func(w *Watcher) { w.clock = c }
}

// WithSelfName overrides the name ignored as the widget's own process.
func WithSelfName(name string) Option {
	return func(w *Watcher) { w.selfName = name }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New creates a watcher over source.
func New(source platform.ForegroundSource, opts ...Option) *Watcher {
	w := &Watcher{
		source:   source,
		clock:    animate.SystemClock,
		logger:   slog.Default(),
		selfName: SelfName,
		interval: PollInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Last returns the most recently reported name. It is safe to call while
// Run is active.
func (w *Watcher) Last() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Sample takes one reading and returns the name to report, if any.
func (w *Watcher) Sample() (string, bool) {
	raw, ok := w.source.ForegroundProcess()
	if !ok {
		return "", false
	}
	name := NormalizeName(raw)

	w.mu.Lock()
	defer w.mu.Unlock()
	if name == "" || name == w.last || name == w.selfName {
		return "", false
	}
	w.last = name
	return name, true
}

// Run samples immediately and then once per interval, calling notify for
// every change, until ctx is cancelled. Run must not be called concurrently
// on the same Watcher.
func (w *Watcher) Run(ctx context.Context, notify func(name string)) error {
	w.logger.Info("active window watcher started", "interval", w.interval)
	defer w.logger.Info("active window watcher stopped")

	for {
		if name, ok := w.Sample(); ok {
			w.logger.Debug("active window changed", "name", name)
			notify(name)
		}
		if err := w.clock.Sleep(ctx, w.interval); err != nil {
			return err
		}
	}
}
