package daemon

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/1broseidon/quack/internal/platform"
)

// WindowLookup resolves a window by name.
type WindowLookup interface {
	Window(name string) (platform.Window, error)
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Windows  []string
	Logger   *slog.Logger
}

// Reconciler periodically checks that the windows the daemon drives still
// exist and logs when one appears or disappears.
type Reconciler struct {
	interval time.Duration
	names    []string
	lookup   WindowLookup
	logger   *slog.Logger

	mu      sync.Mutex
	present map[string]bool
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, lookup WindowLookup) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		interval: interval,
		names:    cfg.Windows,
		lookup:   lookup,
		logger:   logger,
		present:  make(map[string]bool),
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	for _, name := range r.names {
		_, err := r.lookup.Window(name)
		found := err == nil

		r.mu.Lock()
		was, seen := r.present[name]
		r.present[name] = found
		r.mu.Unlock()

		switch {
		case found && (!seen || !was):
			r.logger.Info("reconciler: window present", "window", name)
		case !found && (!seen || was):
			r.logger.Warn("reconciler: window missing", "window", name, "error", err)
		}
	}
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow() {
	r.reconcile()
}

// Missing returns the names not found by the last pass, sorted.
func (r *Reconciler) Missing() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for name, ok := range r.present {
		if !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
