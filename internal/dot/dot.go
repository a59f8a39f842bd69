// Package dot owns the magic-dot widget and exposes the operations the
// visual layer can invoke on it.
package dot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/quack/internal/animate"
	"github.com/1broseidon/quack/internal/dock"
	"github.com/1broseidon/quack/internal/follow"
	"github.com/1broseidon/quack/internal/platform"
	"github.com/1broseidon/quack/internal/signals"
	"github.com/1broseidon/quack/internal/watcher"
)

const (
	// DefaultWidgetWindow is the name of the widget window.
	DefaultWidgetWindow = "magic-dot"
	// DefaultHostWindow is the name of the onboarding host window.
	DefaultHostWindow = "main"
)

var (
	// ErrBusy is returned when another operation is already moving or
	// resizing the widget.
	ErrBusy = errors.New("widget is busy")
	// ErrClosed is returned once Shutdown has been called.
	ErrClosed = errors.New("dot controller is shut down")
)

// Options configures a Controller. Zero values select the defaults.
type Options struct {
	WidgetWindow string
	HostWindow   string
	SelfName     string
	// AnimationClock paces animation frames and the follow loop.
	AnimationClock animate.Clock
	// PollClock paces active window watchers.
	PollClock animate.Clock
	Logger    *slog.Logger
}

// Status is a snapshot of the controller.
type Status struct {
	FollowState string `json:"follow_state"`
	Busy        bool   `json:"busy"`
	Watchers    int    `json:"watchers"`
	// ActiveWindow is the last application reported by the newest watcher.
	ActiveWindow string        `json:"active_window,omitempty"`
	Uptime       time.Duration `json:"uptime"`
}

// Controller serializes geometry writes to the widget and tracks every
// background task it starts so Shutdown can join them.
type Controller struct {
	backend platform.Backend
	emitter signals.Emitter
	opts    Options
	logger  *slog.Logger

	stepper *animate.Stepper
	follow  *follow.Controller
	dock    *dock.Controller

	// guard holds one token; whoever takes it may write widget geometry.
	guard chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	tasks    sync.WaitGroup
	watchers atomic.Int32
	newest   atomic.Pointer[watcher.Watcher]
	started  time.Time
}

// New creates a controller for the widget managed by backend.
func New(backend platform.Backend, emitter signals.Emitter, opts Options) *Controller {
	if opts.WidgetWindow == "" {
		opts.WidgetWindow = DefaultWidgetWindow
	}
	if opts.HostWindow == "" {
		opts.HostWindow = DefaultHostWindow
	}
	if opts.SelfName == "" {
		opts.SelfName = watcher.SelfName
	}
	if opts.AnimationClock == nil {
		opts.AnimationClock = animate.SystemClock
	}
	if opts.PollClock == nil {
		opts.PollClock = animate.SystemClock
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stepper := animate.NewStepper(opts.AnimationClock, logger.With("component", "animate"))
	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		backend: backend,
		emitter: emitter,
		opts:    opts,
		logger:  logger,
		stepper: stepper,
		follow:  follow.NewController(stepper, backend, emitter, opts.AnimationClock, logger.With("component", "follow")),
		dock:    dock.NewController(stepper, logger.With("component", "dock")),
		guard:   make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		started: time.Now(),
	}
	c.guard <- struct{}{}
	return c
}

func (c *Controller) acquire() bool {
	select {
	case <-c.guard:
		return true
	default:
		return false
	}
}

func (c *Controller) release() {
	c.guard <- struct{}{}
}

// spawn runs fn on a tracked goroutine with the controller's task context.
func (c *Controller) spawn(fn func(ctx context.Context)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.tasks.Add(1)
	go func() {
		defer c.tasks.Done()
		fn(c.ctx)
	}()
	return nil
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) widget() (platform.Window, error) {
	w, err := c.backend.Window(c.opts.WidgetWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to find widget window: %w", err)
	}
	return w, nil
}

// Follow shrinks the widget into a dot and starts the follow loop in the
// background. It returns once the shrink animation has finished.
func (c *Controller) Follow(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}
	w, err := c.widget()
	if err != nil {
		c.logger.Warn("follow ignored", "error", err)
		return err
	}
	if !c.acquire() {
		c.logger.Warn("follow rejected: widget busy")
		return ErrBusy
	}

	if err := c.follow.Enter(ctx, w); err != nil {
		c.release()
		if errors.Is(err, follow.ErrActive) {
			return ErrBusy
		}
		c.logger.Warn("follow mode failed to start", "error", err)
		return err
	}

	err = c.spawn(func(taskCtx context.Context) {
		defer c.release()
		if err := c.follow.Run(taskCtx, w); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Warn("follow loop ended", "error", err)
		}
	})
	if err != nil {
		// Shut down between Enter and spawn: put the widget back.
		c.follow.Abort(w)
		c.release()
		return err
	}
	return nil
}

// Pin docks the widget at the top-center of its monitor.
func (c *Controller) Pin(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}
	w, err := c.widget()
	if err != nil {
		c.logger.Warn("pin ignored", "error", err)
		return err
	}
	if !c.acquire() {
		c.logger.Warn("pin rejected: widget busy")
		return ErrBusy
	}
	defer c.release()

	return c.dock.Dock(ctx, w)
}

// StartWatch starts a new active window watcher. Every call starts another
// independent watcher.
func (c *Controller) StartWatch() error {
	w := watcher.New(c.backend,
		watcher.WithClock(c.opts.PollClock),
		watcher.WithSelfName(c.opts.SelfName),
		watcher.WithLogger(c.logger.With("component", "watcher")),
	)
	n := c.watchers.Add(1)
	err := c.spawn(func(ctx context.Context) {
		defer c.watchers.Add(-1)
		_ = w.Run(ctx, func(name string) {
			c.emitter.Emit(signals.ActiveWindowChanged, name)
		})
	})
	if err != nil {
		c.watchers.Add(-1)
		return err
	}
	c.newest.Store(w)
	c.logger.Debug("watcher started", "watchers", n)
	return nil
}

// CloseOnboarding closes the host window.
func (c *Controller) CloseOnboarding() error {
	w, err := c.backend.Window(c.opts.HostWindow)
	if err != nil {
		c.logger.Warn("close onboarding ignored", "window", c.opts.HostWindow, "error", err)
		return fmt.Errorf("failed to find host window: %w", err)
	}
	if err := w.Close(); err != nil {
		c.logger.Warn("failed to close host window", "window", c.opts.HostWindow, "error", err)
		return err
	}
	c.logger.Info("onboarding window closed", "window", c.opts.HostWindow)
	return nil
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	busy := len(c.guard) == 0
	st := Status{
		FollowState: c.follow.State().String(),
		Busy:        busy,
		Watchers:    int(c.watchers.Load()),
		Uptime:      time.Since(c.started),
	}
	if w := c.newest.Load(); w != nil {
		st.ActiveWindow = w.Last()
	}
	return st
}

// Displays lists the monitors known to the backend.
func (c *Controller) Displays() ([]platform.Display, error) {
	return c.backend.Displays()
}

// Shutdown cancels every background task and waits for them to finish or
// for ctx to expire.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background tasks: %w", ctx.Err())
	}
}
