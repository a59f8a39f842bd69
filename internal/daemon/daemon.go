// Package daemon wires the widget controller, IPC server, hotkeys and
// reconciler into one long-running process.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/1broseidon/quack/internal/animate"
	"github.com/1broseidon/quack/internal/config"
	"github.com/1broseidon/quack/internal/dot"
	"github.com/1broseidon/quack/internal/follow"
	"github.com/1broseidon/quack/internal/hotkeys"
	"github.com/1broseidon/quack/internal/ipc"
	"github.com/1broseidon/quack/internal/platform"
	"github.com/1broseidon/quack/internal/signals"
)

// shutdownTimeout bounds how long Run waits for background tasks on exit.
const shutdownTimeout = 5 * time.Second

// eventLooper is implemented by backends that need an event loop to deliver
// hotkeys.
type eventLooper interface {
	EventLoop()
	QuitEventLoop()
}

// Options configures a Daemon.
type Options struct {
	Config  *config.Config
	Backend platform.Backend
	// SocketPath overrides the runtime socket location.
	SocketPath string
	// PIDFile, when set, receives the daemon's pid while it runs.
	PIDFile string
	// AnimationClock and PollClock override the controller clocks.
	AnimationClock    animate.Clock
	PollClock         animate.Clock
	ReconcileInterval time.Duration
	Logger            *slog.Logger
}

// Daemon owns every long-lived component.
type Daemon struct {
	cfg        *config.Config
	backend    platform.Backend
	bus        *signals.Bus
	ctrl       *dot.Controller
	server     *ipc.Server
	reconciler *Reconciler
	pidFile    string
	logger     *slog.Logger
}

// New builds a daemon. Nothing runs until Run.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil {
		return nil, errors.New("daemon: config is required")
	}
	if opts.Backend == nil {
		return nil, errors.New("daemon: backend is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config

	bus := signals.NewBus(logger.With("component", "signals"))
	ctrl := dot.New(opts.Backend, bus, dot.Options{
		WidgetWindow:   cfg.WidgetWindow,
		HostWindow:     cfg.HostWindow,
		SelfName:       cfg.SelfProcess,
		AnimationClock: opts.AnimationClock,
		PollClock:      opts.PollClock,
		Logger:         logger,
	})

	server, err := ipc.NewServer(opts.SocketPath, ctrl, bus, logger.With("component", "ipc"))
	if err != nil {
		return nil, err
	}

	reconciler := NewReconciler(ReconcilerConfig{
		Interval: opts.ReconcileInterval,
		Windows:  []string{cfg.WidgetWindow, cfg.HostWindow},
		Logger:   logger.With("component", "reconciler"),
	}, opts.Backend)
	server.SetMissingWindows(reconciler.Missing)

	return &Daemon{
		cfg:        cfg,
		backend:    opts.Backend,
		bus:        bus,
		ctrl:       ctrl,
		server:     server,
		reconciler: reconciler,
		pidFile:    opts.PIDFile,
		logger:     logger,
	}, nil
}

// Controller returns the widget controller.
func (d *Daemon) Controller() *dot.Controller { return d.ctrl }

// Bus returns the signal bus.
func (d *Daemon) Bus() *signals.Bus { return d.bus }

// SocketPath returns the IPC socket path.
func (d *Daemon) SocketPath() string { return d.server.SocketPath() }

// Run serves until ctx is cancelled, then stops the IPC server and joins
// every background task.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.writePIDFile(); err != nil {
		return err
	}
	defer d.removePIDFile()

	if err := d.server.Start(); err != nil {
		return err
	}
	defer d.server.Stop()

	// Run an immediate pass so GET_STATUS is accurate from the start.
	d.reconciler.ReconcileNow()
	reconcilerCtx, reconcilerCancel := context.WithCancel(ctx)
	defer reconcilerCancel()
	go d.reconciler.Run(reconcilerCtx)

	if d.cfg.WatchOnStart {
		if err := d.ctrl.StartWatch(); err != nil {
			d.logger.Warn("failed to start window watcher", "error", err)
		}
	}

	d.registerHotkeys(ctx)

	if looper, ok := d.backend.(eventLooper); ok {
		go looper.EventLoop()
		defer looper.QuitEventLoop()
	}

	d.logger.Info("quack daemon started", "socket", d.server.SocketPath(), "widget", d.cfg.WidgetWindow)
	<-ctx.Done()
	d.logger.Info("shutting down quack daemon")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.ctrl.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("daemon shutdown: %w", err)
	}
	return nil
}

func (d *Daemon) registerHotkeys(ctx context.Context) {
	bindings := hotkeys.Bindings(d.ctrl, d.cfg.FollowHotkey, d.cfg.PinHotkey)
	if len(bindings) == 0 {
		return
	}
	handler, err := hotkeys.NewHandler(ctx, d.backend, d.logger.With("component", "hotkeys"))
	if err != nil {
		if errors.Is(err, platform.ErrUnsupported) {
			d.logger.Info("global hotkeys unavailable on this backend")
			return
		}
		d.logger.Warn("failed to initialize hotkeys", "error", err)
		return
	}
	if err := handler.Register(bindings); err != nil {
		d.logger.Warn("failed to register hotkeys", "error", err)
	}
}

func (d *Daemon) writePIDFile() error {
	if d.pidFile == "" {
		return nil
	}
	if err := os.WriteFile(d.pidFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	return nil
}

func (d *Daemon) removePIDFile() {
	if d.pidFile != "" {
		os.Remove(d.pidFile)
	}
}

// NewHeadlessBackend returns an in-memory desktop holding the widget at
// its docked position and the host window, for running without a display.
func NewHeadlessBackend(cfg *config.Config) *platform.MemoryBackend {
	b := platform.NewMemoryBackend()
	b.AddWindow(cfg.WidgetWindow, platform.Position{X: 760, Y: 0}, follow.RestoredSize)
	b.AddWindow(cfg.HostWindow, platform.Position{X: 560, Y: 240}, platform.Size{Width: 800, Height: 600})
	b.SetPointer(platform.Position{X: 960, Y: 540})
	return b
}
