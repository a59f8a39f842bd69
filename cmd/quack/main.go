package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/quack/internal/config"
	"github.com/1broseidon/quack/internal/daemon"
	"github.com/1broseidon/quack/internal/ipc"
	"github.com/1broseidon/quack/internal/platform"
	"github.com/1broseidon/quack/internal/runtimepath"
	"github.com/dustin/go-humanize"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "follow":
		os.Exit(runSimple("follow", "Shrink the widget into a dot that follows the cursor.", os.Args[2:], func(c *ipc.Client) error { return c.Follow() }))
	case "pin":
		os.Exit(runSimple("pin", "Dock the widget at the top-center of its monitor.", os.Args[2:], func(c *ipc.Client) error { return c.Pin() }))
	case "watch":
		os.Exit(runSimple("watch", "Start reporting foreground application changes.", os.Args[2:], func(c *ipc.Client) error { return c.StartWatch() }))
	case "close-onboarding":
		os.Exit(runSimple("close-onboarding", "Close the onboarding host window.", os.Args[2:], func(c *ipc.Client) error { return c.CloseOnboarding() }))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "monitors":
		os.Exit(runMonitors(os.Args[2:]))
	case "events":
		os.Exit(runEvents(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: quack <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the quack daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  monitors            List monitors known to the daemon")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  follow              Enter follow mode")
	fmt.Fprintln(w, "  pin                 Dock the widget at the top of the screen")
	fmt.Fprintln(w, "  watch               Start an active window watcher")
	fmt.Fprintln(w, "  close-onboarding    Close the onboarding window")
	fmt.Fprintln(w, "  events              Stream widget signals")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "  config tui          Edit configuration interactively")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'quack <command> --help' for command-specific options.")
}

// runSimple handles the argument-less commands that forward one IPC call.
func runSimple(name, summary string, args []string, call func(*ipc.Client) error) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quack %s\n\n%s\n", name, summary)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return 2
	}

	if err := call(ipc.NewClient()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: quack status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("follow_state:   %s\n", status.FollowState)
	fmt.Printf("busy:           %v\n", status.Busy)
	fmt.Printf("watchers:       %d\n", status.Watchers)
	fmt.Printf("subscribers:    %d\n", status.Subscribers)
	if status.ActiveWindow != "" {
		fmt.Printf("active_window:  %s\n", status.ActiveWindow)
	}
	started := time.Now().Add(-time.Duration(status.UptimeSeconds) * time.Second)
	fmt.Printf("uptime_seconds: %d (started %s)\n", status.UptimeSeconds, humanize.Time(started))
	for _, name := range status.MissingWindows {
		fmt.Printf("missing_window: %s\n", name)
	}
	return 0
}

func runMonitors(args []string) int {
	fs := flag.NewFlagSet("monitors", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	data, err := ipc.NewClient().GetMonitors()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, m := range data.Monitors {
		fmt.Printf("%d\t%s\t%dx%d+%d+%d\n", m.ID, m.Name, m.Width, m.Height, m.X, m.Y)
	}
	return 0
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	headless := fs.Bool("headless", false, "Run against an in-memory desktop instead of the display server")
	configPath := fs.String("config", "", "Config file path (default: ~/.config/quack/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: quack daemon [--headless] [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	res, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := res.Config

	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var backend platform.Backend
	if *headless {
		backend = daemon.NewHeadlessBackend(cfg)
		log.Println("Running headless with an in-memory desktop")
	} else {
		if cfg.XAuthority != "" {
			os.Setenv("XAUTHORITY", cfg.XAuthority)
		}
		native, cleanup, err := platform.NewNativeBackend(cfg.Display)
		if err != nil {
			log.Fatalf("Failed to connect to display: %v", err)
		}
		defer cleanup()
		backend = native
	}

	pidFile, err := runtimepath.PIDPath()
	if err != nil {
		log.Printf("Warning: no pid file: %v", err)
		pidFile = ""
	}

	d, err := daemon.New(daemon.Options{
		Config:  cfg,
		Backend: backend,
		PIDFile: pidFile,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("Failed to create daemon: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				// Only the log level can change without a restart.
				newRes, err := loadConfig(*configPath)
				if err != nil {
					log.Printf("Config reload failed: %v", err)
					continue
				}
				level.Set(newRes.Config.SlogLevel())
				log.Printf("Log level set to %s", newRes.Config.LogLevel)
			default:
				cancel()
				return
			}
		}
	}()

	if err := d.Run(ctx); err != nil {
		log.Printf("Daemon exited with error: %v", err)
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}
