package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/quack/internal/ipc"
	"github.com/1broseidon/quack/internal/signals"
	"golang.org/x/term"
)

func runEvents(args []string) int {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print one JSON object per signal (default when stdout is not a terminal)")
	count := fs.Int("n", 0, "Exit after this many signals (0 = until interrupted)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: quack events [--json] [-n COUNT]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Stream signals emitted by the widget core.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *count < 0 {
		fmt.Fprintln(os.Stderr, "-n must be >= 0")
		return 2
	}

	pretty := !*asJSON && term.IsTerminal(int(os.Stdout.Fd()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	seen := 0
	var writeErr error
	err := ipc.NewClient().Subscribe(ctx, func(sig signals.Signal) {
		if writeErr != nil {
			return
		}
		writeErr = printSignal(os.Stdout, sig, pretty)
		seen++
		if writeErr != nil || (*count > 0 && seen >= *count) {
			cancel()
		}
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if writeErr != nil {
		fmt.Fprintln(os.Stderr, writeErr)
		return 1
	}
	return 0
}

func printSignal(w io.Writer, sig signals.Signal, pretty bool) error {
	if !pretty {
		return json.NewEncoder(w).Encode(sig)
	}
	line := fmt.Sprintf("%s  %s", sig.Time.Local().Format("15:04:05.000"), sig.Name)
	if sig.Payload != "" {
		line += "  " + sig.Payload
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
