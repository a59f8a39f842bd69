package watcher

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/quack/internal/platform"
)

// stopAfterClock lets a fixed number of sleeps through, then cancels.
type stopAfterClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
	limit  int
	cancel context.CancelFunc
}

func (c *stopAfterClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	if len(c.sleeps) > c.limit {
		c.cancel()
	}
	c.mu.Unlock()
	return ctx.Err()
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Code.exe", "Code"},
		{"firefox", "firefox"},
		{".exe", ""},
		{"setup.exe.exe", "setup.exe"},
		{"Code.EXE", "Code.EXE"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func runWatcher(t *testing.T, samples []string, opts ...Option) ([]string, *stopAfterClock) {
	t.Helper()
	b := platform.NewMemoryBackend()
	b.QueueForeground(samples...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &stopAfterClock{limit: len(samples) - 1, cancel: cancel}

	w := New(b, append([]Option{WithClock(clock)}, opts...)...)
	var got []string
	err := w.Run(ctx, func(name string) { got = append(got, name) })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}
	return got, clock
}

func TestRun_ReportsChanges(t *testing.T) {
	tests := []struct {
		name    string
		samples []string
		want    []string
	}{
		{
			name:    "repeats suppressed and exe stripped",
			samples: []string{"Code.exe", "Code.exe", "firefox"},
			want:    []string{"Code", "firefox"},
		},
		{
			name:    "self name ignored",
			samples: []string{"quack", "quack.exe", "slack"},
			want:    []string{"slack"},
		},
		{
			name:    "empty and missing skipped",
			samples: []string{"", ".exe", "vim", "", "vim"},
			want:    []string{"vim"},
		},
		{
			name:    "returning to a previous app reports again",
			samples: []string{"a", "b", "a"},
			want:    []string{"a", "b", "a"},
		},
		{
			name:    "self does not reset last",
			samples: []string{"Code", "quack", "Code"},
			want:    []string{"Code"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := runWatcher(t, tt.samples)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("notified %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRun_SamplesImmediatelyThenEveryInterval(t *testing.T) {
	got, clock := runWatcher(t, []string{"first", "second", "third"})
	if !reflect.DeepEqual(got, []string{"first", "second", "third"}) {
		t.Fatalf("notified %v", got)
	}
	// Three samples, three sleeps: the last sleep is the one that is cancelled.
	if len(clock.sleeps) != 3 {
		t.Fatalf("sleeps = %d, want 3", len(clock.sleeps))
	}
	for _, d := range clock.sleeps {
		if d != PollInterval {
			t.Fatalf("sleep = %v, want %v", d, PollInterval)
		}
	}
}

func TestRun_CustomSelfName(t *testing.T) {
	got, _ := runWatcher(t, []string{"duck", "term"}, WithSelfName("duck"))
	if !reflect.DeepEqual(got, []string{"term"}) {
		t.Fatalf("notified %v", got)
	}
}

func TestWatchers_KeepIndependentState(t *testing.T) {
	b := platform.NewMemoryBackend()
	b.QueueForeground("Code")

	w1 := New(b)
	w2 := New(b)

	if name, ok := w1.Sample(); !ok || name != "Code" {
		t.Fatalf("w1 sample = %q, %v", name, ok)
	}
	if _, ok := w1.Sample(); ok {
		t.Fatal("w1 should suppress the repeat")
	}
	if name, ok := w2.Sample(); !ok || name != "Code" {
		t.Fatalf("w2 sample = %q, %v; state leaked between watchers", name, ok)
	}
	if w1.Last() != "Code" || w2.Last() != "Code" {
		t.Fatalf("Last = %q / %q", w1.Last(), w2.Last())
	}
}

func TestLast_ReadableWhileRunning(t *testing.T) {
	b := platform.NewMemoryBackend()
	b.QueueForeground("Code.exe", "firefox", "Code.exe", "firefox")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := &stopAfterClock{limit: 3, cancel: cancel}
	w := New(b, WithClock(clock))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, func(string) {})
	}()

	for {
		select {
		case <-done:
			if got := w.Last(); got != "firefox" {
				t.Fatalf("Last = %q, want firefox", got)
			}
			return
		default:
			switch got := w.Last(); got {
			case "", "Code", "firefox":
			default:
				t.Fatalf("Last = %q", got)
			}
		}
	}
}
