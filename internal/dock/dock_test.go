package dock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/quack/internal/animate"
	"github.com/1broseidon/quack/internal/platform"
)

func TestTargetPosition(t *testing.T) {
	tests := []struct {
		name    string
		monitor platform.Display
		size    platform.Size
		want    platform.Position
	}{
		{
			name:    "dot on full hd",
			monitor: platform.Display{Bounds: platform.Rect{Width: 1920, Height: 1080}},
			size:    platform.Size{Width: 20, Height: 20},
			want:    platform.Position{X: 950, Y: 0},
		},
		{
			name:    "restored widget",
			monitor: platform.Display{Bounds: platform.Rect{Width: 1920, Height: 1080}},
			size:    platform.Size{Width: 400, Height: 48},
			want:    platform.Position{X: 760, Y: 0},
		},
		{
			name:    "odd remainder truncates",
			monitor: platform.Display{Bounds: platform.Rect{Width: 1366, Height: 768}},
			size:    platform.Size{Width: 401, Height: 48},
			want:    platform.Position{X: 482, Y: 0},
		},
		{
			name:    "wider than monitor clamps to zero",
			monitor: platform.Display{Bounds: platform.Rect{Width: 300, Height: 200}},
			size:    platform.Size{Width: 400, Height: 48},
			want:    platform.Position{X: 0, Y: 0},
		},
		{
			name:    "monitor origin is ignored",
			monitor: platform.Display{Bounds: platform.Rect{X: 1920, Width: 1280, Height: 1024}},
			size:    platform.Size{Width: 20, Height: 20},
			want:    platform.Position{X: 630, Y: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TargetPosition(tt.monitor, tt.size); got != tt.want {
				t.Fatalf("TargetPosition = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDock_AnimatesToTopCenter(t *testing.T) {
	b := platform.NewMemoryBackend()
	w := b.AddWindow("magic-dot", platform.Position{X: 500, Y: 600}, platform.Size{Width: 20, Height: 20})
	clock := &animate.RecordingClock{}
	c := NewController(animate.NewStepper(clock, nil), nil)

	if err := c.Dock(context.Background(), w); err != nil {
		t.Fatalf("Dock: %v", err)
	}

	got, _ := w.Position()
	if got != (platform.Position{X: 950, Y: 0}) {
		t.Fatalf("final position = %+v, want (950,0)", got)
	}

	history := w.PositionHistory()
	if len(history) != 11 {
		t.Fatalf("expected 10 frames plus final, got %d", len(history))
	}
	if history[0] != (platform.Position{X: 545, Y: 540}) {
		t.Fatalf("first frame = %+v", history[0])
	}

	sleeps := clock.Sleeps()
	if len(sleeps) != 10 {
		t.Fatalf("expected 10 frame delays, got %d", len(sleeps))
	}
	for _, d := range sleeps {
		if d != 10*time.Millisecond {
			t.Fatalf("frame delay = %v", d)
		}
	}
}

func TestDock_MissingGeometryIsNoop(t *testing.T) {
	tests := []struct {
		name string
		arm  func(w *platform.MemoryWindow)
	}{
		{"position", func(w *platform.MemoryWindow) { w.FailNextPosition(1) }},
		{"size", func(w *platform.MemoryWindow) { w.FailNextSize(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := platform.NewMemoryBackend()
			w := b.AddWindow("magic-dot", platform.Position{X: 10, Y: 10}, platform.Size{Width: 20, Height: 20})
			tt.arm(w)

			c := NewController(animate.NewStepper(&animate.RecordingClock{}, nil), nil)
			if err := c.Dock(context.Background(), w); err != nil {
				t.Fatalf("Dock: %v", err)
			}
			if got := w.PositionHistory(); len(got) != 0 {
				t.Fatalf("expected no moves, got %v", got)
			}
		})
	}
}

func TestDock_NoMonitorIsNoop(t *testing.T) {
	b := platform.NewMemoryBackend()
	w := b.AddWindow("magic-dot", platform.Position{X: 5000, Y: 5000}, platform.Size{Width: 20, Height: 20})

	if _, err := w.Monitor(); !errors.Is(err, platform.ErrNoMonitor) {
		t.Fatalf("precondition: Monitor err = %v", err)
	}

	c := NewController(animate.NewStepper(&animate.RecordingClock{}, nil), nil)
	if err := c.Dock(context.Background(), w); err != nil {
		t.Fatalf("Dock: %v", err)
	}
	if got := w.PositionHistory(); len(got) != 0 {
		t.Fatalf("expected no moves, got %v", got)
	}
}

func TestDock_CancelledStillLandsOnTarget(t *testing.T) {
	b := platform.NewMemoryBackend()
	w := b.AddWindow("magic-dot", platform.Position{X: 0, Y: 500}, platform.Size{Width: 20, Height: 20})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewController(animate.NewStepper(&animate.RecordingClock{}, nil), nil)
	if err := c.Dock(ctx, w); !errors.Is(err, context.Canceled) {
		t.Fatalf("Dock err = %v, want context.Canceled", err)
	}
	got, _ := w.Position()
	if got != (platform.Position{X: 950, Y: 0}) {
		t.Fatalf("final position = %+v", got)
	}
}
