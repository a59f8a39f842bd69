// Package animate moves and resizes windows with fixed-step linear
// interpolation.
package animate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/quack/internal/platform"
)

const (
	// DefaultSteps is the frame count used by every widget animation.
	DefaultSteps = 10
	// DefaultDelay is the pause after each frame.
	DefaultDelay = 10 * time.Millisecond
)

// Sizer is the part of a window a resize animation writes to.
type Sizer interface {
	SetSize(platform.Size) error
}

// Mover is the part of a window a move animation writes to.
type Mover interface {
	SetPosition(platform.Position) error
}

// Stepper runs stepped animations.
type Stepper struct {
	clock  Clock
	logger *slog.Logger
}

// NewStepper creates a Stepper. A nil clock uses SystemClock and a nil
// logger uses slog.Default().
func NewStepper(clock Clock, logger *slog.Logger) *Stepper {
	if clock == nil {
		clock = SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Stepper{clock: clock, logger: logger}
}

// Resize animates w from one size to another. Intermediate frames are
// clamped to at least 1x1.
func (s *Stepper) Resize(ctx context.Context, w Sizer, from, to platform.Size, steps int, delay time.Duration) error {
	frame := func(i int) error {
		return w.SetSize(platform.Size{
			Width:  max(Interpolate(from.Width, to.Width, steps, i), 1),
			Height: max(Interpolate(from.Height, to.Height, steps, i), 1),
		})
	}
	final := func() error { return w.SetSize(to) }
	return s.run(ctx, "resize", steps, delay, frame, final)
}

// Move animates w from one position to another.
func (s *Stepper) Move(ctx context.Context, w Mover, from, to platform.Position, steps int, delay time.Duration) error {
	frame := func(i int) error {
		return w.SetPosition(platform.Position{
			X: Interpolate(from.X, to.X, steps, i),
			Y: Interpolate(from.Y, to.Y, steps, i),
		})
	}
	final := func() error { return w.SetPosition(to) }
	return s.run(ctx, "move", steps, delay, frame, final)
}

// run drives frames 1..steps and always finishes with the exact target, even
// when ctx is cancelled part way through.
func (s *Stepper) run(ctx context.Context, kind string, steps int, delay time.Duration, frame func(int) error, final func() error) error {
	var interrupted error
	for i := 1; i <= steps; i++ {
		if err := frame(i); err != nil {
			s.logger.Debug("animation frame dropped", "kind", kind, "step", i, "error", err)
		}
		if err := s.clock.Sleep(ctx, delay); err != nil {
			interrupted = err
			break
		}
	}

	if err := final(); err != nil {
		return fmt.Errorf("%s: failed to apply final frame: %w", kind, err)
	}
	return interrupted
}

// Interpolate returns the value at step i of a steps-long linear animation.
// The per-step delta is truncated, so the result at i == steps can differ
// from to; callers apply to explicitly afterwards. steps <= 0 yields to.
func Interpolate(from, to, steps, i int) int {
	if steps <= 0 {
		return to
	}
	return from + (to-from)/steps*i
}
