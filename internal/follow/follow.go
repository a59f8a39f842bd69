// Package follow implements follow mode: the widget shrinks into a dot,
// chases the cursor with a lagging spring, and expands again once the
// cursor reaches it.
package follow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/1broseidon/quack/internal/animate"
	"github.com/1broseidon/quack/internal/platform"
	"github.com/1broseidon/quack/internal/signals"
)

var (
	// DotSize is the collapsed widget size.
	DotSize = platform.Size{Width: 20, Height: 20}
	// RestoredSize is the size the widget expands back to.
	RestoredSize = platform.Size{Width: 400, Height: 48}
	// fallbackSize is used as the expand start when the dot size cannot be read.
	fallbackSize = platform.Size{Width: 10, Height: 10}
)

const (
	// TickInterval is the pause between follow-loop iterations.
	TickInterval = 4 * time.Millisecond
	// ExitDistance is the distance below which follow mode ends.
	ExitDistance = 20.0
	// PursuitDistance is the distance above which the dot moves.
	PursuitDistance = 40.0
	// PursuitGain is the fraction of the remaining distance covered per tick.
	PursuitGain = 0.15
)

// ErrActive is returned by Enter when follow mode is already running.
var ErrActive = errors.New("follow mode already active")

// Controller drives one widget through follow mode.
type Controller struct {
	stepper *animate.Stepper
	pointer platform.Pointer
	emitter signals.Emitter
	clock   animate.Clock
	logger  *slog.Logger

	state atomic.Int32
}

// NewController creates a follow-mode controller. clock paces the follow
// loop; the stepper has its own clock for animation frames.
func NewController(stepper *animate.Stepper, pointer platform.Pointer, emitter signals.Emitter, clock animate.Clock, logger *slog.Logger) *Controller {
	if clock == nil {
		clock = animate.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		stepper: stepper,
		pointer: pointer,
		emitter: emitter,
		clock:   clock,
		logger:  logger,
	}
}

// State returns the current phase.
func (c *Controller) State() State {
	return State(c.state.Load())
}

func (c *Controller) setState(s State) {
	old := State(c.state.Swap(int32(s)))
	if old != s {
		c.logger.Debug("follow state changed", "from", old, "to", s)
	}
}

// Enter shrinks w into a dot and leaves the controller in StateFollowing.
// It blocks until the shrink animation has finished. Callers then run Run,
// usually on its own goroutine.
func (c *Controller) Enter(ctx context.Context, w platform.Window) error {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateShrinking)) {
		return ErrActive
	}
	c.logger.Debug("follow state changed", "from", StateIdle, "to", StateShrinking)

	current, err := w.Size()
	if err != nil {
		c.setState(StateIdle)
		return fmt.Errorf("failed to read widget size: %w", err)
	}

	if err := c.stepper.Resize(ctx, w, current, DotSize, animate.DefaultSteps, animate.DefaultDelay); err != nil {
		if ctx.Err() != nil {
			// Undo the collapse applied by the final frame.
			c.logger.Info("follow mode cancelled during shrink", "window", w.Name())
			c.expand(context.WithoutCancel(ctx), w)
			c.setState(StateIdle)
			return err
		}
		c.logger.Warn("shrink animation incomplete", "window", w.Name(), "error", err)
	}

	c.setState(StateFollowing)
	return nil
}

// Run chases the cursor until it comes within ExitDistance of the dot's
// center, then expands the widget and emits ExitFollowMode followed by
// OnboardingDone. If ctx is cancelled first, the widget is restored and no
// signals are emitted. Run must only be called after a successful Enter.
func (c *Controller) Run(ctx context.Context, w platform.Window) error {
	if c.State() != StateFollowing {
		return fmt.Errorf("follow loop started in state %s", c.State())
	}

	for {
		if c.tick(w) {
			break
		}
		if err := c.clock.Sleep(ctx, TickInterval); err != nil {
			c.logger.Info("follow mode cancelled", "window", w.Name())
			c.expand(context.WithoutCancel(ctx), w)
			c.setState(StateIdle)
			return err
		}
	}

	c.setState(StateExpanding)
	c.expand(context.WithoutCancel(ctx), w)

	c.logger.Info("emitting follow mode exit", "window", w.Name())
	c.emitter.Emit(signals.ExitFollowMode, "")
	c.emitter.Emit(signals.OnboardingDone, "")

	c.setState(StateIdle)
	return nil
}

// Abort undoes a successful Enter whose follow loop will never run: the
// widget is expanded back and the controller returns to StateIdle.
func (c *Controller) Abort(w platform.Window) {
	if c.State() != StateFollowing {
		return
	}
	c.expand(context.Background(), w)
	c.setState(StateIdle)
}

// tick performs one iteration and reports whether the exit zone was reached.
// Failed reads skip the tick.
func (c *Controller) tick(w platform.Window) bool {
	pointer, err := c.pointer.PointerPosition()
	if err != nil {
		c.logger.Debug("pointer sample failed", "error", err)
		return false
	}
	pos, err := w.Position()
	if err != nil {
		c.logger.Debug("widget position read failed", "window", w.Name(), "error", err)
		return false
	}

	t := Step(pos, pointer)
	switch t.Zone {
	case ZoneExit:
		c.logger.Debug("cursor reached dot", "distance", t.Distance)
		return true
	case ZonePursuit:
		if err := w.SetPosition(t.Next); err != nil {
			c.logger.Debug("follow move dropped", "window", w.Name(), "error", err)
		}
	}
	return false
}

func (c *Controller) expand(ctx context.Context, w platform.Window) {
	current, err := w.Size()
	if err != nil {
		current = fallbackSize
	}
	if err := c.stepper.Resize(ctx, w, current, RestoredSize, animate.DefaultSteps, animate.DefaultDelay); err != nil {
		c.logger.Warn("expand animation incomplete", "window", w.Name(), "error", err)
	}
}
