// Package dock parks the widget at the top-center of its monitor.
package dock

import (
	"context"
	"log/slog"

	"github.com/1broseidon/quack/internal/animate"
	"github.com/1broseidon/quack/internal/platform"
)

// Controller docks windows.
type Controller struct {
	stepper *animate.Stepper
	logger  *slog.Logger
}

// NewController creates a dock controller.
func NewController(stepper *animate.Stepper, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{stepper: stepper, logger: logger}
}

// TargetPosition returns where a window of the given size is docked on
// monitor. The x offset is relative to the monitor width only; the monitor
// origin is not added.
func TargetPosition(monitor platform.Display, size platform.Size) platform.Position {
	return platform.Position{
		X: max(0, (monitor.Bounds.Width-size.Width)/2),
		Y: 0,
	}
}

// Dock animates w to the top-center of its monitor. If the position, size
// or monitor cannot be read the call logs and does nothing.
func (c *Controller) Dock(ctx context.Context, w platform.Window) error {
	pos, err := w.Position()
	if err != nil {
		c.logger.Warn("dock skipped: position unavailable", "window", w.Name(), "error", err)
		return nil
	}
	size, err := w.Size()
	if err != nil {
		c.logger.Warn("dock skipped: size unavailable", "window", w.Name(), "error", err)
		return nil
	}
	monitor, err := w.Monitor()
	if err != nil {
		c.logger.Warn("dock skipped: monitor unavailable", "window", w.Name(), "error", err)
		return nil
	}

	target := TargetPosition(monitor, size)
	c.logger.Debug("docking window",
		"window", w.Name(),
		"monitor", monitor.Name,
		"from_x", pos.X, "from_y", pos.Y,
		"to_x", target.X, "to_y", target.Y,
	)
	return c.stepper.Move(ctx, w, pos, target, animate.DefaultSteps, animate.DefaultDelay)
}
