package animate

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts sleeping so animations and poll loops can be driven
// without wall-clock delays in tests.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SystemClock is the default clock implementation.
var SystemClock Clock = realClock{}

// RecordingClock returns immediately from Sleep and remembers every
// requested duration. It still honors context cancellation.
type RecordingClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

// Sleep implements Clock.
func (c *RecordingClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	return nil
}

// Sleeps returns the recorded durations in call order.
func (c *RecordingClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}
