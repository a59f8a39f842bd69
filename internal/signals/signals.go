// Package signals carries lifecycle notifications from the widget core to
// whatever is rendering it.
package signals

import (
	"log/slog"
	"sync"
	"time"
)

// Signal names understood by the visual layer.
const (
	ExitFollowMode      = "exit_follow_mode"
	OnboardingDone      = "onboarding_done"
	ActiveWindowChanged = "active_window_changed"
)

// Signal is a single fire-and-forget notification.
type Signal struct {
	Name    string    `json:"name"`
	Payload string    `json:"payload,omitempty"`
	Time    time.Time `json:"time"`
}

// Emitter delivers signals. Implementations must not block the caller for
// long; the core emits from animation and poll goroutines.
type Emitter interface {
	Emit(name, payload string)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(name, payload string)

// Emit implements Emitter.
func (f EmitterFunc) Emit(name, payload string) { f(name, payload) }

// DefaultBufferSize is the per-subscriber queue length used by NewBus.
const DefaultBufferSize = 64

// Bus fans signals out to any number of subscribers. A subscriber whose
// queue is full misses the signal rather than stalling the emitter.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan Signal
	nextID int
	buffer int
	logger *slog.Logger
	now    func() time.Time
}

var _ Emitter = (*Bus)(nil)

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subs:   make(map[int]chan Signal),
		buffer: DefaultBufferSize,
		logger: logger,
		now:    time.Now,
	}
}

// Subscribe registers a new subscriber. The returned cancel function
// unregisters it and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe() (<-chan Signal, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Signal, b.buffer)
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of live subscribers.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Emit implements Emitter.
func (b *Bus) Emit(name, payload string) {
	sig := Signal{Name: name, Payload: payload, Time: b.now()}

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- sig:
		default:
			b.logger.Warn("signal dropped for slow subscriber", "subscriber", id, "signal", name)
		}
	}
	b.logger.Debug("signal emitted", "signal", name, "payload", payload, "subscribers", len(b.subs))
}

// Recorder keeps every emitted signal in memory.
type Recorder struct {
	mu      sync.Mutex
	signals []Signal
}

var _ Emitter = (*Recorder)(nil)

// Emit implements Emitter.
func (r *Recorder) Emit(name, payload string) {
	r.mu.Lock()
	r.signals = append(r.signals, Signal{Name: name, Payload: payload, Time: time.Now()})
	r.mu.Unlock()
}

// Signals returns a copy of the recorded signals.
func (r *Recorder) Signals() []Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Signal(nil), r.signals...)
}

// Names returns the recorded signal names in emission order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.signals))
	for i, s := range r.signals {
		names[i] = s.Name
	}
	return names
}
