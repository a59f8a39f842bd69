package platform

import (
	"errors"
	"fmt"
	"sync"
)

// errInjected is returned by MemoryWindow operations armed to fail.
var errInjected = errors.New("injected failure")

// MemoryBackend is an in-process desktop: a fixed set of displays, named
// windows, a pointer and a foreground process. The daemon uses it in
// headless mode and tests use it as a fake.
type MemoryBackend struct {
	mu         sync.Mutex
	displays   []Display
	windows    map[string]*MemoryWindow
	pointer    Position
	pointerErr error
	foreground []string
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend creates a backend with the given displays. With no
// displays a single 1920x1080 display is assumed.
func NewMemoryBackend(displays ...Display) *MemoryBackend {
	if len(displays) == 0 {
		displays = []Display{{ID: 0, Name: "memory-0", Bounds: Rect{Width: 1920, Height: 1080}}}
	}
	return &MemoryBackend{
		displays: displays,
		windows:  make(map[string]*MemoryWindow),
	}
}

// AddWindow registers a window and returns it.
func (b *MemoryBackend) AddWindow(name string, pos Position, size Size) *MemoryWindow {
	w := &MemoryWindow{backend: b, name: name, pos: pos, size: size}
	b.mu.Lock()
	b.windows[name] = w
	b.mu.Unlock()
	return w
}

// Window implements Backend.
func (b *MemoryBackend) Window(name string) (Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[name]
	if !ok || w.closed {
		return nil, fmt.Errorf("%q: %w", name, ErrWindowNotFound)
	}
	return w, nil
}

// Displays implements Backend.
func (b *MemoryBackend) Displays() ([]Display, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Display, len(b.displays))
	copy(out, b.displays)
	return out, nil
}

// SetPointer moves the simulated cursor.
func (b *MemoryBackend) SetPointer(p Position) {
	b.mu.Lock()
	b.pointer = p
	b.pointerErr = nil
	b.mu.Unlock()
}

// FailPointer makes pointer reads fail until the next SetPointer.
func (b *MemoryBackend) FailPointer(err error) {
	b.mu.Lock()
	b.pointerErr = err
	b.mu.Unlock()
}

// PointerPosition implements Pointer.
func (b *MemoryBackend) PointerPosition() (Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pointer, b.pointerErr
}

// QueueForeground appends names returned by successive ForegroundProcess
// calls. An empty string in the queue means "no foreground window". Once the
// queue has a single entry left it keeps returning it.
func (b *MemoryBackend) QueueForeground(names ...string) {
	b.mu.Lock()
	b.foreground = append(b.foreground, names...)
	b.mu.Unlock()
}

// ForegroundProcess implements ForegroundSource.
func (b *MemoryBackend) ForegroundProcess() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.foreground) == 0 {
		return "", false
	}
	name := b.foreground[0]
	if len(b.foreground) > 1 {
		b.foreground = b.foreground[1:]
	}
	return name, name != ""
}

// MemoryWindow is a window owned by a MemoryBackend. It records every
// geometry write so callers can inspect animation frames.
type MemoryWindow struct {
	backend *MemoryBackend
	name    string
	pos     Position
	size    Size
	closed  bool

	sizes     []Size
	positions []Position

	failSetSize     int
	failSetPosition int
	failPosition    int
	failSize        int
	// OnSetPosition, when set, runs after every successful SetPosition while
	// no lock is held.
	OnSetPosition func(Position)
}

// Name implements Window.
func (w *MemoryWindow) Name() string { return w.name }

// Position implements Window.
func (w *MemoryWindow) Position() (Position, error) {
	w.backend.mu.Lock()
	defer w.backend.mu.Unlock()
	if w.failPosition > 0 {
		w.failPosition--
		return Position{}, errInjected
	}
	return w.pos, nil
}

// Size implements Window.
func (w *MemoryWindow) Size() (Size, error) {
	w.backend.mu.Lock()
	defer w.backend.mu.Unlock()
	if w.failSize > 0 {
		w.failSize--
		return Size{}, errInjected
	}
	return w.size, nil
}

// SetPosition implements Window.
func (w *MemoryWindow) SetPosition(p Position) error {
	w.backend.mu.Lock()
	if w.failSetPosition > 0 {
		w.failSetPosition--
		w.backend.mu.Unlock()
		return errInjected
	}
	w.pos = p
	w.positions = append(w.positions, p)
	hook := w.OnSetPosition
	w.backend.mu.Unlock()

	if hook != nil {
		hook(p)
	}
	return nil
}

// SetSize implements Window.
func (w *MemoryWindow) SetSize(s Size) error {
	w.backend.mu.Lock()
	defer w.backend.mu.Unlock()
	if w.failSetSize > 0 {
		w.failSetSize--
		return errInjected
	}
	w.size = s
	w.sizes = append(w.sizes, s)
	return nil
}

// Monitor implements Window.
func (w *MemoryWindow) Monitor() (Display, error) {
	w.backend.mu.Lock()
	rect := Rect{X: w.pos.X, Y: w.pos.Y, Width: w.size.Width, Height: w.size.Height}
	displays := w.backend.displays
	w.backend.mu.Unlock()

	if d, ok := DisplayForRect(displays, rect); ok {
		return d, nil
	}
	return Display{}, fmt.Errorf("%q: %w", w.name, ErrNoMonitor)
}

// Close implements Window.
func (w *MemoryWindow) Close() error {
	w.backend.mu.Lock()
	w.closed = true
	w.backend.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (w *MemoryWindow) Closed() bool {
	w.backend.mu.Lock()
	defer w.backend.mu.Unlock()
	return w.closed
}

// SizeHistory returns every size applied through SetSize.
func (w *MemoryWindow) SizeHistory() []Size {
	w.backend.mu.Lock()
	defer w.backend.mu.Unlock()
	return append([]Size(nil), w.sizes...)
}

// PositionHistory returns every position applied through SetPosition.
func (w *MemoryWindow) PositionHistory() []Position {
	w.backend.mu.Lock()
	defer w.backend.mu.Unlock()
	return append([]Position(nil), w.positions...)
}

// FailNextSetSize makes the next n SetSize calls fail.
func (w *MemoryWindow) FailNextSetSize(n int) {
	w.backend.mu.Lock()
	w.failSetSize = n
	w.backend.mu.Unlock()
}

// FailNextSetPosition makes the next n SetPosition calls fail.
func (w *MemoryWindow) FailNextSetPosition(n int) {
	w.backend.mu.Lock()
	w.failSetPosition = n
	w.backend.mu.Unlock()
}

// FailNextPosition makes the next n Position reads fail.
func (w *MemoryWindow) FailNextPosition(n int) {
	w.backend.mu.Lock()
	w.failPosition = n
	w.backend.mu.Unlock()
}

// FailNextSize makes the next n Size reads fail.
func (w *MemoryWindow) FailNextSize(n int) {
	w.backend.mu.Lock()
	w.failSize = n
	w.backend.mu.Unlock()
}
