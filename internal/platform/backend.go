package platform

import "errors"

var (
	// ErrWindowNotFound is returned when no window matches a requested name.
	ErrWindowNotFound = errors.New("window not found")
	// ErrNoMonitor is returned when a window is not on any known display.
	ErrNoMonitor = errors.New("no monitor hosts the window")
	// ErrUnsupported is returned by backends on platforms without an implementation.
	ErrUnsupported = errors.New("platform not supported")
)

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the point lies inside r.
func (r Rect) Contains(p Position) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Display describes a physical display.
type Display struct {
	ID     int
	Name   string
	Bounds Rect
}

// Size is a window size in physical pixels.
type Size struct {
	Width  int
	Height int
}

// Position is a window's top-left corner in physical pixels. Coordinates may
// be negative on multi-monitor layouts.
type Position struct {
	X int
	Y int
}

// Window is a handle to a named top-level window.
type Window interface {
	Name() string
	Position() (Position, error)
	Size() (Size, error)
	SetPosition(p Position) error
	SetSize(s Size) error
	// Monitor returns the display containing the window's center.
	Monitor() (Display, error)
	Close() error
}

// Pointer reads the current cursor location.
type Pointer interface {
	PointerPosition() (Position, error)
}

// ForegroundSource resolves the process owning the focused window. ok is false
// when there is no focused window or its process cannot be resolved.
type ForegroundSource interface {
	ForegroundProcess() (name string, ok bool)
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	Pointer
	ForegroundSource
	// Window looks up a top-level window by name. It returns an error
	// wrapping ErrWindowNotFound when nothing matches.
	Window(name string) (Window, error)
	Displays() ([]Display, error)
}

// DisplayForRect returns the display containing the center of r.
func DisplayForRect(displays []Display, r Rect) (Display, bool) {
	center := Position{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
	for _, d := range displays {
		if d.Bounds.Contains(center) {
			return d, true
		}
	}
	return Display{}, false
}
