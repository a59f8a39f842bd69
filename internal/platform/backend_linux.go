//go:build linux

package platform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/1broseidon/quack/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/shirou/gopsutil/process"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
	// nameOf resolves a pid to its command name.
	nameOf processNamer
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn, nameOf: systemProcessName}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh
// X11 connection to display (empty means $DISPLAY).
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxBackend(conn), nil
}

// NewNativeBackend returns the backend for the current operating system
// together with its cleanup function.
func NewNativeBackend(display string) (Backend, func(), error) {
	b, err := NewLinuxBackendFromDisplay(display)
	if err != nil {
		return nil, func() {}, err
	}
	return b, b.Disconnect, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// QuitEventLoop stops a running EventLoop.
func (b *LinuxBackend) QuitEventLoop() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// Displays returns all active displays.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.GetMonitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, Display{
			ID:     m.ID,
			Name:   m.Name,
			Bounds: Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height},
		})
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})

	return displays, nil
}

// Window looks up a managed client by title or WM_CLASS.
func (b *LinuxBackend) Window(name string) (Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	id, ok, err := conn.FindWindow(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrWindowNotFound)
	}
	return &x11Window{backend: b, id: id, name: name}, nil
}

// PointerPosition returns the cursor location in root coordinates.
func (b *LinuxBackend) PointerPosition() (Position, error) {
	conn, err := b.connection()
	if err != nil {
		return Position{}, err
	}
	x, y, err := conn.QueryPointer()
	if err != nil {
		return Position{}, err
	}
	return Position{X: x, Y: y}, nil
}

// ForegroundProcess resolves the command name of the process owning
// _NET_ACTIVE_WINDOW.
func (b *LinuxBackend) ForegroundProcess() (string, bool) {
	conn, err := b.connection()
	if err != nil {
		return "", false
	}

	active, err := conn.GetActiveWindow()
	if err != nil || active == 0 {
		return "", false
	}

	pid, err := conn.WindowPID(active)
	if err != nil || pid <= 0 {
		return "", false
	}

	return processName(b.nameOf, pid)
}

type processNamer func(pid int32) (string, error)

func systemProcessName(pid int32) (string, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return "", err
	}
	return proc.Name()
}

func processName(lookup processNamer, pid int) (string, bool) {
	if lookup == nil {
		lookup = systemProcessName
	}
	name, err := lookup(int32(pid))
	if err != nil {
		return "", false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	return name, true
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

type x11Window struct {
	backend *LinuxBackend
	id      xproto.Window
	name    string
}

func (w *x11Window) Name() string { return w.name }

func (w *x11Window) Position() (Position, error) {
	geom, err := w.backend.conn.WindowGeometry(w.id)
	if err != nil {
		return Position{}, err
	}
	return Position{X: geom.X, Y: geom.Y}, nil
}

func (w *x11Window) Size() (Size, error) {
	geom, err := w.backend.conn.WindowGeometry(w.id)
	if err != nil {
		return Size{}, err
	}
	return Size{Width: geom.Width, Height: geom.Height}, nil
}

func (w *x11Window) SetPosition(p Position) error {
	return w.backend.conn.MoveWindow(w.id, p.X, p.Y)
}

func (w *x11Window) SetSize(s Size) error {
	return w.backend.conn.ResizeWindow(w.id, s.Width, s.Height)
}

func (w *x11Window) Monitor() (Display, error) {
	geom, err := w.backend.conn.WindowGeometry(w.id)
	if err != nil {
		return Display{}, err
	}
	displays, err := w.backend.Displays()
	if err != nil {
		return Display{}, err
	}
	d, ok := DisplayForRect(displays, Rect{X: geom.X, Y: geom.Y, Width: geom.Width, Height: geom.Height})
	if !ok {
		return Display{}, fmt.Errorf("%q: %w", w.name, ErrNoMonitor)
	}
	return d, nil
}

func (w *x11Window) Close() error {
	return w.backend.conn.CloseWindow(w.id)
}
