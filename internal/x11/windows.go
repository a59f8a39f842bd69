package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Geometry is a window's outer rectangle in root coordinates.
type Geometry struct {
	X      int
	Y      int
	Width  int
	Height int
}

// FindWindow returns the first managed client whose title, WM_CLASS instance
// or WM_CLASS class equals name.
func (c *Connection) FindWindow(name string) (xproto.Window, bool, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to list clients: %w", err)
	}

	for _, windowID := range clients {
		if c.windowMatches(windowID, name) {
			return windowID, true, nil
		}
	}
	return 0, false, nil
}

func (c *Connection) windowMatches(windowID xproto.Window, name string) bool {
	if title, err := ewmh.WmNameGet(c.XUtil, windowID); err == nil && strings.TrimSpace(title) == name {
		return true
	}
	if title, err := icccm.WmNameGet(c.XUtil, windowID); err == nil && strings.TrimSpace(title) == name {
		return true
	}
	if class, err := icccm.WmClassGet(c.XUtil, windowID); err == nil {
		if class.Instance == name || class.Class == name {
			return true
		}
	}
	return false
}

// WindowGeometry returns the window's position relative to the root window
// and its size.
func (c *Connection) WindowGeometry(windowID xproto.Window) (Geometry, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return Geometry{}, fmt.Errorf("failed to get geometry: %w", err)
	}

	translate, err := xproto.TranslateCoordinates(
		c.XUtil.Conn(),
		windowID,
		c.Root,
		0, 0,
	).Reply()
	if err != nil {
		return Geometry{}, fmt.Errorf("failed to translate coordinates: %w", err)
	}

	return Geometry{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// MoveWindow moves a window without changing its size.
func (c *Connection) MoveWindow(windowID xproto.Window, x, y int) error {
	// EWMH first for WM compatibility.
	if err := ewmh.MoveWindow(c.XUtil, windowID, x, y); err != nil {
		xwindow.New(c.XUtil, windowID).Move(x, y)
	}
	return nil
}

// ResizeWindow resizes a window without moving it.
func (c *Connection) ResizeWindow(windowID xproto.Window, width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("invalid size %dx%d", width, height)
	}
	if err := ewmh.ResizeWindow(c.XUtil, windowID, width, height); err != nil {
		xwindow.New(c.XUtil, windowID).Resize(width, height)
	}
	return nil
}

// CloseWindow requests graceful window close via WM_DELETE_WINDOW.
func (c *Connection) CloseWindow(windowID xproto.Window) error {
	deleteReply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len("WM_DELETE_WINDOW")), "WM_DELETE_WINDOW").Reply()
	if err != nil {
		return err
	}
	protocolsReply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len("WM_PROTOCOLS")), "WM_PROTOCOLS").Reply()
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   protocolsReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(deleteReply.Atom), 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		windowID,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
}

// GetActiveWindow returns the window holding input focus per _NET_ACTIVE_WINDOW.
func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// WindowPID returns the _NET_WM_PID of a window.
func (c *Connection) WindowPID(windowID xproto.Window) (int, error) {
	pid, err := ewmh.WmPidGet(c.XUtil, windowID)
	if err != nil {
		return 0, err
	}
	return int(pid), nil
}
